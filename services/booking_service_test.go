package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/utils"
)

func (f *fixture) day(offset int) string {
	return utils.TruncateDay(f.clock.Now()).AddDate(0, 0, offset).Format("2006-01-02")
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.seedUser(t, "c@example.com", "customer", "active").Identity()
	manager := f.seedUser(t, "m@example.com", "manager", "active").Identity()
	car := f.seedCar(t, 45.5, true)

	booking, err := f.bookings.Create(ctx, customer, models.BookingRequest{
		CarID: car.ID.Hex(), StartDate: f.day(2), EndDate: f.day(5),
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, 3, booking.Days)
	assert.InDelta(t, 136.5, booking.TotalPrice, 0.001)

	notes, err := f.notifications.List(ctx, manager)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationBookingCreated, notes[0].Type)
	assert.Equal(t, "/admin/bookings/"+booking.ID.Hex(), notes[0].ActionURL)
	assert.Equal(t, booking.ID, *notes[0].BookingID)

	mine, err := f.bookings.ListMine(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.seedUser(t, "c@example.com", "customer", "active").Identity()
	car := f.seedCar(t, 30, true)
	unavailable := f.seedCar(t, 30, false)

	tests := []struct {
		name string
		req  models.BookingRequest
		kind apperrors.Kind
	}{
		{"start in the past", models.BookingRequest{CarID: car.ID.Hex(), StartDate: f.day(-1), EndDate: f.day(2)}, apperrors.KindValidation},
		{"end before start", models.BookingRequest{CarID: car.ID.Hex(), StartDate: f.day(3), EndDate: f.day(3)}, apperrors.KindValidation},
		{"bad date", models.BookingRequest{CarID: car.ID.Hex(), StartDate: "tomorrow", EndDate: f.day(3)}, apperrors.KindValidation},
		{"unknown car", models.BookingRequest{CarID: "5f1b2c3d4e5f6a7b8c9d0e1f", StartDate: f.day(1), EndDate: f.day(3)}, apperrors.KindNotFound},
		{"unavailable car", models.BookingRequest{CarID: unavailable.ID.Hex(), StartDate: f.day(1), EndDate: f.day(3)}, apperrors.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bookings.Create(ctx, customer, tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestCreateBookingRejectsOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "a@example.com", "customer", "active").Identity()
	bob := f.seedUser(t, "b@example.com", "customer", "active").Identity()
	car := f.seedCar(t, 30, true)

	_, err := f.bookings.Create(ctx, alice, models.BookingRequest{CarID: car.ID.Hex(), StartDate: f.day(2), EndDate: f.day(6)})
	require.NoError(t, err)

	_, err = f.bookings.Create(ctx, bob, models.BookingRequest{CarID: car.ID.Hex(), StartDate: f.day(5), EndDate: f.day(8)})
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	_, err = f.bookings.Create(ctx, bob, models.BookingRequest{CarID: car.ID.Hex(), StartDate: f.day(6), EndDate: f.day(8)})
	assert.NoError(t, err, "end date is exclusive")
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.seedUser(t, "a@example.com", "customer", "active").Identity()
	other := f.seedUser(t, "b@example.com", "customer", "active").Identity()
	car := f.seedCar(t, 30, true)

	booking, err := f.bookings.Create(ctx, owner, models.BookingRequest{CarID: car.ID.Hex(), StartDate: f.day(2), EndDate: f.day(4)})
	require.NoError(t, err)

	_, err = f.bookings.Cancel(ctx, other, booking.ID.Hex())
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	cancelled, err := f.bookings.Cancel(ctx, owner, booking.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)

	_, err = f.bookings.Cancel(ctx, owner, booking.ID.Hex())
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	_, err = f.bookings.Create(ctx, other, models.BookingRequest{CarID: car.ID.Hex(), StartDate: f.day(2), EndDate: f.day(4)})
	assert.NoError(t, err, "cancelled bookings free the car")
}

func TestCancelStartedBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.seedUser(t, "a@example.com", "customer", "active").Identity()
	car := f.seedCar(t, 30, true)

	booking, err := f.bookings.Create(ctx, owner, models.BookingRequest{CarID: car.ID.Hex(), StartDate: f.day(1), EndDate: f.day(4)})
	require.NoError(t, err)

	f.clock.Advance(48 * time.Hour)
	_, err = f.bookings.Cancel(ctx, owner, booking.ID.Hex())
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestUpdateBookingStatusNotifiesOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.seedUser(t, "a@example.com", "customer", "active")
	car := f.seedCar(t, 30, true)

	booking, err := f.bookings.Create(ctx, owner.Identity(), models.BookingRequest{CarID: car.ID.Hex(), StartDate: f.day(1), EndDate: f.day(2)})
	require.NoError(t, err)

	confirmed, err := f.bookings.UpdateStatus(ctx, booking.ID.Hex(), "confirmed")
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, confirmed.Status)

	_, err = f.bookings.UpdateStatus(ctx, booking.ID.Hex(), "pending")
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	notes, err := f.notifications.List(ctx, owner.Identity())
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "booking_confirmed", notes[0].Type)
	assert.Equal(t, "/account/bookings", notes[0].ActionURL)

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@example.com", sent[0].To)

	all, err := f.bookings.List(ctx, "confirmed")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.bookings.List(ctx, "lost")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}
