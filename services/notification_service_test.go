package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/realtime"
)

func TestCreateRequiresTarget(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.notifications.Create(context.Background(), NotificationInput{
		Type: "broadcast", Title: "Hi", Message: "Hello",
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Empty(t, f.store.All())
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.notifications.Create(context.Background(), NotificationInput{
		Role: "janitor", Type: "broadcast", Title: "Hi", Message: "Hello",
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestVisibilityByUserAndRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	manager := f.seedUser(t, "m@example.com", "Manager", "active").Identity()
	other := f.seedUser(t, "o@example.com", "customer", "active").Identity()
	managerID, _ := primitive.ObjectIDFromHex(manager.ID())

	_, _, err := f.notifications.Create(ctx, NotificationInput{Role: "MANAGER", Type: "booking_created", Title: "New", Message: "Booking"})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, _, err = f.notifications.Create(ctx, NotificationInput{UserID: &managerID, Type: "account_status", Title: "Direct", Message: "For you"})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, _, err = f.notifications.Create(ctx, NotificationInput{Role: models.RoleAdmin, Type: "broadcast", Title: "Admins", Message: "Only"})
	require.NoError(t, err)

	items, err := f.notifications.List(ctx, manager)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Direct", items[0].Title, "newest first")
	assert.Equal(t, "New", items[1].Title)

	items, err = f.notifications.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, items)

	count, err := f.notifications.UnreadCount(ctx, manager)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestListIsLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "jane@example.com", "customer", "active")
	for i := 0; i < 35; i++ {
		_, _, err := f.notifications.Create(ctx, NotificationInput{UserID: &user.ID, Type: "broadcast", Title: "t", Message: "m"})
		require.NoError(t, err)
		f.clock.Advance(time.Millisecond)
	}

	items, err := f.notifications.List(ctx, user.Identity())
	require.NoError(t, err)
	assert.Len(t, items, 30)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "jane@example.com", "customer", "active")
	n, _, err := f.notifications.Create(ctx, NotificationInput{UserID: &user.ID, Type: "broadcast", Title: "t", Message: "m"})
	require.NoError(t, err)

	first, err := f.notifications.MarkRead(ctx, user.Identity(), n.ID.Hex())
	require.NoError(t, err)
	require.True(t, first.Read)
	require.NotNil(t, first.ReadAt)

	f.clock.Advance(time.Hour)
	second, err := f.notifications.MarkRead(ctx, user.Identity(), n.ID.Hex())
	require.NoError(t, err)
	assert.True(t, second.Read)
	assert.Equal(t, *first.ReadAt, *second.ReadAt, "readAt keeps the first read time")
}

func TestMarkReadHidesOtherUsersNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com", "customer", "active")
	intruder := f.seedUser(t, "intruder@example.com", "customer", "active")
	n, _, err := f.notifications.Create(ctx, NotificationInput{UserID: &owner.ID, Type: "broadcast", Title: "t", Message: "m"})
	require.NoError(t, err)

	_, err = f.notifications.MarkRead(ctx, intruder.Identity(), n.ID.Hex())
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	_, err = f.notifications.MarkRead(ctx, intruder.Identity(), primitive.NewObjectID().Hex())
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	_, err = f.notifications.MarkRead(ctx, intruder.Identity(), "not-an-id")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	stored, ok := f.store.Get(n.ID)
	require.True(t, ok)
	assert.False(t, stored.Read)
	assert.Nil(t, stored.ReadAt)
}

func TestMarkAllRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "jane@example.com", "customer", "active")
	for i := 0; i < 3; i++ {
		_, _, err := f.notifications.Create(ctx, NotificationInput{UserID: &user.ID, Type: "broadcast", Title: "t", Message: "m"})
		require.NoError(t, err)
	}

	n, err := f.notifications.MarkAllRead(ctx, user.Identity())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	count, err := f.notifications.UnreadCount(ctx, user.Identity())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreatePushesToLiveStream(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "jane@example.com", "customer", "active")
	sub := f.hub.Register(user.Identity())
	defer f.hub.Unregister(sub)

	n, res, err := f.notifications.Create(ctx, NotificationInput{UserID: &user.ID, Type: "broadcast", Title: "t", Message: "m"})
	require.NoError(t, err)
	assert.Equal(t, realtime.Delivered, res.Outcome)
	assert.Equal(t, 1, res.Delivered)

	select {
	case payload := <-sub.Send():
		assert.Contains(t, string(payload), realtime.EventNotificationNew)
		assert.Contains(t, string(payload), n.ID.Hex())
	default:
		t.Fatal("no event pushed")
	}

	stored, ok := f.store.Get(n.ID)
	require.True(t, ok)
	assert.True(t, stored.Delivery.Realtime)
}

func TestCreateWithoutLiveStreamStillPersists(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "jane@example.com", "customer", "active")

	n, res, err := f.notifications.Create(context.Background(), NotificationInput{UserID: &user.ID, Type: "broadcast", Title: "t", Message: "m"})
	require.NoError(t, err)
	assert.Equal(t, realtime.NoLiveConnection, res.Outcome)

	stored, ok := f.store.Get(n.ID)
	require.True(t, ok)
	assert.False(t, stored.Delivery.Realtime)
}

func TestCreateSendsEmailAndSMS(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "jane@example.com", "customer", "active")

	n, _, err := f.notifications.Create(context.Background(), NotificationInput{
		UserID: &user.ID, Type: "broadcast", Title: "Hello", Message: "World", Email: true, SMS: true,
	})
	require.NoError(t, err)

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@example.com", sent[0].To)
	assert.Equal(t, "Hello", sent[0].Subject)
	require.Len(t, f.sms.sent, 1)
	assert.Equal(t, "+96170000000|Hello: World", f.sms.sent[0])

	stored, ok := f.store.Get(n.ID)
	require.True(t, ok)
	assert.True(t, stored.Delivery.Email)
	assert.True(t, stored.Delivery.SMS)
}

func TestRoleNotificationsSkipEmail(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.notifications.Create(context.Background(), NotificationInput{
		Role: models.RoleManager, Type: "broadcast", Title: "t", Message: "m", Email: true,
	})
	require.NoError(t, err)
	assert.Empty(t, f.mailer.Sent())
}
