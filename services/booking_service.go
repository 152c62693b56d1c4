package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/repositories"
	"github.com/HSouheill/carrental_backend/utils"
)

// BookingService places and manages rentals.
type BookingService struct {
	bookings      BookingStore
	cars          CarStore
	notifications *NotificationService
	// mu serializes the overlap check and insert within this process.
	mu     sync.Mutex
	now    func() time.Time
	logger *zap.Logger
}

func NewBookingService(bookings BookingStore, cars CarStore, notifications *NotificationService, logger *zap.Logger) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		bookings:      bookings,
		cars:          cars,
		notifications: notifications,
		now:           time.Now,
		logger:        logger,
	}
}

// SetClock replaces the time source.
func (s *BookingService) SetClock(now func() time.Time) { s.now = now }

// Create books a car for [startDate, endDate). Staff are told through a
// role-targeted notification.
func (s *BookingService) Create(ctx context.Context, identity models.Identity, req models.BookingRequest) (*models.Booking, error) {
	userID, err := userObjectID(identity)
	if err != nil {
		return nil, err
	}
	carID, err := parseID(req.CarID, "Car not found")
	if err != nil {
		return nil, err
	}
	start, err := utils.ParseDate(req.StartDate)
	if err != nil {
		return nil, apperrors.Validation("startDate must be YYYY-MM-DD")
	}
	end, err := utils.ParseDate(req.EndDate)
	if err != nil {
		return nil, apperrors.Validation("endDate must be YYYY-MM-DD")
	}
	if start.Before(utils.TruncateDay(s.now())) {
		return nil, apperrors.Validation("startDate cannot be in the past")
	}
	if !end.After(start) {
		return nil, apperrors.Validation("endDate must be after startDate")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	car, err := s.cars.FindByID(ctx, carID)
	if err != nil {
		return nil, storeErr(err, "Car not found")
	}
	if car.Archived {
		return nil, apperrors.NotFound("Car not found")
	}
	if !car.Rentable() {
		return nil, apperrors.Conflict("Car is not available")
	}

	overlap, err := s.bookings.HasOverlap(ctx, carID, start, end)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if overlap {
		return nil, apperrors.Conflict("Car is already booked for these dates")
	}

	days := int(end.Sub(start).Hours() / 24)
	now := s.now().UTC()
	booking := &models.Booking{
		UserID:     userID,
		CarID:      carID,
		StartDate:  start,
		EndDate:    end,
		Days:       days,
		TotalPrice: math.Round(float64(days)*car.PricePerDay*100) / 100,
		Status:     models.BookingPending,
		Notes:      utils.SanitizeInput(req.Notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, apperrors.Internal(err)
	}

	title := "New booking"
	message := fmt.Sprintf("%s %s booked from %s to %s", car.Make, car.Model,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	for _, role := range []models.Role{models.RoleManager, models.RoleAdmin} {
		s.notifications.Notify(ctx, NotificationInput{
			Role:      role,
			BookingID: &booking.ID,
			Type:      models.NotificationBookingCreated,
			Title:     title,
			Message:   message,
			ActionURL: "/admin/bookings/" + booking.ID.Hex(),
		})
	}
	return booking, nil
}

func (s *BookingService) ListMine(ctx context.Context, identity models.Identity) ([]models.Booking, error) {
	userID, err := userObjectID(identity)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return bookings, nil
}

// List returns every booking, optionally filtered by status.
func (s *BookingService) List(ctx context.Context, status string) ([]models.Booking, error) {
	var st models.BookingStatus
	if status != "" {
		st = models.BookingStatus(status)
		switch st {
		case models.BookingPending, models.BookingConfirmed, models.BookingCancelled, models.BookingCompleted:
		default:
			return nil, apperrors.Validation("status is invalid")
		}
	}
	bookings, err := s.bookings.List(ctx, st)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return bookings, nil
}

// Cancel lets the owner cancel a booking that has not started yet. Other
// callers get NotFound.
func (s *BookingService) Cancel(ctx context.Context, identity models.Identity, id string) (*models.Booking, error) {
	bookingID, err := parseID(id, "Booking not found")
	if err != nil {
		return nil, err
	}
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, storeErr(err, "Booking not found")
	}
	if booking.UserID.Hex() != identity.ID() {
		return nil, apperrors.NotFound("Booking not found")
	}
	if !booking.Status.CanTransition(models.BookingCancelled) {
		return nil, apperrors.Conflict("Booking can no longer be cancelled")
	}
	if !utils.TruncateDay(s.now()).Before(booking.StartDate) {
		return nil, apperrors.Conflict("Booking has already started")
	}

	updated, err := s.transition(ctx, booking, models.BookingCancelled)
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, NotificationInput{
		Role:      models.RoleManager,
		BookingID: &updated.ID,
		Type:      models.BookingNotificationType(models.BookingCancelled),
		Title:     "Booking cancelled",
		Message:   "A customer cancelled booking " + updated.ID.Hex(),
		ActionURL: "/admin/bookings/" + updated.ID.Hex(),
	})
	return updated, nil
}

// UpdateStatus applies a staff decision and tells the owner.
func (s *BookingService) UpdateStatus(ctx context.Context, id string, status string) (*models.Booking, error) {
	bookingID, err := parseID(id, "Booking not found")
	if err != nil {
		return nil, err
	}
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, storeErr(err, "Booking not found")
	}

	to := models.BookingStatus(status)
	if !booking.Status.CanTransition(to) {
		return nil, apperrors.Conflict(fmt.Sprintf("Cannot move booking from %s to %s", booking.Status, to))
	}

	updated, err := s.transition(ctx, booking, to)
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, NotificationInput{
		UserID:    &updated.UserID,
		BookingID: &updated.ID,
		Type:      models.BookingNotificationType(to),
		Title:     "Booking " + string(to),
		Message:   fmt.Sprintf("Your booking from %s to %s is now %s.", updated.StartDate.Format("2006-01-02"), updated.EndDate.Format("2006-01-02"), to),
		ActionURL: "/account/bookings",
		Email:     true,
	})
	return updated, nil
}

func (s *BookingService) transition(ctx context.Context, booking *models.Booking, to models.BookingStatus) (*models.Booking, error) {
	updated, err := s.bookings.UpdateStatus(ctx, booking.ID, booking.Status, to)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.Conflict("Booking was changed by someone else")
		}
		return nil, apperrors.Internal(err)
	}
	return updated, nil
}
