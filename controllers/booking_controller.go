package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/services"
)

type BookingController struct {
	bookings *services.BookingService
	logger   *zap.Logger
}

func NewBookingController(bookings *services.BookingService, logger *zap.Logger) *BookingController {
	return &BookingController{bookings: bookings, logger: logger.Named("bookings")}
}

// CreateBooking reserves a car for whole days. Staff are notified.
func (bc *BookingController) CreateBooking(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req models.BookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	booking, err := bc.bookings.Create(ctx, identity, req)
	if err != nil {
		return err
	}
	bc.logger.Info("Booking created",
		zap.String("booking_id", booking.ID.Hex()),
		zap.String("user_id", identity.ID()),
		zap.String("car_id", booking.CarID.Hex()),
	)

	return c.JSON(http.StatusCreated, models.Response{
		OK:      true,
		Message: "Booking created successfully",
		Data:    booking,
	})
}

// GetUserBookings lists the caller's bookings, newest first.
func (bc *BookingController) GetUserBookings(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	bookings, err := bc.bookings.ListMine(ctx, identity)
	if err != nil {
		return err
	}
	return respondOK(c, bookings)
}

// CancelBooking lets the owner cancel before the rental starts.
func (bc *BookingController) CancelBooking(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	booking, err := bc.bookings.Cancel(ctx, identity, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{
		OK:      true,
		Message: "Booking cancelled",
		Data:    booking,
	})
}

// GetAllBookingsForAdmin lists bookings, optionally filtered by ?status=.
func (bc *BookingController) GetAllBookingsForAdmin(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	bookings, err := bc.bookings.List(ctx, c.QueryParam("status"))
	if err != nil {
		return err
	}
	return respondOK(c, bookings)
}

// UpdateBookingStatus moves a booking along its lifecycle and tells the owner.
func (bc *BookingController) UpdateBookingStatus(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req models.BookingStatusUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	booking, err := bc.bookings.UpdateStatus(ctx, c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	bc.logger.Info("Booking status updated",
		zap.String("booking_id", booking.ID.Hex()),
		zap.String("status", string(booking.Status)),
		zap.String("staff_id", identity.ID()),
	)
	return respondOK(c, booking)
}
