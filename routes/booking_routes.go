package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/controllers"
	"github.com/HSouheill/carrental_backend/middleware"
)

// RegisterBookingRoutes sets up customer bookings and the staff booking desk.
func RegisterBookingRoutes(e *echo.Echo, bookingController *controllers.BookingController) {
	bookings := e.Group("/api/bookings", middleware.RequireAuth())
	bookings.POST("", bookingController.CreateBooking)
	bookings.GET("/mine", bookingController.GetUserBookings)
	bookings.POST("/:id/cancel", bookingController.CancelBooking)

	adminBookings := e.Group("/api/admin/bookings", middleware.RequireStaff())
	adminBookings.GET("", bookingController.GetAllBookingsForAdmin)
	adminBookings.PATCH("/:id/status", bookingController.UpdateBookingStatus)
}
