package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/controllers"
)

// Handlers bundles the controllers the router dispatches to.
type Handlers struct {
	Auth         *controllers.AuthController
	Password     *controllers.PasswordController
	User         *controllers.UserController
	Admin        *controllers.AdminController
	Notification *controllers.NotificationController
	Category     *controllers.CategoryController
	Car          *controllers.CarController
	Favorite     *controllers.FavoriteController
	Booking      *controllers.BookingController
	Health       *controllers.HealthController
	Metrics      http.Handler
}

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, h Handlers) {
	e.Match([]string{http.MethodGet, http.MethodHead}, "/", h.Health.Root)
	e.Match([]string{http.MethodGet, http.MethodHead}, "/health", h.Health.Health)
	if h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.Metrics))
	}

	RegisterAuthRoutes(e, h.Auth, h.Password)
	RegisterUserRoutes(e, h.User, h.Password)
	RegisterNotificationRoutes(e, h.Notification)
	RegisterCategoryRoutes(e, h.Category)
	RegisterCarRoutes(e, h.Car, h.Favorite)
	RegisterBookingRoutes(e, h.Booking)
	RegisterAdminRoutes(e, h.Admin)
}
