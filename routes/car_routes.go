package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/controllers"
	"github.com/HSouheill/carrental_backend/middleware"
	"github.com/HSouheill/carrental_backend/models"
)

// RegisterCarRoutes sets up the catalogue and the caller's favorites.
func RegisterCarRoutes(e *echo.Echo, carController *controllers.CarController, favoriteController *controllers.FavoriteController) {
	e.GET("/api/cars", carController.ListCars)
	e.GET("/api/cars/:id", carController.GetCar)

	adminCars := e.Group("/api/admin/cars")
	adminCars.POST("", carController.CreateCar, middleware.RequireStaff())
	adminCars.PUT("/:id", carController.UpdateCar, middleware.RequireStaff())
	adminCars.DELETE("/:id", carController.ArchiveCar, middleware.RequireRoles(models.RoleAdmin, models.RoleManager))

	favorites := e.Group("/api/favorites", middleware.RequireAuth())
	favorites.GET("", favoriteController.List)
	favorites.POST("", favoriteController.Add)
	favorites.DELETE("/:carId", favoriteController.Remove)
}
