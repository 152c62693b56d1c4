package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/controllers"
	"github.com/HSouheill/carrental_backend/middleware"
)

// RegisterCategoryRoutes sets up all category-related routes
func RegisterCategoryRoutes(e *echo.Echo, categoryController *controllers.CategoryController) {
	// Public routes (no auth required)
	e.GET("/api/categories", categoryController.GetAllCategories)

	adminCategories := e.Group("/api/admin/categories", middleware.RequireStaff())
	adminCategories.POST("", categoryController.CreateCategory)
	adminCategories.PUT("/:id", categoryController.UpdateCategory)
	adminCategories.DELETE("/:id", categoryController.DeleteCategory)
}
