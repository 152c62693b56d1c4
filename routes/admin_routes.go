package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/controllers"
	"github.com/HSouheill/carrental_backend/middleware"
	"github.com/HSouheill/carrental_backend/models"
)

// RegisterAdminRoutes sets up user administration. Category, car and booking
// administration live with their resources.
func RegisterAdminRoutes(e *echo.Echo, adminController *controllers.AdminController) {
	users := e.Group("/api/admin/users")

	users.GET("", adminController.GetAllUsers, middleware.RequireStaff())
	users.POST("", adminController.ProvisionUser, middleware.RequireRoles(models.RoleAdmin))
	users.PATCH("/:id/status", adminController.UpdateUserStatus, middleware.RequireRoles(models.RoleAdmin, models.RoleManager))
	users.PATCH("/:id/role", adminController.UpdateUserRole, middleware.RequireRoles(models.RoleAdmin))
}
