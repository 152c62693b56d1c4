package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/controllers"
	"github.com/HSouheill/carrental_backend/middleware"
)

// RegisterUserRoutes sets up the account area of the signed-in user.
func RegisterUserRoutes(e *echo.Echo, userController *controllers.UserController, passwordController *controllers.PasswordController) {
	me := e.Group("/api/users/me", middleware.RequireAuth())

	me.GET("", userController.GetProfile)
	me.PATCH("", userController.UpdateProfile)
	me.PATCH("/password", passwordController.ChangePassword)
	me.GET("/sessions", userController.GetSessions)
}
