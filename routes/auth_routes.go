package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/controllers"
	"github.com/HSouheill/carrental_backend/middleware"
)

// RegisterAuthRoutes sets up the session and password routes. The session
// check and logout work with or without a valid session.
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController, passwordController *controllers.PasswordController) {
	auth := e.Group("/api/auth")

	auth.GET("/session", authController.Session)
	auth.DELETE("/session", authController.Logout)
	auth.POST("/login", authController.Login)
	auth.POST("/register", authController.Register)
	auth.POST("/logout-all", authController.LogoutAll, middleware.RequireAuth())

	auth.POST("/password/forgot", passwordController.ForgetPassword)
	auth.POST("/password/reset", passwordController.ResetPassword)
}
