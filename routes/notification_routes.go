package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/controllers"
	"github.com/HSouheill/carrental_backend/middleware"
	"github.com/HSouheill/carrental_backend/models"
)

// RegisterNotificationRoutes registers all notification-related routes
func RegisterNotificationRoutes(e *echo.Echo, notificationController *controllers.NotificationController) {
	notifications := e.Group("/api/notifications", middleware.RequireAuth())

	notifications.GET("", notificationController.List)
	notifications.POST("", notificationController.Create, middleware.RequireRoles(models.RoleAdmin, models.RoleManager))
	notifications.GET("/unread-count", notificationController.UnreadCount)
	notifications.PATCH("/read-all", notificationController.MarkAllRead)
	notifications.PATCH("/:id/read", notificationController.MarkRead)

	// Live delivery
	notifications.GET("/stream", notificationController.Stream)
	notifications.GET("/ws", notificationController.WebSocket)
}
