package controllers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/realtime"
	"github.com/HSouheill/carrental_backend/services"
)

type NotificationController struct {
	notifications *services.NotificationService
	streamer      *realtime.Streamer
	logger        *zap.Logger
}

func NewNotificationController(notifications *services.NotificationService, streamer *realtime.Streamer, logger *zap.Logger) *NotificationController {
	return &NotificationController{
		notifications: notifications,
		streamer:      streamer,
		logger:        logger.Named("notifications"),
	}
}

// List returns the newest notifications visible to the caller.
func (nc *NotificationController) List(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := nc.notifications.List(ctx, identity)
	if err != nil {
		return err
	}
	return respondOK(c, list)
}

// Create sends a notification to a user, a role, or both.
func (nc *NotificationController) Create(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req models.CreateNotificationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := services.NotificationInput{
		Role:      models.Role(req.Role),
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		ActionURL: req.ActionURL,
		Email:     req.Email,
		SMS:       req.SMS,
	}
	if in.UserID, err = optionalID(req.UserID, "userId"); err != nil {
		return err
	}
	if in.BookingID, err = optionalID(req.BookingID, "bookingId"); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	n, res, err := nc.notifications.Create(ctx, in)
	if err != nil {
		return err
	}
	nc.logger.Info("Notification created",
		zap.String("notification_id", n.ID.Hex()),
		zap.String("sender_id", identity.ID()),
		zap.Int("delivered", res.Delivered),
		zap.String("outcome", string(res.Outcome)),
	)

	return c.JSON(http.StatusCreated, models.CreatedResponse{OK: true, ID: n.ID.Hex()})
}

// MarkRead flags one of the caller's notifications as read. Notifications
// the caller cannot see are not found.
func (nc *NotificationController) MarkRead(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if _, err := nc.notifications.MarkRead(ctx, identity, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{OK: true})
}

func (nc *NotificationController) MarkAllRead(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	updated, err := nc.notifications.MarkAllRead(ctx, identity)
	if err != nil {
		return err
	}
	return respondOK(c, map[string]int64{"updated": updated})
}

func (nc *NotificationController) UnreadCount(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	count, err := nc.notifications.UnreadCount(ctx, identity)
	if err != nil {
		return err
	}
	return respondOK(c, map[string]int64{"count": count})
}

// Stream holds an SSE connection open for the caller.
func (nc *NotificationController) Stream(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return nc.streamer.ServeSSE(c, identity)
}

// WebSocket serves the same events over a WebSocket connection.
func (nc *NotificationController) WebSocket(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return nc.streamer.ServeWebSocket(c, identity)
}

func optionalID(hex, field string) (*primitive.ObjectID, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, apperrors.Validation(field + " is invalid")
	}
	return &id, nil
}
