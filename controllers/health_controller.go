package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

type HealthController struct {
	db      Pinger
	version string
	logger  *zap.Logger
}

func NewHealthController(db Pinger, version string, logger *zap.Logger) *HealthController {
	return &HealthController{db: db, version: version, logger: logger}
}

func (hc *HealthController) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Car rental backend is running",
		"version": hc.version,
	})
}

// Health pings the database. HEAD requests get the status code only.
func (hc *HealthController) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status, body := http.StatusOK, map[string]string{"status": "healthy", "database": "connected"}
	if err := hc.db.Ping(ctx, readpref.Primary()); err != nil {
		hc.logger.Warn("Health check failed", zap.Error(err))
		status, body = http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "unreachable"}
	}

	if c.Request().Method == http.MethodHead {
		return c.NoContent(status)
	}
	return c.JSON(status, body)
}
