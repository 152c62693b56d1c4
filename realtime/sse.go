package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/models"
)

// DefaultKeepAlive is the ping cadence used when none is configured.
const DefaultKeepAlive = 25 * time.Second

var pingFrame = []byte(": ping\n\n")

// Streamer serves hub subscriptions over Server-Sent Events and WebSocket.
type Streamer struct {
	hub            *Hub
	keepAlive      time.Duration
	allowedOrigins []string
	logger         *zap.Logger
	upgrader       websocket.Upgrader
}

func NewStreamer(hub *Hub, keepAlive time.Duration, allowedOrigins []string, logger *zap.Logger) *Streamer {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Streamer{
		hub:            hub,
		keepAlive:      keepAlive,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func connectedEvent() Event {
	return Event{Type: EventConnected, Message: "Realtime connection established"}
}

// ServeSSE holds the request open as a text/event-stream until the client
// goes away or the subscriber is dropped. The subscriber is registered before
// the connected frame is written, so nothing published after the client sees
// that frame is missed.
func (s *Streamer) ServeSSE(c echo.Context, identity models.Identity) error {
	sub := s.hub.Register(identity)
	defer s.hub.Unregister(sub)

	w := c.Response()
	h := w.Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	hello, _ := json.Marshal(connectedEvent())
	if err := writeSSE(w, hello); err != nil {
		return nil
	}
	sub.Open()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done():
			return nil
		case payload := <-sub.Send():
			if err := writeSSE(w, payload); err != nil {
				s.logger.Debug("SSE write failed", zap.String("user_id", identity.ID()), zap.Error(err))
				return nil
			}
		case <-ticker.C:
			if _, err := w.Write(pingFrame); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func writeSSE(w *echo.Response, payload []byte) error {
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return err
	}
	w.Flush()
	return nil
}
