package realtime

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/models"
)

const writeWait = 10 * time.Second

// ServeWebSocket upgrades the request and streams the same events as JSON
// text frames. Control pings are sent at the keep-alive cadence.
func (s *Streamer) ServeWebSocket(c echo.Context, identity models.Identity) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written an error response.
		s.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	sub := s.hub.Register(identity)
	defer s.hub.Unregister(sub)

	if err := conn.WriteJSON(connectedEvent()); err != nil {
		return nil
	}
	sub.Open()

	// Read loop only detects disconnects; client messages are ignored.
	go func() {
		defer s.hub.Unregister(sub)
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-sub.Done():
			return nil
		case payload := <-sub.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		}
	}
}

// checkOrigin accepts same-host requests and any configured CORS origin.
func (s *Streamer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
