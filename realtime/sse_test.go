package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/carrental_backend/models"
)

func newStreamServer(t *testing.T, keepAlive time.Duration) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil)
	streamer := NewStreamer(hub, keepAlive, nil, nil)
	id := identity("u1", "customer")

	e := echo.New()
	e.GET("/stream", func(c echo.Context) error { return streamer.ServeSSE(c, id) })
	e.GET("/ws", func(c echo.Context) error { return streamer.ServeWebSocket(c, id) })

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return hub, srv
}

// readLines forwards non-empty stream lines until the body closes.
func readLines(body *bufio.Reader) <-chan string {
	lines := make(chan string, 16)
	go func() {
		defer close(lines)
		for {
			line, err := body.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\n")
			if line != "" {
				lines <- line
			}
		}
	}()
	return lines
}

func nextLine(t *testing.T, lines <-chan string) string {
	t.Helper()
	select {
	case line, ok := <-lines:
		require.True(t, ok, "stream closed")
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream line")
		return ""
	}
}

func decodeData(t *testing.T, line string) Event {
	t.Helper()
	require.True(t, strings.HasPrefix(line, "data: "), "got %q", line)
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
	return ev
}

func TestServeSSEDeliversNotificationImmediately(t *testing.T) {
	hub, srv := newStreamServer(t, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := readLines(bufio.NewReader(resp.Body))
	assert.Equal(t, EventConnected, decodeData(t, nextLine(t, lines)).Type)

	n := &models.Notification{Type: models.NotificationAdminBroadcast, Title: "Hello", Message: "World"}
	res := hub.Publish(context.Background(), Target{UserID: "u1"}, Event{Type: EventNotificationNew, Notification: n})
	assert.Equal(t, Delivered, res.Outcome)

	ev := decodeData(t, nextLine(t, lines))
	assert.Equal(t, EventNotificationNew, ev.Type)
	require.NotNil(t, ev.Notification)
	assert.Equal(t, "Hello", ev.Notification.Title)
}

func TestServeSSESendsKeepAlive(t *testing.T) {
	_, srv := newStreamServer(t, 20*time.Millisecond)

	resp, err := http.Get(srv.URL + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := readLines(bufio.NewReader(resp.Body))
	decodeData(t, nextLine(t, lines))
	assert.Equal(t, ": ping", nextLine(t, lines))
}

func TestServeSSEUnregistersOnDisconnect(t *testing.T) {
	hub, srv := newStreamServer(t, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	lines := readLines(bufio.NewReader(resp.Body))
	nextLine(t, lines)
	assert.Equal(t, 1, hub.CountUser("u1"))

	cancel()
	resp.Body.Close()

	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServeSSEEndsWhenHubCloses(t *testing.T) {
	hub, srv := newStreamServer(t, time.Minute)

	resp, err := http.Get(srv.URL + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := readLines(bufio.NewReader(resp.Body))
	nextLine(t, lines)

	hub.Close()
	select {
	case _, ok := <-lines:
		assert.False(t, ok, "no frames after close")
	case <-time.After(2 * time.Second):
		t.Fatal("stream still open after hub close")
	}
}

func TestServeWebSocketDeliversEvents(t *testing.T) {
	hub, srv := newStreamServer(t, time.Minute)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello Event
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, EventConnected, hello.Type)

	hub.Publish(context.Background(), Target{UserID: "u1"}, Event{Type: EventNotificationNew})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventNotificationNew, ev.Type)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestCheckOrigin(t *testing.T) {
	s := NewStreamer(NewHub(nil), 0, []string{"https://app.example.com"}, nil)

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/ws", nil)
	assert.True(t, s.checkOrigin(req), "no origin header")

	req.Header.Set("Origin", "http://api.example.com")
	assert.True(t, s.checkOrigin(req))

	req.Header.Set("Origin", "https://app.example.com")
	assert.True(t, s.checkOrigin(req))

	req.Header.Set("Origin", "https://evil.example.net")
	assert.False(t, s.checkOrigin(req))
}
