package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
)

type stubVerifier map[string]models.Identity

func (v stubVerifier) Verify(_ context.Context, token string) (models.Identity, bool) {
	identity, ok := v[token]
	return identity, ok
}

func TestAuthorizeGate(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		status  string
		ok      bool
		allowed []models.Role
		want    error
	}{
		{"no identity", "", "", false, nil, apperrors.ErrUnauthenticated},
		{"suspended admin", "admin", "suspended", true, nil, apperrors.ErrInactive},
		{"invited manager", "manager", "Invited", true, nil, apperrors.ErrInactive},
		{"customer on staff route", "customer", "active", true, nil, apperrors.ErrForbiddenRole},
		{"legacy Admin casing", "Admin", "ACTIVE", true, nil, nil},
		{"employee is staff", "employee", "active", true, nil, nil},
		{"employee on admin route", "employee", "active", true, []models.Role{models.RoleAdmin}, apperrors.ErrForbiddenRole},
		{"manager on admin or manager route", " MANAGER ", "active", true, []models.Role{models.RoleAdmin, "Manager"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := models.NewIdentity("u1", "u1@example.com", tt.role, tt.status, "", "")
			err := Authorize(identity, tt.ok, tt.allowed...)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop())
	return e
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) models.Response {
	t.Helper()
	var body models.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSessionAndRequireRoles(t *testing.T) {
	e := newEcho()
	verifier := stubVerifier{
		"staff-token":    models.NewIdentity("s1", "s@example.com", "Manager", "active", "", ""),
		"customer-token": models.NewIdentity("c1", "c@example.com", "customer", "active", "", ""),
		"suspended":      models.NewIdentity("x1", "x@example.com", "admin", "suspended", "", ""),
	}
	e.Use(Session(verifier, "session"))
	e.GET("/staff", func(c echo.Context) error {
		identity, _ := IdentityFrom(c)
		return c.String(http.StatusOK, identity.ID()+"|"+SessionToken(c))
	}, RequireStaff())

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "staff-token"}) }, http.StatusOK, "s1|staff-token"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer staff-token") }, http.StatusOK, "s1|staff-token"},
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized, ""},
		{"unknown token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, ""},
		{"customer", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "customer-token"}) }, http.StatusForbidden, ""},
		{"suspended", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "suspended"}) }, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/staff", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.False(t, decode(t, rec).OK)
			}
		})
	}
}

func TestGateMessages(t *testing.T) {
	e := newEcho()
	e.Use(Session(stubVerifier{
		"suspended": models.NewIdentity("x1", "x@example.com", "admin", "suspended", "", ""),
		"customer":  models.NewIdentity("c1", "c@example.com", "customer", "active", "", ""),
	}, "session"))
	e.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireRoles(models.RoleAdmin))

	for token, want := range map[string]string{
		"":          "unauthenticated",
		"suspended": "forbidden: inactive",
		"customer":  "forbidden: role",
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if token != "" {
			req.AddCookie(&http.Cookie{Name: "session", Value: token})
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, want, decode(t, rec).Error, "token %q", token)
	}
}

func TestErrorHandler(t *testing.T) {
	e := newEcho()
	e.GET("/validation", func(c echo.Context) error { return apperrors.Validation("email is invalid") })
	e.GET("/internal", func(c echo.Context) error { return apperrors.Internal(errors.New("mongo: connection refused")) })
	e.GET("/plain", func(c echo.Context) error { return errors.New("boom") })
	e.GET("/echo", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest, "bad body") })

	tests := []struct {
		path   string
		status int
		msg    string
	}{
		{"/validation", http.StatusBadRequest, "email is invalid"},
		{"/internal", http.StatusInternalServerError, "Internal server error"},
		{"/plain", http.StatusInternalServerError, "Internal server error"},
		{"/echo", http.StatusBadRequest, "bad body"},
		{"/missing", http.StatusNotFound, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.False(t, body.OK)
			assert.Equal(t, tt.msg, body.Error)
		})
	}
}

func TestErrorHandlerLogsSanitizedHeaders(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.New(core))
	e.GET("/internal", func(c echo.Context) error { return apperrors.Internal(errors.New("mongo: connection refused")) })

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("Cookie", "session=secret-cookie")
	req.Header.Set("User-Agent", "carrental-web/1.0")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	entries := logs.FilterMessage("Request failed").All()
	require.Len(t, entries, 1)
	headers, ok := entries[0].ContextMap()["headers"].(http.Header)
	require.True(t, ok)
	assert.Empty(t, headers.Get("Authorization"))
	assert.Empty(t, headers.Get("Cookie"))
	assert.Equal(t, "carrental-web/1.0", headers.Get("User-Agent"))
	assert.Equal(t, "Bearer secret-token", req.Header.Get("Authorization"), "the request itself is untouched")
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter()
	defer limiter.Stop()
	limiter.SetEndpointLimit("/api/auth/login", rate.Every(time.Hour), 2)

	e := newEcho()
	e.Use(limiter.RateLimit())
	e.POST("/api/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/api/cars", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	send := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send(http.MethodPost, "/api/auth/login"))
	assert.Equal(t, http.StatusNoContent, send(http.MethodPost, "/api/auth/login"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "/api/auth/login"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodGet, "/api/cars"), "blocked clients are blocked everywhere")
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	limiter := NewRateLimiter()
	defer limiter.Stop()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	limiter.SetEndpointLimit("/api/auth/login", rate.Every(time.Hour), 1)

	e := newEcho()
	e.Use(limiter.RateLimit())
	e.POST("/api/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/api/cars", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	send := func(ip, method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = ip + ":4000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	for _, ip := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		require.Equal(t, http.StatusNoContent, send(ip, http.MethodGet, "/api/cars"))
		require.Equal(t, http.StatusNoContent, send(ip, http.MethodPost, "/api/auth/login"))
	}
	require.Equal(t, 6, limiter.Len())

	now = now.Add(30 * time.Minute)
	require.Equal(t, http.StatusNoContent, send("198.51.100.1", http.MethodGet, "/api/cars"))
	now = now.Add(45 * time.Minute)
	limiter.sweep()
	assert.Equal(t, 1, limiter.Len(), "only the recently seen limiter survives")

	// An expired block takes the endpoint limiters with it.
	require.Equal(t, http.StatusNoContent, send("198.51.100.9", http.MethodPost, "/api/auth/login"))
	require.Equal(t, http.StatusTooManyRequests, send("198.51.100.9", http.MethodPost, "/api/auth/login"))
	now = now.Add(6 * time.Minute)
	limiter.sweep()
	assert.Equal(t, 1, limiter.Len())
	assert.Equal(t, http.StatusNoContent, send("198.51.100.9", http.MethodPost, "/api/auth/login"))
}

func TestSecurityHeaders(t *testing.T) {
	e := newEcho()
	e.Use(SecurityHeaders(SecurityConfig{HSTS: true}))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestHTTPMetricsCountsRenderedStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)

	e := newEcho()
	e.Use(metrics.Middleware())
	e.GET("/fail", func(c echo.Context) error { return apperrors.NotFound("Car not found") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues(http.MethodGet, "/fail", "404")))
}
