package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/middleware"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/services"
)

// requestTimeout bounds the store work done by one handler.
const requestTimeout = 10 * time.Second

// SessionCookie describes the session cookie written by the auth endpoints.
type SessionCookie struct {
	Name   string
	Secure bool
}

// Set writes the issued session as an HttpOnly cookie.
func (sc SessionCookie) Set(c echo.Context, issued *services.IssuedSession, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     sc.Name,
		Value:    issued.Token,
		Path:     "/",
		Expires:  issued.ExpiresAt,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (sc SessionCookie) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sc.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	return c.Validate(req)
}

func clientMeta(c echo.Context) models.ClientMeta {
	return models.ClientMeta{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// currentIdentity returns the caller. Routes using it sit behind one of the
// Require middlewares, so a missing identity only happens on misconfiguration.
func currentIdentity(c echo.Context) (models.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return models.Identity{}, apperrors.ErrUnauthenticated
	}
	return identity, nil
}

func respondOK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, models.Response{OK: true, Data: data})
}
