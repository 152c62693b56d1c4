// middleware/session.go
package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/models"
)

const (
	identityKey     = "identity"
	sessionTokenKey = "session_token"
)

// Verifier resolves a raw session token to the current identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (models.Identity, bool)
}

// TokenFromRequest returns the session token from the cookie, falling back to
// an "Authorization: Bearer" header.
func TokenFromRequest(c echo.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Session verifies the request's session token, if any, and stores the
// identity on the context. It never rejects a request; route guards decide.
func Session(verifier Verifier, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := TokenFromRequest(c, cookieName)
			if token != "" {
				c.Set(sessionTokenKey, token)
				if identity, ok := verifier.Verify(c.Request().Context(), token); ok {
					c.Set(identityKey, identity)
				}
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the verified identity of the request.
func IdentityFrom(c echo.Context) (models.Identity, bool) {
	identity, ok := c.Get(identityKey).(models.Identity)
	return identity, ok
}

// SessionToken returns the raw token presented with the request.
func SessionToken(c echo.Context) string {
	token, _ := c.Get(sessionTokenKey).(string)
	return token
}
