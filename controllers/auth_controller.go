package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/middleware"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/services"
)

// AuthController contains authentication logic
type AuthController struct {
	auth     *services.AuthService
	sessions *services.SessionService
	cookie   SessionCookie
	logger   *zap.Logger
}

// NewAuthController creates a new auth controller
func NewAuthController(auth *services.AuthService, sessions *services.SessionService, cookie SessionCookie, logger *zap.Logger) *AuthController {
	return &AuthController{
		auth:     auth,
		sessions: sessions,
		cookie:   cookie,
		logger:   logger.Named("auth"),
	}
}

// Register creates a customer account and signs it in.
func (ac *AuthController) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, issued, err := ac.auth.Register(ctx, req, clientMeta(c))
	if err != nil {
		return err
	}
	ac.cookie.Set(c, issued, ac.sessions.TTL())

	return c.JSON(http.StatusCreated, models.AuthResponse{OK: true, User: user.Identity().Public()})
}

// Login checks credentials and sets the session cookie. Every credential
// failure gets the same message.
func (ac *AuthController) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, issued, err := ac.auth.Login(ctx, req.Email, req.Password, clientMeta(c))
	if err != nil {
		return err
	}
	ac.cookie.Set(c, issued, ac.sessions.TTL())

	return c.JSON(http.StatusOK, models.AuthResponse{OK: true, User: user.Identity().Public()})
}

// Session reports who the caller is. Inactive accounts are reported as not
// authenticated.
func (ac *AuthController) Session(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok || !identity.IsActive() {
		return c.JSON(http.StatusOK, models.SessionCheckResponse{Authenticated: false})
	}
	user := identity.Public()
	return c.JSON(http.StatusOK, models.SessionCheckResponse{Authenticated: true, User: &user})
}

// Logout ends the current session. It succeeds even without one.
func (ac *AuthController) Logout(c echo.Context) error {
	ac.cookie.Clear(c)

	token := middleware.SessionToken(c)
	if token == "" {
		return c.JSON(http.StatusOK, models.Response{OK: true})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ac.auth.Logout(ctx, token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{OK: true})
}

// LogoutAll ends every session of the caller, this one included.
func (ac *AuthController) LogoutAll(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	revoked, err := ac.auth.LogoutAll(ctx, identity)
	if err != nil {
		return err
	}
	ac.cookie.Clear(c)
	ac.logger.Info("Signed out everywhere", zap.String("user_id", identity.ID()), zap.Int64("sessions", revoked))

	return respondOK(c, map[string]int64{"revoked": revoked})
}
