// controllers/password_controller.go
package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/services"
)

// PasswordController handles password reset functionality
type PasswordController struct {
	passwords *services.PasswordService
	auth      *services.AuthService
	sessions  *services.SessionService
	cookie    SessionCookie
}

// NewPasswordController creates a new password controller
func NewPasswordController(passwords *services.PasswordService, auth *services.AuthService, sessions *services.SessionService, cookie SessionCookie) *PasswordController {
	return &PasswordController{
		passwords: passwords,
		auth:      auth,
		sessions:  sessions,
		cookie:    cookie,
	}
}

// ForgetPassword initiates the password reset process. It always answers
// with the same message so it cannot be used to probe for accounts.
func (pc *PasswordController) ForgetPassword(c echo.Context) error {
	var req models.ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	pc.passwords.Forgot(ctx, req.Email)
	return c.JSON(http.StatusOK, models.Response{OK: true, Message: services.ForgotPasswordMessage})
}

// ResetPassword consumes a reset or invitation token and sets the password.
func (pc *PasswordController) ResetPassword(c echo.Context) error {
	var req models.ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := pc.passwords.Reset(ctx, req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{OK: true, Message: "Password has been reset. Please sign in."})
}

// ChangePassword signs out every session of the caller and replaces the
// cookie with a fresh one.
func (pc *PasswordController) ChangePassword(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req models.ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, issued, err := pc.auth.ChangePassword(ctx, identity, req.CurrentPassword, req.NewPassword, clientMeta(c))
	if err != nil {
		return err
	}
	pc.cookie.Set(c, issued, pc.sessions.TTL())

	return c.JSON(http.StatusOK, models.AuthResponse{OK: true, User: user.Identity().Public()})
}
