package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/middleware"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/services"
)

// UserController serves the account area of the signed-in user.
type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

// GetProfile returns the caller's full profile.
func (uc *UserController) GetProfile(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := uc.users.Me(ctx, identity)
	if err != nil {
		return err
	}
	return respondOK(c, user)
}

// UpdateProfile changes the fields present in the body.
func (uc *UserController) UpdateProfile(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := uc.users.UpdateProfile(ctx, identity, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{
		OK:      true,
		Message: "Profile updated successfully",
		Data:    user,
	})
}

// GetSessions lists the caller's active sessions and flags the current one.
func (uc *UserController) GetSessions(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sessions, err := uc.users.Sessions(ctx, identity, middleware.SessionToken(c))
	if err != nil {
		return err
	}
	return respondOK(c, sessions)
}
