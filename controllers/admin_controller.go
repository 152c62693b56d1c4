package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/services"
)

// AdminController handles client and staff administration.
type AdminController struct {
	users  *services.UserService
	logger *zap.Logger
}

func NewAdminController(users *services.UserService, logger *zap.Logger) *AdminController {
	return &AdminController{users: users, logger: logger.Named("admin")}
}

// GetAllUsers is the client list, filtered by ?role=, ?status= and ?q=.
func (ac *AdminController) GetAllUsers(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := ac.users.List(ctx, c.QueryParam("role"), c.QueryParam("status"), c.QueryParam("q"))
	if err != nil {
		return err
	}
	return respondOK(c, users)
}

// ProvisionUser creates an invited account and emails a link to set its
// password.
func (ac *AdminController) ProvisionUser(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req models.ProvisionUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := ac.users.Provision(ctx, req)
	if err != nil {
		return err
	}
	ac.logger.Info("User provisioned",
		zap.String("user_id", user.ID.Hex()),
		zap.String("role", string(user.Role)),
		zap.String("admin_id", identity.ID()),
	)

	return c.JSON(http.StatusCreated, models.Response{
		OK:      true,
		Message: "Invitation sent",
		Data:    user,
	})
}

// UpdateUserStatus activates or suspends an account. Leaving active signs
// the account out everywhere.
func (ac *AdminController) UpdateUserStatus(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req models.UpdateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := ac.users.UpdateStatus(ctx, identity, c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return respondOK(c, user)
}

func (ac *AdminController) UpdateUserRole(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req models.UpdateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := ac.users.UpdateRole(ctx, identity, c.Param("id"), req.Role)
	if err != nil {
		return err
	}
	return respondOK(c, user)
}
