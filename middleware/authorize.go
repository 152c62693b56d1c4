// middleware/authorize.go
package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
)

// Authorize is the route gate. With no allowed roles the staff roles apply.
// Role and status are compared in normalized form.
func Authorize(identity models.Identity, ok bool, allowed ...models.Role) error {
	if !ok {
		return apperrors.ErrUnauthenticated
	}
	if !identity.IsActive() {
		return apperrors.ErrInactive
	}
	if len(allowed) == 0 {
		allowed = models.StaffRoles
	}
	if !identity.HasRole(allowed...) {
		return apperrors.ErrForbiddenRole
	}
	return nil
}

// RequireRoles rejects requests whose identity fails the gate for roles.
func RequireRoles(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if err := Authorize(identity, ok, roles...); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// RequireStaff admits admins, managers and employees.
func RequireStaff() echo.MiddlewareFunc {
	return RequireRoles(models.StaffRoles...)
}

// RequireAuth admits any active account.
func RequireAuth() echo.MiddlewareFunc {
	return RequireRoles(models.AllRoles...)
}
