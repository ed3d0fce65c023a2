package middleware

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
)

// PermissionChecker is satisfied by service.PermissionService.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID uuid.UUID, code string) (bool, error)
}

// RequirePermission resolves code for the caller on every request. Lookup
// failures are passed on to the HTTP error handler.
func RequirePermission(checker PermissionChecker, code string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return deny(c, http.StatusUnauthorized, errUnauthorized)
			}
			granted, err := checker.HasPermission(c.Request().Context(), id.UserID, code)
			if err != nil {
				return err
			}
			if !granted {
				return deny(c, http.StatusForbidden, "Missing permission "+code+".")
			}
			return next(c)
		}
	}
}
