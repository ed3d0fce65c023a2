package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole lets the request through when the caller holds at least one
// of roles. It must run after JWTAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return deny(c, http.StatusUnauthorized, errUnauthorized)
			}
			for _, r := range roles {
				if id.HasRole(r) {
					return next(c)
				}
			}
			return deny(c, http.StatusForbidden, errForbidden)
		}
	}
}
