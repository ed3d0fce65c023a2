// Package middleware holds the echo middleware of the API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fleet-backoffice/internal/repository"
	"github.com/iliyamo/fleet-backoffice/internal/utils"
)

// JWTAuth validates the Bearer access token and stores the caller's
// identity on the echo context. The username also becomes the actor
// stamped on every record the request writes.
func JWTAuth(settings utils.TokenSettings) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return deny(c, http.StatusUnauthorized, "Missing bearer token.")
			}
			id, err := utils.ParseAccessToken(settings, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
			if err != nil {
				return deny(c, http.StatusUnauthorized, "Invalid or expired token.")
			}
			c.Set(identityKey, id)
			req := c.Request()
			c.SetRequest(req.WithContext(repository.ContextWithActor(req.Context(), id.Username)))
			return next(c)
		}
	}
}
