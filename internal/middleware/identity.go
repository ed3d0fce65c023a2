package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fleet-backoffice/internal/utils"
)

const identityKey = "identity"

// IdentityFrom returns the principal stored by JWTAuth.
func IdentityFrom(c echo.Context) (utils.Identity, bool) {
	id, ok := c.Get(identityKey).(utils.Identity)
	return id, ok
}

// userID identifies the caller for rate limit and cache keys. Anonymous
// requests share "anon".
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return id.UserID.String()
	}
	return "anon"
}

// deny writes the failure envelope used by every API response.
func deny(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "data": nil, "errors": []string{msg}})
}

var (
	errUnauthorized = http.StatusText(http.StatusUnauthorized)
	errForbidden    = http.StatusText(http.StatusForbidden)
)
