package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/mehdiyara/stockroom/internal/httpx"
	"github.com/mehdiyara/stockroom/internal/model"
)

// RequireRole enforces that the authenticated user holds one of the
// allowed roles.  It must run after Authenticate; a request reaching it
// without a resolved identity is rejected with 401, an identity with
// the wrong role with 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return httpx.Unauthorized("Unauthorized request")
			}
			if !allowed[u.Role] {
				return httpx.Forbidden("Forbidden: access denied")
			}
			return next(c)
		}
	}
}
