package middleware // middleware provides the authentication and authorization gate for protected routes

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mehdiyara/stockroom/internal/httpx"
	"github.com/mehdiyara/stockroom/internal/model"
	"github.com/mehdiyara/stockroom/internal/utils"
)

// AccessCookieName is the cookie carrying the access token.
const AccessCookieName = "accessToken"

// identityKey is the request-scoped context key the resolved user is
// stored under.  Handlers read it through CurrentUser only.
const identityKey = "auth.user"

// UserStore resolves an authenticated token subject to a live user
// record.  A user deleted after token issuance fails resolution and the
// request is rejected.
type UserStore interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// Authenticate validates the access token from the accessToken cookie
// or the Authorization header, resolves the user and attaches it to the
// request context.  Missing, malformed, expired or orphaned tokens all
// short-circuit with 401 before any protected handler runs.
func Authenticate(secret string, users UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFromRequest(c)
			if raw == "" {
				return httpx.Unauthorized("Unauthorized request")
			}

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				log.Printf("auth: access token rejected: %v", err)
				return httpx.Unauthorized("Invalid access token")
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.GetByID(ctx, claims.Subject)
			if err != nil {
				return httpx.Unauthorized("Invalid access token")
			}

			// The resolved identity never carries credential material
			// past this point.
			u.PasswordHash = ""
			u.RefreshFingerprint = ""
			c.Set(identityKey, u)
			return next(c)
		}
	}
}

// CurrentUser returns the identity resolved by Authenticate for this
// request.  ok is false on unauthenticated routes.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(identityKey).(model.User)
	return u, ok
}

// tokenFromRequest prefers the http-only cookie and falls back to a
// Bearer Authorization header.
func tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(AccessCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
