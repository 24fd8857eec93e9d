package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/gridpoint/auth-api/internal/api/middleware"
	"github.com/gridpoint/auth-api/internal/core/domain"
)

// currentUser extracts the identity injected by the Session middleware. A
// nil return means the middleware did not run (public route) or resolution
// failed; handlers behind the middleware can rely on a non-nil user.
func currentUser(c echo.Context) *domain.User {
	user, _ := c.Get(middleware.ContextUserKey).(*domain.User)
	return user
}

// sessionToken extracts the raw session token for the current request.
func sessionToken(c echo.Context) string {
	token, _ := c.Get(middleware.ContextTokenKey).(string)
	return token
}
