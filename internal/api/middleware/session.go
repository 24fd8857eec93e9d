package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/gridpoint/auth-api/internal/core/ports"
)

// SessionCookie is the name of the cookie carrying the session token. The
// cookie is the sole bearer of the token.
const SessionCookie = "session_id"

// Context keys set by the Session middleware.
const (
	ContextUserKey  = "user"
	ContextTokenKey = "session_token"
)

// Session resolves the session cookie to a user on every request and
// injects the identity into the echo context. There is no ambient
// current-user state: handlers read the identity from the context and pass
// it explicitly into service calls. Requests without a valid session fail
// with domain.ErrAuthRequired (rendered as 401).
func Session(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ""
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				token = cookie.Value
			}

			user, err := auth.Identify(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(ContextUserKey, user)
			c.Set(ContextTokenKey, token)
			return next(c)
		}
	}
}
