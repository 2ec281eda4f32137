package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	// SessionName is the cookie session holding the identity.
	SessionName = "gobychat"
	// IdentityContextKey is where Identity stores the caller's identity on the echo context.
	IdentityContextKey = "identity"

	identityValue = "identity"
)

// Identity loads the identity from the cookie session, if any, into the echo
// context. Requests without a session pass through anonymously.
// It must run after session.Middleware.
func Identity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := session.Get(SessionName, c)
		if err != nil {
			FromContext(c.Request().Context()).Debug("Ignoring unreadable session", "error", err)
			return next(c)
		}
		if id, ok := sess.Values[identityValue].(string); ok && id != "" {
			c.Set(IdentityContextKey, id)
		}
		return next(c)
	}
}

// RequireIdentity rejects anonymous requests with 401.
func RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if IdentityFrom(c) == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "login required")
		}
		return next(c)
	}
}

// IdentityFrom returns the identity set by Identity, or "" for anonymous callers.
func IdentityFrom(c echo.Context) string {
	id, _ := c.Get(IdentityContextKey).(string)
	return id
}

// SaveIdentity stores identity in the session cookie.
func SaveIdentity(c echo.Context, identity string) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	sess.Values[identityValue] = strings.TrimSpace(identity)
	return sess.Save(c.Request(), c.Response())
}

// ClearIdentity expires the session cookie.
func ClearIdentity(c echo.Context) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, identityValue)
	sess.Options = &sessions.Options{Path: "/", MaxAge: -1, HttpOnly: true}
	return sess.Save(c.Request(), c.Response())
}
