package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/gobychat/internal/middleware"
)

// SessionHandler binds an identity to the caller's cookie session. There is
// no password check; any upstream authentication can sit in front of it.
type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Login handles POST /api/session.
func (h *SessionHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := middleware.SaveIdentity(c, req.Username); err != nil {
		return err
	}
	middleware.FromContext(c.Request().Context()).Info("Session opened", "identity", req.Username)
	return c.JSON(http.StatusOK, SessionResponse{Username: req.Username})
}

// Logout handles DELETE /api/session.
func (h *SessionHandler) Logout(c echo.Context) error {
	if err := middleware.ClearIdentity(c); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Current handles GET /api/session.
func (h *SessionHandler) Current(c echo.Context) error {
	return c.JSON(http.StatusOK, SessionResponse{Username: middleware.IdentityFrom(c)})
}
