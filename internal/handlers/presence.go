package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/gobychat/internal/domain"
)

// Presence is the read side of the presence tracker.
type Presence interface {
	Snapshot() []string
	IsOnline(identity string) bool
}

// PresenceHandler handles presence-related HTTP requests.
type PresenceHandler struct {
	presence Presence
}

// NewPresenceHandler creates a new presence handler.
func NewPresenceHandler(presence Presence) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

// OnlineUsers returns the current online users as JSON. An empty set is not an error.
func (h *PresenceHandler) OnlineUsers(c echo.Context) error {
	users := h.presence.Snapshot()
	return c.JSON(http.StatusOK, OnlineUsersResponse{
		OnlineUsers: users,
		Count:       len(users),
	})
}

// UserStatus reports whether one identity is online.
func (h *PresenceHandler) UserStatus(c echo.Context) error {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		return domain.Validation("user status", "username is required")
	}
	return c.JSON(http.StatusOK, UserStatusResponse{
		Username: username,
		Online:   h.presence.IsOnline(username),
	})
}
