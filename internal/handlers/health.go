package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthCounter reports the number of open WebSocket sessions.
type HealthCounter interface {
	SessionCount() int
}

// Health handles GET /health.
func Health(sessions HealthCounter) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": sessions.SessionCount(),
		})
	}
}
