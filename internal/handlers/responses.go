package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/middleware"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OnlineUsersResponse lists the identities currently online.
type OnlineUsersResponse struct {
	OnlineUsers []string `json:"online_users"`
	Count       int      `json:"count"`
}

// UserStatusResponse reports whether one identity is online.
type UserStatusResponse struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

// SessionResponse reports the identity bound to the session cookie.
type SessionResponse struct {
	Username string `json:"username"`
}

// ErrorHandler renders every error as an ErrorResponse. Domain errors map to
// 400, 404 and 503; echo HTTP errors keep their status.
func ErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		logger := middleware.FromContext(c.Request().Context())
		status, resp := errorResponse(err)
		if status >= http.StatusInternalServerError {
			logger.Error("Request failed", "method", c.Request().Method, "path", c.Path(), "status", status, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, resp)
		}
		if err != nil {
			logger.Error("Failed to write error response", "error", err)
		}
	}
}

func errorResponse(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, ErrorResponse{Code: "validation", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Code: "not_found", Message: err.Error()}
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusServiceUnavailable, ErrorResponse{Code: "persistence", Message: "storage unavailable, try again later"}
	case errors.As(err, &he):
		code := strings.ReplaceAll(strings.ToLower(http.StatusText(he.Code)), " ", "_")
		if code == "" {
			code = "http_error"
		}
		return he.Code, ErrorResponse{Code: code, Message: fmt.Sprint(he.Message)}
	default:
		return http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "internal server error"}
	}
}
