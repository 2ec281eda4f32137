package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/middleware"
)

// MessageRouter is the part of the router behind the message endpoints.
type MessageRouter interface {
	RoutePublic(ctx context.Context, msg domain.Message) (domain.Message, error)
	RoutePrivate(ctx context.Context, msg domain.Message) (domain.Message, error)
	History(ctx context.Context, a, b string) ([]domain.Message, error)
	PublicHistory(ctx context.Context) ([]domain.Message, error)
}

// MessageHandler serves sending and history for public and private messages.
type MessageHandler struct {
	router MessageRouter
}

func NewMessageHandler(router MessageRouter) *MessageHandler {
	return &MessageHandler{router: router}
}

// SendPublic handles POST /api/messages/public.
func (h *MessageHandler) SendPublic(c echo.Context) error {
	var req SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.ReceiverName != "" {
		return domain.Validation("send public", "public messages cannot name a receiver")
	}

	msg, err := h.router.RoutePublic(c.Request().Context(), req.toMessage(middleware.IdentityFrom(c)))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

// SendPrivate handles POST /api/messages/private.
func (h *MessageHandler) SendPrivate(c echo.Context) error {
	var req SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.router.RoutePrivate(c.Request().Context(), req.toMessage(middleware.IdentityFrom(c)))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

// History handles GET /api/users/messages/history/:user1/:user2.
func (h *MessageHandler) History(c echo.Context) error {
	msgs, err := h.router.History(c.Request().Context(), c.Param("user1"), c.Param("user2"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msgs)
}

// PublicHistory handles GET /api/users/messages/public.
func (h *MessageHandler) PublicHistory(c echo.Context) error {
	msgs, err := h.router.PublicHistory(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msgs)
}

// normalizer is implemented by requests that clean their fields before validation.
type normalizer interface {
	normalize()
}

// bindAndValidate decodes the body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.Validation("bind request", "request body is not valid JSON")
	}
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}
	return c.Validate(req)
}
