package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/middleware"
	"github.com/samber/lo"
)

// GroupRouter is the part of the router behind the group endpoints.
type GroupRouter interface {
	CreateGroup(ctx context.Context, name string) (domain.Group, error)
	Group(ctx context.Context, groupID int64) (domain.Group, error)
	Groups(ctx context.Context) ([]domain.Group, error)
	DeleteGroup(ctx context.Context, groupID int64) error
	RouteGroup(ctx context.Context, send domain.GroupSend) (domain.GroupMessageView, error)
	GroupHistory(ctx context.Context, groupID int64) ([]domain.GroupMessageView, error)
}

// GroupResponse is a group as exposed over HTTP.
type GroupResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	Links     struct {
		Messages string `json:"messages"`
	} `json:"links"`
}

func newGroupResponse(g domain.Group) GroupResponse {
	resp := GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		CreatedAt: g.CreatedAt.UTC().Format(time.RFC3339),
	}
	resp.Links.Messages = "/api/groups/" + strconv.FormatInt(g.ID, 10) + "/messages"
	return resp
}

// GroupHandler serves the group directory and group messaging.
type GroupHandler struct {
	router GroupRouter
}

func NewGroupHandler(router GroupRouter) *GroupHandler {
	return &GroupHandler{router: router}
}

// Create handles POST /api/groups.
func (h *GroupHandler) Create(c echo.Context) error {
	var req CreateGroupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	g, err := h.router.CreateGroup(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newGroupResponse(g))
}

// List handles GET /api/groups.
func (h *GroupHandler) List(c echo.Context) error {
	groups, err := h.router.Groups(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lo.Map(groups, func(g domain.Group, _ int) GroupResponse {
		return newGroupResponse(g)
	}))
}

// Get handles GET /api/groups/:groupId.
func (h *GroupHandler) Get(c echo.Context) error {
	id, err := groupID(c)
	if err != nil {
		return err
	}
	g, err := h.router.Group(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newGroupResponse(g))
}

// Delete handles DELETE /api/groups/:groupId.
func (h *GroupHandler) Delete(c echo.Context) error {
	id, err := groupID(c)
	if err != nil {
		return err
	}
	if err := h.router.DeleteGroup(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Send handles POST /api/groups/:groupId/messages.
func (h *GroupHandler) Send(c echo.Context) error {
	id, err := groupID(c)
	if err != nil {
		return err
	}
	var req GroupMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.router.RouteGroup(c.Request().Context(), domain.GroupSend{
		GroupID:    id,
		SenderName: middleware.IdentityFrom(c),
		Message:    req.Message,
		Media:      req.Media,
		MediaType:  req.MediaType,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

// History handles GET /api/groups/:groupId/messages.
func (h *GroupHandler) History(c echo.Context) error {
	id, err := groupID(c)
	if err != nil {
		return err
	}
	views, err := h.router.GroupHistory(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

func groupID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("groupId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation("parse group id", "groupId must be a positive integer")
	}
	return id, nil
}
