package router

import (
	"context"
	"errors"
	"strings"

	"github.com/nfrund/gobychat/internal/domain"
)

// CreateGroup registers a new named group.
func (r *Router) CreateGroup(ctx context.Context, name string) (domain.Group, error) {
	const op = "create group"
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return domain.Group{}, domain.Validation(op, "group name must be 1 to 100 characters")
	}
	g, err := r.groups.CreateGroup(ctx, name)
	if err != nil {
		return domain.Group{}, domain.Persistence(op, err)
	}
	r.logger.InfoContext(ctx, "Group created", "group_id", g.ID, "name", g.Name)
	return g, nil
}

func (r *Router) Group(ctx context.Context, groupID int64) (domain.Group, error) {
	const op = "get group"
	g, err := r.groups.FindGroup(ctx, groupID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.Group{}, domain.NotFound(op, "group")
	case err != nil:
		return domain.Group{}, domain.Persistence(op, err)
	}
	return g, nil
}

func (r *Router) Groups(ctx context.Context) ([]domain.Group, error) {
	groups, err := r.groups.ListGroups(ctx)
	if err != nil {
		return nil, domain.Persistence("list groups", err)
	}
	return groups, nil
}

// DeleteGroup removes a group's messages, then the group itself. If the
// second step fails the group remains, empty, and the call can be retried.
func (r *Router) DeleteGroup(ctx context.Context, groupID int64) error {
	const op = "delete group"
	exists, err := r.groups.GroupExists(ctx, groupID)
	if err != nil {
		return domain.Persistence(op, err)
	}
	if !exists {
		return domain.NotFound(op, "group")
	}

	if err := r.messages.DeleteGroupMessages(ctx, groupID); err != nil {
		return domain.Persistence(op, err)
	}
	if err := r.groups.DeleteGroup(ctx, groupID); err != nil {
		return domain.Persistence(op, err)
	}
	r.logger.InfoContext(ctx, "Group deleted", "group_id", groupID)

	if n, ok := r.out.(GroupNotifier); ok {
		if err := n.GroupDeleted(context.WithoutCancel(ctx), groupID); err != nil {
			r.logger.WarnContext(ctx, "Group deletion notice failed", "group_id", groupID, "error", err)
		}
	}
	return nil
}
