package router

import (
	"context"
	"slices"
	"strings"

	"github.com/nfrund/gobychat/internal/domain"
	"github.com/samber/lo"
)

// History returns the private conversation between a and b, oldest first.
// The argument order does not matter.
func (r *Router) History(ctx context.Context, a, b string) ([]domain.Message, error) {
	const op = "history"
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return nil, domain.Validation(op, "both identities are required")
	}
	msgs, err := r.messages.FindHistory(ctx, a, b)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	return sortByTime(msgs), nil
}

// PublicHistory returns every public message, oldest first.
func (r *Router) PublicHistory(ctx context.Context) ([]domain.Message, error) {
	msgs, err := r.messages.FindPublicHistory(ctx)
	if err != nil {
		return nil, domain.Persistence("public history", err)
	}
	return sortByTime(msgs), nil
}

// GroupHistory returns the projections of a group's messages, oldest first.
func (r *Router) GroupHistory(ctx context.Context, groupID int64) ([]domain.GroupMessageView, error) {
	const op = "group history"
	name, err := r.groupName(ctx, op, groupID)
	if err != nil {
		return nil, err
	}
	msgs, err := r.messages.FindGroupHistory(ctx, groupID)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	slices.SortStableFunc(msgs, func(a, b domain.GroupMessage) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return lo.Map(msgs, func(m domain.GroupMessage, _ int) domain.GroupMessageView {
		return m.View(name)
	}), nil
}

// sortByTime orders msgs oldest first. Stores already scan in order; the
// sort keeps History stable across stores that only order per direction.
func sortByTime(msgs []domain.Message) []domain.Message {
	if msgs == nil {
		return []domain.Message{}
	}
	slices.SortStableFunc(msgs, func(a, b domain.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return msgs
}
