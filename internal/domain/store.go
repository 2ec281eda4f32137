package domain

import "context"

// MessageStore is the durable, append-only record of chat messages.
// History reads return messages ordered by timestamp ascending.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg Message) (Message, error)
	SaveGroupMessage(ctx context.Context, msg GroupMessage) (GroupMessage, error)
	// FindHistory returns the private messages exchanged between a and b in both directions.
	FindHistory(ctx context.Context, a, b string) ([]Message, error)
	FindPublicHistory(ctx context.Context) ([]Message, error)
	FindGroupHistory(ctx context.Context, groupID int64) ([]GroupMessage, error)
	DeleteGroupMessages(ctx context.Context, groupID int64) error
	Close() error
}

// GroupDirectory resolves group identifiers.
type GroupDirectory interface {
	GroupExists(ctx context.Context, groupID int64) (bool, error)
	// GroupName returns ErrNotFound for unknown groups.
	GroupName(ctx context.Context, groupID int64) (string, error)
}

// GroupStore manages the groups themselves.
type GroupStore interface {
	GroupDirectory
	CreateGroup(ctx context.Context, name string) (Group, error)
	FindGroup(ctx context.Context, groupID int64) (Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	// DeleteGroup removes the group record only; messages are deleted separately.
	DeleteGroup(ctx context.Context, groupID int64) error
}
