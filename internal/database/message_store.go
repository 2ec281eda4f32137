package database

import (
	"context"
	"fmt"

	"github.com/nfrund/gobychat/internal/domain"
	"github.com/samber/lo"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

var _ domain.MessageStore = (*MessageStore)(nil)

// MessageStore implements domain.MessageStore on SurrealDB tables
// chat_message and group_message.
type MessageStore struct {
	db *surrealdb.DB
}

func NewMessageStore(db *surrealdb.DB) *MessageStore {
	return &MessageStore{db: db}
}

// SaveMessage appends a public or private message.
func (s *MessageStore) SaveMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	kind := kindPrivate
	if msg.ReceiverName == "" {
		kind = kindPublic
	}

	row, err := MustOne[messageRow](ctx, s.db, "CREATE chat_message CONTENT $data", map[string]any{
		"data": map[string]any{
			"kind":          kind,
			"sender_name":   msg.SenderName,
			"receiver_name": msg.ReceiverName,
			"message":       msg.Message,
			"media":         msg.Media,
			"media_type":    msg.MediaType,
			"status":        string(msg.Status),
			"timestamp":     &surrealmodels.CustomDateTime{Time: msg.Timestamp},
		},
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("save %s message: %w", kind, err)
	}
	return row.toDomain(), nil
}

// SaveGroupMessage appends a message to a group's history.
func (s *MessageStore) SaveGroupMessage(ctx context.Context, msg domain.GroupMessage) (domain.GroupMessage, error) {
	row, err := MustOne[groupMessageRow](ctx, s.db, "CREATE group_message CONTENT $data", map[string]any{
		"data": map[string]any{
			"group_id":    msg.GroupID,
			"sender_name": msg.SenderName,
			"message":     msg.Message,
			"media":       msg.Media,
			"media_type":  msg.MediaType,
			"timestamp":   &surrealmodels.CustomDateTime{Time: msg.Timestamp},
		},
	})
	if err != nil {
		return domain.GroupMessage{}, fmt.Errorf("save message for group %d: %w", msg.GroupID, err)
	}
	return row.toDomain(), nil
}

// FindHistory returns the private conversation between a and b, both directions.
func (s *MessageStore) FindHistory(ctx context.Context, a, b string) ([]domain.Message, error) {
	query := `SELECT * FROM chat_message
		WHERE kind = 'private'
		AND ((sender_name = $a AND receiver_name = $b) OR (sender_name = $b AND receiver_name = $a))
		ORDER BY timestamp ASC`
	return s.findMessages(ctx, query, map[string]any{"a": a, "b": b})
}

// FindPublicHistory returns every message without receiver.
func (s *MessageStore) FindPublicHistory(ctx context.Context) ([]domain.Message, error) {
	query := "SELECT * FROM chat_message WHERE kind = 'public' ORDER BY timestamp ASC"
	return s.findMessages(ctx, query, nil)
}

func (s *MessageStore) findMessages(ctx context.Context, query string, params map[string]any) ([]domain.Message, error) {
	rows, err := Query[messageRow](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("load message history: %w", err)
	}
	return lo.Map(rows, func(r messageRow, _ int) domain.Message { return r.toDomain() }), nil
}

func (s *MessageStore) FindGroupHistory(ctx context.Context, groupID int64) ([]domain.GroupMessage, error) {
	query := "SELECT * FROM group_message WHERE group_id = $group_id ORDER BY timestamp ASC"
	rows, err := Query[groupMessageRow](ctx, s.db, query, map[string]any{"group_id": groupID})
	if err != nil {
		return nil, fmt.Errorf("load history of group %d: %w", groupID, err)
	}
	return lo.Map(rows, func(r groupMessageRow, _ int) domain.GroupMessage { return r.toDomain() }), nil
}

func (s *MessageStore) DeleteGroupMessages(ctx context.Context, groupID int64) error {
	if err := Exec(ctx, s.db, "DELETE group_message WHERE group_id = $group_id", map[string]any{"group_id": groupID}); err != nil {
		return fmt.Errorf("delete messages of group %d: %w", groupID, err)
	}
	return nil
}

// Close closes the underlying connection. The GroupStore sharing it must not be used afterwards.
func (s *MessageStore) Close() error {
	return s.db.Close(context.Background())
}
