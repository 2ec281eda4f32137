package database

import (
	"context"
	"fmt"
	"time"

	"github.com/nfrund/gobychat/internal/domain"
	"github.com/samber/lo"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

var _ domain.GroupStore = (*GroupStore)(nil)

// GroupStore implements domain.GroupStore. Groups live at chat_group:<n>,
// with n drawn from the chat_counter:groups record.
type GroupStore struct {
	db  *surrealdb.DB
	now func() time.Time
}

func NewGroupStore(db *surrealdb.DB) *GroupStore {
	return &GroupStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *GroupStore) nextGroupNumber(ctx context.Context) (int64, error) {
	row, err := MustOne[counterRow](ctx, s.db, "UPSERT chat_counter:groups SET value += 1 RETURN AFTER", nil)
	if err != nil {
		return 0, fmt.Errorf("allocate group id: %w", err)
	}
	return row.Value, nil
}

func (s *GroupStore) CreateGroup(ctx context.Context, name string) (domain.Group, error) {
	n, err := s.nextGroupNumber(ctx)
	if err != nil {
		return domain.Group{}, err
	}

	row, err := MustOne[groupRow](ctx, s.db, "CREATE type::thing('chat_group', $number) CONTENT $data", map[string]any{
		"number": n,
		"data": map[string]any{
			"number":     n,
			"name":       name,
			"created_at": &surrealmodels.CustomDateTime{Time: s.now()},
		},
	})
	if err != nil {
		return domain.Group{}, fmt.Errorf("create group %q: %w", name, err)
	}
	return row.toDomain(), nil
}

func (s *GroupStore) findRow(ctx context.Context, groupID int64) (*groupRow, error) {
	row, err := First[groupRow](ctx, s.db, "SELECT * FROM type::thing('chat_group', $number)", map[string]any{"number": groupID})
	if err != nil {
		return nil, fmt.Errorf("load group %d: %w", groupID, err)
	}
	return row, nil
}

// FindGroup returns domain.ErrNotFound for unknown ids.
func (s *GroupStore) FindGroup(ctx context.Context, groupID int64) (domain.Group, error) {
	row, err := s.findRow(ctx, groupID)
	if err != nil {
		return domain.Group{}, err
	}
	if row == nil {
		return domain.Group{}, fmt.Errorf("group %d: %w", groupID, domain.ErrNotFound)
	}
	return row.toDomain(), nil
}

func (s *GroupStore) GroupExists(ctx context.Context, groupID int64) (bool, error) {
	row, err := s.findRow(ctx, groupID)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

func (s *GroupStore) GroupName(ctx context.Context, groupID int64) (string, error) {
	g, err := s.FindGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	return g.Name, nil
}

func (s *GroupStore) ListGroups(ctx context.Context) ([]domain.Group, error) {
	rows, err := Query[groupRow](ctx, s.db, "SELECT * FROM chat_group ORDER BY number ASC", nil)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return lo.Map(rows, func(r groupRow, _ int) domain.Group { return r.toDomain() }), nil
}

func (s *GroupStore) DeleteGroup(ctx context.Context, groupID int64) error {
	if err := Exec(ctx, s.db, "DELETE type::thing('chat_group', $number)", map[string]any{"number": groupID}); err != nil {
		return fmt.Errorf("delete group %d: %w", groupID, err)
	}
	return nil
}
