package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/nfrund/gobychat/internal/domain"
)

func (s *Store) CreateGroup(ctx context.Context, name string) (domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return domain.Group{}, err
	}
	n, err := s.seq.Next()
	if err != nil {
		return domain.Group{}, fmt.Errorf("failed to allocate group id: %w", err)
	}

	g := domain.Group{
		ID:        int64(n) + 1,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.put(groupKey(g.ID), toRecord(g)); err != nil {
		return domain.Group{}, fmt.Errorf("failed to create group: %w", err)
	}
	return g, nil
}

// groupRecord is the stored form of a group.
type groupRecord struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toRecord(g domain.Group) groupRecord {
	return groupRecord{ID: g.ID, Name: g.Name, CreatedAt: g.CreatedAt}
}

func (r groupRecord) toDomain() domain.Group {
	return domain.Group{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}

// FindGroup returns domain.ErrNotFound for unknown ids.
func (s *Store) FindGroup(ctx context.Context, groupID int64) (domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return domain.Group{}, err
	}
	var rec groupRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(groupKey(groupID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Group{}, fmt.Errorf("group %d: %w", groupID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Group{}, fmt.Errorf("failed to load group %d: %w", groupID, err)
	}
	return rec.toDomain(), nil
}

func (s *Store) GroupExists(ctx context.Context, groupID int64) (bool, error) {
	_, err := s.FindGroup(ctx, groupID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) GroupName(ctx context.Context, groupID int64) (string, error) {
	g, err := s.FindGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	return g.Name, nil
}

// ListGroups returns groups ordered by id.
func (s *Store) ListGroups(ctx context.Context) ([]domain.Group, error) {
	recs, err := scan[groupRecord](ctx, s.db, []byte(prefixGroup))
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	out := make([]domain.Group, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// DeleteGroup removes the group record. Deleting an unknown group is not an error.
func (s *Store) DeleteGroup(ctx context.Context, groupID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(groupKey(groupID))
	})
	if err != nil {
		return fmt.Errorf("failed to delete group %d: %w", groupID, err)
	}
	return nil
}
