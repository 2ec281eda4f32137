package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/nfrund/gobychat/internal/domain"
)

// SaveMessage appends a public message, or a private one when ReceiverName is set.
func (s *Store) SaveMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}
	msg.ID = uuid.NewString()
	msg.GroupID = 0

	nanos := msg.Timestamp.UnixNano()
	key := publicKey(nanos, msg.ID)
	if msg.ReceiverName != "" {
		key = privateKey(msg.SenderName, msg.ReceiverName, nanos, msg.ID)
	}
	if err := s.put(key, msg); err != nil {
		return domain.Message{}, fmt.Errorf("failed to save message: %w", err)
	}
	return msg, nil
}

func (s *Store) SaveGroupMessage(ctx context.Context, msg domain.GroupMessage) (domain.GroupMessage, error) {
	if err := ctx.Err(); err != nil {
		return domain.GroupMessage{}, err
	}
	msg.ID = uuid.NewString()
	if err := s.put(groupMessageKey(msg.GroupID, msg.Timestamp.UnixNano(), msg.ID), msg); err != nil {
		return domain.GroupMessage{}, fmt.Errorf("failed to save group message: %w", err)
	}
	return msg, nil
}

// FindHistory returns the private conversation between a and b. Both
// directions share one key prefix, so the scan is already merged and ordered.
func (s *Store) FindHistory(ctx context.Context, a, b string) ([]domain.Message, error) {
	msgs, err := scan[domain.Message](ctx, s.db, privatePrefix(a, b))
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return msgs, nil
}

func (s *Store) FindPublicHistory(ctx context.Context) ([]domain.Message, error) {
	msgs, err := scan[domain.Message](ctx, s.db, []byte(prefixPublic))
	if err != nil {
		return nil, fmt.Errorf("failed to load public history: %w", err)
	}
	return msgs, nil
}

func (s *Store) FindGroupHistory(ctx context.Context, groupID int64) ([]domain.GroupMessage, error) {
	msgs, err := scan[domain.GroupMessage](ctx, s.db, groupMessagePrefix(groupID))
	if err != nil {
		return nil, fmt.Errorf("failed to load group history: %w", err)
	}
	return msgs, nil
}

// DeleteGroupMessages removes every message of the group in one write batch.
func (s *Store) DeleteGroupMessages(ctx context.Context, groupID int64) error {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = groupMessagePrefix(groupID)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to list group messages: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("failed to delete group messages: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to delete group messages: %w", err)
	}
	s.log.Debug("Deleted group messages", "group_id", groupID, "count", len(keys))
	return nil
}

func (s *Store) put(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// scan decodes every value under prefix in key order.
func scan[T any](ctx context.Context, db *badger.DB, prefix []byte) ([]T, error) {
	out := make([]T, 0)
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var v T
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}
