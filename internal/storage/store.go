// Package storage is the embedded BadgerDB implementation of the chat message
// store and group directory.
//
// Keys are laid out so that a prefix scan returns history already ordered by
// timestamp:
//
//	msg:pub:<unix-nanos>:<id>
//	msg:dm:<hex(a)>.<hex(b)>:<unix-nanos>:<id>   a < b
//	gmsg:<group>:<unix-nanos>:<id>
//	group:<group>
package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/nfrund/gobychat/internal/domain"
)

var (
	_ domain.MessageStore = (*Store)(nil)
	_ domain.GroupStore   = (*Store)(nil)
)

const (
	prefixPublic   = "msg:pub:"
	prefixPrivate  = "msg:dm:"
	prefixGroupMsg = "gmsg:"
	prefixGroup    = "group:"
	groupSeqKey    = "seq:group"
)

// Store keeps messages and groups in one Badger database.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

// Open opens (or creates) the database in dir.
func Open(dir string, log *slog.Logger) (*Store, error) {
	return open(badger.DefaultOptions(dir), log)
}

// OpenInMemory opens a database that lives only as long as the Store.
func OpenInMemory(log *slog.Logger) (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), log)
}

func open(opts badger.Options, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "storage")

	db, err := badger.Open(opts.WithLogger(badgerLogger{log}).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	seq, err := db.GetSequence([]byte(groupSeqKey), 16)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open group sequence: %w", err)
	}
	return &Store{db: db, seq: seq, log: log}, nil
}

// Close releases the group sequence and closes the database.
func (s *Store) Close() error {
	return errors.Join(s.seq.Release(), s.db.Close())
}

func conversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return hex.EncodeToString([]byte(a)) + "." + hex.EncodeToString([]byte(b))
}

func publicKey(nanos int64, id string) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", prefixPublic, nanos, id))
}

func privatePrefix(a, b string) []byte {
	return []byte(prefixPrivate + conversationKey(a, b) + ":")
}

func privateKey(a, b string, nanos int64, id string) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", privatePrefix(a, b), nanos, id))
}

func groupMessagePrefix(groupID int64) []byte {
	return []byte(fmt.Sprintf("%s%019d:", prefixGroupMsg, groupID))
}

func groupMessageKey(groupID, nanos int64, id string) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", groupMessagePrefix(groupID), nanos, id))
}

func groupKey(groupID int64) []byte {
	return []byte(fmt.Sprintf("%s%019d", prefixGroup, groupID))
}
