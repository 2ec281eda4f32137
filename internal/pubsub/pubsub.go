// Package pubsub is the in-process event bus. Presence snapshots, session
// lifecycle signals and chat deliveries all travel over it.
package pubsub

import (
	"context"
)

// Message is one event on the bus.
type Message struct {
	Topic string
	// UserID is the identity that caused the event, if any.
	UserID  string
	Payload []byte
	// Metadata carries routing hints, see MetaRecipientID and MetaGroupID.
	Metadata map[string]string
}

type Handler func(ctx context.Context, msg Message) error

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

type Subscriber interface {
	// Subscribe hands every message on topic to handler from a background
	// goroutine until ctx is canceled or the subscriber closes. One
	// subscription sees its messages one at a time, in publish order.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// Routing metadata keys.
const (
	MetaRecipientID = "recipient_id"
	MetaGroupID     = "group_id"
)
