// Package broadcast maps message destinations onto pub/sub topics.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/pubsub"
	"github.com/nfrund/gobychat/internal/topics"
)

// Channel publishes payloads towards the sessions behind a Destination.
// Delivery is fire-and-forget: there is no acknowledgement from recipients
// and a destination with no live sessions silently receives nothing.
type Channel struct {
	publisher pubsub.Publisher
	logger    *slog.Logger
}

func NewChannel(publisher pubsub.Publisher, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{publisher: publisher, logger: logger.With("component", "broadcast")}
}

// Deliver wraps payload in an envelope and publishes it on the topic of dest.
// An error means the payload never reached the bus.
func (c *Channel) Deliver(ctx context.Context, dest domain.Destination, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", dest, err)
	}

	var (
		event    pubsub.Event[topics.Envelope]
		envType  string
		metadata map[string]string
	)
	switch dest.Kind {
	case domain.KindPublic:
		event, envType = topics.Public, topics.EnvelopePublic
	case domain.KindPrivate:
		if dest.Identity == "" {
			return fmt.Errorf("private destination without identity")
		}
		event, envType = topics.Private, topics.EnvelopePrivate
		metadata = map[string]string{pubsub.MetaRecipientID: dest.Identity}
	case domain.KindGroup:
		if dest.GroupID <= 0 {
			return fmt.Errorf("group destination without group id")
		}
		event, envType = topics.Group, topics.EnvelopeGroup
		metadata = map[string]string{pubsub.MetaGroupID: strconv.FormatInt(dest.GroupID, 10)}
	default:
		return fmt.Errorf("unknown destination kind %v", dest.Kind)
	}

	env := topics.Envelope{Type: envType, Data: data}
	if err := pubsub.PublishWith(ctx, c.publisher, event, env, "", metadata); err != nil {
		return fmt.Errorf("publish to %s: %w", dest, err)
	}
	c.logger.DebugContext(ctx, "Delivered", "destination", dest.String(), "topic", event.Name())
	return nil
}

// GroupDeleted tells the transport that groupID is gone.
func (c *Channel) GroupDeleted(ctx context.Context, groupID int64) error {
	if groupID <= 0 {
		return fmt.Errorf("group event without group id")
	}
	if err := pubsub.Publish(ctx, c.publisher, topics.GroupDeleted, topics.GroupEvent{GroupID: groupID}); err != nil {
		return fmt.Errorf("publish group %d deleted: %w", groupID, err)
	}
	return nil
}
