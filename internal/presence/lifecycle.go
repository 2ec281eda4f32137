package presence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/gobychat/internal/pubsub"
	"github.com/nfrund/gobychat/internal/topics"
)

// Session is one live connection. Identity is empty for anonymous sessions.
type Session struct {
	ID       string
	Identity string
}

// Lifecycle feeds session open and close signals into a Tracker.
type Lifecycle struct {
	tracker *Tracker
	logger  *slog.Logger
}

func NewLifecycle(tracker *Tracker, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{tracker: tracker, logger: logger.With("component", "lifecycle")}
}

// OnConnected marks the session's identity online. Anonymous sessions are ignored.
func (l *Lifecycle) OnConnected(ctx context.Context, s Session) {
	if s.Identity == "" {
		l.logger.DebugContext(ctx, "Ignoring anonymous session connect", "session_id", s.ID)
		return
	}
	l.tracker.Connect(ctx, s.Identity)
}

// OnDisconnected marks the session's identity offline. Anonymous sessions are ignored.
func (l *Lifecycle) OnDisconnected(ctx context.Context, s Session) {
	if s.Identity == "" {
		l.logger.DebugContext(ctx, "Ignoring anonymous session disconnect", "session_id", s.ID)
		return
	}
	l.tracker.Disconnect(ctx, s.Identity)
}

// Listen subscribes to the transport's client ready and disconnected events.
func (l *Lifecycle) Listen(ctx context.Context, sub pubsub.Subscriber) error {
	err := pubsub.Subscribe(ctx, sub, topics.ClientReady, func(ctx context.Context, ev topics.ClientEvent, _ pubsub.Message) error {
		l.OnConnected(ctx, Session{ID: ev.ClientID, Identity: ev.UserID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topics.ClientReady.Name(), err)
	}

	err = pubsub.Subscribe(ctx, sub, topics.ClientDisconnected, func(ctx context.Context, ev topics.ClientEvent, _ pubsub.Message) error {
		l.OnDisconnected(ctx, Session{ID: ev.ClientID, Identity: ev.UserID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topics.ClientDisconnected.Name(), err)
	}

	l.logger.Info("Listening for session lifecycle events",
		"ready_topic", topics.ClientReady.Name(),
		"disconnect_topic", topics.ClientDisconnected.Name())
	return nil
}
