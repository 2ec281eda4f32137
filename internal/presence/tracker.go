// Package presence tracks which identities are online and turns transport
// lifecycle events into presence changes.
package presence

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/nfrund/gobychat/internal/pubsub"
	"github.com/nfrund/gobychat/internal/topics"
	"github.com/prometheus/client_golang/prometheus"
)

// Tracker is the set of online identities. Every Connect and Disconnect
// publishes the full resulting set on topics.OnlineUsers.
type Tracker struct {
	mu      sync.RWMutex
	online  map[string]struct{}
	version uint64

	publisher pubsub.Publisher
	logger    *slog.Logger
	gauge     prometheus.Gauge
}

// Option is a function that configures a Tracker.
type Option func(*Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithOnlineGauge keeps g equal to the number of online identities.
func WithOnlineGauge(g prometheus.Gauge) Option {
	return func(t *Tracker) { t.gauge = g }
}

func NewTracker(publisher pubsub.Publisher, opts ...Option) *Tracker {
	t := &Tracker{
		online:    make(map[string]struct{}),
		publisher: publisher,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "presence")
	return t
}

// Connect marks identity online. Connecting an online identity changes
// nothing but still publishes a snapshot.
func (t *Tracker) Connect(ctx context.Context, identity string) {
	t.apply(ctx, identity, true)
}

// Disconnect marks identity offline. Unknown identities are a no-op apart
// from the published snapshot.
func (t *Tracker) Disconnect(ctx context.Context, identity string) {
	t.apply(ctx, identity, false)
}

func (t *Tracker) apply(ctx context.Context, identity string, online bool) {
	if identity == "" {
		return
	}

	t.mu.Lock()
	if online {
		t.online[identity] = struct{}{}
	} else {
		delete(t.online, identity)
	}
	t.version++
	update := topics.PresenceUpdate{
		Type:    topics.PresenceUpdateType,
		Version: t.version,
		Users:   t.snapshotLocked(),
	}
	t.mu.Unlock()

	if t.gauge != nil {
		t.gauge.Set(float64(len(update.Users)))
	}
	t.logger.DebugContext(ctx, "Presence changed", "identity", identity, "online", online, "count", len(update.Users), "version", update.Version)

	// published outside the lock; Version lets consumers drop stale snapshots
	if err := pubsub.Publish(ctx, t.publisher, topics.OnlineUsers, update); err != nil {
		t.logger.ErrorContext(ctx, "Failed to publish presence update", "error", err, "topic", topics.OnlineUsers.Name())
	}
}

// IsOnline reports whether identity is currently in the set.
func (t *Tracker) IsOnline(identity string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[identity]
	return ok
}

// Snapshot returns a sorted copy of the online set.
func (t *Tracker) Snapshot() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() []string {
	users := make([]string, 0, len(t.online))
	for id := range t.online {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}
