package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/metrics"
	"github.com/nfrund/gobychat/internal/middleware"
	"github.com/nfrund/gobychat/internal/pubsub"
	"github.com/nfrund/gobychat/internal/router"
	"github.com/nfrund/gobychat/internal/topics"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second
	// Time allowed for the close handshake of every session on shutdown.
	closeWait = 5 * time.Second

	endpoint = "/ws"
)

// Router is the part of the message router the bridge drives.
type Router interface {
	Route(ctx context.Context, msg domain.Message) (router.Routed, error)
}

// Bridge manages all WebSocket sessions. It feeds inbound frames to the
// router, announces sessions on the lifecycle topics and fans chat and
// presence topics out to the sessions they address.
type Bridge struct {
	publisher pubsub.Publisher
	router    Router
	groups    domain.GroupDirectory

	logger         *slog.Logger
	metrics        *metrics.Metrics
	sendBuffer     int
	originPatterns []string

	mu       sync.RWMutex
	sessions map[string]*session

	presenceMu      sync.Mutex
	presenceVersion uint64
	presenceFrame   []byte
}

// Option is a function that configures a Bridge.
type Option func(*Bridge)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bridge) { b.metrics = m }
}

// WithSendBuffer sets how many outbound frames a session may queue before
// further frames are dropped.
func WithSendBuffer(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.sendBuffer = n
		}
	}
}

// WithOriginPatterns allows cross-origin handshakes from hosts matching the
// patterns. Without patterns only same-origin handshakes are accepted.
func WithOriginPatterns(patterns ...string) Option {
	return func(b *Bridge) { b.originPatterns = patterns }
}

// NewBridge initializes a new Bridge, ready to handle connections.
func NewBridge(pub pubsub.Publisher, r Router, groups domain.GroupDirectory, opts ...Option) *Bridge {
	b := &Bridge{
		publisher:  pub,
		router:     r,
		groups:     groups,
		logger:     slog.Default(),
		sendBuffer: 256,
		sessions:   make(map[string]*session),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "websocket")
	return b
}

// Listen subscribes the bridge to the chat and presence topics.
func (b *Bridge) Listen(ctx context.Context, sub pubsub.Subscriber) error {
	subs := []struct {
		name    string
		handler pubsub.Handler
	}{
		{topics.Public.Name(), b.onPublic},
		{topics.Private.Name(), b.onPrivate},
		{topics.Group.Name(), b.onGroup},
		{topics.GroupDeleted.Name(), b.onGroupDeleted},
		{topics.OnlineUsers.Name(), b.onPresence},
	}
	for _, s := range subs {
		if err := sub.Subscribe(ctx, s.name, s.handler); err != nil {
			return fmt.Errorf("subscribe %s: %w", s.name, err)
		}
	}
	b.logger.Info("WebSocket bridge listening", "topics", len(subs))
	return nil
}

// Handler upgrades the request and serves the session until it closes.
// The identity comes from middleware.Identity; anonymous sessions can read
// public traffic and send as any sender name.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		identity := middleware.IdentityFrom(c)
		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			OriginPatterns: b.originPatterns,
		})
		if err != nil {
			// Accept already wrote the HTTP error.
			b.logger.Warn("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}

		s := newSession(uuid.NewString(), identity, conn, b.sendBuffer)
		b.add(s)
		go b.writeLoop(s)

		ctx := context.WithoutCancel(c.Request().Context())
		b.announce(ctx, topics.ClientReady, s, "")

		reason := b.readLoop(ctx, s)

		b.remove(s)
		s.close()
		b.announce(ctx, topics.ClientDisconnected, s, reason)
		return nil
	}
}

// Close ends every session with a going-away status.
func (b *Bridge) Close() error {
	b.mu.RLock()
	open := make([]*session, 0, len(b.sessions))
	for _, s := range b.sessions {
		open = append(open, s)
	}
	b.mu.RUnlock()

	var wg sync.WaitGroup
	for _, s := range open {
		wg.Add(1)
		go func(s *session) {
			defer wg.Done()
			_ = s.conn.Close(websocket.StatusGoingAway, "server shutting down")
		}(s)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(closeWait):
		b.logger.Warn("Timed out closing WebSocket sessions", "open", len(open))
	}
	return nil
}

// SessionCount returns the number of open sessions.
func (b *Bridge) SessionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}

func (b *Bridge) add(s *session) {
	b.mu.Lock()
	b.sessions[s.id] = s
	b.mu.Unlock()

	b.presenceMu.Lock()
	frame := b.presenceFrame
	b.presenceMu.Unlock()
	if frame != nil {
		b.push(s, frame)
	}

	if b.metrics != nil {
		b.metrics.Sessions.Inc()
	}
	b.logger.Info("Session opened", "session_id", s.id, "identity", s.identity)
}

func (b *Bridge) remove(s *session) {
	b.mu.Lock()
	_, ok := b.sessions[s.id]
	delete(b.sessions, s.id)
	b.mu.Unlock()

	if ok && b.metrics != nil {
		b.metrics.Sessions.Dec()
	}
	b.logger.Info("Session closed", "session_id", s.id, "identity", s.identity)
}

func (b *Bridge) announce(ctx context.Context, event pubsub.Event[topics.ClientEvent], s *session, reason string) {
	ev := topics.ClientEvent{
		UserID:   s.identity,
		ClientID: s.id,
		Endpoint: endpoint,
		Reason:   reason,
	}
	if err := pubsub.PublishWith(ctx, b.publisher, event, ev, s.identity, nil); err != nil {
		b.logger.Error("Failed to publish session event", "topic", event.Name(), "session_id", s.id, "error", err)
	}
}

// readLoop handles inbound frames until the connection fails and returns
// the close reason.
func (b *Bridge) readLoop(ctx context.Context, s *session) string {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				return "closed"
			case errors.Is(err, io.EOF):
				return "eof"
			default:
				b.logger.Debug("WebSocket read ended", "session_id", s.id, "error", err)
				return "error"
			}
		}
		if typ != websocket.MessageText {
			b.push(s, errorFrame(domain.Validation("read frame", "only text frames are accepted")))
			continue
		}
		b.handleFrame(ctx, s, data)
	}
}

func (b *Bridge) handleFrame(ctx context.Context, s *session, data []byte) {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		b.push(s, errorFrame(domain.Validation("decode frame", "frame is not valid JSON")))
		return
	}

	switch f.Type {
	case frameMessage:
		msg := f.Message
		if s.identity != "" {
			msg.SenderName = s.identity
		}
		routed, err := b.router.Route(ctx, msg)
		if err != nil {
			b.push(s, errorFrame(err))
			return
		}
		var sent any = routed.Message
		if routed.Group != nil {
			sent = routed.Group
		}
		frame, err := encodeEnvelope(topics.EnvelopeSent, sent)
		if err != nil {
			b.logger.Error("Failed to encode sent frame", "session_id", s.id, "error", err)
			return
		}
		b.push(s, frame)

	case frameSubscribe:
		if err := b.subscribeGroup(ctx, s, f.GroupID); err != nil {
			b.push(s, errorFrame(err))
		}

	case frameUnsubscribe:
		s.leave(f.GroupID)

	default:
		b.push(s, errorFrame(domain.Validation("decode frame", fmt.Sprintf("unknown frame type %q", f.Type))))
	}
}

func (b *Bridge) subscribeGroup(ctx context.Context, s *session, groupID int64) error {
	const op = "subscribe"
	if groupID <= 0 {
		return domain.Validation(op, "groupId must be positive")
	}
	exists, err := b.groups.GroupExists(ctx, groupID)
	if err != nil {
		return domain.Persistence(op, err)
	}
	if !exists {
		return domain.NotFound(op, "group")
	}
	s.join(groupID)
	b.logger.Debug("Session joined group", "session_id", s.id, "group_id", groupID)
	return nil
}

// writeLoop drains the session queue to the connection. It ends when the
// queue is closed or a write fails.
func (b *Bridge) writeLoop(s *session) {
	for frame := range s.outbox() {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := s.conn.Write(ctx, websocket.MessageText, frame)
		cancel()
		if err != nil {
			b.logger.Debug("WebSocket write failed", "session_id", s.id, "error", err)
			_ = s.conn.CloseNow()
			return
		}
	}
	_ = s.conn.Close(websocket.StatusNormalClosure, "")
}

// push queues a frame on one session, dropping it if the queue is full.
func (b *Bridge) push(s *session, frame []byte) {
	err := s.enqueue(frame)
	if errors.Is(err, errSendBufferFull) {
		b.logger.Warn("Session send buffer full, dropping frame", "session_id", s.id, "identity", s.identity)
		if b.metrics != nil {
			b.metrics.FramesDropped.Inc()
		}
	}
}

// fanOut pushes frame to every session accepted by match.
func (b *Bridge) fanOut(frame []byte, match func(*session) bool) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, s := range b.sessions {
		if match(s) {
			b.push(s, frame)
			n++
		}
	}
	return n
}

func (b *Bridge) onPublic(ctx context.Context, msg pubsub.Message) error {
	b.fanOut(msg.Payload, func(*session) bool { return true })
	return nil
}

func (b *Bridge) onPrivate(ctx context.Context, msg pubsub.Message) error {
	recipient := msg.Metadata[pubsub.MetaRecipientID]
	if recipient == "" {
		return fmt.Errorf("private message without %s", pubsub.MetaRecipientID)
	}
	n := b.fanOut(msg.Payload, func(s *session) bool { return s.identity == recipient })
	if n == 0 {
		b.logger.Debug("Private recipient offline", "recipient", recipient)
	}
	return nil
}

func (b *Bridge) onGroup(ctx context.Context, msg pubsub.Message) error {
	groupID, err := strconv.ParseInt(msg.Metadata[pubsub.MetaGroupID], 10, 64)
	if err != nil {
		return fmt.Errorf("group message with bad %s: %w", pubsub.MetaGroupID, err)
	}
	b.fanOut(msg.Payload, func(s *session) bool { return s.inGroup(groupID) })
	return nil
}

// onGroupDeleted tells the group's sessions and drops their subscription.
func (b *Bridge) onGroupDeleted(ctx context.Context, msg pubsub.Message) error {
	var ev topics.GroupEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("decode group event: %w", err)
	}
	frame, err := encodeEnvelope(topics.EnvelopeGroupDeleted, ev)
	if err != nil {
		return err
	}

	n := b.fanOut(frame, func(s *session) bool {
		if !s.inGroup(ev.GroupID) {
			return false
		}
		s.leave(ev.GroupID)
		return true
	})
	b.logger.Debug("Group subscriptions dropped", "group_id", ev.GroupID, "sessions", n)
	return nil
}

// onPresence forwards snapshots newer than the last one seen and keeps the
// latest for sessions that open later.
func (b *Bridge) onPresence(ctx context.Context, msg pubsub.Message) error {
	var update topics.PresenceUpdate
	if err := json.Unmarshal(msg.Payload, &update); err != nil {
		return fmt.Errorf("decode presence update: %w", err)
	}

	b.presenceMu.Lock()
	if update.Version <= b.presenceVersion {
		b.presenceMu.Unlock()
		b.logger.Debug("Dropping stale presence snapshot", "version", update.Version)
		return nil
	}
	frame, err := json.Marshal(topics.Envelope{Type: topics.EnvelopePresence, Data: msg.Payload})
	if err != nil {
		b.presenceMu.Unlock()
		return err
	}
	b.presenceVersion = update.Version
	b.presenceFrame = frame
	b.presenceMu.Unlock()

	b.fanOut(frame, func(*session) bool { return true })
	return nil
}
