// Package router classifies inbound chat messages, persists them and hands
// them to live delivery.
//
// Every send path persists before it delivers. A message that failed to
// persist is never delivered; a message that persisted is reported as sent
// even when its delivery fails.
package router

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/metrics"
)

// Deliverer hands a payload to the live sessions behind a destination.
type Deliverer interface {
	Deliver(ctx context.Context, dest domain.Destination, payload any) error
}

// GroupNotifier is implemented by deliverers that can tell live sessions a
// group was deleted.
type GroupNotifier interface {
	GroupDeleted(ctx context.Context, groupID int64) error
}

// Router is safe for concurrent use; calls do not serialize on each other.
type Router struct {
	messages domain.MessageStore
	groups   domain.GroupStore
	out      Deliverer

	now         func() time.Time
	publicDelay time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option is a function that configures a Router.
type Option func(*Router)

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// WithPublicDelay holds each public message for d between persistence and delivery.
func WithPublicDelay(d time.Duration) Option {
	return func(r *Router) { r.publicDelay = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

func New(messages domain.MessageStore, groups domain.GroupStore, out Deliverer, opts ...Option) *Router {
	r := &Router{
		messages: messages,
		groups:   groups,
		out:      out,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "router")
	return r
}

// Routed is the outcome of Route. Exactly one of Message and Group is set.
type Routed struct {
	Destination domain.Destination
	Message     *domain.Message
	Group       *domain.GroupMessageView
}

// Route classifies msg once and sends it down the matching path.
func (r *Router) Route(ctx context.Context, msg domain.Message) (Routed, error) {
	dest, err := domain.Classify(msg)
	if err != nil {
		r.countFailure("unknown", err)
		return Routed{}, err
	}

	out := Routed{Destination: dest}
	switch dest.Kind {
	case domain.KindGroup:
		view, err := r.RouteGroup(ctx, domain.GroupSend{
			GroupID:    msg.GroupID,
			SenderName: msg.SenderName,
			Message:    msg.Message,
			Media:      msg.Media,
			MediaType:  msg.MediaType,
		})
		if err != nil {
			return out, err
		}
		out.Group = &view
	case domain.KindPrivate:
		saved, err := r.RoutePrivate(ctx, msg)
		if err != nil {
			return out, err
		}
		out.Message = &saved
	default:
		saved, err := r.RoutePublic(ctx, msg)
		if err != nil {
			return out, err
		}
		out.Message = &saved
	}
	return out, nil
}

// RoutePublic persists a message without receiver and delivers it to every session.
func (r *Router) RoutePublic(ctx context.Context, msg domain.Message) (domain.Message, error) {
	const op = "route public"
	kind := domain.KindPublic.String()

	if !msg.IsPublic() {
		return domain.Message{}, r.fail(kind, domain.Validation(op, "public message cannot name a receiver or group"))
	}
	if err := domain.ValidateStruct(op, msg); err != nil {
		return domain.Message{}, r.fail(kind, err)
	}

	msg.ID = ""
	msg.Timestamp = r.now()
	saved, err := r.messages.SaveMessage(ctx, msg)
	if err != nil {
		return domain.Message{}, r.fail(kind, domain.Persistence(op, err))
	}

	r.hold(ctx, r.publicDelay)
	r.deliver(ctx, domain.PublicTopic(), saved)
	return saved, nil
}

// RoutePrivate persists a message for one receiver and delivers it to that
// receiver's sessions. An offline receiver still gets the message in history.
func (r *Router) RoutePrivate(ctx context.Context, msg domain.Message) (domain.Message, error) {
	const op = "route private"
	kind := domain.KindPrivate.String()

	if msg.ReceiverName == "" {
		return domain.Message{}, r.fail(kind, domain.Validation(op, "private message needs a receiver"))
	}
	if msg.GroupID != 0 {
		return domain.Message{}, r.fail(kind, domain.Validation(op, "private message cannot name a group"))
	}
	if err := domain.ValidateStruct(op, msg); err != nil {
		return domain.Message{}, r.fail(kind, err)
	}

	msg.ID = ""
	msg.Timestamp = r.now()
	saved, err := r.messages.SaveMessage(ctx, msg)
	if err != nil {
		return domain.Message{}, r.fail(kind, domain.Persistence(op, err))
	}

	r.deliver(ctx, domain.PrivateChannel(saved.ReceiverName), saved)
	return saved, nil
}

// RouteGroup persists a message in a group's history and delivers its
// projection to the group's subscribers. Unknown groups fail before any write.
func (r *Router) RouteGroup(ctx context.Context, send domain.GroupSend) (domain.GroupMessageView, error) {
	const op = "route group"
	kind := domain.KindGroup.String()

	if err := domain.ValidateStruct(op, send); err != nil {
		return domain.GroupMessageView{}, r.fail(kind, err)
	}
	name, err := r.groupName(ctx, op, send.GroupID)
	if err != nil {
		return domain.GroupMessageView{}, r.fail(kind, err)
	}

	saved, err := r.messages.SaveGroupMessage(ctx, domain.GroupMessage{
		GroupID:    send.GroupID,
		SenderName: send.SenderName,
		Message:    send.Message,
		Media:      send.Media,
		MediaType:  send.MediaType,
		Timestamp:  r.now(),
	})
	if err != nil {
		return domain.GroupMessageView{}, r.fail(kind, domain.Persistence(op, err))
	}

	view := saved.View(name)
	r.deliver(ctx, domain.GroupTopic(send.GroupID), view)
	return view, nil
}

// groupName resolves a group or returns NotFound / Persistence.
func (r *Router) groupName(ctx context.Context, op string, groupID int64) (string, error) {
	name, err := r.groups.GroupName(ctx, groupID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "", domain.NotFound(op, "group")
	case err != nil:
		return "", domain.Persistence(op, err)
	}
	return name, nil
}

// hold waits d, or until ctx ends. Each call has its own timer.
func (r *Router) hold(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// deliver never fails the caller: the message is already durable.
func (r *Router) deliver(ctx context.Context, dest domain.Destination, payload any) {
	ctx = context.WithoutCancel(ctx)
	kind := dest.Kind.String()
	if r.metrics != nil {
		r.metrics.MessagesRouted.WithLabelValues(kind).Inc()
	}
	if err := r.out.Deliver(ctx, dest, payload); err != nil {
		r.logger.WarnContext(ctx, "Live delivery failed", "destination", dest.String(), "error", err)
		if r.metrics != nil {
			r.metrics.DeliveryFailure.WithLabelValues(kind).Inc()
		}
	}
}

func (r *Router) fail(kind string, err error) error {
	r.countFailure(kind, err)
	if errors.Is(err, domain.ErrPersistence) {
		r.logger.Error("Failed to persist message", "kind", kind, "error", err)
	}
	return err
}

func (r *Router) countFailure(kind string, err error) {
	if r.metrics == nil {
		return
	}
	reason := "other"
	switch {
	case errors.Is(err, domain.ErrValidation):
		reason = "validation"
	case errors.Is(err, domain.ErrNotFound):
		reason = "not_found"
	case errors.Is(err, domain.ErrPersistence):
		reason = "persistence"
	}
	r.metrics.RouteFailures.WithLabelValues(kind, reason).Inc()
}
