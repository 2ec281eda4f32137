package pubsub

import (
	"context"
	"errors"
	"log/slog"
	"maps"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// reserved watermill metadata keys; they never leak into Message.Metadata
const (
	metaKeyUserID = "user_id"
	metaKeyTopic  = "topic"
)

const defaultOutputBuffer = 256

var errNoTopic = errors.New("pubsub: publish without topic")

// WatermillBridge implements Publisher and Subscriber on watermill's GoChannel.
type WatermillBridge struct {
	pub    message.Publisher
	sub    message.Subscriber
	tracer trace.Tracer
	logger *slog.Logger
}

type BridgeOption func(*bridgeOptions)

type bridgeOptions struct {
	tracer       trace.Tracer
	outputBuffer int64
}

// WithTracer wraps publishing and message handling in spans.
func WithTracer(tracer trace.Tracer) BridgeOption {
	return func(o *bridgeOptions) { o.tracer = tracer }
}

// WithOutputBuffer sets the per-subscription channel buffer.
func WithOutputBuffer(n int64) BridgeOption {
	return func(o *bridgeOptions) {
		if n > 0 {
			o.outputBuffer = n
		}
	}
}

func NewWatermillBridge(logger *slog.Logger, opts ...BridgeOption) *WatermillBridge {
	if logger == nil {
		logger = slog.Default()
	}
	o := bridgeOptions{outputBuffer: defaultOutputBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = noop.NewTracerProvider().Tracer(tracerName)
	}

	// Publish blocks until every subscriber acked, so a sequential publisher
	// sees its messages delivered in order.
	goChannel := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            o.outputBuffer,
		BlockPublishUntilSubscriberAck: true,
	}, NewSlogAdapter(logger.With("component", "watermill")))

	return &WatermillBridge{
		pub:    newTracingPublisher(goChannel, o.tracer),
		sub:    goChannel,
		tracer: o.tracer,
		logger: logger.With("component", "pubsub"),
	}
}

func toWatermill(ctx context.Context, msg Message) *message.Message {
	wm := message.NewMessage(watermill.NewUUID(), msg.Payload)
	wm.SetContext(ctx)
	maps.Copy(wm.Metadata, msg.Metadata)
	wm.Metadata.Set(metaKeyUserID, msg.UserID)
	wm.Metadata.Set(metaKeyTopic, msg.Topic)
	return wm
}

func fromWatermill(wm *message.Message) Message {
	meta := maps.Clone(map[string]string(wm.Metadata))
	if meta == nil {
		meta = map[string]string{}
	}
	delete(meta, metaKeyTopic)
	userID := meta[metaKeyUserID]
	if userID == "" {
		delete(meta, metaKeyUserID)
	}
	return Message{
		Topic:    wm.Metadata.Get(metaKeyTopic),
		UserID:   userID,
		Payload:  wm.Payload,
		Metadata: meta,
	}
}

// Publish sends msg to every current subscriber of msg.Topic. A topic without
// subscribers drops the message.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	if msg.Topic == "" {
		return errNoTopic
	}
	return wb.pub.Publish(msg.Topic, toWatermill(ctx, msg))
}

// Subscribe starts the message loop for topic. Handler errors are logged and
// the message is acked anyway; the in-memory bus has no redelivery.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for wm := range messages {
			if err := wb.process(ctx, wm, handler); err != nil {
				wb.logger.Error("Failed to handle message", "topic", topic, "msg_id", wm.UUID, "error", err)
			}
			wm.Ack()
		}
		wb.logger.Debug("Subscription ended", "topic", topic)
	}()
	return nil
}

func (wb *WatermillBridge) process(ctx context.Context, wm *message.Message, handler Handler) error {
	spanCtx, span := startProcessSpan(ctx, wb.tracer, wm)
	defer span.End()

	err := handler(spanCtx, fromWatermill(wm))
	recordSpanError(span, err)
	return err
}

// Close stops the bus. Subscription loops end once their channels drain.
func (wb *WatermillBridge) Close() error {
	return wb.sub.Close()
}
