package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/nfrund/gobychat/internal/topicmgr"
)

// Event[T] binds a registered topic to its payload type.
type Event[T any] struct {
	topic topicmgr.Topic
}

// NewFrameworkEvent defines a framework-scoped typed event and registers it with
// the default topic manager. It panics on an invalid or duplicate definition,
// so events are declared as package-level variables.
func NewFrameworkEvent[T any](config topicmgr.TopicConfig) Event[T] {
	config.Metadata = payloadMetadata[T](config.Metadata)
	return register[T](topicmgr.DefineFramework(config))
}

// NewModuleEvent is NewFrameworkEvent for module-scoped topics.
func NewModuleEvent[T any](config topicmgr.TopicConfig) Event[T] {
	config.Metadata = payloadMetadata[T](config.Metadata)
	return register[T](topicmgr.DefineModule(config))
}

func register[T any](topic topicmgr.Topic) Event[T] {
	topicmgr.Default().MustRegister(topic)
	return Event[T]{topic: topic}
}

// payloadMetadata records the JSON field names of T for topic documentation.
func payloadMetadata[T any](base map[string]any) map[string]any {
	meta := make(map[string]any, len(base)+3)
	for k, v := range base {
		meta[k] = v
	}

	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	fields := make([]string, 0)
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
			if name != "" && name != "-" {
				fields = append(fields, name)
			}
		}
	}

	meta["payload_fields"] = fields
	meta["type_name"] = t.Name()
	meta["is_typed"] = true
	return meta
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topic.Name()
}

// Topic returns the registered topic definition.
func (e Event[T]) Topic() topicmgr.Topic {
	return e.topic
}

// Publish sends a typed event. The compiler ensures payload matches T.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], payload T) error {
	return PublishWith(ctx, p, event, payload, "", nil)
}

// PublishWith is Publish with the originating identity and routing metadata.
func PublishWith[T any](ctx context.Context, p Publisher, event Event[T], payload T, userID string, metadata map[string]string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event.Name(), err)
	}
	return p.Publish(ctx, Message{
		Topic:    event.Name(),
		UserID:   userID,
		Payload:  data,
		Metadata: metadata,
	})
}

// Subscribe registers a handler that receives decoded payloads of T.
// Payloads that fail to decode are reported as handler errors.
func Subscribe[T any](ctx context.Context, s Subscriber, event Event[T], handler func(ctx context.Context, payload T, msg Message) error) error {
	return s.Subscribe(ctx, event.Name(), func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Name(), err)
		}
		return handler(ctx, payload, msg)
	})
}
