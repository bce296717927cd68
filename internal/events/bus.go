package events

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/assessment-review/internal/utils"
	"github.com/SAP-F-2025/assessment-review/internal/validator"
)

// DefaultMaxDepth bounds nested publishing. Well behaved widgets nest a few
// levels at most; anything deeper is an echo loop.
const DefaultMaxDepth = 64

var (
	ErrNilPayload       = errors.New("event payload is nil")
	ErrMaxDepthExceeded = errors.New("event nesting depth exceeded")
)

// Envelope describes one delivery of an event.
type Envelope struct {
	ID        string
	Topic     string
	Payload   any
	Depth     int
	Timestamp time.Time
}

// Unsubscribe removes a subscription. Calling it more than once is harmless.
type Unsubscribe func()

type subscription struct {
	id      string
	topic   string
	handler func(Envelope)
	active  bool
}

// Bus is a synchronous publish/subscribe channel. Publish returns only after
// every subscriber ran, and a subscriber that publishes gets its event
// delivered depth-first before the outer delivery continues.
//
// A Bus is not safe for concurrent use; callers serialize turns.
type Bus struct {
	subscribers map[string][]*subscription
	observers   []*subscription
	logger      utils.Logger
	validator   *validator.Validator
	maxDepth    int
	depth       int
}

type Option func(*Bus)

func WithLogger(logger utils.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

func WithValidator(v *validator.Validator) Option {
	return func(b *Bus) {
		b.validator = v
	}
}

func WithMaxDepth(depth int) Option {
	return func(b *Bus) {
		if depth > 0 {
			b.maxDepth = depth
		}
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subscribers: make(map[string][]*subscription),
		maxDepth:    DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = utils.NewNopLogger()
	}
	if b.validator == nil {
		b.validator = validator.New()
	}
	b.logger = b.logger.With("component", "event_bus")
	return b
}

// SubscribeRaw registers handler for every event published on topic.
func (b *Bus) SubscribeRaw(topic string, handler func(Envelope)) Unsubscribe {
	sub := &subscription{
		id:      uuid.NewString(),
		topic:   topic,
		handler: handler,
		active:  true,
	}
	b.subscribers[topic] = append(b.subscribers[topic], sub)

	return func() {
		if !sub.active {
			return
		}
		sub.active = false
		b.subscribers[topic] = without(b.subscribers[topic], sub)
		if len(b.subscribers[topic]) == 0 {
			delete(b.subscribers, topic)
		}
	}
}

// Observe registers fn for every event on every topic. Observers run before
// the subscribers of the event.
func (b *Bus) Observe(fn func(Envelope)) Unsubscribe {
	sub := &subscription{
		id:      uuid.NewString(),
		handler: fn,
		active:  true,
	}
	b.observers = append(b.observers, sub)

	return func() {
		if !sub.active {
			return
		}
		sub.active = false
		b.observers = without(b.observers, sub)
	}
}

// PublishRaw validates payload and delivers it to the subscribers of topic.
// Invalid payloads are dropped and the validation error returned; it is
// informational, the bus stays usable.
func (b *Bus) PublishRaw(topic string, payload any) error {
	if payload == nil {
		b.logger.Warn("Dropped event without payload", "topic", topic)
		return ErrNilPayload
	}
	if err := b.validator.ValidateStruct(payload); err != nil {
		b.logger.Warn("Dropped invalid event", "topic", topic, "error", err)
		return err
	}
	if b.depth >= b.maxDepth {
		b.logger.Error("Dropped event, nesting too deep",
			"topic", topic,
			"depth", b.depth,
			"max_depth", b.maxDepth)
		return ErrMaxDepthExceeded
	}

	env := Envelope{
		ID:        uuid.NewString(),
		Topic:     topic,
		Payload:   payload,
		Depth:     b.depth,
		Timestamp: time.Now(),
	}

	// Subscriptions added during delivery wait for the next publish; removed
	// ones are skipped through their active flag.
	observers := b.observers
	subs := b.subscribers[topic]

	b.logger.Debug("Publishing event",
		"event_id", env.ID,
		"topic", topic,
		"depth", env.Depth,
		"subscribers", len(subs))

	b.depth++
	defer func() { b.depth-- }()

	for _, sub := range observers {
		if sub.active {
			b.deliver(sub, env)
		}
	}
	for _, sub := range subs {
		if sub.active {
			b.deliver(sub, env)
		}
	}
	return nil
}

// SubscriberCount returns the number of live subscriptions on topic.
func (b *Bus) SubscriberCount(topic string) int {
	return len(b.subscribers[topic])
}

// Depth is the current nesting level: 0 outside any delivery.
func (b *Bus) Depth() int {
	return b.depth
}

func (b *Bus) deliver(sub *subscription, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered panic in event handler",
				"event_id", env.ID,
				"topic", env.Topic,
				"subscription_id", sub.id,
				"panic", r)
		}
	}()
	sub.handler(env)
}

// without returns a copy of subs lacking sub, so a delivery loop ranging over
// the old slice is not disturbed.
func without(subs []*subscription, sub *subscription) []*subscription {
	out := make([]*subscription, 0, len(subs))
	for _, s := range subs {
		if s != sub {
			out = append(out, s)
		}
	}
	return out
}

// Publish delivers payload on a typed topic.
func Publish[P any](b *Bus, topic Topic[P], payload P) error {
	return b.PublishRaw(topic.name, payload)
}

// Subscribe registers a typed handler. Events whose payload is not a P (only
// possible through PublishRaw) are ignored.
func Subscribe[P any](b *Bus, topic Topic[P], handler func(P)) Unsubscribe {
	return b.SubscribeRaw(topic.name, func(env Envelope) {
		payload, ok := env.Payload.(P)
		if !ok {
			b.logger.Warn("Ignored event with unexpected payload type",
				"event_id", env.ID,
				"topic", env.Topic)
			return
		}
		handler(payload)
	})
}
