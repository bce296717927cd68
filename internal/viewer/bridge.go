// Package viewer connects the review bus to the image viewer through
// watermill. The viewer itself lives outside this module; it only needs to
// speak JSON payloads on the topics listed here.
package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/SAP-F-2025/assessment-review/internal/events"
	"github.com/SAP-F-2025/assessment-review/internal/utils"
)

var ErrNoSubscriber = errors.New("viewer bridge has no subscriber")

// Topics the viewer listens to.
var OutboundTopics = []string{
	events.TopicSelectMark.Name(),
	events.TopicDeselectMark.Name(),
	events.TopicZoomMark.Name(),
	events.TopicShowMarks.Name(),
	events.TopicHideMarks.Name(),
	events.TopicShowOverlay.Name(),
	events.TopicHideOverlay.Name(),
}

// Topics the viewer reports on.
var InboundTopics = []string{
	events.TopicChangeImage.Name(),
	events.TopicSelectedMark.Name(),
	events.TopicDeselectedMark.Name(),
}

// Turns runs bus interactions one at a time. *review.Session implements it.
type Turns interface {
	Do(fn func(bus *events.Bus)) error
}

// Config holds configuration for the bridge
type Config struct {
	TopicPrefix string
	Logger      utils.Logger
}

// Bridge forwards viewer commands from the bus to a watermill publisher and
// feeds viewer reports from a watermill subscriber into the bus.
type Bridge struct {
	turns      Turns
	publisher  message.Publisher
	subscriber message.Subscriber
	prefix     string
	logger     utils.Logger

	outbound map[string]bool
	stop     events.Unsubscribe
}

// NewBridge starts forwarding outbound events right away. Inbound messages
// are consumed by Run. subscriber may be nil for a forward-only bridge.
func NewBridge(turns Turns, publisher message.Publisher, subscriber message.Subscriber, cfg Config) (*Bridge, error) {
	if cfg.Logger == nil {
		cfg.Logger = utils.NewNopLogger()
	}
	b := &Bridge{
		turns:      turns,
		publisher:  publisher,
		subscriber: subscriber,
		prefix:     cfg.TopicPrefix,
		logger:     cfg.Logger.With("component", "viewer_bridge"),
		outbound:   make(map[string]bool, len(OutboundTopics)),
	}
	for _, topic := range OutboundTopics {
		b.outbound[topic] = true
	}

	if err := turns.Do(func(bus *events.Bus) {
		b.stop = bus.Observe(b.forward)
	}); err != nil {
		return nil, fmt.Errorf("failed to attach viewer bridge: %w", err)
	}
	return b, nil
}

// Run consumes viewer reports until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	if b.subscriber == nil {
		return ErrNoSubscriber
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, topic := range InboundTopics {
		messages, err := b.subscriber.Subscribe(runCtx, b.prefix+topic)
		if err != nil {
			// Stop the consumers already started before reporting failure.
			cancel()
			wg.Wait()
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}

		wg.Add(1)
		go func(topic string, messages <-chan *message.Message) {
			defer wg.Done()
			for msg := range messages {
				b.handle(topic, msg)
			}
		}(topic, messages)
	}

	b.logger.Info("Viewer bridge running", "topics", InboundTopics, "prefix", b.prefix)
	wg.Wait()
	return ctx.Err()
}

// Close stops forwarding. The publisher and subscriber belong to the caller.
func (b *Bridge) Close() error {
	err := b.turns.Do(func(*events.Bus) {
		b.stop()
	})
	if err != nil {
		// The session is gone and its bus with it.
		b.logger.Debug("Viewer bridge closed after its session", "error", err)
	}
	return nil
}

// forward runs inside the turn that published the event.
func (b *Bridge) forward(env events.Envelope) {
	if !b.outbound[env.Topic] {
		return
	}

	data, err := json.Marshal(env.Payload)
	if err != nil {
		b.logger.LogError(err, "Failed to marshal viewer event", "event_id", env.ID, "topic", env.Topic)
		return
	}

	msg := message.NewMessage(env.ID, data)
	msg.Metadata.Set("event_id", env.ID)
	msg.Metadata.Set("topic", env.Topic)
	msg.Metadata.Set("depth", strconv.Itoa(env.Depth))
	msg.Metadata.Set("timestamp", env.Timestamp.Format(time.RFC3339Nano))

	if err := b.publisher.Publish(b.prefix+env.Topic, msg); err != nil {
		b.logger.Error("Failed to publish viewer event",
			"event_id", env.ID,
			"topic", env.Topic,
			"error", err)
		return
	}

	b.logger.Debug("Forwarded viewer event", "event_id", env.ID, "topic", env.Topic)
}

// handle acks every message: a report that cannot be applied is dropped, the
// next one may succeed.
func (b *Bridge) handle(topic string, msg *message.Message) {
	defer msg.Ack()

	payload, err := events.Decode(topic, msg.Payload)
	if err != nil {
		b.logger.Warn("Dropped malformed viewer message",
			"message_uuid", msg.UUID,
			"topic", topic,
			"error", err)
		return
	}

	var publishErr error
	if err := b.turns.Do(func(bus *events.Bus) {
		publishErr = bus.PublishRaw(topic, payload)
	}); err != nil {
		b.logger.Warn("Dropped viewer message, session unavailable",
			"message_uuid", msg.UUID,
			"topic", topic,
			"error", err)
		return
	}
	if publishErr != nil {
		b.logger.Warn("Viewer message rejected by bus",
			"message_uuid", msg.UUID,
			"topic", topic,
			"error", publishErr)
	}
}
