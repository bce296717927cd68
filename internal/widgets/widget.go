// Package widgets holds the review question widgets. Widgets never reference
// each other: they stay consistent only through events on a shared bus.
package widgets

import (
	"github.com/SAP-F-2025/assessment-review/internal/events"
	"github.com/SAP-F-2025/assessment-review/internal/models"
	"github.com/SAP-F-2025/assessment-review/internal/utils"
)

// Widget is one live question on the task view.
type Widget interface {
	QuestionID() string
	Kind() models.QuestionType
	// Close unsubscribes the widget and resets its visible state without
	// publishing anything.
	Close()
}

type base struct {
	id           string
	bus          *events.Bus
	logger       utils.Logger
	unsubscribes []events.Unsubscribe
}

func newBase(bus *events.Bus, q *models.Question, logger utils.Logger) base {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return base{
		id:     q.ID,
		bus:    bus,
		logger: logger.With("component", "widget", "question_id", q.ID, "question_type", q.Type),
	}
}

func (b *base) QuestionID() string {
	return b.id
}

func (b *base) track(unsubscribe events.Unsubscribe) {
	b.unsubscribes = append(b.unsubscribes, unsubscribe)
}

func (b *base) release() {
	for _, unsubscribe := range b.unsubscribes {
		unsubscribe()
	}
	b.unsubscribes = nil
}

// emit publishes on behalf of a widget. Rejected payloads are already logged
// by the bus; the widget carries on.
func emit[P any](b *base, topic events.Topic[P], payload P) {
	if err := events.Publish(b.bus, topic, payload); err != nil {
		b.logger.Debug("Event not delivered", "topic", topic.Name(), "error", err)
	}
}
