package review

import (
	"fmt"
	"sync"

	"github.com/SAP-F-2025/assessment-review/internal/events"
	"github.com/SAP-F-2025/assessment-review/internal/models"
	"github.com/SAP-F-2025/assessment-review/internal/utils"
	"github.com/SAP-F-2025/assessment-review/internal/validator"
	"github.com/SAP-F-2025/assessment-review/internal/widgets"
)

// Options configures a Session. Zero values select defaults.
type Options struct {
	Logger    utils.Logger
	Validator *validator.Validator
	MaxDepth  int
}

// Session is one task view: a bus and one widget per question, alive until
// the user navigates away.
//
// Each exported method runs as one turn. Turns are serialized, so events
// arriving from the viewer on other goroutines never interleave with user
// actions. Inside a turn delivery is synchronous and single threaded.
type Session struct {
	mu     sync.Mutex
	task   *models.Task
	bus    *events.Bus
	logger utils.Logger

	widgets []widgets.Widget
	byID    map[string]widgets.Widget

	activeImage   string
	unsubscribers []events.Unsubscribe
	closed        bool
}

// NewSession validates task and builds its widgets in question order, which
// is also the order they receive events in.
func NewSession(task *models.Task, opts Options) (*Session, error) {
	if task == nil {
		return nil, ErrInvalidTask
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}
	if opts.Validator == nil {
		opts.Validator = validator.New()
	}
	if err := opts.Validator.Validate(task); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTask, err)
	}

	logger := opts.Logger.With("component", "review_session", "task_id", task.ID)
	bus := events.NewBus(
		events.WithLogger(opts.Logger),
		events.WithValidator(opts.Validator),
		events.WithMaxDepth(opts.MaxDepth),
	)

	s := &Session{
		task:   task,
		bus:    bus,
		logger: logger,
		byID:   make(map[string]widgets.Widget, len(task.Questions)),
	}

	// Registered before any widget so the active image is current when
	// widgets react to the same change.
	s.unsubscribers = append(s.unsubscribers,
		events.Subscribe(bus, events.TopicChangeImage, func(p events.ImageChanged) {
			s.activeImage = p.ImageID
		}))

	for i := range task.Questions {
		q := &task.Questions[i]
		w, err := widgets.New(bus, q, opts.Logger)
		if err != nil {
			s.closeWidgets()
			return nil, fmt.Errorf("%w: %w", ErrInvalidTask, err)
		}
		if marker, ok := w.(*widgets.MarkerQuestion); ok {
			if dups := marker.Marks().DuplicateRespondents(); len(dups) > 0 {
				logger.Warn("Marker question has several marks per respondent, first mark wins",
					"question_id", q.ID,
					"respondents", dups)
			}
		}
		s.widgets = append(s.widgets, w)
		s.byID[q.ID] = w
	}

	logger.Info("Review session opened",
		"questions", len(s.widgets),
		"images", len(task.Images))

	return s, nil
}

// Do runs fn as one turn with exclusive access to the bus.
func (s *Session) Do(fn func(bus *events.Bus)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	fn(s.bus)
	return nil
}

// ShowAnswers toggles the respondents' marks of a marker question.
func (s *Session) ShowAnswers(questionID string) error {
	return withWidget(s, questionID, "show answers", func(m *widgets.MarkerQuestion) {
		m.ShowAnswers()
	})
}

// ShowSolution toggles the solution overlay of a marker question.
func (s *Session) ShowSolution(questionID string) error {
	return withWidget(s, questionID, "show solution", func(m *widgets.MarkerQuestion) {
		m.ShowSolution()
	})
}

// ToggleOverlay toggles every overlay of a collection question.
func (s *Session) ToggleOverlay(questionID string) error {
	return withWidget(s, questionID, "toggle overlay", func(c *widgets.CollectionQuestion) {
		c.ShowOverlay()
	})
}

// ClickValue handles a click on answer index of an open question. consumed
// tells the UI layer to stop the click from reaching enclosing regions.
func (s *Session) ClickValue(questionID string, index int, zoom, forceSelect bool) (consumed bool, err error) {
	err = withWidget(s, questionID, "click value", func(o *widgets.OpenQuestion) {
		consumed = o.OnClick(index, zoom, forceSelect)
	})
	return consumed, err
}

// ChangeImage announces that the viewer now shows imageID.
func (s *Session) ChangeImage(imageID string) error {
	var publishErr error
	if err := s.Do(func(bus *events.Bus) {
		publishErr = events.Publish(bus, events.TopicChangeImage, events.ImageChanged{ImageID: imageID})
	}); err != nil {
		return err
	}
	return publishErr
}

// ActiveImage is the image of the last change-image event, or "".
func (s *Session) ActiveImage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeImage
}

// Task returns the task the session was built from.
func (s *Session) Task() *models.Task {
	return s.task
}

// Close discards the view: widgets reset their flags and drop their
// subscriptions. Nothing is published.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.closeWidgets()
	for _, unsubscribe := range s.unsubscribers {
		unsubscribe()
	}
	s.unsubscribers = nil

	s.logger.Info("Review session closed")
}

func (s *Session) closeWidgets() {
	for _, w := range s.widgets {
		w.Close()
	}
}

// withWidget runs fn in a turn on the widget of questionID, which must be a W.
func withWidget[W widgets.Widget](s *Session, questionID, operation string, fn func(W)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	w, ok := s.byID[questionID]
	if !ok {
		return &QuestionError{QuestionID: questionID, Operation: operation, Err: ErrQuestionNotFound}
	}
	typed, ok := w.(W)
	if !ok {
		return &QuestionError{
			QuestionID: questionID,
			Operation:  operation,
			Err:        fmt.Errorf("%w: %s", ErrWrongQuestionType, w.Kind()),
		}
	}

	fn(typed)
	return nil
}
