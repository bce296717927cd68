package review

import (
	"github.com/SAP-F-2025/assessment-review/internal/models"
	"github.com/SAP-F-2025/assessment-review/internal/widgets"
)

// State is a snapshot of everything the review widgets currently display.
type State struct {
	TaskID      string          `json:"task_id"`
	ActiveImage string          `json:"active_image,omitempty"`
	Closed      bool            `json:"closed"`
	Questions   []QuestionState `json:"questions"`
}

type QuestionState struct {
	QuestionID string              `json:"question_id"`
	Type       models.QuestionType `json:"type"`

	// Marker
	ShowAnswers  bool `json:"show_answers,omitempty"`
	ShowSolution bool `json:"show_solution,omitempty"`

	// Collection
	ShowOverlay bool `json:"show_overlay,omitempty"`

	// Open
	SelectedElements []bool `json:"selected_elements,omitempty"`
}

// State returns the current display state of every question, in task order.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		TaskID:      s.task.ID,
		ActiveImage: s.activeImage,
		Closed:      s.closed,
		Questions:   make([]QuestionState, 0, len(s.widgets)),
	}
	for _, w := range s.widgets {
		qs := QuestionState{
			QuestionID: w.QuestionID(),
			Type:       w.Kind(),
		}
		switch typed := w.(type) {
		case *widgets.MarkerQuestion:
			qs.ShowAnswers = typed.ShowingAnswers()
			qs.ShowSolution = typed.ShowingSolution()
		case *widgets.CollectionQuestion:
			qs.ShowOverlay = typed.ShowingOverlay()
		case *widgets.OpenQuestion:
			qs.SelectedElements = typed.Selected()
		}
		state.Questions = append(state.Questions, qs)
	}
	return state
}

// Question returns the state of one question.
func (st State) Question(id string) (QuestionState, bool) {
	for _, qs := range st.Questions {
		if qs.QuestionID == id {
			return qs, true
		}
	}
	return QuestionState{}, false
}
