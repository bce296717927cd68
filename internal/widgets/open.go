package widgets

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/assessment-review/internal/events"
	"github.com/SAP-F-2025/assessment-review/internal/models"
	"github.com/SAP-F-2025/assessment-review/internal/utils"
)

// OpenQuestion lists free-text answers. When linked to a marker question,
// selecting an answer selects the same respondent's mark on the image and
// vice versa, with at most one answer selected at a time.
type OpenQuestion struct {
	base
	linkedID    string
	respondents []string
	selected    []bool
}

// NewOpenQuestion creates the widget and subscribes it to bus.
func NewOpenQuestion(bus *events.Bus, q *models.Question, logger utils.Logger) *OpenQuestion {
	o := &OpenQuestion{
		base:        newBase(bus, q, logger),
		respondents: make([]string, len(q.Values)),
		selected:    make([]bool, len(q.Values)),
	}
	if q.IsLinked() {
		o.linkedID = *q.LinkedMarkerQuestionID
	}
	for i, value := range q.Values {
		o.respondents[i] = respondentOf(value)
	}

	o.track(events.Subscribe(bus, events.TopicHideMarks, o.onHideMarks))
	o.track(events.Subscribe(bus, events.TopicSelectMarkForUser, o.onUserSelection(true)))
	o.track(events.Subscribe(bus, events.TopicDeselectMarkForUser, o.onUserSelection(false)))

	return o
}

func (o *OpenQuestion) Kind() models.QuestionType {
	return models.QuestionOpen
}

// LinkedMarkerQuestionID is empty for an unlinked question.
func (o *OpenQuestion) LinkedMarkerQuestionID() string {
	return o.linkedID
}

// Selected returns a copy of the selection, index-aligned with the values.
func (o *OpenQuestion) Selected() []bool {
	out := make([]bool, len(o.selected))
	copy(out, o.selected)
	return out
}

// Respondent returns the respondent id of value i, or "" when it has none.
func (o *OpenQuestion) Respondent(i int) string {
	if i < 0 || i >= len(o.respondents) {
		return ""
	}
	return o.respondents[i]
}

// OnClick toggles answer index. forceSelect never turns a selected answer
// off: clicking a selected answer with it selects the answer again, which
// still clears the others and re-announces the respondent (with zoom).
//
// The returned value reports whether the click was consumed. Callers must
// then stop it from reaching enclosing regions.
func (o *OpenQuestion) OnClick(index int, shouldZoom, forceSelect bool) bool {
	if index < 0 || index >= len(o.selected) {
		return false
	}

	selected := forceSelect || !o.selected[index]
	if o.linkedID != "" && selected {
		o.clear()
	}
	o.selected[index] = selected

	userID := o.respondents[index]
	if o.linkedID == "" || userID == "" {
		return true
	}

	payload := events.UserSelection{
		QuestionID: o.linkedID,
		UserID:     userID,
		Zoom:       shouldZoom,
	}
	if selected {
		emit(&o.base, events.TopicSelectMarkForUser, payload)
	} else {
		emit(&o.base, events.TopicDeselectMarkForUser, payload)
	}
	return true
}

func (o *OpenQuestion) Close() {
	o.release()
}

func (o *OpenQuestion) onHideMarks(p events.HideMarks) {
	if p.SkipUpdate || o.linkedID == "" || p.QuestionID != o.linkedID {
		return
	}
	o.clear()
}

func (o *OpenQuestion) onUserSelection(selected bool) func(events.UserSelection) {
	return func(p events.UserSelection) {
		if p.SkipUpdate || o.linkedID == "" || p.QuestionID != o.linkedID {
			return
		}
		for i, userID := range o.respondents {
			if userID != "" && userID == p.UserID {
				o.selected[i] = selected
				return
			}
		}
	}
}

func (o *OpenQuestion) clear() {
	for i := range o.selected {
		o.selected[i] = false
	}
}

// respondentOf reads the respondent id of an answer value. The answer is the
// value's "answer" member when present, else the value itself; anything
// without a string user_id has no respondent.
func respondentOf(value datatypes.JSON) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(value, &fields); err != nil {
		return ""
	}
	if answer, ok := fields["answer"]; ok && string(answer) != "null" {
		fields = nil
		if err := json.Unmarshal(answer, &fields); err != nil {
			return ""
		}
	}

	raw, ok := fields["user_id"]
	if !ok {
		return ""
	}
	var userID string
	if err := json.Unmarshal(raw, &userID); err != nil {
		return ""
	}
	return userID
}
