package taskdata

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/assessment-review/internal/models"
	"github.com/SAP-F-2025/assessment-review/internal/widgets"
)

// Warning is a problem that does not prevent a review session from running
// but makes part of it inert.
type Warning struct {
	QuestionID string `json:"question_id"`
	Message    string `json:"message"`
}

// Check reports data a session tolerates silently: the widgets simply ignore
// what they cannot resolve.
func Check(task *models.Task) []Warning {
	var warnings []Warning
	add := func(questionID, format string, args ...any) {
		warnings = append(warnings, Warning{QuestionID: questionID, Message: fmt.Sprintf(format, args...)})
	}

	images := make(map[string]bool, len(task.Images))
	for _, img := range task.Images {
		images[img.ID] = true
	}

	for i := range task.Questions {
		q := &task.Questions[i]
		switch q.Type {
		case models.QuestionMarker:
			if len(images) > 0 && !images[q.ImageID] {
				add(q.ID, "image %q is not part of the task", q.ImageID)
			}
			if dups := widgets.NewMarkIndex(q.Marks).DuplicateRespondents(); len(dups) > 0 {
				add(q.ID, "respondents with several marks, only the first is selectable: %s", strings.Join(dups, ", "))
			}
		case models.QuestionOpen:
			if !q.IsLinked() {
				continue
			}
			target := task.Question(*q.LinkedMarkerQuestionID)
			switch {
			case target == nil:
				add(q.ID, "linked question %q does not exist", *q.LinkedMarkerQuestionID)
			case target.Type != models.QuestionMarker:
				add(q.ID, "linked question %q is a %s question", target.ID, target.Type)
			}
		case models.QuestionCollection:
			if !isOverlayList(q.Overlays) {
				add(q.ID, "overlays are not a list, the overlay toggle is disabled")
			}
		}
	}
	return warnings
}

func isOverlayList(raw []byte) bool {
	var overlays []models.Overlay
	if len(raw) == 0 || json.Unmarshal(raw, &overlays) != nil {
		return false
	}
	return overlays != nil
}
