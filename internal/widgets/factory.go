package widgets

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/assessment-review/internal/events"
	"github.com/SAP-F-2025/assessment-review/internal/models"
	"github.com/SAP-F-2025/assessment-review/internal/utils"
)

var ErrUnsupportedQuestionType = errors.New("unsupported question type")

// New builds the widget matching the question's type.
func New(bus *events.Bus, q *models.Question, logger utils.Logger) (Widget, error) {
	switch q.Type {
	case models.QuestionMarker:
		return NewMarkerQuestion(bus, q, logger), nil
	case models.QuestionOpen:
		return NewOpenQuestion(bus, q, logger), nil
	case models.QuestionCollection:
		return NewCollectionQuestion(bus, q, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedQuestionType, q.Type)
	}
}
