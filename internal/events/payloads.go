package events

import (
	"github.com/SAP-F-2025/assessment-review/internal/models"
)

// Every payload carries SkipUpdate. When true the event is informational:
// receivers must not change their visible state because of it. It is set by
// the party that already applied the change locally (normally the viewer).
//
// SkipActivation travels on show/hide payloads for compatibility with the
// viewer and is never read by the review widgets.

// ImageChanged is the payload of change-image.
type ImageChanged struct {
	ImageID    string `json:"imageId" validate:"required,element_id"`
	SkipUpdate bool   `json:"skipUpdate,omitempty"`
}

// ShowMarks is the payload of show-marks.
type ShowMarks struct {
	QuestionID     string        `json:"questionId" validate:"required,element_id"`
	ImageID        string        `json:"imageId" validate:"required,element_id"`
	Marks          []models.Mark `json:"marks,omitempty"`
	Color          string        `json:"color,omitempty" validate:"omitempty,css_color"`
	SkipUpdate     bool          `json:"skipUpdate,omitempty"`
	SkipActivation bool          `json:"skipActivation,omitempty"`
}

// HideMarks is the payload of hide-marks.
type HideMarks struct {
	QuestionID     string `json:"questionId" validate:"required,element_id"`
	ImageID        string `json:"imageId" validate:"required,element_id"`
	SkipUpdate     bool   `json:"skipUpdate,omitempty"`
	SkipActivation bool   `json:"skipActivation,omitempty"`
}

// ShowOverlay is the payload of show-overlay. OverlayID is empty when the
// question owns no explicit overlay and the viewer derives it from the
// question.
type ShowOverlay struct {
	QuestionID     string `json:"questionId" validate:"required,element_id"`
	ImageID        string `json:"imageId" validate:"required,element_id"`
	OverlayID      string `json:"overlayId,omitempty"`
	SkipUpdate     bool   `json:"skipUpdate,omitempty"`
	SkipActivation bool   `json:"skipActivation,omitempty"`
}

// HideOverlay is the payload of hide-overlay.
type HideOverlay struct {
	QuestionID     string `json:"questionId" validate:"required,element_id"`
	ImageID        string `json:"imageId" validate:"required,element_id"`
	SkipUpdate     bool   `json:"skipUpdate,omitempty"`
	SkipActivation bool   `json:"skipActivation,omitempty"`
}

// MarkCommand instructs the viewer to select, deselect or zoom to a mark.
type MarkCommand struct {
	QuestionID string `json:"questionId" validate:"required,element_id"`
	ImageID    string `json:"imageId" validate:"required,element_id"`
	MarkID     string `json:"markId" validate:"required,element_id"`
	SkipUpdate bool   `json:"skipUpdate,omitempty"`
}

// MarkSelection is reported by the viewer when a mark was (de)selected on
// the image.
type MarkSelection struct {
	QuestionID string `json:"questionId" validate:"required,element_id"`
	ImageID    string `json:"imageId,omitempty"`
	MarkID     string `json:"mark" validate:"required,element_id"`
	SkipUpdate bool   `json:"skipUpdate,omitempty"`
}

// UserSelection (de)selects, by respondent id, the mark of a marker question.
// ImageID is only known when a marker question publishes it.
type UserSelection struct {
	QuestionID string `json:"questionId" validate:"required,element_id"`
	ImageID    string `json:"imageId,omitempty"`
	UserID     string `json:"userId" validate:"required,element_id"`
	Zoom       bool   `json:"zoom,omitempty"`
	SkipUpdate bool   `json:"skipUpdate,omitempty"`
}
