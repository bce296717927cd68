package models

import (
	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionMarker     QuestionType = "marker"
	QuestionOpen       QuestionType = "open"
	QuestionCollection QuestionType = "collection"
)

// Image anchors marks and overlays. Questions reference it by id only.
type Image struct {
	ID    string `json:"id" validate:"required,element_id"`
	Title string `json:"title,omitempty"`
}

// Mark is a point/region annotation on an image attributed to one respondent.
// Geometry is opaque to the review core and is forwarded to the viewer as-is.
type Mark struct {
	ID           string         `json:"id" validate:"required,element_id"`
	QuestionID   string         `json:"question_id,omitempty"`
	ImageID      string         `json:"image_id,omitempty"`
	RespondentID string         `json:"user_id" validate:"required,element_id"`
	Geometry     datatypes.JSON `json:"geometry,omitempty"`
}

// Overlay is a solution/reference layer anchored to one image.
type Overlay struct {
	ID      string `json:"id" validate:"required,element_id"`
	ImageID string `json:"image_id" validate:"required,element_id"`
}

// Question is stored as one polymorphic row; Type selects which of the
// variant fields are meaningful.
type Question struct {
	ID    string       `json:"id" validate:"required,element_id"`
	Type  QuestionType `json:"type" validate:"required,question_type"`
	Title string       `json:"title,omitempty" validate:"omitempty,max=200"`

	// Marker
	ImageID string `json:"image_id,omitempty" validate:"required_if=Type marker"`
	Color   string `json:"color,omitempty" validate:"omitempty,css_color"`
	Marks   []Mark `json:"marks,omitempty" validate:"dive"`

	// Open
	LinkedMarkerQuestionID *string          `json:"linked_marker_question_id,omitempty" validate:"omitempty,element_id"`
	Values                 []datatypes.JSON `json:"values,omitempty"`

	// Marker and Collection. Kept raw so a collection whose overlays are not a
	// JSON array can be recognised instead of rejected at load time.
	Overlays datatypes.JSON `json:"overlays,omitempty"`
}

// IsLinked reports whether an open question follows a marker question.
func (q *Question) IsLinked() bool {
	return q.LinkedMarkerQuestionID != nil && *q.LinkedMarkerQuestionID != ""
}
