package widgets

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/assessment-review/internal/events"
	"github.com/SAP-F-2025/assessment-review/internal/models"
	"github.com/SAP-F-2025/assessment-review/internal/utils"
)

// CollectionQuestion shows a set of overlays, possibly spread over several
// images, as one unit.
type CollectionQuestion struct {
	base
	overlays    []models.Overlay
	malformed   bool
	showOverlay bool
}

// NewCollectionQuestion creates the widget and subscribes it to bus. A
// question whose overlays are absent or not a list still subscribes but its
// ShowOverlay does nothing.
func NewCollectionQuestion(bus *events.Bus, q *models.Question, logger utils.Logger) *CollectionQuestion {
	c := &CollectionQuestion{
		base: newBase(bus, q, logger),
	}
	overlays, ok := decodeOverlays(q.Overlays)
	if !ok {
		c.malformed = true
		c.logger.Warn("Collection question has no overlay list")
	}
	c.overlays = overlays

	c.track(events.Subscribe(bus, events.TopicShowOverlay, func(p events.ShowOverlay) {
		c.apply(p.QuestionID, p.SkipUpdate, true)
	}))
	c.track(events.Subscribe(bus, events.TopicShowMarks, func(p events.ShowMarks) {
		c.apply(p.QuestionID, p.SkipUpdate, true)
	}))
	c.track(events.Subscribe(bus, events.TopicHideOverlay, func(p events.HideOverlay) {
		c.apply(p.QuestionID, p.SkipUpdate, false)
	}))
	c.track(events.Subscribe(bus, events.TopicHideMarks, func(p events.HideMarks) {
		c.apply(p.QuestionID, p.SkipUpdate, false)
	}))

	return c
}

func (c *CollectionQuestion) Kind() models.QuestionType {
	return models.QuestionCollection
}

func (c *CollectionQuestion) ShowingOverlay() bool {
	return c.showOverlay
}

// Malformed reports whether the question's overlays could not be read.
func (c *CollectionQuestion) Malformed() bool {
	return c.malformed
}

// ShowOverlay toggles every overlay of the collection.
func (c *CollectionQuestion) ShowOverlay() {
	if c.malformed {
		return
	}
	if !c.showOverlay {
		for _, overlay := range c.overlays {
			emit(&c.base, events.TopicShowOverlay, events.ShowOverlay{
				QuestionID: c.id,
				ImageID:    overlay.ImageID,
				OverlayID:  overlay.ID,
			})
		}
		return
	}
	for _, overlay := range c.overlays {
		emit(&c.base, events.TopicHideOverlay, events.HideOverlay{
			QuestionID: c.id,
			ImageID:    overlay.ImageID,
		})
	}
}

func (c *CollectionQuestion) Close() {
	c.release()
	c.showOverlay = false
}

func (c *CollectionQuestion) apply(questionID string, skipUpdate, show bool) {
	if skipUpdate || questionID != c.id {
		return
	}
	c.showOverlay = show
}

// decodeOverlays reads an overlay list. ok is false when raw is empty, null
// or not a JSON array of overlays.
func decodeOverlays(raw datatypes.JSON) ([]models.Overlay, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}
	var overlays []models.Overlay
	if err := json.Unmarshal(raw, &overlays); err != nil {
		return nil, false
	}
	return overlays, true
}
