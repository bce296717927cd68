package widgets

import (
	"github.com/SAP-F-2025/assessment-review/internal/events"
	"github.com/SAP-F-2025/assessment-review/internal/models"
	"github.com/SAP-F-2025/assessment-review/internal/utils"
)

// MarkerQuestion shows respondents' marks and the solution overlay on its
// image. Its two flags only change in reaction to bus events, including the
// events it publishes itself, so the bus stays the single source of truth.
type MarkerQuestion struct {
	base
	imageID   string
	color     string
	marks     []models.Mark
	overlayID string
	index     *MarkIndex

	showAnswers  bool
	showSolution bool
}

// NewMarkerQuestion creates the widget and subscribes it to bus.
func NewMarkerQuestion(bus *events.Bus, q *models.Question, logger utils.Logger) *MarkerQuestion {
	m := &MarkerQuestion{
		base:    newBase(bus, q, logger),
		imageID: q.ImageID,
		color:   q.Color,
		marks:   q.Marks,
		index:   NewMarkIndex(q.Marks),
	}
	if overlays, ok := decodeOverlays(q.Overlays); ok && len(overlays) > 0 {
		m.overlayID = overlays[0].ID
	}

	m.track(events.Subscribe(bus, events.TopicShowMarks, m.onShowMarks))
	m.track(events.Subscribe(bus, events.TopicHideMarks, m.onHideMarks))
	m.track(events.Subscribe(bus, events.TopicShowOverlay, m.onShowOverlay))
	m.track(events.Subscribe(bus, events.TopicHideOverlay, m.onHideOverlay))
	m.track(events.Subscribe(bus, events.TopicChangeImage, m.onChangeImage))
	m.track(events.Subscribe(bus, events.TopicSelectedMark, m.onMarkSelection(true)))
	m.track(events.Subscribe(bus, events.TopicDeselectedMark, m.onMarkSelection(false)))
	m.track(events.Subscribe(bus, events.TopicSelectMarkForUser, m.onUserSelection(true)))
	m.track(events.Subscribe(bus, events.TopicDeselectMarkForUser, m.onUserSelection(false)))

	return m
}

func (m *MarkerQuestion) Kind() models.QuestionType {
	return models.QuestionMarker
}

func (m *MarkerQuestion) ImageID() string {
	return m.imageID
}

func (m *MarkerQuestion) ShowingAnswers() bool {
	return m.showAnswers
}

func (m *MarkerQuestion) ShowingSolution() bool {
	return m.showSolution
}

// Marks returns the mark index used to translate between mark and
// respondent ids.
func (m *MarkerQuestion) Marks() *MarkIndex {
	return m.index
}

// ShowAnswers toggles the respondents' marks.
func (m *MarkerQuestion) ShowAnswers() {
	if m.showAnswers {
		emit(&m.base, events.TopicHideMarks, events.HideMarks{
			QuestionID: m.id,
			ImageID:    m.imageID,
		})
		return
	}
	emit(&m.base, events.TopicShowMarks, events.ShowMarks{
		QuestionID: m.id,
		ImageID:    m.imageID,
		Marks:      m.marks,
		Color:      m.color,
	})
}

// ShowSolution toggles the solution overlay.
func (m *MarkerQuestion) ShowSolution() {
	if m.showSolution {
		emit(&m.base, events.TopicHideOverlay, events.HideOverlay{
			QuestionID: m.id,
			ImageID:    m.imageID,
		})
		return
	}
	emit(&m.base, events.TopicShowOverlay, events.ShowOverlay{
		QuestionID: m.id,
		ImageID:    m.imageID,
		OverlayID:  m.overlayID,
	})
}

func (m *MarkerQuestion) Close() {
	m.release()
	m.showAnswers = false
	m.showSolution = false
}

// Showing another question's answers hides ours and drops a solution we were
// showing; showing ours keeps our solution.
func (m *MarkerQuestion) onShowMarks(p events.ShowMarks) {
	if p.SkipUpdate {
		return
	}
	own := p.QuestionID == m.id
	m.showAnswers = own
	if m.showSolution {
		m.showSolution = own
	}
}

func (m *MarkerQuestion) onShowOverlay(p events.ShowOverlay) {
	if p.SkipUpdate {
		return
	}
	own := p.QuestionID == m.id
	m.showSolution = own
	if m.showAnswers {
		m.showAnswers = own
	}
}

func (m *MarkerQuestion) onHideMarks(p events.HideMarks) {
	if p.SkipUpdate || p.QuestionID != m.id {
		return
	}
	m.showAnswers = false
}

func (m *MarkerQuestion) onHideOverlay(p events.HideOverlay) {
	if p.SkipUpdate || p.QuestionID != m.id {
		return
	}
	m.showSolution = false
}

// Leaving our image hides everything we show, announced on the bus so linked
// widgets reset too.
func (m *MarkerQuestion) onChangeImage(p events.ImageChanged) {
	if p.SkipUpdate || p.ImageID == m.imageID {
		return
	}
	emit(&m.base, events.TopicHideMarks, events.HideMarks{
		QuestionID:     m.id,
		ImageID:        m.imageID,
		SkipActivation: true,
	})
	emit(&m.base, events.TopicHideOverlay, events.HideOverlay{
		QuestionID:     m.id,
		ImageID:        m.imageID,
		SkipActivation: true,
	})
}

// onMarkSelection turns a viewer report about a mark into a respondent
// selection that linked open questions understand.
func (m *MarkerQuestion) onMarkSelection(selected bool) func(events.MarkSelection) {
	topic := events.TopicDeselectMarkForUser
	if selected {
		topic = events.TopicSelectMarkForUser
	}

	return func(p events.MarkSelection) {
		if p.SkipUpdate || p.QuestionID != m.id {
			return
		}
		mark, ok := m.index.ByID(p.MarkID)
		if !ok {
			m.logger.Debug("Ignored selection of unknown mark", "mark_id", p.MarkID)
			return
		}
		emit(&m.base, topic, events.UserSelection{
			QuestionID: m.id,
			ImageID:    m.imageID,
			UserID:     mark.RespondentID,
		})
	}
}

// onUserSelection is the reverse translation: a respondent selection becomes
// a viewer command for that respondent's mark.
func (m *MarkerQuestion) onUserSelection(selected bool) func(events.UserSelection) {
	return func(p events.UserSelection) {
		if p.SkipUpdate || p.QuestionID != m.id {
			return
		}
		mark, ok := m.index.ByRespondent(p.UserID)
		if !ok {
			m.logger.Debug("Ignored selection for respondent without mark", "user_id", p.UserID)
			return
		}

		command := events.MarkCommand{
			QuestionID: m.id,
			ImageID:    m.imageID,
			MarkID:     mark.ID,
		}
		switch {
		case !selected:
			emit(&m.base, events.TopicDeselectMark, command)
		case p.Zoom:
			m.revealAnswers()
			emit(&m.base, events.TopicZoomMark, command)
		default:
			m.revealAnswers()
			emit(&m.base, events.TopicSelectMark, command)
		}
	}
}

func (m *MarkerQuestion) revealAnswers() {
	if !m.showAnswers {
		m.ShowAnswers()
	}
}
