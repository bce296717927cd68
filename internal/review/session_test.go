package review

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	apperrors "github.com/SAP-F-2025/assessment-review/internal/errors"
	"github.com/SAP-F-2025/assessment-review/internal/events"
	"github.com/SAP-F-2025/assessment-review/internal/models"
)

func strPtr(s string) *string {
	return &s
}

func fixtureTask() *models.Task {
	return &models.Task{
		ID:     "task-1",
		Images: []models.Image{{ID: "img1"}, {ID: "img2"}},
		Questions: []models.Question{
			{
				ID:      "Q1",
				Type:    models.QuestionMarker,
				ImageID: "img1",
				Color:   "red",
				Marks: []models.Mark{
					{ID: "m1", RespondentID: "u7", Geometry: datatypes.JSON(`{"x":10,"y":20}`)},
				},
				Overlays: datatypes.JSON(`[{"id":"o-q1","image_id":"img1"}]`),
			},
			{
				ID:                     "Q2",
				Type:                   models.QuestionOpen,
				LinkedMarkerQuestionID: strPtr("Q1"),
				Values: []datatypes.JSON{
					datatypes.JSON(`{"user_id":"u7","text":"lesion"}`),
					datatypes.JSON(`{"answer":{"user_id":"u9","text":"none"}}`),
				},
			},
			{
				ID:       "Q3",
				Type:     models.QuestionCollection,
				Overlays: datatypes.JSON(`[{"id":"o1","image_id":"img2"}]`),
			},
			{
				ID:      "Q4",
				Type:    models.QuestionMarker,
				ImageID: "img2",
			},
		},
	}
}

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(fixtureTask(), Options{})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func recorder(t *testing.T, s *Session) *events.Recorder {
	t.Helper()
	var rec *events.Recorder
	require.NoError(t, s.Do(func(bus *events.Bus) {
		rec = events.NewRecorder(bus)
	}))
	return rec
}

func TestNewSession_RejectsInvalidTask(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(task *models.Task)
		field  string
	}{
		{"marker without image", func(task *models.Task) { task.Questions[0].ImageID = "" }, "image_id"},
		{"unknown question type", func(task *models.Task) { task.Questions[1].Type = "essay" }, "type"},
		{"blank mark respondent", func(task *models.Task) { task.Questions[0].Marks[0].RespondentID = " " }, "user_id"},
		{"duplicate question id", func(task *models.Task) { task.Questions[3].ID = "Q1" }, "questions.id"},
		{"bad color", func(task *models.Task) { task.Questions[0].Color = "#12" }, "color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := fixtureTask()
			tt.mutate(task)

			_, err := NewSession(task, Options{})

			require.ErrorIs(t, err, ErrInvalidTask)
			var verrs apperrors.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}

	_, err := NewSession(nil, Options{})
	assert.ErrorIs(t, err, ErrInvalidTask)
}

func TestSession_LinkedSelection(t *testing.T) {
	s := newSession(t)
	viewer := recorder(t, s)

	consumed, err := s.ClickValue("Q2", 0, false, false)
	require.NoError(t, err)
	assert.True(t, consumed)

	state := s.State()
	q1, _ := state.Question("Q1")
	q2, _ := state.Question("Q2")
	assert.True(t, q1.ShowAnswers)
	assert.Equal(t, []bool{true, false}, q2.SelectedElements)

	commands := events.Payloads(viewer, events.TopicSelectMark)
	require.Len(t, commands, 1)
	assert.Equal(t, "m1", commands[0].MarkID)

	shown := events.Payloads(viewer, events.TopicShowMarks)
	require.Len(t, shown, 1)
	assert.JSONEq(t, `{"x":10,"y":20}`, shown[0].Marks[0].Geometry.String())

	_, err = s.ClickValue("Q2", 1, false, false)
	require.NoError(t, err)
	q2, _ = s.State().Question("Q2")
	assert.Equal(t, []bool{false, true}, q2.SelectedElements)
}

func TestSession_ChangeImage(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.ShowAnswers("Q1"))
	require.NoError(t, s.ShowSolution("Q1"))
	_, err := s.ClickValue("Q2", 0, false, false)
	require.NoError(t, err)

	require.NoError(t, s.ChangeImage("img2"))

	state := s.State()
	assert.Equal(t, "img2", state.ActiveImage)
	assert.Equal(t, "img2", s.ActiveImage())
	q1, _ := state.Question("Q1")
	q2, _ := state.Question("Q2")
	assert.False(t, q1.ShowAnswers)
	assert.False(t, q1.ShowSolution)
	assert.Equal(t, []bool{false, false}, q2.SelectedElements, "hiding linked marks clears the open question")

	assert.Error(t, s.ChangeImage(""))
}

func TestSession_ToggleOverlay(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.ShowSolution("Q4"))

	require.NoError(t, s.ToggleOverlay("Q3"))

	state := s.State()
	q3, _ := state.Question("Q3")
	q4, _ := state.Question("Q4")
	assert.True(t, q3.ShowOverlay)
	assert.False(t, q4.ShowSolution)
}

func TestSession_APIErrors(t *testing.T) {
	s := newSession(t)

	err := s.ShowAnswers("nope")
	assert.True(t, IsNotFound(err))
	var qerr *QuestionError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, "nope", qerr.QuestionID)

	assert.ErrorIs(t, s.ShowAnswers("Q2"), ErrWrongQuestionType)
	assert.ErrorIs(t, s.ToggleOverlay("Q1"), ErrWrongQuestionType)
	_, err = s.ClickValue("Q3", 0, false, false)
	assert.ErrorIs(t, err, ErrWrongQuestionType)
}

func TestSession_Close(t *testing.T) {
	s, err := NewSession(fixtureTask(), Options{})
	require.NoError(t, err)
	require.NoError(t, s.ShowAnswers("Q1"))
	require.NoError(t, s.ShowSolution("Q1"))

	var bus *events.Bus
	require.NoError(t, s.Do(func(b *events.Bus) { bus = b }))

	s.Close()
	s.Close()

	state := s.State()
	assert.True(t, state.Closed)
	q1, _ := state.Question("Q1")
	assert.False(t, q1.ShowAnswers)
	assert.False(t, q1.ShowSolution)
	for _, name := range events.TopicNames() {
		assert.Zero(t, bus.SubscriberCount(name), name)
	}

	assert.True(t, IsClosed(s.ShowAnswers("Q1")))
	assert.ErrorIs(t, s.ChangeImage("img1"), ErrSessionClosed)
	assert.ErrorIs(t, s.Do(func(*events.Bus) {}), ErrSessionClosed)
}

func TestSession_TurnsAreSerialized(t *testing.T) {
	s := newSession(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				assert.NoError(t, s.ShowAnswers("Q1"))
				_, err := s.ClickValue("Q2", j%2, false, false)
				assert.NoError(t, err)
				_ = s.State()
			}
		}()
	}
	wg.Wait()

	q2, _ := s.State().Question("Q2")
	selected := 0
	for _, v := range q2.SelectedElements {
		if v {
			selected++
		}
	}
	assert.LessOrEqual(t, selected, 1, "linked open question keeps a single selection")
}
