package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/assessment-review/internal/events"
	"github.com/SAP-F-2025/assessment-review/internal/models"
	"github.com/SAP-F-2025/assessment-review/internal/review"
)

const prefix = "viewer."

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(topic string, messages ...*message.Message) error {
	args := m.Called(topic, messages)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

type mockSubscriber struct {
	mock.Mock
}

func (m *mockSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	args := m.Called(ctx, topic)
	messages, _ := args.Get(0).(<-chan *message.Message)
	return messages, args.Error(1)
}

func (m *mockSubscriber) Close() error {
	return m.Called().Error(0)
}

func linked(id string) *string {
	return &id
}

func newSession(t *testing.T) *review.Session {
	t.Helper()
	task := &models.Task{
		ID:     "task-1",
		Images: []models.Image{{ID: "img1"}},
		Questions: []models.Question{
			{
				ID:      "Q1",
				Type:    models.QuestionMarker,
				ImageID: "img1",
				Marks:   []models.Mark{{ID: "m1", RespondentID: "u7"}},
			},
			{
				ID:                     "Q2",
				Type:                   models.QuestionOpen,
				LinkedMarkerQuestionID: linked("Q1"),
				Values: []datatypes.JSON{
					datatypes.JSON(`{"user_id":"u7"}`),
					datatypes.JSON(`{"user_id":"u9"}`),
				},
			},
		},
	}

	s, err := review.NewSession(task, review.Options{})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func receive(t *testing.T, messages <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-messages:
		msg.Ack()
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for viewer message")
		return nil
	}
}

func selected(s *review.Session) []bool {
	q2, _ := s.State().Question("Q2")
	return q2.SelectedElements
}

func TestBridge_ForwardsViewerCommands(t *testing.T) {
	s := newSession(t)
	transport := NewGoChannelTransport(16, false, nil)
	t.Cleanup(func() { _ = transport.Close() })

	commands, err := transport.Subscribe(context.Background(), prefix+events.TopicSelectMark.Name())
	require.NoError(t, err)

	bridge, err := NewBridge(s, transport, nil, Config{TopicPrefix: prefix})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bridge.Close() })

	_, err = s.ClickValue("Q2", 0, false, false)
	require.NoError(t, err)

	msg := receive(t, commands)
	assert.Equal(t, events.TopicSelectMark.Name(), msg.Metadata.Get("topic"))
	assert.Equal(t, msg.UUID, msg.Metadata.Get("event_id"))
	assert.NotEmpty(t, msg.Metadata.Get("depth"))

	var command events.MarkCommand
	require.NoError(t, json.Unmarshal(msg.Payload, &command))
	assert.Equal(t, events.MarkCommand{QuestionID: "Q1", ImageID: "img1", MarkID: "m1"}, command)
}

func TestBridge_AppliesViewerReports(t *testing.T) {
	s := newSession(t)
	transport := NewGoChannelTransport(16, true, nil)
	t.Cleanup(func() { _ = transport.Close() })

	bridge, err := NewBridge(s, transport, transport, Config{TopicPrefix: prefix})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bridge.Run(ctx) }()

	report := message.NewMessage("r1", []byte(`{"questionId":"Q1","mark":"m1"}`))
	require.NoError(t, transport.Publish(prefix+events.TopicSelectedMark.Name(), report))

	assert.Eventually(t, func() bool {
		v := selected(s)
		return len(v) == 2 && v[0] && !v[1]
	}, 2*time.Second, 10*time.Millisecond)

	change := message.NewMessage("r2", []byte(`{"imageId":"img2"}`))
	require.NoError(t, transport.Publish(prefix+events.TopicChangeImage.Name(), change))

	assert.Eventually(t, func() bool {
		return s.ActiveImage() == "img2"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []bool{false, false}, selected(s))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not stop")
	}
}

func TestBridge_DropsMalformedReports(t *testing.T) {
	s := newSession(t)
	transport := NewGoChannelTransport(16, true, nil)
	t.Cleanup(func() { _ = transport.Close() })

	bridge, err := NewBridge(s, transport, transport, Config{TopicPrefix: prefix})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = bridge.Run(ctx) }()

	topic := prefix + events.TopicSelectedMark.Name()
	require.NoError(t, transport.Publish(topic, message.NewMessage("bad-json", []byte(`{`))))
	require.NoError(t, transport.Publish(topic, message.NewMessage("no-mark", []byte(`{"questionId":"Q1"}`))))
	require.NoError(t, transport.Publish(topic, message.NewMessage("ok", []byte(`{"questionId":"Q1","mark":"m1"}`))))

	assert.Eventually(t, func() bool {
		v := selected(s)
		return len(v) == 2 && v[0]
	}, 2*time.Second, 10*time.Millisecond, "later reports are still applied")
}

func TestBridge_PublishFailureDoesNotBreakTurn(t *testing.T) {
	s := newSession(t)
	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	_, err := NewBridge(s, publisher, nil, Config{TopicPrefix: prefix})
	require.NoError(t, err)

	consumed, err := s.ClickValue("Q2", 0, false, false)
	require.NoError(t, err)
	assert.True(t, consumed)
	assert.Equal(t, []bool{true, false}, selected(s))

	publisher.AssertCalled(t, "Publish", prefix+events.TopicShowMarks.Name(), mock.Anything)
	publisher.AssertCalled(t, "Publish", prefix+events.TopicSelectMark.Name(), mock.Anything)
	publisher.AssertNotCalled(t, "Publish", prefix+events.TopicSelectMarkForUser.Name(), mock.Anything)
}

func TestBridge_Lifecycle(t *testing.T) {
	s := newSession(t)
	publisher := &mockPublisher{}

	bridge, err := NewBridge(s, publisher, nil, Config{})
	require.NoError(t, err)
	assert.ErrorIs(t, bridge.Run(context.Background()), ErrNoSubscriber)

	require.NoError(t, bridge.Close())
	require.NoError(t, s.ShowAnswers("Q1"))
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)

	s.Close()
	assert.NoError(t, bridge.Close())
	_, err = NewBridge(s, publisher, nil, Config{})
	assert.ErrorIs(t, err, review.ErrSessionClosed)
}

func TestBridge_RunStopsConsumersWhenSubscribeFails(t *testing.T) {
	s := newSession(t)
	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	images := make(chan *message.Message)
	var subscribed context.Context
	subscriber := &mockSubscriber{}
	subscriber.On("Subscribe", mock.Anything, prefix+events.TopicChangeImage.Name()).
		Run(func(args mock.Arguments) {
			subscribed = args.Get(0).(context.Context)
			go func() {
				<-subscribed.Done()
				close(images)
			}()
		}).
		Return((<-chan *message.Message)(images), nil)
	subscriber.On("Subscribe", mock.Anything, prefix+events.TopicSelectedMark.Name()).
		Return(nil, errors.New("broker down"))

	bridge, err := NewBridge(s, publisher, subscriber, Config{TopicPrefix: prefix})
	require.NoError(t, err)

	err = bridge.Run(context.Background())
	assert.ErrorContains(t, err, "failed to subscribe to selected-mark")

	require.NotNil(t, subscribed)
	assert.ErrorIs(t, subscribed.Err(), context.Canceled)
	_, open := <-images
	assert.False(t, open, "consumer finished before Run returned")
	subscriber.AssertNotCalled(t, "Subscribe", mock.Anything, prefix+events.TopicDeselectedMark.Name())
}
