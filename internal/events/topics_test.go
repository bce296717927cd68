package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("viewer report", func(t *testing.T) {
		payload, err := Decode("selected-mark", []byte(`{"questionId":"q1","mark":"m1","skipUpdate":true}`))
		require.NoError(t, err)
		assert.Equal(t, MarkSelection{QuestionID: "q1", MarkID: "m1", SkipUpdate: true}, payload)
	})

	t.Run("skipActivation survives decoding", func(t *testing.T) {
		payload, err := Decode("hide-overlay", []byte(`{"questionId":"q1","imageId":"img1","skipActivation":true}`))
		require.NoError(t, err)
		assert.True(t, payload.(HideOverlay).SkipActivation)
	})

	t.Run("unknown topic", func(t *testing.T) {
		_, err := Decode("explode", []byte(`{}`))
		assert.ErrorIs(t, err, ErrUnknownTopic)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := Decode("change-image", []byte(`{"imageId":`))
		assert.Error(t, err)
	})
}

func TestTopicNames(t *testing.T) {
	names := TopicNames()

	assert.Len(t, names, 12)
	assert.Contains(t, names, "select-mark-for-user")
	assert.Contains(t, names, "zoom-mark")
	assert.IsIncreasing(t, names)
}
