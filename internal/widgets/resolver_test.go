package widgets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/assessment-review/internal/models"
)

func TestMarkIndex(t *testing.T) {
	idx := NewMarkIndex([]models.Mark{
		mark("m1", "u1"),
		mark("m2", "u2"),
		mark("m3", "u1"),
		mark("m4", ""),
	})

	got, ok := idx.ByID("m2")
	require.True(t, ok)
	assert.Equal(t, "u2", got.RespondentID)

	_, ok = idx.ByID("missing")
	assert.False(t, ok)

	got, ok = idx.ByRespondent("u1")
	require.True(t, ok)
	assert.Equal(t, "m1", got.ID, "first mark of a respondent wins")

	_, ok = idx.ByRespondent("")
	assert.False(t, ok)

	assert.Equal(t, []string{"u1"}, idx.DuplicateRespondents())
}

func TestRespondentOf(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"flat value", `{"user_id":"u1","text":"x"}`, "u1"},
		{"answer wrapper", `{"answer":{"user_id":"u2"}}`, "u2"},
		{"answer wins over outer id", `{"answer":{"text":"x"},"user_id":"u3"}`, ""},
		{"null answer falls back to value", `{"answer":null,"user_id":"u4"}`, "u4"},
		{"non object answer", `{"answer":"text","user_id":"u5"}`, ""},
		{"no user id", `{"text":"x"}`, ""},
		{"numeric user id", `{"user_id":5}`, ""},
		{"plain string", `"plain"`, ""},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, respondentOf(datatypes.JSON(tt.value)))
		})
	}
}
