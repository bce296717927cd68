package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownTopic = errors.New("unknown topic")

// Topic is a typed bus topic: every event published on it carries a P.
type Topic[P any] struct {
	name string
}

// Decoder turns a JSON document into the payload type of one topic.
type Decoder func(data []byte) (any, error)

var registry = map[string]Decoder{}

// NewTopic creates a topic and registers its decoder so payloads arriving
// from outside the process can be turned into the right type. Topics are
// created at package init only.
func NewTopic[P any](name string) Topic[P] {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("events: topic %q registered twice", name))
	}
	registry[name] = func(data []byte) (any, error) {
		var payload P
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", name, err)
		}
		return payload, nil
	}
	return Topic[P]{name: name}
}

func (t Topic[P]) Name() string {
	return t.name
}

func (t Topic[P]) String() string {
	return t.name
}

// Decode decodes data as the payload of the named topic.
func Decode(name string, data []byte) (any, error) {
	decode, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, name)
	}
	return decode(data)
}

// TopicNames lists every registered topic, sorted.
func TopicNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Topics of the review protocol
var (
	// Image context
	TopicChangeImage = NewTopic[ImageChanged]("change-image")

	// Answer marks and solution overlays
	TopicShowMarks   = NewTopic[ShowMarks]("show-marks")
	TopicHideMarks   = NewTopic[HideMarks]("hide-marks")
	TopicShowOverlay = NewTopic[ShowOverlay]("show-overlay")
	TopicHideOverlay = NewTopic[HideOverlay]("hide-overlay")

	// Commands for the image viewer
	TopicSelectMark   = NewTopic[MarkCommand]("select-mark")
	TopicDeselectMark = NewTopic[MarkCommand]("deselect-mark")
	TopicZoomMark     = NewTopic[MarkCommand]("zoom-mark")

	// Reports from the image viewer
	TopicSelectedMark   = NewTopic[MarkSelection]("selected-mark")
	TopicDeselectedMark = NewTopic[MarkSelection]("deselected-mark")

	// Respondent based selection between linked questions
	TopicSelectMarkForUser   = NewTopic[UserSelection]("select-mark-for-user")
	TopicDeselectMarkForUser = NewTopic[UserSelection]("deselect-mark-for-user")
)
