package events

// Recorder keeps every event delivered on a bus, in delivery order. It plays
// the part of the image viewer in tests and is handy when debugging a
// session.
type Recorder struct {
	events []Envelope
	stop   Unsubscribe
}

// NewRecorder starts recording events published on b.
func NewRecorder(b *Bus) *Recorder {
	r := &Recorder{
		events: make([]Envelope, 0),
	}
	r.stop = b.Observe(func(env Envelope) {
		r.events = append(r.events, env)
	})
	return r
}

// Events returns all recorded events
func (r *Recorder) Events() []Envelope {
	return r.events
}

// ByTopic returns the recorded events of one topic
func (r *Recorder) ByTopic(name string) []Envelope {
	var out []Envelope
	for _, env := range r.events {
		if env.Topic == name {
			out = append(out, env)
		}
	}
	return out
}

// Topics returns the topic of every recorded event, in order
func (r *Recorder) Topics() []string {
	out := make([]string, 0, len(r.events))
	for _, env := range r.events {
		out = append(out, env.Topic)
	}
	return out
}

// Clear forgets recorded events
func (r *Recorder) Clear() {
	r.events = make([]Envelope, 0)
}

// Close stops recording
func (r *Recorder) Close() {
	r.stop()
}

// Payloads returns the payloads recorded on a typed topic
func Payloads[P any](r *Recorder, topic Topic[P]) []P {
	var out []P
	for _, env := range r.ByTopic(topic.Name()) {
		if payload, ok := env.Payload.(P); ok {
			out = append(out, payload)
		}
	}
	return out
}
