package testutil

import (
	"encoding/json"
	"sync"

	"github.com/mcoot/rpsgame/internal/model"
)

// Recorder is a connection sender that keeps every frame it receives.
// Set Full to simulate a client whose buffer is saturated.
type Recorder struct {
	mu     sync.Mutex
	frames [][]byte
	Full   bool
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Send records the frame unless the recorder is full
func (r *Recorder) Send(data []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Full {
		return false
	}
	r.frames = append(r.frames, append([]byte(nil), data...))
	return true
}

// Frames returns every recorded frame as a string
func (r *Recorder) Frames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.frames))
	for i, f := range r.frames {
		out[i] = string(f)
	}
	return out
}

// Envelopes decodes every recorded frame. Frames that fail to decode are skipped.
func (r *Recorder) Envelopes() []model.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Envelope, 0, len(r.frames))
	for _, f := range r.frames {
		var env model.Envelope
		if err := json.Unmarshal(f, &env); err == nil {
			out = append(out, env)
		}
	}
	return out
}

// Types returns the event type of each recorded frame in order
func (r *Recorder) Types() []model.EventType {
	envs := r.Envelopes()
	out := make([]model.EventType, len(envs))
	for i, e := range envs {
		out[i] = e.Type
	}
	return out
}

// Count returns how many frames of the given type were recorded
func (r *Recorder) Count(t model.EventType) int {
	n := 0
	for _, e := range r.Envelopes() {
		if e.Type == t {
			n++
		}
	}
	return n
}

// Last decodes the payload of the most recent frame of the given type into v.
// It returns false if no such frame exists.
func (r *Recorder) Last(t model.EventType, v any) bool {
	envs := r.Envelopes()
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Type == t {
			if v != nil && len(envs[i].Payload) > 0 {
				_ = json.Unmarshal(envs[i].Payload, v)
			}
			return true
		}
	}
	return false
}

// Reset discards recorded frames
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}
