// Package transcript provides the append-only conversation log that the
// orchestrator sends to the model client on every iteration.
package transcript

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/droverhq/drover"
)

// ErrSealed is returned by Append after the transcript has been sealed.
// It signals a loop-discipline bug: nothing may be appended once the run
// that owns the transcript has terminated.
var ErrSealed = errors.New("transcript: append after seal")

// Transcript is a strictly ordered, append-only record of conversation
// messages. It supports no removal or reordering. Safe for concurrent use,
// though a single run only ever appends from one goroutine.
type Transcript struct {
	mu       sync.RWMutex
	messages []drover.Message
	sealed   bool
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// From creates a transcript seeded with the given messages. The slice is
// copied; the caller keeps ownership of its own copy.
func From(messages []drover.Message) *Transcript {
	t := New()
	if len(messages) > 0 {
		t.messages = make([]drover.Message, len(messages))
		copy(t.messages, messages)
	}
	return t
}

// Append adds messages in order. It fails with ErrSealed once Seal has
// been called.
func (t *Transcript) Append(msgs ...drover.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed {
		return ErrSealed
	}
	t.messages = append(t.messages, msgs...)
	return nil
}

// Snapshot returns a copy of all messages in append order.
func (t *Transcript) Snapshot() []drover.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]drover.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last returns the most recent message and true, or a zero message and
// false when the transcript is empty.
func (t *Transcript) Last() (drover.Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return drover.Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Seal marks the transcript terminal. Further appends fail with
// ErrSealed. Sealing twice is a no-op.
func (t *Transcript) Seal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sealed = true
}

// Sealed reports whether the transcript has been sealed.
func (t *Transcript) Sealed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sealed
}

type wireTranscript struct {
	Messages []drover.Message `json:"messages"`
	Sealed   bool             `json:"sealed,omitempty"`
}

// MarshalJSON serializes the transcript. The encoding preserves role,
// content-block ordering, and tool-call identifiers exactly.
func (t *Transcript) MarshalJSON() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return json.Marshal(wireTranscript{Messages: t.messages, Sealed: t.sealed})
}

// UnmarshalJSON restores a transcript serialized by MarshalJSON.
func (t *Transcript) UnmarshalJSON(data []byte) error {
	var wire wireTranscript
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = wire.Messages
	t.sealed = wire.Sealed
	return nil
}
