package event

import "sync"

// MemorySink buffers events in memory. It is the sink used by tests and
// by callers that want to inspect a run's audit trail after the fact.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Publish(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// Events returns a copy of everything published so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// ForRun returns the events belonging to one run, in publish order.
func (s *MemorySink) ForRun(runID string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Reset discards all buffered events.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
