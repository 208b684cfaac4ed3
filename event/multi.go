package event

// multiSink fans each published event out to several sinks.
type multiSink struct {
	sinks []Sink
}

// MultiSink combines sinks into one. Publish delivers to every sink
// even when one fails, and reports the first error.
func MultiSink(sinks ...Sink) Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return &multiSink{sinks: sinks}
}

func (m *multiSink) Publish(e Event) error {
	var first error
	for _, s := range m.sinks {
		if err := s.Publish(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
