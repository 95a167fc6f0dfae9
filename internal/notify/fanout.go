package notify

import "github.com/nerrad567/gray-logic-counter/internal/counter"

// Fanout forwards every state to each of its sinks, in order.
type Fanout struct {
	sinks []counter.Sink
}

// NewFanout creates a fan-out over sinks. Nil sinks are skipped, so
// optional outputs can be passed unconditionally.
func NewFanout(sinks ...counter.Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Publish implements counter.Sink.
func (f *Fanout) Publish(state counter.State) {
	for _, s := range f.sinks {
		s.Publish(state)
	}
}

// Len returns the number of sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}
