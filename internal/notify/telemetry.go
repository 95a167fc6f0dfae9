package notify

import (
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-counter/internal/counter"
)

// CounterWriter records counter values as time series.
// Implemented by influxdb.Client.
type CounterWriter interface {
	WriteCounterValue(entityID string, value int, at time.Time)
}

// TelemetrySink writes every counter state as a numeric point.
type TelemetrySink struct {
	writer CounterWriter
	logger Logger
}

// NewTelemetrySink creates a telemetry sink over writer.
func NewTelemetrySink(writer CounterWriter) *TelemetrySink {
	return &TelemetrySink{writer: writer, logger: noopLogger{}}
}

// SetLogger sets the logger.
func (s *TelemetrySink) SetLogger(logger Logger) {
	s.logger = logger
}

// Publish implements counter.Sink.
func (s *TelemetrySink) Publish(state counter.State) {
	value, err := strconv.Atoi(state.State)
	if err != nil {
		s.logger.Warn("skipping non-numeric counter state", "entity_id", state.EntityID, "state", state.State)
		return
	}
	s.writer.WriteCounterValue(state.EntityID, value, state.LastChanged)
}
