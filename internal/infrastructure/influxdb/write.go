package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement and field names for counter telemetry.
const (
	MeasurementCounterValue = "counter_value"
	TagEntityID             = "entity_id"
	FieldValue              = "value"
)

// CounterPoint builds the point recorded for one counter state change.
func CounterPoint(entityID string, value int, at time.Time) *write.Point {
	if at.IsZero() {
		at = time.Now()
	}
	return write.NewPoint(
		MeasurementCounterValue,
		map[string]string{TagEntityID: entityID},
		map[string]interface{}{FieldValue: int64(value)},
		at,
	)
}

// WriteCounterValue queues a counter value for the next batch.
// Dropped silently when the client is closed.
//
// Example:
//
//	client.WriteCounterValue("counter.visitors", 12, state.LastChanged)
func (c *Client) WriteCounterValue(entityID string, value int, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(CounterPoint(entityID, value, at))
}
