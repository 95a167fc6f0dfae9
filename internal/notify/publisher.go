package notify

import (
	"encoding/json"

	"github.com/nerrad567/gray-logic-counter/internal/counter"
	"github.com/nerrad567/gray-logic-counter/internal/infrastructure/mqtt"
)

// Publisher is the subset of the MQTT client used to send messages.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MQTTPublisher publishes each counter state, retained, on the counter's
// state topic so late subscribers see the current value.
type MQTTPublisher struct {
	client Publisher
	qos    byte
	logger Logger
}

// NewMQTTPublisher creates a state publisher.
func NewMQTTPublisher(client Publisher, qos byte) *MQTTPublisher {
	return &MQTTPublisher{client: client, qos: qos, logger: noopLogger{}}
}

// SetLogger sets the logger for publish failures.
func (p *MQTTPublisher) SetLogger(logger Logger) {
	p.logger = logger
}

// Publish implements counter.Sink. Failures are logged and dropped; the
// next change publishes the full state again.
func (p *MQTTPublisher) Publish(state counter.State) {
	payload, err := json.Marshal(state)
	if err != nil {
		p.logger.Error("failed to marshal counter state", "entity_id", state.EntityID, "error", err)
		return
	}

	topic := mqtt.Topics{}.CounterState(state.EntityID)
	if err := p.client.Publish(topic, payload, p.qos, true); err != nil {
		p.logger.Warn("failed to publish counter state",
			"entity_id", state.EntityID,
			"topic", topic,
			"error", err,
		)
		return
	}
	p.logger.Debug("counter state published", "entity_id", state.EntityID, "state", state.State)
}
