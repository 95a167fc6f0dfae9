package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-counter/internal/counter"
	"github.com/nerrad567/gray-logic-counter/internal/infrastructure/mqtt"
)

// Dispatcher routes a service call to a counter. Implemented by
// counter.Registry.
type Dispatcher interface {
	Dispatch(call counter.Call) (counter.State, error)
}

// Subscriber is the subset of the MQTT client used to receive commands.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// CommandHandler turns messages on the counter command topics into
// registry service calls and acknowledges each one.
type CommandHandler struct {
	dispatcher Dispatcher
	publisher  Publisher
	qos        byte
	logger     Logger
	now        func() time.Time
}

// NewCommandHandler creates a handler that dispatches to d and publishes
// acknowledgements through p.
func NewCommandHandler(d Dispatcher, p Publisher, qos byte) *CommandHandler {
	return &CommandHandler{
		dispatcher: d,
		publisher:  p,
		qos:        qos,
		logger:     noopLogger{},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetLogger sets the logger.
func (h *CommandHandler) SetLogger(logger Logger) {
	h.logger = logger
}

// Start subscribes to every counter command topic.
func (h *CommandHandler) Start(sub Subscriber) error {
	topic := mqtt.Topics{}.AllCounterCommands()
	if err := sub.Subscribe(topic, h.qos, h.HandleMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	return nil
}

// HandleMessage processes one command. It implements mqtt.MessageHandler.
//
// Every command that names an entity is acknowledged, successful or not.
// The returned error describes a rejected command.
func (h *CommandHandler) HandleMessage(topic string, payload []byte) error {
	entityID, ok := mqtt.Topics{}.EntityFromCommandTopic(topic)
	if !ok {
		return fmt.Errorf("not a counter command topic: %s", topic)
	}

	var msg CommandMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.ack(AckMessage{EntityID: entityID, Status: AckFailed, Error: &AckError{
			Code:    ErrCodeInvalidPayload,
			Message: err.Error(),
		}})
		return fmt.Errorf("parsing command for %s: %w", entityID, err)
	}

	h.logger.Debug("received counter command",
		"command_id", msg.ID,
		"entity_id", entityID,
		"service", msg.Service,
	)

	state, err := h.dispatcher.Dispatch(counter.Call{
		EntityID: entityID,
		Service:  msg.Service,
		Value:    msg.Value,
		Context:  callContext(msg.Context),
	})

	ack := AckMessage{
		CommandID: msg.ID,
		EntityID:  entityID,
		Service:   msg.Service,
	}
	if err != nil {
		ack.Status = AckFailed
		ack.Error = &AckError{Code: errorCode(err), Message: err.Error()}
		h.ack(ack)
		return fmt.Errorf("dispatching %s to %s: %w", msg.Service, entityID, err)
	}

	ack.Status = AckSuccess
	ack.State = state.State
	h.ack(ack)
	return nil
}

func (h *CommandHandler) ack(ack AckMessage) {
	ack.Timestamp = h.now()

	payload, err := json.Marshal(ack)
	if err != nil {
		h.logger.Error("failed to marshal ack", "entity_id", ack.EntityID, "error", err)
		return
	}

	if err := h.publisher.Publish(mqtt.Topics{}.CounterAck(ack.EntityID), payload, h.qos, false); err != nil {
		h.logger.Warn("failed to publish ack", "entity_id", ack.EntityID, "error", err)
	}
}

// callContext builds the counter context for a caller. A command without
// a context is a system call; the entity then generates one itself.
func callContext(cc *CommandContext) *counter.Context {
	if cc == nil {
		return nil
	}
	ctx := counter.NewContext(cc.UserID)
	ctx.ParentID = cc.ParentID
	return ctx
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, counter.ErrUnknownEntity):
		return ErrCodeUnknownEntity
	case errors.Is(err, counter.ErrUnknownService):
		return ErrCodeInvalidService
	case errors.Is(err, counter.ErrMissingValue):
		return ErrCodeMissingValue
	default:
		return ErrCodeInternal
	}
}
