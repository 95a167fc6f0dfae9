package notify

import (
	"time"

	"github.com/nerrad567/gray-logic-counter/internal/counter"
)

// CommandMessage is a service call received on a counter command topic.
// The target entity is taken from the topic, not the payload.
//
//	{"id":"cmd-1","service":"set_value","value":5,"context":{"user_id":"u-1"}}
type CommandMessage struct {
	// ID correlates the command with its acknowledgement. Optional.
	ID string `json:"id,omitempty"`

	Service counter.Service `json:"service"`

	// Value is required for set_value and ignored otherwise.
	Value *int `json:"value,omitempty"`

	// Context identifies the caller. Omit it for a system-initiated call.
	Context *CommandContext `json:"context,omitempty"`
}

// CommandContext is the caller identity carried by a command.
type CommandContext struct {
	UserID   string `json:"user_id,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
}

// AckStatus is the outcome of a command.
type AckStatus string

const (
	AckSuccess AckStatus = "success"
	AckFailed  AckStatus = "failed"
)

// Error codes reported in failed acknowledgements.
const (
	ErrCodeInvalidPayload = "INVALID_PAYLOAD"
	ErrCodeUnknownEntity  = "UNKNOWN_ENTITY"
	ErrCodeInvalidService = "INVALID_SERVICE"
	ErrCodeMissingValue   = "MISSING_VALUE"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// AckMessage reports the outcome of a command on the counter ack topic.
type AckMessage struct {
	CommandID string          `json:"command_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	EntityID  string          `json:"entity_id"`
	Service   counter.Service `json:"service,omitempty"`
	Status    AckStatus       `json:"status"`

	// State is the counter value after a successful call.
	State string `json:"state,omitempty"`

	Error *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
