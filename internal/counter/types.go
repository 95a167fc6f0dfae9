package counter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Domain is the entity domain for counters. Entity ids take the form
// "counter.<object_id>".
const Domain = "counter"

// Display attribute keys carried in State.Attributes.
const (
	AttrFriendlyName = "friendly_name"
	AttrIcon         = "icon"
)

// DefaultStep is used when a counter does not configure a step.
const DefaultStep = 1

// Config is the validated, immutable configuration of one counter.
//
// Initial is a pointer so that "not configured" can be told apart from
// "configured as 0"; restore resolution depends on the difference.
type Config struct {
	ObjectID string
	Name     string
	Icon     string
	Initial  *int
	Step     int
	Restore  bool
}

// EntityID returns the full entity id for the counter.
func (c Config) EntityID() string {
	return EntityID(c.ObjectID)
}

// Baseline returns the configured initial value, or 0 when none is set.
func (c Config) Baseline() int {
	if c.Initial != nil {
		return *c.Initial
	}
	return 0
}

// EntityID builds a counter entity id from an object id.
func EntityID(objectID string) string {
	return Domain + "." + objectID
}

// Context identifies who or what caused a state change.
//
// It is opaque to this package: it is attached to the resulting notification
// unchanged and never inspected for authorisation.
type Context struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
}

// NewContext returns a fresh context with a generated id.
// An empty userID denotes a system-initiated change.
func NewContext(userID string) *Context {
	return &Context{
		ID:     uuid.NewString(),
		UserID: userID,
	}
}

// State is the observable state of a counter after a change.
type State struct {
	EntityID    string            `json:"entity_id"`
	State       string            `json:"state"`
	Attributes  map[string]string `json:"attributes"`
	Context     *Context          `json:"context"`
	LastChanged time.Time         `json:"last_changed"`
}

// Service names accepted by Registry.Dispatch.
type Service string

const (
	ServiceIncrement Service = "increment"
	ServiceDecrement Service = "decrement"
	ServiceReset     Service = "reset"
	ServiceSetValue  Service = "set_value"
)

// Call is a routed service request.
type Call struct {
	EntityID string
	Service  Service

	// Value is required for ServiceSetValue and ignored otherwise.
	Value *int

	// Context is attached to the resulting notification. A system context
	// is generated when nil.
	Context *Context
}

// Sink receives a notification after every successful mutation.
//
// Publish is fire-and-forget: implementations handle their own errors.
// It is called while the entity is locked, so it must not call back into
// the same entity.
type Sink interface {
	Publish(state State)
}

// RestoreCache looks up the last persisted state of an entity.
//
// The boolean is false when nothing was cached for the entity.
type RestoreCache interface {
	LastState(ctx context.Context, entityID string) (string, bool, error)
}

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopSink struct{}

func (noopSink) Publish(State) {}
