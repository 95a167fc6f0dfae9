package counter

import (
	"strconv"
	"sync"
	"time"
)

// Entity is one live counter.
//
// Config and step never change after creation. The value is guarded by a
// mutex held across the update and the notification, so concurrent calls
// cannot lose updates and notifications leave in the order changes happened.
type Entity struct {
	cfg  Config
	sink Sink

	mu          sync.Mutex
	value       int
	lastContext *Context
	lastChanged time.Time
}

// newEntity creates an entity starting at value. It does not publish.
func newEntity(cfg Config, value int, sink Sink) *Entity {
	if sink == nil {
		sink = noopSink{}
	}
	return &Entity{
		cfg:         cfg,
		sink:        sink,
		value:       value,
		lastChanged: time.Now().UTC(),
	}
}

// EntityID returns the entity id, e.g. "counter.test".
func (e *Entity) EntityID() string {
	return e.cfg.EntityID()
}

// Config returns the counter's configuration.
func (e *Entity) Config() Config {
	return e.cfg
}

// Value returns the current value.
func (e *Entity) Value() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Increment adds the step to the value.
func (e *Entity) Increment(cctx *Context) State {
	return e.apply(cctx, func(v int) int { return v + e.cfg.Step })
}

// Decrement subtracts the step from the value. Negative values are allowed.
func (e *Entity) Decrement(cctx *Context) State {
	return e.apply(cctx, func(v int) int { return v - e.cfg.Step })
}

// Reset returns the value to the configured initial value, or 0.
// The restore cache is not consulted.
func (e *Entity) Reset(cctx *Context) State {
	baseline := e.cfg.Baseline()
	return e.apply(cctx, func(int) int { return baseline })
}

// SetValue sets the value directly.
func (e *Entity) SetValue(value int, cctx *Context) State {
	return e.apply(cctx, func(int) int { return value })
}

// State returns a snapshot of the current state without publishing.
func (e *Entity) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// announce publishes the current state with the given context. The registry
// uses it once an entity is ready so observers see the startup value.
func (e *Entity) announce(cctx *Context) State {
	return e.apply(cctx, func(v int) int { return v })
}

// apply runs one read-modify-write and publishes exactly one notification.
func (e *Entity) apply(cctx *Context, next func(int) int) State {
	if cctx == nil {
		cctx = NewContext("")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.value = next(e.value)
	e.lastContext = cctx
	e.lastChanged = time.Now().UTC()

	state := e.snapshot()
	e.sink.Publish(state)
	return state
}

// snapshot must be called with mu held.
func (e *Entity) snapshot() State {
	return State{
		EntityID:    e.cfg.EntityID(),
		State:       strconv.Itoa(e.value),
		Attributes:  e.attributes(),
		Context:     e.lastContext,
		LastChanged: e.lastChanged,
	}
}

// attributes returns display attributes. Unset ones are omitted, not empty.
func (e *Entity) attributes() map[string]string {
	attrs := make(map[string]string, 2)
	if e.cfg.Name != "" {
		attrs[AttrFriendlyName] = e.cfg.Name
	}
	if e.cfg.Icon != "" {
		attrs[AttrIcon] = e.cfg.Icon
	}
	return attrs
}
