package counter

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry owns the live counters, keyed by entity id.
//
// It performs setup-time restore resolution and routes service calls to the
// target entity. It is created and torn down by the host; there is no
// package-level state.
//
// All public methods are thread-safe.
type Registry struct {
	cache RestoreCache
	sink  Sink

	entities map[string]*Entity
	mu       sync.RWMutex
	logger   Logger
}

// NewRegistry creates an empty registry.
//
// Parameters:
//   - cache: Restore cache consulted once per restore-enabled counter (may be nil)
//   - sink: Receives a notification after every mutation (may be nil)
func NewRegistry(cache RestoreCache, sink Sink) *Registry {
	if sink == nil {
		sink = noopSink{}
	}
	return &Registry{
		cache:    cache,
		sink:     sink,
		entities: make(map[string]*Entity),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Setup creates one entity per config.
//
// All configs are checked before anything is created: an invalid config or
// an id that is duplicated (within configs or against live entities) fails
// the whole call and leaves the registry unchanged.
func (r *Registry) Setup(ctx context.Context, configs []Config) error {
	cerr := &ConfigError{}
	seen := make(map[string]bool, len(configs))

	r.mu.RLock()
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			cerr.add(cfg.ObjectID, err.Error())
			continue
		}
		id := cfg.EntityID()
		if _, exists := r.entities[id]; exists || seen[id] {
			cerr.add(cfg.ObjectID, ErrEntityExists.Error())
		}
		seen[id] = true
	}
	r.mu.RUnlock()

	if !cerr.empty() {
		return cerr
	}

	for _, cfg := range configs {
		if err := r.Register(ctx, cfg); err != nil {
			return err
		}
	}

	r.logger.Info("counters set up", "count", len(configs))
	return nil
}

// Register creates a single entity, resolving its startup value from the
// restore cache, and publishes its initial state.
//
// Returns ErrEntityExists if the entity id is already live, or an error
// wrapping ErrInvalidConfig if cfg is invalid. A failed or cancelled cache
// lookup is treated as "nothing cached".
func (r *Registry) Register(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, cfg.ObjectID, err)
	}

	id := cfg.EntityID()

	r.mu.RLock()
	_, exists := r.entities[id]
	r.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: %s", ErrEntityExists, id)
	}

	var restored *int
	if cfg.Restore {
		restored = r.lookupRestored(ctx, id)
	}
	value := Resolve(cfg, restored)

	entity := newEntity(cfg, value, r.sink)

	r.mu.Lock()
	if _, exists := r.entities[id]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEntityExists, id)
	}
	r.entities[id] = entity
	r.mu.Unlock()

	entity.announce(nil)

	r.logger.Info("counter registered",
		"entity_id", id,
		"value", value,
		"restored", restored != nil,
	)
	return nil
}

// lookupRestored asks the cache for a previous value. Every failure mode
// collapses to nil.
func (r *Registry) lookupRestored(ctx context.Context, entityID string) *int {
	if r.cache == nil {
		return nil
	}

	raw, ok, err := r.cache.LastState(ctx, entityID)
	if err != nil {
		r.logger.Warn("restore lookup failed, using configured initial value",
			"entity_id", entityID,
			"error", err,
		)
		return nil
	}
	if !ok {
		return nil
	}

	v, ok := ParseRestored(raw)
	if !ok {
		r.logger.Warn("ignoring unparseable restored state",
			"entity_id", entityID,
			"state", raw,
		)
		return nil
	}
	return &v
}

// Dispatch routes a service call to its entity and returns the new state.
//
// Returns ErrUnknownEntity if no counter has the id; nothing is mutated in
// that case. Returns ErrUnknownService or ErrMissingValue for malformed calls.
func (r *Registry) Dispatch(call Call) (State, error) {
	entity, err := r.Entity(call.EntityID)
	if err != nil {
		return State{}, err
	}

	var state State
	switch call.Service {
	case ServiceIncrement:
		state = entity.Increment(call.Context)
	case ServiceDecrement:
		state = entity.Decrement(call.Context)
	case ServiceReset:
		state = entity.Reset(call.Context)
	case ServiceSetValue:
		if call.Value == nil {
			return State{}, fmt.Errorf("%w: %s", ErrMissingValue, call.Service)
		}
		state = entity.SetValue(*call.Value, call.Context)
	default:
		return State{}, fmt.Errorf("%w: %q", ErrUnknownService, call.Service)
	}

	r.logger.Debug("counter service called",
		"entity_id", call.EntityID,
		"service", call.Service,
		"state", state.State,
	)
	return state, nil
}

// Entity returns the live entity for an entity id.
func (r *Registry) Entity(entityID string) (*Entity, error) {
	r.mu.RLock()
	entity, ok := r.entities[entityID]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entityID)
	}
	return entity, nil
}

// Remove destroys one entity.
func (r *Registry) Remove(entityID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entities[entityID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entityID)
	}
	delete(r.entities, entityID)

	r.logger.Info("counter removed", "entity_id", entityID)
	return nil
}

// Close destroys every entity.
func (r *Registry) Close() {
	r.mu.Lock()
	count := len(r.entities)
	r.entities = make(map[string]*Entity)
	r.mu.Unlock()

	r.logger.Info("counter registry closed", "removed", count)
}

// States returns a snapshot of every counter, sorted by entity id.
func (r *Registry) States() []State {
	r.mu.RLock()
	entities := make([]*Entity, 0, len(r.entities))
	for _, e := range r.entities {
		entities = append(entities, e)
	}
	r.mu.RUnlock()

	states := make([]State, 0, len(entities))
	for _, e := range entities {
		states = append(states, e.State())
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].EntityID < states[j].EntityID
	})
	return states
}

// Count returns the number of live counters.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}
