// Package counter implements named integer counters for Gray Logic.
//
// Each counter is an entity ("counter.<object_id>") holding one integer that
// can be incremented, decremented, reset, or set. On startup its value is
// either seeded from configuration or restored from the last persisted state.
//
// # Startup value
//
// Resolve applies this precedence:
//
//	restore: false          → initial, else 0 (cache ignored)
//	restore: true, cached   → cached value (wins over initial)
//	restore: true, no cache → initial, else 0
//
// A cached value that is not an integer counts as no cached value.
//
// # Components
//
//   - ParseConfig: validates the raw counter block (yaml.Node) into []Config
//   - Resolve: computes the startup value
//   - Entity: one counter; every mutation publishes exactly one State
//   - Registry: owns entities, performs restore lookups, routes Calls
//
// Persistence, the message bus, and telemetry live outside this package and
// are reached through the RestoreCache and Sink interfaces.
//
// # Usage
//
//	configs, err := counter.ParseConfig(&cfg.Counter)
//	if err != nil {
//	    return err
//	}
//	reg := counter.NewRegistry(store, sink)
//	if err := reg.Setup(ctx, configs); err != nil {
//	    return err
//	}
//	state, err := reg.Dispatch(counter.Call{
//	    EntityID: "counter.visitors",
//	    Service:  counter.ServiceIncrement,
//	    Context:  counter.NewContext(userID),
//	})
package counter
