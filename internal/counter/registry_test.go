package counter

import (
	"context"
	"errors"
	"testing"
)

func setupRegistry(t *testing.T, cache RestoreCache, yamlText string) (*Registry, *mockSink) {
	t.Helper()

	sink := &mockSink{}
	reg := NewRegistry(cache, sink)
	if err := reg.Setup(context.Background(), mustParse(yamlText)); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	return reg, sink
}

func stateOf(t *testing.T, reg *Registry, entityID string) State {
	t.Helper()

	e, err := reg.Entity(entityID)
	if err != nil {
		t.Fatalf("Entity(%q) error = %v", entityID, err)
	}
	return e.State()
}

func TestRegistry_ConfigOptions(t *testing.T) {
	reg, _ := setupRegistry(t, nil, `
test_1: {}
test_2:
  name: Hello World
  icon: mdi:work
  initial: 10
  restore: false
  step: 5
`)

	if reg.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", reg.Count())
	}

	state1 := stateOf(t, reg, "counter.test_1")
	state2 := stateOf(t, reg, "counter.test_2")

	if state1.State != "0" {
		t.Errorf("test_1 state = %q, want %q", state1.State, "0")
	}
	if _, ok := state1.Attributes[AttrIcon]; ok {
		t.Error("test_1 has icon, want none")
	}
	if _, ok := state1.Attributes[AttrFriendlyName]; ok {
		t.Error("test_1 has friendly_name, want none")
	}

	if state2.State != "10" {
		t.Errorf("test_2 state = %q, want %q", state2.State, "10")
	}
	if state2.Attributes[AttrFriendlyName] != "Hello World" {
		t.Errorf("test_2 friendly_name = %q, want %q", state2.Attributes[AttrFriendlyName], "Hello World")
	}
	if state2.Attributes[AttrIcon] != "mdi:work" {
		t.Errorf("test_2 icon = %q, want %q", state2.Attributes[AttrIcon], "mdi:work")
	}
}

func TestRegistry_Methods(t *testing.T) {
	reg, _ := setupRegistry(t, nil, "test_1: {}")
	entityID := "counter.test_1"

	calls := []struct {
		service Service
		want    string
	}{
		{service: ServiceIncrement, want: "1"},
		{service: ServiceIncrement, want: "2"},
		{service: ServiceDecrement, want: "1"},
		{service: ServiceReset, want: "0"},
	}

	for _, c := range calls {
		state, err := reg.Dispatch(Call{EntityID: entityID, Service: c.service})
		if err != nil {
			t.Fatalf("Dispatch(%s) error = %v", c.service, err)
		}
		if state.State != c.want {
			t.Errorf("after %s state = %q, want %q", c.service, state.State, c.want)
		}
		if got := stateOf(t, reg, entityID).State; got != c.want {
			t.Errorf("after %s stored state = %q, want %q", c.service, got, c.want)
		}
	}
}

func TestRegistry_MethodsWithConfig(t *testing.T) {
	reg, _ := setupRegistry(t, nil, `
test:
  name: Hello World
  initial: 10
  step: 5
`)
	entityID := "counter.test"

	if got := stateOf(t, reg, entityID).State; got != "10" {
		t.Fatalf("initial state = %q, want %q", got, "10")
	}

	for _, c := range []struct {
		service Service
		want    string
	}{
		{ServiceIncrement, "15"},
		{ServiceIncrement, "20"},
		{ServiceDecrement, "15"},
	} {
		state, err := reg.Dispatch(Call{EntityID: entityID, Service: c.service})
		if err != nil {
			t.Fatalf("Dispatch(%s) error = %v", c.service, err)
		}
		if state.State != c.want {
			t.Errorf("after %s state = %q, want %q", c.service, state.State, c.want)
		}
	}
}

func TestRegistry_InitialStateOverrulesRestoreState(t *testing.T) {
	cache := newMockRestoreCache(map[string]string{
		"counter.test1": "11",
		"counter.test2": "-22",
	})

	reg, _ := setupRegistry(t, cache, `
test1:
  restore: false
test2:
  initial: 10
  restore: false
`)

	if got := stateOf(t, reg, "counter.test1").State; got != "0" {
		t.Errorf("test1 = %q, want %q", got, "0")
	}
	if got := stateOf(t, reg, "counter.test2").State; got != "10" {
		t.Errorf("test2 = %q, want %q", got, "10")
	}

	// The cache is not consulted when its answer would be discarded.
	if n := cache.lookupCount("counter.test1"); n != 0 {
		t.Errorf("test1 cache lookups = %d, want 0", n)
	}
	if n := cache.lookupCount("counter.test2"); n != 0 {
		t.Errorf("test2 cache lookups = %d, want 0", n)
	}
}

func TestRegistry_RestoreStateOverrulesInitialState(t *testing.T) {
	cache := newMockRestoreCache(map[string]string{
		"counter.test1": "11",
		"counter.test2": "-22",
	})

	reg, _ := setupRegistry(t, cache, `
test1: {}
test2:
  initial: 10
`)

	if got := stateOf(t, reg, "counter.test1").State; got != "11" {
		t.Errorf("test1 = %q, want %q", got, "11")
	}
	if got := stateOf(t, reg, "counter.test2").State; got != "-22" {
		t.Errorf("test2 = %q, want %q", got, "-22")
	}
	if n := cache.lookupCount("counter.test1"); n != 1 {
		t.Errorf("test1 cache lookups = %d, want 1", n)
	}
}

func TestRegistry_NoInitialStateAndNoRestoreState(t *testing.T) {
	reg, _ := setupRegistry(t, newMockRestoreCache(nil), `
test1:
  step: 5
`)

	if got := stateOf(t, reg, "counter.test1").State; got != "0" {
		t.Errorf("test1 = %q, want %q", got, "0")
	}
}

func TestRegistry_UnparseableRestoreFallsThrough(t *testing.T) {
	cache := newMockRestoreCache(map[string]string{
		"counter.with_initial":    "unknown",
		"counter.without_initial": "12.5",
	})

	reg, _ := setupRegistry(t, cache, `
with_initial:
  initial: 4
without_initial: {}
`)

	if got := stateOf(t, reg, "counter.with_initial").State; got != "4" {
		t.Errorf("with_initial = %q, want %q", got, "4")
	}
	if got := stateOf(t, reg, "counter.without_initial").State; got != "0" {
		t.Errorf("without_initial = %q, want %q", got, "0")
	}
}

func TestRegistry_RestoreLookupErrorFallsThrough(t *testing.T) {
	cache := newMockRestoreCache(map[string]string{"counter.test": "99"})
	cache.err = errors.New("store offline")

	reg, _ := setupRegistry(t, cache, "test:\n  initial: 3")

	if got := stateOf(t, reg, "counter.test").State; got != "3" {
		t.Errorf("test = %q, want %q", got, "3")
	}
}

func TestRegistry_ResetIgnoresRestoredValue(t *testing.T) {
	cache := newMockRestoreCache(map[string]string{"counter.test": "50"})
	reg, _ := setupRegistry(t, cache, "test:\n  initial: 10")

	if got := stateOf(t, reg, "counter.test").State; got != "50" {
		t.Fatalf("startup = %q, want %q", got, "50")
	}

	state, err := reg.Dispatch(Call{EntityID: "counter.test", Service: ServiceReset})
	if err != nil {
		t.Fatalf("Dispatch(reset) error = %v", err)
	}
	if state.State != "10" {
		t.Errorf("after reset = %q, want %q", state.State, "10")
	}
}

func TestRegistry_CounterContext(t *testing.T) {
	reg, sink := setupRegistry(t, nil, "test: {}")
	before := stateOf(t, reg, "counter.test")

	userCtx := &Context{ID: "ctx-42", UserID: "admin-user-id"}
	after, err := reg.Dispatch(Call{
		EntityID: "counter.test",
		Service:  ServiceIncrement,
		Context:  userCtx,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if before.State == after.State {
		t.Error("state did not change")
	}
	if after.Context.UserID != "admin-user-id" {
		t.Errorf("context user = %q, want %q", after.Context.UserID, "admin-user-id")
	}
	if sink.last().Context != userCtx {
		t.Error("published context is not the caller's context")
	}
}

func TestRegistry_SetupPublishesStartupState(t *testing.T) {
	reg, sink := setupRegistry(t, nil, "test_1: {}\ntest_2:\n  initial: 5")

	if sink.count() != 2 {
		t.Fatalf("%d startup notifications, want 2", sink.count())
	}
	sink.reset()

	if _, err := reg.Dispatch(Call{EntityID: "counter.test_2", Service: ServiceIncrement}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if sink.count() != 1 {
		t.Errorf("%d notifications for one call, want 1", sink.count())
	}
	if sink.last().State != "6" {
		t.Errorf("published %q, want %q", sink.last().State, "6")
	}
}

func TestRegistry_IndependentCounters(t *testing.T) {
	reg, _ := setupRegistry(t, nil, "test_1: {}\ntest_2: {}")

	for i := 0; i < 3; i++ {
		if _, err := reg.Dispatch(Call{EntityID: "counter.test_1", Service: ServiceIncrement}); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
	}
	if _, err := reg.Dispatch(Call{EntityID: "counter.test_2", Service: ServiceDecrement}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if got := stateOf(t, reg, "counter.test_1").State; got != "3" {
		t.Errorf("test_1 = %q, want %q", got, "3")
	}
	if got := stateOf(t, reg, "counter.test_2").State; got != "-1" {
		t.Errorf("test_2 = %q, want %q", got, "-1")
	}
}

func TestRegistry_DispatchErrors(t *testing.T) {
	reg, sink := setupRegistry(t, nil, "test: {}")
	sink.reset()

	tests := []struct {
		name    string
		call    Call
		wantErr error
	}{
		{
			name:    "unknown entity",
			call:    Call{EntityID: "counter.missing", Service: ServiceIncrement},
			wantErr: ErrUnknownEntity,
		},
		{
			name:    "unknown service",
			call:    Call{EntityID: "counter.test", Service: "multiply"},
			wantErr: ErrUnknownService,
		},
		{
			name:    "set_value without value",
			call:    Call{EntityID: "counter.test", Service: ServiceSetValue},
			wantErr: ErrMissingValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Dispatch(tt.call)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Dispatch() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if sink.count() != 0 {
		t.Errorf("%d notifications after failed calls, want 0", sink.count())
	}
	if got := stateOf(t, reg, "counter.test").State; got != "0" {
		t.Errorf("state = %q after failed calls, want %q", got, "0")
	}
}

func TestRegistry_DispatchSetValue(t *testing.T) {
	reg, _ := setupRegistry(t, nil, "test: {}")

	state, err := reg.Dispatch(Call{EntityID: "counter.test", Service: ServiceSetValue, Value: intPtr(-17)})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if state.State != "-17" {
		t.Errorf("state = %q, want %q", state.State, "-17")
	}
}

func TestRegistry_SetupRejectsDuplicatesAtomically(t *testing.T) {
	reg := NewRegistry(nil, nil)

	configs := []Config{
		{ObjectID: "a", Step: 1, Restore: true},
		{ObjectID: "b", Step: 1, Restore: true},
		{ObjectID: "a", Step: 2, Restore: true},
	}

	err := reg.Setup(context.Background(), configs)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Setup() error = %v, want ErrInvalidConfig", err)
	}
	if reg.Count() != 0 {
		t.Errorf("Count() = %d after failed setup, want 0", reg.Count())
	}
}

func TestRegistry_SetupRejectsInvalidConfig(t *testing.T) {
	reg := NewRegistry(nil, nil)

	err := reg.Setup(context.Background(), []Config{
		{ObjectID: "ok", Step: 1},
		{ObjectID: "bad", Step: 0},
	})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Setup() error = %v, want ErrInvalidConfig", err)
	}
	if reg.Count() != 0 {
		t.Errorf("Count() = %d, want 0", reg.Count())
	}
}

func TestRegistry_Register(t *testing.T) {
	cache := newMockRestoreCache(map[string]string{"counter.dynamic": "8"})
	reg := NewRegistry(cache, nil)
	ctx := context.Background()

	if err := reg.Register(ctx, Config{ObjectID: "dynamic", Step: 2, Restore: true}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got := stateOf(t, reg, "counter.dynamic").State; got != "8" {
		t.Errorf("state = %q, want %q", got, "8")
	}

	err := reg.Register(ctx, Config{ObjectID: "dynamic", Step: 1, Restore: true})
	if !errors.Is(err, ErrEntityExists) {
		t.Errorf("second Register() error = %v, want ErrEntityExists", err)
	}

	err = reg.Register(ctx, Config{ObjectID: "bad id", Step: 1})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Register(bad id) error = %v, want ErrInvalidConfig", err)
	}
}

func TestRegistry_RemoveAndClose(t *testing.T) {
	reg, _ := setupRegistry(t, nil, "a: {}\nb: {}\nc: {}")

	if err := reg.Remove("counter.b"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := reg.Remove("counter.b"); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("second Remove() error = %v, want ErrUnknownEntity", err)
	}
	if _, err := reg.Dispatch(Call{EntityID: "counter.b", Service: ServiceIncrement}); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("Dispatch() on removed entity error = %v, want ErrUnknownEntity", err)
	}

	states := reg.States()
	if len(states) != 2 || states[0].EntityID != "counter.a" || states[1].EntityID != "counter.c" {
		t.Errorf("States() = %+v, want counter.a and counter.c in order", states)
	}

	reg.Close()
	if reg.Count() != 0 {
		t.Errorf("Count() after Close() = %d, want 0", reg.Count())
	}
}
