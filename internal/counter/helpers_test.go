package counter

import (
	"context"
	"sync"
)

// mockSink records every published state.
type mockSink struct {
	mu     sync.Mutex
	states []State
}

func (m *mockSink) Publish(state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, state)
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}

func (m *mockSink) last() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.states) == 0 {
		return State{}
	}
	return m.states[len(m.states)-1]
}

func (m *mockSink) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = nil
}

// mockRestoreCache serves canned states and counts lookups.
type mockRestoreCache struct {
	mu      sync.Mutex
	states  map[string]string
	err     error
	lookups map[string]int
}

func newMockRestoreCache(states map[string]string) *mockRestoreCache {
	return &mockRestoreCache{
		states:  states,
		lookups: make(map[string]int),
	}
}

func (m *mockRestoreCache) LastState(_ context.Context, entityID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lookups[entityID]++
	if m.err != nil {
		return "", false, m.err
	}
	s, ok := m.states[entityID]
	return s, ok, nil
}

func (m *mockRestoreCache) lookupCount(entityID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups[entityID]
}

func intPtr(v int) *int {
	return &v
}

// mustParse parses a counter block or panics; for use with known-good YAML.
func mustParse(yamlText string) []Config {
	configs, err := ParseYAML([]byte(yamlText))
	if err != nil {
		panic(err)
	}
	return configs
}
