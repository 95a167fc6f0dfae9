package counter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors for the counter package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, counter.ErrUnknownEntity) {
//	    // handle not found case
//	}
var (
	// ErrInvalidConfig is returned when the counter block or an entry in it is malformed.
	ErrInvalidConfig = errors.New("counter: invalid configuration")

	// ErrUnknownEntity is returned when a call targets an entity id with no live counter.
	ErrUnknownEntity = errors.New("counter: unknown entity")

	// ErrEntityExists is returned when registering an entity id that is already live.
	ErrEntityExists = errors.New("counter: entity already exists")

	// ErrUnknownService is returned when a call names a service counters do not offer.
	ErrUnknownService = errors.New("counter: unknown service")

	// ErrMissingValue is returned when set_value is called without a value.
	ErrMissingValue = errors.New("counter: value is required")
)

// ConfigError collects every problem found in a counter block.
//
// Problems keyed by an object id belong to that entry; the empty key holds
// problems with the block as a whole.
type ConfigError struct {
	Problems map[string][]string
}

func (e *ConfigError) add(objectID, problem string) {
	if e.Problems == nil {
		e.Problems = make(map[string][]string)
	}
	e.Problems[objectID] = append(e.Problems[objectID], problem)
}

func (e *ConfigError) empty() bool {
	return len(e.Problems) == 0
}

// Error lists the problems, block-level first, then entries in key order.
func (e *ConfigError) Error() string {
	keys := make([]string, 0, len(e.Problems))
	for k := range e.Problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		msg := strings.Join(e.Problems[k], ", ")
		if k == "" {
			parts = append(parts, msg)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", k, msg))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}

// Unwrap allows errors.Is(err, ErrInvalidConfig).
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
