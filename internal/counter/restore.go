package counter

import (
	"strconv"
	"strings"
)

// Resolve returns the value a counter starts with.
//
// Precedence:
//  1. restore disabled: the configured initial value, or 0. Any restored
//     value is ignored.
//  2. restore enabled and a restored value is available: the restored value,
//     even when an initial value is also configured.
//  3. restore enabled and nothing restored: the configured initial value, or 0.
func Resolve(cfg Config, restored *int) int {
	if !cfg.Restore {
		return cfg.Baseline()
	}
	if restored != nil {
		return *restored
	}
	return cfg.Baseline()
}

// ParseRestored parses a cached state string as a decimal integer.
//
// The boolean is false when the string is not an integer; callers treat that
// exactly like a missing cache entry.
func ParseRestored(raw string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return v, true
}
