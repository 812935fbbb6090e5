package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseMillis converts a duration string to milliseconds. Accepted forms are
// a bare non-negative integer (already milliseconds) or an integer with one
// of the suffixes ms, s, m, h. Negative values, floats and unknown suffixes
// are rejected.
func ParseMillis(raw string) (uint64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	unit := uint64(1)
	digits := s
	switch {
	case strings.HasSuffix(s, "ms"):
		digits = strings.TrimSuffix(s, "ms")
	case strings.HasSuffix(s, "s"):
		digits = strings.TrimSuffix(s, "s")
		unit = 1000
	case strings.HasSuffix(s, "m"):
		digits = strings.TrimSuffix(s, "m")
		unit = 60 * 1000
	case strings.HasSuffix(s, "h"):
		digits = strings.TrimSuffix(s, "h")
		unit = 60 * 60 * 1000
	}

	if digits == "" {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
	}

	value, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	return value * unit, nil
}
