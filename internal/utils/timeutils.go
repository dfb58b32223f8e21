package utils

import (
	"fmt"
	"strconv"
	"time"
)

// ParseTimestamp accepts RFC3339 strings or unix milliseconds. An empty value
// yields the fallback.
func ParseTimestamp(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: expected RFC3339 or unix milliseconds", value)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// ToMillis converts a duration into fractional milliseconds.
func ToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
