// Package util provides the small helpers shared across pulsekit:
// identifier generation, timestamps, throttling, debouncing, and
// property sanitization.
package util

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a new random identifier suitable for sessions and events.
func NewID() string {
	return uuid.New().String()
}

// NowMillis returns the current time as epoch milliseconds, the timestamp
// unit used throughout the delivery payload.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
