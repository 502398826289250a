package util

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle wraps fn so that at most one invocation per interval goes
// through; excess calls are dropped, not queued. Safe for concurrent use.
func Throttle(interval time.Duration, fn func()) func() {
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	return func() {
		if limiter.Allow() {
			fn()
		}
	}
}

// Debounce wraps fn so that it only runs after calls have stopped arriving
// for the given quiet interval. Each call restarts the countdown.
func Debounce(interval time.Duration, fn func()) func() {
	var mu sync.Mutex
	var timer *time.Timer
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(interval, fn)
	}
}
