// Package sched abstracts timer-driven work so the tracker's flush and
// session-expiry scheduling can run against a fake clock in tests.
package sched

import (
	"sync"
	"time"
)

// CancelFunc stops a scheduled task. Calling it more than once is safe.
type CancelFunc func()

// Scheduler starts one-shot and repeating work. Implementations must make
// CancelFunc synchronous: once it returns, the callback will not fire again.
type Scheduler interface {
	// Every runs fn repeatedly with the given period until cancelled.
	Every(period time.Duration, fn func()) CancelFunc
	// After runs fn once after the given delay unless cancelled first.
	After(delay time.Duration, fn func()) CancelFunc
	// Now returns the scheduler's notion of current time.
	Now() time.Time
}

// Real is the wall-clock Scheduler used outside of tests.
type Real struct{}

// NewReal returns a Scheduler backed by real timers.
func NewReal() *Real { return &Real{} }

func (r *Real) Every(period time.Duration, fn func()) CancelFunc {
	ticker := time.NewTicker(period)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
			wg.Wait()
		})
	}
}

func (r *Real) After(delay time.Duration, fn func()) CancelFunc {
	timer := time.AfterFunc(delay, fn)
	var once sync.Once
	return func() {
		once.Do(func() { timer.Stop() })
	}
}

func (r *Real) Now() time.Time { return time.Now() }
