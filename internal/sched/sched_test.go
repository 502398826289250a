package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReal_AfterAndCancel(t *testing.T) {
	r := NewReal()
	var fired atomic.Bool

	cancel := r.After(time.Hour, func() { fired.Store(true) })
	cancel()
	cancel() // double cancel is safe

	time.Sleep(20 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestReal_Every(t *testing.T) {
	r := NewReal()
	var ticks atomic.Int32

	cancel := r.Every(5*time.Millisecond, func() { ticks.Add(1) })
	assert.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ticks.Load(), "no ticks after cancel")
}

func TestFake_OneShot(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	var fired int

	f.After(10*time.Second, func() { fired++ })

	f.Advance(9 * time.Second)
	assert.Zero(t, fired)

	f.Advance(time.Second)
	assert.Equal(t, 1, fired)

	f.Advance(time.Hour)
	assert.Equal(t, 1, fired, "one-shot fires once")
}

func TestFake_EveryFiresPerPeriod(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	var ticks int

	f.Every(5*time.Second, func() { ticks++ })

	f.Advance(17 * time.Second)
	assert.Equal(t, 3, ticks)
}

func TestFake_CancelRepeating(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	var ticks int

	cancel := f.Every(time.Second, func() { ticks++ })
	f.Advance(3 * time.Second)
	cancel()
	f.Advance(10 * time.Second)

	assert.Equal(t, 3, ticks)
}

func TestFake_OrderByDueTime(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	var order []string

	f.After(2*time.Second, func() { order = append(order, "b") })
	f.After(1*time.Second, func() { order = append(order, "a") })

	f.Advance(5 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
}
