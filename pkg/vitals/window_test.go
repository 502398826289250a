package vitals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShiftWindows_SingleWindowAccumulates(t *testing.T) {
	var w shiftWindows
	w.Add(0.1, 0)
	w.Add(0.1, 500)
	w.Add(0.1, 900)

	assert.InDelta(t, 0.3, w.Max(), 1e-9)
}

func TestShiftWindows_GapOverOneSecondStartsNewWindow(t *testing.T) {
	var w shiftWindows
	w.Add(0.2, 0)
	w.Add(0.1, 1500) // gap 1.5s

	assert.InDelta(t, 0.2, w.Max(), 1e-9)
}

func TestShiftWindows_GapAtExactlyOneSecondContinuesWindow(t *testing.T) {
	var w shiftWindows
	w.Add(0.2, 0)
	w.Add(0.1, 1000)

	assert.InDelta(t, 0.3, w.Max(), 1e-9)
}

func TestShiftWindows_SpanOverFiveSecondsStartsNewWindow(t *testing.T) {
	var w shiftWindows
	// Entries every 900ms keep the gap under 1s while the span grows.
	ts := 0.0
	for i := 0; i < 6; i++ {
		w.Add(0.1, ts)
		ts += 900
	}
	// Span reached 5400ms at the 7th entry; a new window starts there.
	w.Add(0.1, ts)

	assert.InDelta(t, 0.6, w.Max(), 1e-9)
}

func TestShiftWindows_MaxIsRetrospective(t *testing.T) {
	var w shiftWindows
	w.Add(0.5, 0) // window 1
	w.Add(0.1, 2000)
	w.Add(0.1, 2100) // window 2 sums to 0.2

	assert.InDelta(t, 0.5, w.Max(), 1e-9)
	assert.True(t, w.Seen())
}

func TestShiftWindows_Empty(t *testing.T) {
	var w shiftWindows
	assert.False(t, w.Seen())
	assert.Zero(t, w.Max())
}
