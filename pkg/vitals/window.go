package vitals

// Session-window bounds for layout-shift accumulation, in milliseconds.
const (
	shiftGapLimit  = 1000
	shiftSpanLimit = 5000
)

// shiftWindows accumulates layout-shift entries into session windows: a
// new window starts when the gap since the previous entry exceeds 1s or
// the window's span exceeds 5s. The reported value is the maximum
// cumulative score across all windows seen so far, which is only knowable
// retrospectively, hence CLS is reported at hidden/shutdown, not eagerly.
type shiftWindows struct {
	started     bool
	windowStart float64
	lastEntry   float64
	current     float64
	max         float64
}

// Add folds one shift entry (score value at time ts) into the windows.
func (w *shiftWindows) Add(value, ts float64) {
	if !w.started || ts-w.lastEntry > shiftGapLimit || ts-w.windowStart > shiftSpanLimit {
		w.started = true
		w.windowStart = ts
		w.current = 0
	}
	w.current += value
	w.lastEntry = ts
	if w.current > w.max {
		w.max = w.current
	}
}

// Max returns the largest cumulative score of any window so far.
func (w *shiftWindows) Max() float64 { return w.max }

// Seen reports whether any entry was folded in.
func (w *shiftWindows) Seen() bool { return w.started }
