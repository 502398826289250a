package vitals

import "sync"

// Collector subscribes to a Source and reports each metric at most once
// through the callback supplied by the tracker. FCP, FID, and TTFB are
// single-shot: the first qualifying entry emits and detaches the observer.
// CLS and LCP accumulate until ReportPending is called at hidden/shutdown.
type Collector struct {
	source   Source
	onMetric func(Metric)

	mu      sync.Mutex
	emitted map[string]bool
	cls     shiftWindows
	lcp     float64
	lcpSeen bool
	cancels []func()
	stopped bool
}

// NewCollector creates a collector reporting into onMetric. Call Start to
// begin observing.
func NewCollector(source Source, onMetric func(Metric)) *Collector {
	return &Collector{
		source:   source,
		onMetric: onMetric,
		emitted:  make(map[string]bool),
	}
}

// Start subscribes to every entry type the source supports. Unsupported
// types are skipped; the remaining metrics still collect.
func (c *Collector) Start() {
	c.observe(EntryLayoutShift, func(e Entry) {
		if e.HadRecentInput {
			return
		}
		c.mu.Lock()
		c.cls.Add(e.Value, e.StartTime)
		c.mu.Unlock()
	})

	c.observeOnce(EntryPaint, MetricFCP, func(e Entry) (float64, bool) {
		if e.Name != FirstContentfulPaint {
			return 0, false
		}
		return e.StartTime, true
	})

	c.observeOnce(EntryFirstInput, MetricFID, func(e Entry) (float64, bool) {
		return e.ProcessingStart - e.StartTime, true
	})

	c.observe(EntryLargestContentfulPaint, func(e Entry) {
		c.mu.Lock()
		if e.Value > c.lcp {
			c.lcp = e.Value
		}
		c.lcpSeen = true
		c.mu.Unlock()
	})

	c.observeOnce(EntryNavigation, MetricTTFB, func(e Entry) (float64, bool) {
		return e.ResponseStart, true
	})
}

// ReportPending emits the retrospective metrics (CLS, LCP) if they have
// observed anything. Safe to call repeatedly; each metric still emits only
// once.
func (c *Collector) ReportPending() {
	c.mu.Lock()
	clsSeen, clsValue := c.cls.Seen(), c.cls.Max()
	lcpSeen, lcpValue := c.lcpSeen, c.lcp
	c.mu.Unlock()

	if clsSeen {
		c.emit(MetricCLS, clsValue)
	}
	if lcpSeen {
		c.emit(MetricLCP, lcpValue)
	}
}

// Stop detaches every observer. Further entries are ignored.
func (c *Collector) Stop() {
	c.mu.Lock()
	cancels := c.cancels
	c.cancels = nil
	c.stopped = true
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// observe subscribes fn for an entry type, tracking the cancel handle.
func (c *Collector) observe(typ EntryType, fn func(Entry)) {
	cancel, ok := c.source.Observe(typ, fn)
	if !ok {
		return
	}
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		cancel()
		return
	}
	c.cancels = append(c.cancels, cancel)
	c.mu.Unlock()
}

// observeOnce subscribes a single-shot metric: the first qualifying entry
// emits the metric and detaches the observer.
func (c *Collector) observeOnce(typ EntryType, name string, compute func(Entry) (float64, bool)) {
	var cancelOnce sync.Once
	var cancel func()

	handler := func(e Entry) {
		value, ok := compute(e)
		if !ok {
			return
		}
		if c.emit(name, value) && cancel != nil {
			cancelOnce.Do(cancel)
		}
	}

	cancel, ok := c.source.Observe(typ, handler)
	if !ok {
		return
	}
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		cancel()
		return
	}
	c.cancels = append(c.cancels, cancel)
	c.mu.Unlock()
}

// emit reports a metric if its name has not been emitted yet. Returns
// whether the emission happened.
func (c *Collector) emit(name string, value float64) bool {
	c.mu.Lock()
	if c.emitted[name] || c.stopped {
		c.mu.Unlock()
		return false
	}
	c.emitted[name] = true
	c.mu.Unlock()

	c.onMetric(Metric{Name: name, Value: value, Rating: Rate(name, value)})
	return true
}
