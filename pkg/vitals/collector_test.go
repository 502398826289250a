package vitals

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type metricSink struct {
	mu      sync.Mutex
	metrics []Metric
}

func (s *metricSink) collect(m Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, m)
}

func (s *metricSink) byName(name string) (Metric, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.metrics {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

func (s *metricSink) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.metrics {
		if m.Name == name {
			n++
		}
	}
	return n
}

func startCollector(t *testing.T, types ...EntryType) (*ManualSource, *Collector, *metricSink) {
	t.Helper()
	source := NewManualSource(types...)
	sink := &metricSink{}
	c := NewCollector(source, sink.collect)
	c.Start()
	t.Cleanup(c.Stop)
	return source, c, sink
}

func TestCollector_FCPSingleShot(t *testing.T) {
	source, _, sink := startCollector(t)

	source.Emit(Entry{Type: EntryPaint, Name: "first-paint", StartTime: 100})
	_, found := sink.byName(MetricFCP)
	assert.False(t, found, "first-paint does not qualify")

	source.Emit(Entry{Type: EntryPaint, Name: FirstContentfulPaint, StartTime: 1200})
	source.Emit(Entry{Type: EntryPaint, Name: FirstContentfulPaint, StartTime: 9000})

	require.Equal(t, 1, sink.count(MetricFCP))
	m, _ := sink.byName(MetricFCP)
	assert.Equal(t, 1200.0, m.Value)
	assert.Equal(t, RatingGood, m.Rating)
}

func TestCollector_FID(t *testing.T) {
	source, _, sink := startCollector(t)

	source.Emit(Entry{Type: EntryFirstInput, StartTime: 1000, ProcessingStart: 1150})

	m, found := sink.byName(MetricFID)
	require.True(t, found)
	assert.Equal(t, 150.0, m.Value)
	assert.Equal(t, RatingNeedsImprovement, m.Rating)
}

func TestCollector_TTFB(t *testing.T) {
	source, _, sink := startCollector(t)

	source.Emit(Entry{Type: EntryNavigation, ResponseStart: 2000})

	m, found := sink.byName(MetricTTFB)
	require.True(t, found)
	assert.Equal(t, 2000.0, m.Value)
	assert.Equal(t, RatingPoor, m.Rating)
}

func TestCollector_CLSReportedOnPending(t *testing.T) {
	source, c, sink := startCollector(t)

	source.Emit(Entry{Type: EntryLayoutShift, Value: 0.05, StartTime: 100})
	source.Emit(Entry{Type: EntryLayoutShift, Value: 0.07, StartTime: 500})

	_, found := sink.byName(MetricCLS)
	assert.False(t, found, "CLS is retrospective")

	c.ReportPending()
	c.ReportPending() // still at most once

	require.Equal(t, 1, sink.count(MetricCLS))
	m, _ := sink.byName(MetricCLS)
	assert.InDelta(t, 0.12, m.Value, 1e-9)
	assert.Equal(t, RatingNeedsImprovement, m.Rating)
}

func TestCollector_CLSIgnoresInputAdjacentShifts(t *testing.T) {
	source, c, sink := startCollector(t)

	source.Emit(Entry{Type: EntryLayoutShift, Value: 0.5, StartTime: 100, HadRecentInput: true})
	c.ReportPending()

	_, found := sink.byName(MetricCLS)
	assert.False(t, found)
}

func TestCollector_CLSWindowing(t *testing.T) {
	source, c, sink := startCollector(t)

	// Window 1: two entries 0.4 apart in time, sum 0.3.
	source.Emit(Entry{Type: EntryLayoutShift, Value: 0.1, StartTime: 0})
	source.Emit(Entry{Type: EntryLayoutShift, Value: 0.2, StartTime: 400})
	// Gap of 1.5s starts window 2 with a smaller sum.
	source.Emit(Entry{Type: EntryLayoutShift, Value: 0.05, StartTime: 1900})

	c.ReportPending()

	m, found := sink.byName(MetricCLS)
	require.True(t, found)
	assert.InDelta(t, 0.3, m.Value, 1e-9, "max window, not total")
}

func TestCollector_LCPKeepsLargestCandidate(t *testing.T) {
	source, c, sink := startCollector(t)

	source.Emit(Entry{Type: EntryLargestContentfulPaint, Value: 1800})
	source.Emit(Entry{Type: EntryLargestContentfulPaint, Value: 2600})
	source.Emit(Entry{Type: EntryLargestContentfulPaint, Value: 2100})

	c.ReportPending()

	m, found := sink.byName(MetricLCP)
	require.True(t, found)
	assert.Equal(t, 2600.0, m.Value)
	assert.Equal(t, RatingNeedsImprovement, m.Rating)
}

func TestCollector_MissingCapabilitySkipsOnlyThatMetric(t *testing.T) {
	// Source without first-input or layout-shift support.
	source, c, sink := startCollector(t, EntryPaint, EntryNavigation, EntryLargestContentfulPaint)

	source.Emit(Entry{Type: EntryPaint, Name: FirstContentfulPaint, StartTime: 900})
	source.Emit(Entry{Type: EntryNavigation, ResponseStart: 300})
	source.Emit(Entry{Type: EntryLargestContentfulPaint, Value: 1000})
	c.ReportPending()

	_, fcp := sink.byName(MetricFCP)
	_, ttfb := sink.byName(MetricTTFB)
	_, lcp := sink.byName(MetricLCP)
	_, fid := sink.byName(MetricFID)
	_, cls := sink.byName(MetricCLS)

	assert.True(t, fcp)
	assert.True(t, ttfb)
	assert.True(t, lcp)
	assert.False(t, fid)
	assert.False(t, cls)
}

func TestCollector_StopDetachesObservers(t *testing.T) {
	source, c, sink := startCollector(t)

	c.Stop()
	source.Emit(Entry{Type: EntryNavigation, ResponseStart: 100})
	c.ReportPending()

	assert.Empty(t, sink.metrics)
}

func TestRate_Thresholds(t *testing.T) {
	assert.Equal(t, RatingGood, Rate(MetricCLS, 0.1))
	assert.Equal(t, RatingNeedsImprovement, Rate(MetricCLS, 0.2))
	assert.Equal(t, RatingPoor, Rate(MetricCLS, 0.3))
	assert.Equal(t, RatingGood, Rate(MetricLCP, 2500))
	assert.Equal(t, RatingPoor, Rate(MetricFID, 301))
	assert.Equal(t, RatingGood, Rate("unknown", 1e9))
}
