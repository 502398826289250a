// Package vitals computes the five standardized performance metrics (CLS,
// FCP, FID, LCP, TTFB) from a stream of performance entries. Each metric is
// emitted at most once per collector lifetime, and a source that cannot
// produce one entry type silently costs only that one metric.
package vitals

// Metric names are reported exactly as delivered in web-vital events.
const (
	MetricCLS  = "CLS"
	MetricFCP  = "FCP"
	MetricFID  = "FID"
	MetricLCP  = "LCP"
	MetricTTFB = "TTFB"
)

// Rating buckets for a metric value.
const (
	RatingGood             = "good"
	RatingNeedsImprovement = "needs-improvement"
	RatingPoor             = "poor"
)

// Metric is one computed performance observation.
type Metric struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Rating string  `json:"rating"`
}

// EntryType identifies a kind of performance entry a Source may produce.
type EntryType string

const (
	EntryLayoutShift            EntryType = "layout-shift"
	EntryPaint                  EntryType = "paint"
	EntryFirstInput             EntryType = "first-input"
	EntryLargestContentfulPaint EntryType = "largest-contentful-paint"
	EntryNavigation             EntryType = "navigation"
)

// FirstContentfulPaint is the paint-entry name that carries FCP.
const FirstContentfulPaint = "first-contentful-paint"

// Entry is one raw performance observation. Times are milliseconds since
// the start of the observed lifetime; which fields are meaningful depends
// on Type.
type Entry struct {
	Type            EntryType
	Name            string  // paint entries only
	StartTime       float64 // all types
	Value           float64 // layout-shift: shift score; lcp: candidate size proxy
	ProcessingStart float64 // first-input
	ResponseStart   float64 // navigation
	HadRecentInput  bool    // layout-shift; input-adjacent shifts are excluded
}

// Source is the instrumentation a collector subscribes to. Observe reports
// ok=false when the source cannot produce the given entry type, letting the
// collector skip the dependent metric without affecting the others.
type Source interface {
	Observe(typ EntryType, fn func(Entry)) (cancel func(), ok bool)
}
