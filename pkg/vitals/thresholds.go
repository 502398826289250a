package vitals

// Fixed classification thresholds per metric: a value at or below the
// first bound rates good, at or below the second needs-improvement,
// anything higher poor. CLS is unitless; the rest are milliseconds.
var thresholds = map[string][2]float64{
	MetricCLS:  {0.1, 0.25},
	MetricFCP:  {1800, 3000},
	MetricFID:  {100, 300},
	MetricLCP:  {2500, 4000},
	MetricTTFB: {800, 1800},
}

// Rate classifies a metric value. Unknown names rate good, so an added
// metric can never degrade reporting.
func Rate(name string, value float64) string {
	bounds, ok := thresholds[name]
	if !ok {
		return RatingGood
	}
	switch {
	case value <= bounds[0]:
		return RatingGood
	case value <= bounds[1]:
		return RatingNeedsImprovement
	default:
		return RatingPoor
	}
}
