// Package metrics holds pulsekit's own Prometheus instrumentation. The
// collectors are registered on the default registry exactly once; embedding
// applications that expose /metrics pick them up automatically.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsCaptured = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsekit_events_captured_total",
			Help: "Events accepted into the queue, by event type",
		},
		[]string{"type"},
	)

	EventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsekit_events_dropped_total",
			Help: "Events permanently dropped, by reason (retry_cap, queue_full)",
		},
		[]string{"reason"},
	)

	Deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsekit_deliveries_total",
			Help: "Delivery attempts, by outcome (ok, error)",
		},
		[]string{"outcome"},
	)

	DeliveryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pulsekit_delivery_duration_seconds",
			Help:    "Delivery attempt duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulsekit_queue_depth",
			Help: "Events currently waiting for delivery",
		},
	)

	initOnce sync.Once
)

// Init registers all collectors. Safe to call from multiple trackers.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			EventsCaptured,
			EventsDropped,
			Deliveries,
			DeliveryDuration,
			QueueDepth,
		)
	})
}
