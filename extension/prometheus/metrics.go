// Package prometheus provides Prometheus instrumentation for Event Stores,
// Aggregate Repositories and Projectors.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Default histogram buckets for latency metrics (in seconds).
var defaultBuckets = []float64{
	.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10,
}

// Metrics holds the Prometheus collectors shared by all the instrumented
// components of this package.
//
// Use NewMetrics to create and register them.
type Metrics struct {
	// Store metrics
	storeStreamDuration *prometheus.HistogramVec
	storeAppendDuration *prometheus.HistogramVec
	eventsAppended      *prometheus.CounterVec
	appendConflicts     *prometheus.CounterVec

	// Repository metrics
	repoGetDuration  *prometheus.HistogramVec
	repoSaveDuration *prometheus.HistogramVec

	// Projection metrics
	projections *prometheus.CounterVec
}

// NewMetrics creates the Prometheus collectors and registers them
// with the specified Registerer. It panics if registration fails.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		storeStreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "booking_event_store_stream_duration_seconds",
			Help:    "Event store stream latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"aggregate_type", "success"}),

		storeAppendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "booking_event_store_append_duration_seconds",
			Help:    "Event store append latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"aggregate_type", "success"}),

		eventsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_event_store_events_appended_total",
			Help: "Total number of events appended",
		}, []string{"aggregate_type"}),

		appendConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_event_store_conflicts_total",
			Help: "Total number of optimistic concurrency conflicts",
		}, []string{"aggregate_type"}),

		repoGetDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "booking_repository_get_duration_seconds",
			Help:    "Repository get latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"aggregate_type", "found"}),

		repoSaveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "booking_repository_save_duration_seconds",
			Help:    "Repository save latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"aggregate_type", "success"}),

		projections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_projections_total",
			Help: "Total number of aggregates projected into read models",
		}, []string{"aggregate_type", "success"}),
	}

	reg.MustRegister(
		m.storeStreamDuration,
		m.storeAppendDuration,
		m.eventsAppended,
		m.appendConflicts,
		m.repoGetDuration,
		m.repoSaveDuration,
		m.projections,
	)

	return m
}

func observeSince(o prometheus.Observer, start time.Time) {
	o.Observe(time.Since(start).Seconds())
}

func boolToStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
