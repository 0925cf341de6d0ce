// Package telemetrymetrics exposes the daemon's Prometheus metrics:
// ingestion volume, tick latency, the current load/context state, and
// timeline store health.
package telemetrymetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EventsIngested tracks telemetry events accepted, by source.
var EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cogload",
	Subsystem: "ingest",
	Name:      "events_total",
	Help:      "Total telemetry events accepted, by source.",
}, []string{"source"})

// EventsRejected tracks telemetry events dropped at the transport boundary,
// by reason. The ingest handlers record reason "unknown_type"; request
// bodies that fail to decode as JSON are answered with 400 and not counted.
var EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cogload",
	Subsystem: "ingest",
	Name:      "events_rejected_total",
	Help:      "Total telemetry events rejected, by reason.",
}, []string{"reason"})

// TickDuration tracks wall-clock time spent in one inference tick.
var TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "cogload",
	Subsystem: "inference",
	Name:      "tick_duration_seconds",
	Help:      "Duration of a single inference tick.",
	Buckets:   prometheus.DefBuckets,
})

// TicksTotal counts completed inference ticks.
var TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cogload",
	Subsystem: "inference",
	Name:      "ticks_total",
	Help:      "Total inference ticks completed.",
})

// CurrentLoadScore publishes the most recent load score as a gauge, for
// dashboards that want the raw value without scraping the HTTP state
// endpoint.
var CurrentLoadScore = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "cogload",
	Subsystem: "inference",
	Name:      "current_load_score",
	Help:      "The most recently published load score in [0,1].",
})

// ContextGauge publishes a 1 on the gauge matching the current context and
// 0 on the others, so a dashboard can chart time-in-context.
var ContextGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "cogload",
	Subsystem: "inference",
	Name:      "current_context",
	Help:      "1 for the currently active cognitive context, 0 otherwise.",
}, []string{"context"})

// StoreWriteFailures counts timeline append failures (including circuit
// breaker rejections).
var StoreWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cogload",
	Subsystem: "store",
	Name:      "write_failures_total",
	Help:      "Total timeline append failures, including circuit-breaker rejections.",
})

// UsingMLEstimator reports 1 when the pluggable model-backed estimator is
// active, 0 when the daemon has fallen back to the rule-based estimator.
var UsingMLEstimator = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "cogload",
	Subsystem: "inference",
	Name:      "using_ml_estimator",
	Help:      "1 if the pluggable ML estimator is active, 0 if running rule-based v1.",
})
