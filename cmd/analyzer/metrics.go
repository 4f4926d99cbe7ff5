package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric definitions for the peaproc analyzer

var (
	// Engine metrics
	analysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "peaproc",
			Subsystem: "engine",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of one analysis operation",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15), // 100μs to ~3.2s
		},
		[]string{"kind"},
	)

	analysisTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "peaproc",
			Subsystem: "engine",
			Name:      "analysis_total",
			Help:      "Total number of analysis operations",
		},
		[]string{"kind"},
	)

	// Monitoring metrics
	monitoringSamples = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "peaproc",
			Subsystem: "monitoring",
			Name:      "samples_total",
			Help:      "Total number of equipment parameter samples",
		},
		[]string{"equipment_type", "status"},
	)

	// Cache metrics
	cacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "peaproc",
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Total number of cache events by kind",
		},
		[]string{"event"},
	)

	// Integrity metrics
	integrityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "peaproc",
			Subsystem: "integrity",
			Name:      "checks_total",
			Help:      "Total number of integrity verifications by outcome",
		},
		[]string{"outcome"},
	)
)

// MetricsHandler returns the Prometheus metrics handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// promCollector adapts the Prometheus metrics to the engine's collector
// interface.
type promCollector struct{}

func (promCollector) RecordAnalysis(kind string, duration time.Duration) {
	analysisDuration.WithLabelValues(kind).Observe(duration.Seconds())
	analysisTotal.WithLabelValues(kind).Inc()
}

func (promCollector) RecordMonitoringSample(equipmentType, status string) {
	monitoringSamples.WithLabelValues(equipmentType, status).Inc()
}

func (promCollector) RecordCacheEvent(event string) {
	cacheEvents.WithLabelValues(event).Inc()
}

func (promCollector) RecordIntegrityCheck(outcome string) {
	integrityChecks.WithLabelValues(outcome).Inc()
}
