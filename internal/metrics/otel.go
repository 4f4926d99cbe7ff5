package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelCollector is a Collector backed by the OpenTelemetry metric API.
// It reports through the globally configured meter provider, so it is a
// noop until telemetry is initialized.
type OTelCollector struct {
	analysisDuration  metric.Float64Histogram
	analysisCounter   metric.Int64Counter
	monitoringSamples metric.Int64Counter
	cacheEvents       metric.Int64Counter
	integrityChecks   metric.Int64Counter
}

// NewOTelCollector creates the engine metric instruments on the named
// meter.
func NewOTelCollector(meterName string) (*OTelCollector, error) {
	meter := otel.Meter(meterName)
	c := &OTelCollector{}

	var err error
	c.analysisDuration, err = meter.Float64Histogram(
		"peaproc.engine.analysis_duration",
		metric.WithDescription("Duration of one engine analysis in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return nil, err
	}

	c.analysisCounter, err = meter.Int64Counter(
		"peaproc.engine.analyses",
		metric.WithDescription("Completed engine analyses by kind"),
	)
	if err != nil {
		return nil, err
	}

	c.monitoringSamples, err = meter.Int64Counter(
		"peaproc.monitoring.samples",
		metric.WithDescription("Equipment monitoring samples by type and status"),
	)
	if err != nil {
		return nil, err
	}

	c.cacheEvents, err = meter.Int64Counter(
		"peaproc.cache.events",
		metric.WithDescription("Result cache hits, misses, expiries and evictions"),
	)
	if err != nil {
		return nil, err
	}

	c.integrityChecks, err = meter.Int64Counter(
		"peaproc.integrity.checks",
		metric.WithDescription("Integrity verifications by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (c *OTelCollector) RecordAnalysis(kind string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	c.analysisDuration.Record(context.Background(), float64(duration.Microseconds())/1000, attrs)
	c.analysisCounter.Add(context.Background(), 1, attrs)
}

func (c *OTelCollector) RecordMonitoringSample(equipmentType, status string) {
	c.monitoringSamples.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("equipment_type", equipmentType),
		attribute.String("status", status),
	))
}

func (c *OTelCollector) RecordCacheEvent(event string) {
	c.cacheEvents.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("event", event),
	))
}

func (c *OTelCollector) RecordIntegrityCheck(outcome string) {
	c.integrityChecks.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}
