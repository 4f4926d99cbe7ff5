// Package metrics defines the narrow collector interface engine services
// report through. The analyzer binary wires a Prometheus-backed
// implementation; the library itself stays free of the prometheus client.
package metrics

import "time"

// Collector receives engine-level metric events
type Collector interface {
	// RecordAnalysis records a completed engine operation and its duration
	RecordAnalysis(kind string, duration time.Duration)

	// RecordMonitoringSample records one monitoring sample by overall status
	RecordMonitoringSample(equipmentType, status string)

	// RecordCacheEvent records a cache hit, miss, expiry or eviction
	RecordCacheEvent(event string)

	// RecordIntegrityCheck records an integrity verification outcome
	RecordIntegrityCheck(outcome string)
}

// Cache event names
const (
	CacheHit     = "hit"
	CacheMiss    = "miss"
	CacheExpired = "expired"
	CacheEvicted = "evicted"
)

// Fanout forwards every event to each wrapped collector
type Fanout []Collector

func (f Fanout) RecordAnalysis(kind string, duration time.Duration) {
	for _, c := range f {
		c.RecordAnalysis(kind, duration)
	}
}

func (f Fanout) RecordMonitoringSample(equipmentType, status string) {
	for _, c := range f {
		c.RecordMonitoringSample(equipmentType, status)
	}
}

func (f Fanout) RecordCacheEvent(event string) {
	for _, c := range f {
		c.RecordCacheEvent(event)
	}
}

func (f Fanout) RecordIntegrityCheck(outcome string) {
	for _, c := range f {
		c.RecordIntegrityCheck(outcome)
	}
}

// Noop is a Collector that discards everything
type Noop struct{}

func (Noop) RecordAnalysis(string, time.Duration)  {}
func (Noop) RecordMonitoringSample(string, string) {}
func (Noop) RecordCacheEvent(string)               {}
func (Noop) RecordIntegrityCheck(string)           {}
