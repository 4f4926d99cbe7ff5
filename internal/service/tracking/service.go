// Package tracking keeps the time-series logs of mass flows, equipment
// parameters and quality metrics, and derives trends over time-windowed
// slices of them.
package tracking

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verdantis/peaproc/internal/clock"
	"github.com/verdantis/peaproc/internal/domain/equipment"
	"github.com/verdantis/peaproc/internal/domain/errors"
	"github.com/verdantis/peaproc/internal/domain/stats"
)

// Service owns the three append-only tracking logs
type Service struct {
	logger     *zap.Logger
	clock      clock.Clock
	maxEntries int // per log; 0 means unbounded

	mu   sync.RWMutex
	logs map[MetricType][]Entry
}

// NewService creates a tracking service
func NewService(maxEntries int, clk clock.Clock, logger *zap.Logger) *Service {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:     logger,
		clock:      clk,
		maxEntries: maxEntries,
		logs: map[MetricType][]Entry{
			MetricMassFlow:  nil,
			MetricEquipment: nil,
			MetricQuality:   nil,
		},
	}
}

// RecordMassFlow appends a mass-flow entry for one stream. A zero
// timestamp means "now".
func (s *Service) RecordMassFlow(ctx context.Context, stream string, flows map[string]float64, at time.Time) (Entry, error) {
	if stream == "" {
		return Entry{}, errors.NewValidationError("EMPTY_STREAM", "stream name cannot be empty")
	}
	return s.record(MetricMassFlow, stream, flows, at)
}

// RecordEquipmentParameters appends an equipment-parameter entry
func (s *Service) RecordEquipmentParameters(ctx context.Context, equipmentType equipment.Type, parameters map[string]float64, at time.Time) (Entry, error) {
	if _, err := equipment.ParseType(string(equipmentType)); err != nil {
		return Entry{}, err
	}
	return s.record(MetricEquipment, string(equipmentType), parameters, at)
}

// RecordQualityMetrics appends a quality-metric entry
func (s *Service) RecordQualityMetrics(ctx context.Context, qualityMetrics map[string]float64, at time.Time) (Entry, error) {
	return s.record(MetricQuality, "", qualityMetrics, at)
}

func (s *Service) record(metricType MetricType, label string, values map[string]float64, at time.Time) (Entry, error) {
	if len(values) == 0 {
		return Entry{}, errors.NewValidationError("EMPTY_VALUES", "nothing to record")
	}
	for name, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Entry{}, errors.NewValidationError("NOT_FINITE",
				fmt.Sprintf("value for %s is not finite", name))
		}
	}

	if at.IsZero() {
		at = s.clock.Now()
	}

	entry := Entry{Timestamp: at, Label: label, Values: values}.Clone()

	s.mu.Lock()
	log := append(s.logs[metricType], entry)
	if s.maxEntries > 0 && len(log) > s.maxEntries {
		overflow := len(log) - s.maxEntries
		log = append([]Entry(nil), log[overflow:]...)
	}
	s.logs[metricType] = log
	s.mu.Unlock()

	return entry.Clone(), nil
}

// AnalyzeTrends computes moving statistics and the least-squares slope of
// one parameter over the optionally windowed log. No matching points is
// an empty result, not an error.
func (s *Service) AnalyzeTrends(ctx context.Context, metricType MetricType, parameter string, window *TimeWindow) (TrendResult, error) {
	if _, err := ParseMetricType(string(metricType)); err != nil {
		return TrendResult{}, err
	}
	if parameter == "" {
		return TrendResult{}, errors.NewValidationError("EMPTY_PARAMETER", "parameter name cannot be empty")
	}
	if window != nil && window.End.Before(window.Start) {
		return TrendResult{}, errors.NewValidationError("WINDOW_ORDER", "window end precedes start")
	}

	s.mu.RLock()
	log := s.logs[metricType]
	var values []float64
	var timestamps []time.Time
	for _, entry := range log {
		if window != nil && !window.Contains(entry.Timestamp) {
			continue
		}
		v, ok := entry.Values[parameter]
		if !ok {
			continue
		}
		values = append(values, v)
		timestamps = append(timestamps, entry.Timestamp)
	}
	s.mu.RUnlock()

	result := TrendResult{MetricType: metricType, Parameter: parameter}
	if len(values) == 0 {
		return result, nil
	}

	summary, err := stats.Describe(values)
	if err != nil {
		return TrendResult{}, err
	}
	result.Points = summary.Count
	result.Mean = summary.Mean
	result.StdDev = summary.StdDev
	result.Min = summary.Min
	result.Max = summary.Max
	result.Range = summary.Range

	if len(values) >= 2 {
		xs := make([]float64, len(timestamps))
		for i, t := range timestamps {
			xs[i] = t.Sub(timestamps[0]).Seconds()
		}
		regression, err := stats.LinearRegression(xs, values)
		if err == nil {
			result.Slope = regression.Slope
		} else if !errors.IsType(err, errors.ErrorTypeArithmetic) {
			// Zero time variance leaves the slope at 0; anything else is real.
			return TrendResult{}, err
		}
	}

	s.logger.Debug("trend analysis",
		zap.String("metric_type", string(metricType)),
		zap.String("parameter", parameter),
		zap.Int("points", result.Points),
		zap.Float64("slope", result.Slope),
	)

	return result, nil
}

// Entries returns a snapshot of one log
func (s *Service) Entries(metricType MetricType) ([]Entry, error) {
	if _, err := ParseMetricType(string(metricType)); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[metricType]
	out := make([]Entry, 0, len(log))
	for _, entry := range log {
		out = append(out, entry.Clone())
	}
	return out, nil
}

// Reset clears every tracking log
func (s *Service) Reset() {
	s.mu.Lock()
	for metricType := range s.logs {
		s.logs[metricType] = nil
	}
	s.mu.Unlock()
}
