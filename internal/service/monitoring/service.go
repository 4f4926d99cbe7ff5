// Package monitoring evaluates equipment parameter readings against
// operating ranges, keeps the append-only sample log and derives
// performance and maintenance indicators.
package monitoring

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
	"github.com/verdantis/peaproc/internal/metrics"
)

// Service is the equipment monitoring engine. The sample log is append
// only; accessors return copies.
type Service struct {
	logger    *zap.Logger
	clock     clock.Clock
	collector metrics.Collector
	ranges    map[equipment.Type]map[string]equipment.OperatingRange
	config    Config

	mu      sync.RWMutex
	samples []equipment.Sample
}

// NewService creates a monitoring service over the default operating
// ranges.
func NewService(cfg Config, clk clock.Clock, collector metrics.Collector, logger *zap.Logger) *Service {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FailureRates == nil {
		cfg.FailureRates = equipment.DefaultFailureRates()
	}
	if cfg.DefaultFailureRate <= 0 {
		cfg.DefaultFailureRate = 0.0001
	}
	if cfg.MaintenancePriorityThreshold <= 0 {
		cfg.MaintenancePriorityThreshold = 0.7
	}

	return &Service{
		logger:    logger,
		clock:     clk,
		collector: collector,
		ranges:    equipment.DefaultRanges(),
		config:    cfg,
	}
}

// MonitorParameters evaluates the given readings against the equipment
// type's operating ranges, appends a sample to the log and returns it.
// Parameters without a registered range are ignored. A zero timestamp
// means "now".
func (s *Service) MonitorParameters(ctx context.Context, equipmentType equipment.Type, parameters map[string]float64, at time.Time) (equipment.Sample, error) {
	table, ok := s.ranges[equipmentType]
	if !ok {
		return equipment.Sample{}, errors.NewValidationError("UNKNOWN_EQUIPMENT_TYPE",
			fmt.Sprintf("unknown equipment type: %s", equipmentType))
	}
	if len(parameters) == 0 {
		return equipment.Sample{}, errors.NewValidationError("EMPTY_PARAMETERS", "no parameters to monitor")
	}
	for name, value := range parameters {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return equipment.Sample{}, errors.NewValidationError("NOT_FINITE",
				fmt.Sprintf("parameter %s is not finite", name))
		}
	}

	if at.IsZero() {
		at = s.clock.Now()
	}

	readings := make(map[string]equipment.Reading)
	for name, value := range parameters {
		r, known := table[name]
		if !known {
			continue
		}
		readings[name] = evaluateReading(value, r)
	}

	sample := equipment.NewSample(equipmentType, at, readings)

	s.mu.Lock()
	s.samples = append(s.samples, sample)
	if s.config.MaxSamples > 0 && len(s.samples) > s.config.MaxSamples {
		// Drop the oldest samples to honor the retention cap.
		overflow := len(s.samples) - s.config.MaxSamples
		s.samples = append([]equipment.Sample(nil), s.samples[overflow:]...)
	}
	s.mu.Unlock()

	s.collector.RecordMonitoringSample(string(equipmentType), string(sample.Status))
	if sample.Status != equipment.StatusNormal {
		s.logger.Warn("equipment outside comfortable range",
			zap.String("equipment_type", string(equipmentType)),
			zap.String("status", string(sample.Status)),
			zap.Float64("max_deviation", sample.MaxDeviation),
		)
	}

	return sample.Clone(), nil
}

// evaluateReading classifies one value against its range: critical
// outside [min,max], warning when the deviation exceeds the comfortable
// fraction of the half-range, normal otherwise.
func evaluateReading(value float64, r equipment.OperatingRange) equipment.Reading {
	status := equipment.StatusNormal
	deviation := r.Deviation(value)
	switch {
	case !r.Contains(value):
		status = equipment.StatusCritical
	case deviation > 1-r.WarningThreshold:
		status = equipment.StatusWarning
	}

	return equipment.Reading{
		Value:     value,
		Min:       r.Min,
		Max:       r.Max,
		Unit:      r.Unit,
		Position:  r.Position(value),
		Deviation: deviation,
		Status:    status,
	}
}

// CalculatePerformanceMetrics derives energy efficiency, utilization and
// specific energy for one operating period.
func (s *Service) CalculatePerformanceMetrics(ctx context.Context, equipmentType equipment.Type, throughput, energyConsumption, operatingHours float64) (PerformanceMetrics, error) {
	if _, ok := s.ranges[equipmentType]; !ok {
		return PerformanceMetrics{}, errors.NewValidationError("UNKNOWN_EQUIPMENT_TYPE",
			fmt.Sprintf("unknown equipment type: %s", equipmentType))
	}
	for name, v := range map[string]float64{
		"throughput":         throughput,
		"energy_consumption": energyConsumption,
		"operating_hours":    operatingHours,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return PerformanceMetrics{}, errors.NewValidationError("INVALID_VALUE",
				fmt.Sprintf("%s must be a nonnegative finite number", name))
		}
	}
	if operatingHours > 24 {
		return PerformanceMetrics{}, errors.NewValidationError("HOURS_RANGE",
			"operating_hours cannot exceed 24")
	}

	m := PerformanceMetrics{
		EquipmentType:   equipmentType,
		UtilizationRate: operatingHours / 24 * 100,
	}
	if energyConsumption > 0 {
		m.EnergyEfficiency = throughput / energyConsumption
	}
	if throughput > 0 {
		m.SpecificEnergy = energyConsumption / throughput
		m.SpecificEnergyDefined = true
	}

	return m, nil
}

// AnalyzeMaintenanceIndicators estimates reliability from operating hours
// and drift from parameter history, combining both into a maintenance
// priority score.
func (s *Service) AnalyzeMaintenanceIndicators(ctx context.Context, equipmentType equipment.Type, operatingHours float64, parameterHistory map[string][]float64) (MaintenanceIndicators, error) {
	if _, ok := s.ranges[equipmentType]; !ok {
		return MaintenanceIndicators{}, errors.NewValidationError("UNKNOWN_EQUIPMENT_TYPE",
			fmt.Sprintf("unknown equipment type: %s", equipmentType))
	}
	if math.IsNaN(operatingHours) || math.IsInf(operatingHours, 0) || operatingHours < 0 {
		return MaintenanceIndicators{}, errors.NewValidationError("INVALID_VALUE",
			"operating_hours must be a nonnegative finite number")
	}

	failureRate, ok := s.config.FailureRates[equipmentType]
	if !ok {
		failureRate = s.config.DefaultFailureRate
	}
	reliability := math.Exp(-failureRate * operatingHours)

	drift := make(map[string]ParameterDrift, len(parameterHistory))
	maxDrift := 0.0
	for name, history := range parameterHistory {
		if len(history) < 2 {
			drift[name] = ParameterDrift{Samples: len(history), Sufficient: false}
			continue
		}
		d := (history[len(history)-1] - history[0]) / float64(len(history))
		drift[name] = ParameterDrift{Drift: d, Samples: len(history), Sufficient: true}
		if abs := math.Abs(d); abs > maxDrift {
			maxDrift = abs
		}
	}

	priority := (1 - reliability) * maxDrift
	indicators := MaintenanceIndicators{
		EquipmentType:          equipmentType,
		OperatingHours:         operatingHours,
		Reliability:            reliability,
		Drift:                  drift,
		PriorityScore:          priority,
		MaintenanceRecommended: priority > s.config.MaintenancePriorityThreshold,
	}

	if indicators.MaintenanceRecommended {
		s.logger.Info("maintenance recommended",
			zap.String("equipment_type", string(equipmentType)),
			zap.Float64("priority_score", priority),
		)
	}

	return indicators, nil
}

// Samples returns a snapshot of the sample log, optionally filtered by
// equipment type (empty type means all).
func (s *Service) Samples(equipmentType equipment.Type) []equipment.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]equipment.Sample, 0, len(s.samples))
	for _, sample := range s.samples {
		if equipmentType != "" && sample.EquipmentType != equipmentType {
			continue
		}
		out = append(out, sample.Clone())
	}
	return out
}

// Reset clears the sample log
func (s *Service) Reset() {
	s.mu.Lock()
	s.samples = nil
	s.mu.Unlock()
}
