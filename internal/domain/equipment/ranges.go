package equipment

import (
	"math"

	"github.com/verdantis/peaproc/internal/domain/errors"
)

// OperatingRange defines the acceptable band for one monitored parameter.
// WarningThreshold is the fraction of the half-range still considered
// comfortable: readings deviating beyond (1 - threshold) of the half-range
// raise a warning.
type OperatingRange struct {
	Min              float64 `json:"min"`
	Max              float64 `json:"max"`
	WarningThreshold float64 `json:"warning_threshold"`
	Unit             string  `json:"unit"`
}

// NewOperatingRange creates an OperatingRange with validation
func NewOperatingRange(min, max, warningThreshold float64, unit string) (OperatingRange, error) {
	if math.IsNaN(min) || math.IsInf(min, 0) || math.IsNaN(max) || math.IsInf(max, 0) {
		return OperatingRange{}, errors.NewValidationError("NOT_FINITE", "range bounds must be finite")
	}
	if min >= max {
		return OperatingRange{}, errors.NewValidationError("RANGE_ORDER", "range min must be below max")
	}
	if math.IsNaN(warningThreshold) || warningThreshold <= 0 || warningThreshold >= 1 {
		return OperatingRange{}, errors.NewValidationError("THRESHOLD_RANGE",
			"warning_threshold must be in (0, 1)")
	}

	return OperatingRange{
		Min:              min,
		Max:              max,
		WarningThreshold: warningThreshold,
		Unit:             unit,
	}, nil
}

// Center returns the midpoint of the range
func (r OperatingRange) Center() float64 {
	return (r.Min + r.Max) / 2
}

// HalfRange returns half the range width
func (r OperatingRange) HalfRange() float64 {
	return (r.Max - r.Min) / 2
}

// Contains reports whether value lies inside [Min, Max]
func (r OperatingRange) Contains(value float64) bool {
	return value >= r.Min && value <= r.Max
}

// Position returns the value's relative position inside the range,
// 0 at Min and 1 at Max.
func (r OperatingRange) Position(value float64) float64 {
	return (value - r.Min) / (r.Max - r.Min)
}

// Deviation returns the value's distance from the range center as a
// fraction of the half-range. 0 at the center, 1 at either bound.
func (r OperatingRange) Deviation(value float64) float64 {
	return math.Abs(value-r.Center()) / r.HalfRange()
}

func mustRange(min, max, threshold float64, unit string) OperatingRange {
	r, err := NewOperatingRange(min, max, threshold, unit)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRanges returns the fixed operating-range table for each equipment
// type. Callers receive a fresh copy and may tune thresholds per deployment.
func DefaultRanges() map[Type]map[string]OperatingRange {
	return map[Type]map[string]OperatingRange{
		TypeClassifier: {
			"feed_rate":   mustRange(50, 500, 0.8, "kg/h"),
			"wheel_speed": mustRange(2000, 10000, 0.8, "rpm"),
			"air_flow":    mustRange(100, 1000, 0.8, "m3/h"),
		},
		TypeRFGenerator: {
			"power":         mustRange(5, 50, 0.8, "kW"),
			"frequency":     mustRange(13.56, 40.68, 0.9, "MHz"),
			"electrode_gap": mustRange(50, 300, 0.8, "mm"),
		},
		TypeIRHeater: {
			"temperature":   mustRange(100, 400, 0.8, "C"),
			"power_density": mustRange(10, 60, 0.8, "kW/m2"),
			"belt_speed":    mustRange(0.5, 5, 0.8, "m/min"),
		},
	}
}

// DefaultFailureRates returns the per-type exponential failure rates
// (per operating hour) used for reliability estimation.
func DefaultFailureRates() map[Type]float64 {
	return map[Type]float64{
		TypeClassifier:  0.00012,
		TypeRFGenerator: 0.00018,
		TypeIRHeater:    0.00015,
	}
}
