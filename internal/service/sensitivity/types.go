package sensitivity

import (
	"fmt"
	"math"

	"github.com/verdantis/peaproc/internal/domain/errors"
	"github.com/verdantis/peaproc/internal/domain/stats"
)

// Objective maps a full set of variable values to the scalar figure under
// study (typically NPV).
type Objective func(values map[string]float64) (float64, error)

// DistributionKind names a supported sampling distribution
type DistributionKind string

const (
	DistUniform    DistributionKind = "uniform"
	DistTriangular DistributionKind = "triangular"
	DistNormal     DistributionKind = "normal"
)

// Variable describes one uncertain input. Uniform uses Min/Max,
// triangular additionally Mode, normal uses Mean/StdDev. NonNegative
// clamps normal draws at zero.
type Variable struct {
	Name        string           `json:"name"`
	Kind        DistributionKind `json:"kind"`
	Min         float64          `json:"min,omitempty"`
	Max         float64          `json:"max,omitempty"`
	Mode        float64          `json:"mode,omitempty"`
	Mean        float64          `json:"mean,omitempty"`
	StdDev      float64          `json:"std_dev,omitempty"`
	NonNegative bool             `json:"non_negative,omitempty"`
}

// Validate checks the variable's distribution parameters
func (v Variable) Validate() error {
	if v.Name == "" {
		return errors.NewValidationError("EMPTY_NAME", "variable name cannot be empty")
	}

	switch v.Kind {
	case DistUniform:
		if v.Min >= v.Max {
			return errors.NewValidationError("RANGE_ORDER",
				fmt.Sprintf("variable %s: min must be below max", v.Name))
		}
	case DistTriangular:
		if v.Min >= v.Max {
			return errors.NewValidationError("RANGE_ORDER",
				fmt.Sprintf("variable %s: min must be below max", v.Name))
		}
		if v.Mode < v.Min || v.Mode > v.Max {
			return errors.NewValidationError("MODE_RANGE",
				fmt.Sprintf("variable %s: mode must lie inside [min, max]", v.Name))
		}
	case DistNormal:
		if v.StdDev <= 0 || math.IsNaN(v.StdDev) || math.IsInf(v.StdDev, 0) {
			return errors.NewValidationError("INVALID_STDDEV",
				fmt.Sprintf("variable %s: std_dev must be positive", v.Name))
		}
		if math.IsNaN(v.Mean) || math.IsInf(v.Mean, 0) {
			return errors.NewValidationError("NOT_FINITE",
				fmt.Sprintf("variable %s: mean must be finite", v.Name))
		}
	default:
		return errors.NewValidationError("UNKNOWN_DISTRIBUTION",
			fmt.Sprintf("variable %s: unknown distribution kind %s", v.Name, v.Kind))
	}

	return nil
}

// TornadoRow is one variable's swing in a one-at-a-time analysis
type TornadoRow struct {
	Variable  string  `json:"variable"`
	LowInput  float64 `json:"low_input"`
	HighInput float64 `json:"high_input"`
	LowValue  float64 `json:"low_value"`
	HighValue float64 `json:"high_value"`
	Range     float64 `json:"range"` // |high_value - low_value|
}

// MonteCarloResult summarizes the sampled objective distribution
type MonteCarloResult struct {
	Iterations   int            `json:"iterations"`
	Seed         int64          `json:"seed"`
	Mean         float64        `json:"mean"`
	StdDev       float64        `json:"std_dev"`
	Min          float64        `json:"min"`
	Max          float64        `json:"max"`
	P5           float64        `json:"p5"`
	P50          float64        `json:"p50"`
	P95          float64        `json:"p95"`
	CI95         stats.Interval `json:"ci95"` // confidence interval of the mean
	ProbNegative float64        `json:"prob_negative"`
}
