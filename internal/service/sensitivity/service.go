// Package sensitivity implements one-at-a-time (tornado) and Monte Carlo
// analysis over a scalar objective such as NPV.
package sensitivity

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/verdantis/peaproc/internal/domain/errors"
	"github.com/verdantis/peaproc/internal/domain/stats"
)

// Service runs sensitivity analyses
type Service struct {
	logger        *zap.Logger
	maxIterations int
}

// NewService creates a sensitivity service capping Monte Carlo runs at
// maxIterations (default 100000).
func NewService(maxIterations int, logger *zap.Logger) *Service {
	if maxIterations <= 0 {
		maxIterations = 100000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, maxIterations: maxIterations}
}

// OneAtATime swings each named variable by swingPct around its base value
// and recomputes the objective, returning rows ordered by descending
// impact (tornado ordering).
func (s *Service) OneAtATime(ctx context.Context, base map[string]float64, names []string, swingPct float64, objective Objective) ([]TornadoRow, error) {
	if objective == nil {
		return nil, errors.NewValidationError("NIL_OBJECTIVE", "objective function is required")
	}
	if swingPct <= 0 || swingPct >= 100 || math.IsNaN(swingPct) {
		return nil, errors.NewValidationError("INVALID_SWING", "swing percent must be in (0, 100)")
	}
	if len(names) == 0 {
		return nil, errors.NewValidationError("EMPTY_VARIABLES", "at least one variable is required")
	}

	rows := make([]TornadoRow, 0, len(names))
	for _, name := range names {
		baseValue, ok := base[name]
		if !ok {
			return nil, errors.NewValidationError("UNKNOWN_VARIABLE",
				fmt.Sprintf("variable %s missing from base scenario", name))
		}

		low := baseValue * (1 - swingPct/100)
		high := baseValue * (1 + swingPct/100)

		lowValue, err := evaluateWith(base, name, low, objective)
		if err != nil {
			return nil, err
		}
		highValue, err := evaluateWith(base, name, high, objective)
		if err != nil {
			return nil, err
		}

		rows = append(rows, TornadoRow{
			Variable:  name,
			LowInput:  low,
			HighInput: high,
			LowValue:  lowValue,
			HighValue: highValue,
			Range:     math.Abs(highValue - lowValue),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Range != rows[j].Range {
			return rows[i].Range > rows[j].Range
		}
		return rows[i].Variable < rows[j].Variable
	})

	return rows, nil
}

func evaluateWith(base map[string]float64, name string, value float64, objective Objective) (float64, error) {
	scenario := make(map[string]float64, len(base))
	for k, v := range base {
		scenario[k] = v
	}
	scenario[name] = value

	result, err := objective(scenario)
	if err != nil {
		return 0, errors.Wrap(err, fmt.Sprintf("evaluating objective with %s=%g", name, value))
	}
	return result, nil
}

// MonteCarlo samples the variables from their distributions under a fixed
// seed and summarizes the objective's sampled distribution.
func (s *Service) MonteCarlo(ctx context.Context, variables []Variable, iterations int, seed int64, objective Objective) (MonteCarloResult, error) {
	if objective == nil {
		return MonteCarloResult{}, errors.NewValidationError("NIL_OBJECTIVE", "objective function is required")
	}
	if iterations <= 0 {
		return MonteCarloResult{}, errors.NewValidationError("INVALID_ITERATIONS", "iterations must be positive")
	}
	if iterations > s.maxIterations {
		return MonteCarloResult{}, errors.NewValidationError("ITERATIONS_CAP",
			fmt.Sprintf("iterations cannot exceed %d", s.maxIterations))
	}
	if len(variables) == 0 {
		return MonteCarloResult{}, errors.NewValidationError("EMPTY_VARIABLES", "at least one variable is required")
	}
	for _, v := range variables {
		if err := v.Validate(); err != nil {
			return MonteCarloResult{}, err
		}
	}

	rng := rand.New(rand.NewSource(seed))
	outcomes := make([]float64, 0, iterations)
	negatives := 0

	draw := make(map[string]float64, len(variables))
	for i := 0; i < iterations; i++ {
		for _, v := range variables {
			draw[v.Name] = sample(v, rng)
		}
		outcome, err := objective(draw)
		if err != nil {
			return MonteCarloResult{}, errors.Wrap(err, fmt.Sprintf("objective failed at iteration %d", i))
		}
		outcomes = append(outcomes, outcome)
		if outcome < 0 {
			negatives++
		}
	}

	summary, err := stats.Describe(outcomes)
	if err != nil {
		return MonteCarloResult{}, err
	}

	sorted := make([]float64, len(outcomes))
	copy(sorted, outcomes)
	sort.Float64s(sorted)

	p5, err := stats.Percentile(sorted, 5)
	if err != nil {
		return MonteCarloResult{}, err
	}
	p50, err := stats.Percentile(sorted, 50)
	if err != nil {
		return MonteCarloResult{}, err
	}
	p95, err := stats.Percentile(sorted, 95)
	if err != nil {
		return MonteCarloResult{}, err
	}
	ci95, err := stats.ConfidenceInterval(outcomes, 0.95)
	if err != nil {
		return MonteCarloResult{}, err
	}

	result := MonteCarloResult{
		Iterations:   iterations,
		Seed:         seed,
		Mean:         summary.Mean,
		StdDev:       summary.StdDev,
		Min:          summary.Min,
		Max:          summary.Max,
		P5:           p5,
		P50:          p50,
		P95:          p95,
		CI95:         ci95,
		ProbNegative: float64(negatives) / float64(iterations),
	}

	s.logger.Debug("monte carlo complete",
		zap.Int("iterations", iterations),
		zap.Int64("seed", seed),
		zap.Float64("mean", result.Mean),
		zap.Float64("prob_negative", result.ProbNegative),
	)

	return result, nil
}

// sample draws one value from a variable's distribution
func sample(v Variable, rng *rand.Rand) float64 {
	switch v.Kind {
	case DistUniform:
		return v.Min + rng.Float64()*(v.Max-v.Min)
	case DistTriangular:
		// Inverse CDF sampling.
		u := rng.Float64()
		fc := (v.Mode - v.Min) / (v.Max - v.Min)
		if u < fc {
			return v.Min + math.Sqrt(u*(v.Max-v.Min)*(v.Mode-v.Min))
		}
		return v.Max - math.Sqrt((1-u)*(v.Max-v.Min)*(v.Max-v.Mode))
	case DistNormal:
		value := v.Mean + v.StdDev*rng.NormFloat64()
		if v.NonNegative && value < 0 {
			return 0
		}
		return value
	default:
		// Validate rejects unknown kinds before sampling.
		return 0
	}
}
