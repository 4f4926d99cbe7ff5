// Package stats provides the descriptive statistics the engine's trend,
// sensitivity and tracking components share: summaries, confidence
// intervals, least-squares regression, percentiles and numeric
// sanitization.
package stats

import (
	"math"
	"sort"

	"github.com/verdantis/peaproc/internal/domain/errors"
)

// Summary holds descriptive statistics for a sample.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"` // population standard deviation
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Range  float64 `json:"range"`
}

// Interval is a confidence interval around a sample mean.
type Interval struct {
	Level  float64 `json:"level"`
	Mean   float64 `json:"mean"`
	Margin float64 `json:"margin"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
}

// Regression holds a least-squares fit of y against x.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
}

// Critical z values for the supported confidence levels.
var zValues = map[float64]float64{
	0.90: 1.6449,
	0.95: 1.9600,
	0.99: 2.5758,
}

// Describe computes descriptive statistics over values.
func Describe(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, errors.NewValidationError("EMPTY_SAMPLE", "cannot describe an empty sample")
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Summary{}, errors.NewValidationError("NOT_FINITE", "sample contains a non-finite value")
		}
	}

	min, max := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(values))

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	stdDev := math.Sqrt(sumSq / float64(len(values)))

	return Summary{
		Count:  len(values),
		Mean:   mean,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
		Range:  max - min,
	}, nil
}

// ConfidenceInterval computes a normal-approximation confidence interval
// for the sample mean. Only the levels in the z table are supported.
func ConfidenceInterval(values []float64, level float64) (Interval, error) {
	z, ok := zValues[level]
	if !ok {
		return Interval{}, errors.NewValidationError("UNSUPPORTED_LEVEL", "confidence level must be one of 0.90, 0.95, 0.99")
	}

	summary, err := Describe(values)
	if err != nil {
		return Interval{}, err
	}

	margin := z * summary.StdDev / math.Sqrt(float64(summary.Count))
	return Interval{
		Level:  level,
		Mean:   summary.Mean,
		Margin: margin,
		Lower:  summary.Mean - margin,
		Upper:  summary.Mean + margin,
	}, nil
}

// LinearRegression fits y = slope*x + intercept by least squares.
func LinearRegression(xs, ys []float64) (Regression, error) {
	if len(xs) != len(ys) {
		return Regression{}, errors.NewValidationError("LENGTH_MISMATCH", "x and y samples must have equal length")
	}
	if len(xs) < 2 {
		return Regression{}, errors.NewValidationError("SHORT_SAMPLE", "regression requires at least two points")
	}

	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var ssXX, ssXY, ssYY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		ssXX += dx * dx
		ssXY += dx * dy
		ssYY += dy * dy
	}
	if ssXX == 0 {
		return Regression{}, errors.NewArithmeticError("ZERO_VARIANCE", "x values have zero variance")
	}

	slope := ssXY / ssXX
	intercept := meanY - slope*meanX

	rSquared := 1.0
	if ssYY > 0 {
		rSquared = (ssXY * ssXY) / (ssXX * ssYY)
	}

	return Regression{Slope: slope, Intercept: intercept, RSquared: rSquared}, nil
}

// Percentile interpolates the p-th percentile (0-100) of a sorted sample.
func Percentile(sorted []float64, p float64) (float64, error) {
	if len(sorted) == 0 {
		return 0, errors.NewValidationError("EMPTY_SAMPLE", "cannot take a percentile of an empty sample")
	}
	if p < 0 || p > 100 {
		return 0, errors.NewValidationError("PERCENTILE_RANGE", "percentile must be between 0 and 100")
	}
	if !sort.Float64sAreSorted(sorted) {
		return 0, errors.NewValidationError("UNSORTED_SAMPLE", "sample must be sorted ascending")
	}

	if len(sorted) == 1 {
		return sorted[0], nil
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower], nil
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower]), nil
}

// Sanitize coerces a non-finite value to zero. The second return reports
// whether a coercion happened.
func Sanitize(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true
	}
	return v, false
}

// SanitizeMap coerces non-finite values in m to zero, returning a new map
// and the number of coerced values.
func SanitizeMap(m map[string]float64) (map[string]float64, int) {
	out := make(map[string]float64, len(m))
	coerced := 0
	for k, v := range m {
		clean, changed := Sanitize(v)
		if changed {
			coerced++
		}
		out[k] = clean
	}
	return out, coerced
}
