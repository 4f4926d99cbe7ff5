// Package ecoefficiency scores the environmental performance of the
// extraction process: per-resource impact factors roll up into an
// ImpactProfile, and the eco-efficiency index relates product value to
// the weighted environmental burden.
package ecoefficiency

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/verdantis/peaproc/internal/domain/errors"
	"github.com/verdantis/peaproc/internal/domain/values"
)

// Resource names a consumed utility or process input. The unit each
// factor is quoted against is part of the name.
type Resource string

const (
	Electricity Resource = "electricity_kwh"
	NaturalGas  Resource = "natural_gas_mj"
	Water       Resource = "water_m3"
	Hexane      Resource = "hexane_kg"
	Nitrogen    Resource = "nitrogen_kg"
)

// Assessment is the result of an eco-efficiency evaluation
type Assessment struct {
	Total values.ImpactProfile `json:"total"`
	PerKg values.ImpactProfile `json:"per_kg"`
	// SingleScore is the weighted, normalized burden of the total profile.
	SingleScore float64 `json:"single_score"`
	// EcoEfficiencyIndex is product value per unit of weighted burden;
	// higher is better.
	EcoEfficiencyIndex float64 `json:"eco_efficiency_index"`
}

// Service assesses eco-efficiency against a per-unit impact factor table
type Service struct {
	logger  *zap.Logger
	factors map[Resource]values.ImpactProfile
}

// DefaultFactors returns the built-in per-unit impact factors
// (GWP kg CO2-eq, HCT CTUh, FRS kg oil-eq per resource unit).
func DefaultFactors() map[Resource]values.ImpactProfile {
	return map[Resource]values.ImpactProfile{
		Electricity: values.MustNewImpactProfile(0.48, 1.9e-8, 0.11),
		NaturalGas:  values.MustNewImpactProfile(0.066, 2.1e-9, 0.024),
		Water:       values.MustNewImpactProfile(0.34, 5.5e-9, 0.08),
		Hexane:      values.MustNewImpactProfile(1.9, 4.2e-8, 1.45),
		Nitrogen:    values.MustNewImpactProfile(0.42, 1.2e-8, 0.13),
	}
}

// NewService creates an eco-efficiency service. A nil factor table uses
// the defaults.
func NewService(factors map[Resource]values.ImpactProfile, logger *zap.Logger) *Service {
	if factors == nil {
		factors = DefaultFactors()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, factors: factors}
}

// Assess rolls per-resource consumptions up into a total impact profile
// and relates the product value to the weighted burden.
func (s *Service) Assess(ctx context.Context, consumptions map[Resource]float64, productValue, functionalUnitKg float64) (Assessment, error) {
	if len(consumptions) == 0 {
		return Assessment{}, errors.NewValidationError("EMPTY_CONSUMPTIONS", "at least one resource consumption is required")
	}
	if productValue <= 0 || math.IsNaN(productValue) || math.IsInf(productValue, 0) {
		return Assessment{}, errors.NewValidationError("INVALID_PRODUCT_VALUE", "product value must be positive")
	}
	if functionalUnitKg <= 0 || math.IsNaN(functionalUnitKg) || math.IsInf(functionalUnitKg, 0) {
		return Assessment{}, errors.NewValidationError("INVALID_FUNCTIONAL_UNIT", "functional unit must be positive")
	}

	total := values.ZeroImpact()
	for resource, amount := range consumptions {
		factor, ok := s.factors[resource]
		if !ok {
			return Assessment{}, errors.NewValidationError("UNKNOWN_RESOURCE",
				fmt.Sprintf("no impact factor for resource: %s", resource))
		}
		if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
			return Assessment{}, errors.NewValidationError("INVALID_CONSUMPTION",
				fmt.Sprintf("consumption of %s must be a nonnegative finite number", resource))
		}

		contribution, err := factor.Scale(amount)
		if err != nil {
			return Assessment{}, err
		}
		total = total.Add(contribution)
	}

	perKg, err := total.Scale(1 / functionalUnitKg)
	if err != nil {
		return Assessment{}, err
	}

	singleScore := total.SingleScore()
	index := 0.0
	if singleScore > 0 {
		index = productValue / singleScore
	}

	s.logger.Debug("eco-efficiency assessed",
		zap.Float64("single_score", singleScore),
		zap.Float64("index", index),
	)

	return Assessment{
		Total:              total,
		PerKg:              perKg,
		SingleScore:        singleScore,
		EcoEfficiencyIndex: index,
	}, nil
}
