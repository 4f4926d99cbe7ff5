// Package process implements the mass-balance, energy-balance and
// performance calculations of the extraction engine. The service is
// stateless and safe for concurrent use.
package process

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/verdantis/peaproc/internal/domain/errors"
	"github.com/verdantis/peaproc/internal/domain/stats"
	"github.com/verdantis/peaproc/internal/domain/units"
)

// Service performs process calculations
type Service struct{}

// NewService creates a process calculation service
func NewService() *Service {
	return &Service{}
}

// CalculateMassBalance aggregates stream masses and computes per-component
// recovery. Recovery is 0 when a component carries no input mass.
func (s *Service) CalculateMassBalance(ctx context.Context, inputStreams, outputStreams map[string]float64, compositions Compositions) (MassBalanceResult, error) {
	if len(inputStreams) == 0 {
		return MassBalanceResult{}, errors.NewValidationError("EMPTY_STREAMS", "at least one input stream is required")
	}
	if err := validateStreams("input", inputStreams); err != nil {
		return MassBalanceResult{}, err
	}
	if err := validateStreams("output", outputStreams); err != nil {
		return MassBalanceResult{}, err
	}
	if err := validatePercentages("input", compositions.Input); err != nil {
		return MassBalanceResult{}, err
	}
	if err := validatePercentages("output", compositions.Output); err != nil {
		return MassBalanceResult{}, err
	}

	result := MassBalanceResult{
		Components: make(map[string]ComponentBalance),
	}
	for _, flow := range inputStreams {
		result.TotalInput += flow
	}
	for _, flow := range outputStreams {
		result.TotalOutput += flow
	}

	// Only components declared on the input side are balanced.
	for component, inputPct := range compositions.Input {
		var inputMass float64
		for _, flow := range inputStreams {
			inputMass += flow * inputPct / 100
		}

		var outputMass float64
		if outputPct, ok := compositions.Output[component]; ok {
			for _, flow := range outputStreams {
				outputMass += flow * outputPct / 100
			}
		}

		recovery := 0.0
		if inputMass > 0 {
			recovery = outputMass / inputMass * 100
		}

		result.Components[component] = ComponentBalance{
			InputMass:  inputMass,
			OutputMass: outputMass,
			Recovery:   recovery,
		}
	}

	for component := range compositions.Output {
		if _, ok := compositions.Input[component]; !ok {
			result.UnmatchedOutputComponents = append(result.UnmatchedOutputComponents, component)
		}
	}
	sort.Strings(result.UnmatchedOutputComponents)

	return result, nil
}

// CalculateEnergyBalance computes the energy balance of one heating step
// for a supported process type.
func (s *Service) CalculateEnergyBalance(ctx context.Context, processType Type, params OperatingParams, material MaterialProps) (EnergyBalanceResult, error) {
	if _, err := ParseType(string(processType)); err != nil {
		return EnergyBalanceResult{}, err
	}
	if params.TimeMinutes <= 0 || math.IsNaN(params.TimeMinutes) || math.IsInf(params.TimeMinutes, 0) {
		return EnergyBalanceResult{}, errors.NewValidationError("INVALID_TIME", "time_minutes must be positive")
	}

	switch processType {
	case TypeRF:
		if params.Power <= 0 {
			return EnergyBalanceResult{}, errors.NewValidationError("INVALID_POWER", "power must be positive for rf heating")
		}
		if material.DielectricConstant <= 0 {
			return EnergyBalanceResult{}, errors.NewValidationError("INVALID_DIELECTRIC", "dielectric_constant must be positive for rf heating")
		}

		energyInput := params.Power * params.TimeMinutes * 60
		energyKWh, err := units.ConvertEnergy(energyInput, units.Kilojoule, units.KilowattHour)
		if err != nil {
			return EnergyBalanceResult{}, err
		}
		effectivePower := params.Power * material.DielectricConstant
		return EnergyBalanceResult{
			ProcessType:    TypeRF,
			EnergyInput:    energyInput,
			EnergyInputKWh: energyKWh,
			EffectivePower: effectivePower,
			EfficiencyPct:  effectivePower / params.Power * 100,
		}, nil

	case TypeIR:
		if params.PowerDensity <= 0 {
			return EnergyBalanceResult{}, errors.NewValidationError("INVALID_POWER_DENSITY", "power_density must be positive for ir heating")
		}
		if params.Area <= 0 {
			return EnergyBalanceResult{}, errors.NewValidationError("INVALID_AREA", "area must be positive for ir heating")
		}
		absorptivity := material.Absorptivity
		if absorptivity == 0 {
			absorptivity = DefaultAbsorptivity
		}
		if absorptivity < 0 || absorptivity > 1 {
			return EnergyBalanceResult{}, errors.NewValidationError("INVALID_ABSORPTIVITY", "absorptivity must be in (0, 1]")
		}

		energyInput := params.PowerDensity * params.Area * params.TimeMinutes * 60
		energyKWh, err := units.ConvertEnergy(energyInput, units.Kilojoule, units.KilowattHour)
		if err != nil {
			return EnergyBalanceResult{}, err
		}
		heatAbsorbed := energyInput * absorptivity
		return EnergyBalanceResult{
			ProcessType:    TypeIR,
			EnergyInput:    energyInput,
			EnergyInputKWh: energyKWh,
			HeatAbsorbed:   heatAbsorbed,
			EfficiencyPct:  heatAbsorbed / energyInput * 100,
		}, nil
	}

	// ParseType above guarantees we never get here.
	return EnergyBalanceResult{}, errors.NewInternalError("unreachable process type branch")
}

// CalculatePerformanceMetrics scores actuals against targets. Every
// matched target must be positive; the overall figure is the mean of the
// individual efficiencies and absent when no target matched.
func (s *Service) CalculatePerformanceMetrics(ctx context.Context, processData, targets map[string]float64) (PerformanceResult, error) {
	result := PerformanceResult{
		Efficiencies: make(map[string]float64),
	}

	for key, target := range targets {
		actual, ok := processData[key]
		if !ok {
			continue
		}
		if target <= 0 || math.IsNaN(target) || math.IsInf(target, 0) {
			return PerformanceResult{}, errors.NewArithmeticError("INVALID_TARGET",
				fmt.Sprintf("target for %s must be positive", key))
		}
		result.Efficiencies[key] = actual / target * 100
	}

	// Non-finite actuals must not leak into the JSON report.
	result.Efficiencies, _ = stats.SanitizeMap(result.Efficiencies)

	if len(result.Efficiencies) > 0 {
		var sum float64
		for _, efficiency := range result.Efficiencies {
			sum += efficiency
		}
		overall := sum / float64(len(result.Efficiencies))
		result.Overall = &overall
	}

	return result, nil
}

// AnalyzeParticleSizes computes the D10/D50/D90 percentiles and span of a
// particle-size distribution given in microns.
func (s *Service) AnalyzeParticleSizes(ctx context.Context, sizesMicron []float64) (ParticleSizeResult, error) {
	if len(sizesMicron) == 0 {
		return ParticleSizeResult{}, errors.NewValidationError("EMPTY_SAMPLE", "no particle sizes given")
	}
	for _, size := range sizesMicron {
		if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
			return ParticleSizeResult{}, errors.NewValidationError("INVALID_SIZE", "particle sizes must be positive")
		}
	}

	sorted := make([]float64, len(sizesMicron))
	copy(sorted, sizesMicron)
	sort.Float64s(sorted)

	d10, err := stats.Percentile(sorted, 10)
	if err != nil {
		return ParticleSizeResult{}, err
	}
	d50, err := stats.Percentile(sorted, 50)
	if err != nil {
		return ParticleSizeResult{}, err
	}
	d90, err := stats.Percentile(sorted, 90)
	if err != nil {
		return ParticleSizeResult{}, err
	}

	return ParticleSizeResult{
		D10:  d10,
		D50:  d50,
		D90:  d90,
		Span: (d90 - d10) / d50,
	}, nil
}

func validateStreams(side string, streams map[string]float64) error {
	for name, flow := range streams {
		if flow < 0 || math.IsNaN(flow) || math.IsInf(flow, 0) {
			return errors.NewValidationError("INVALID_FLOW",
				fmt.Sprintf("%s stream %s must have a nonnegative finite flow", side, name))
		}
	}
	return nil
}

func validatePercentages(side string, composition map[string]float64) error {
	for component, pct := range composition {
		if pct < 0 || pct > 100 || math.IsNaN(pct) {
			return errors.NewValidationError("INVALID_COMPOSITION",
				fmt.Sprintf("%s composition for %s must be between 0 and 100 percent", side, component))
		}
	}
	return nil
}
