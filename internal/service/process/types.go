package process

import (
	"fmt"

	"github.com/verdantis/peaproc/internal/domain/errors"
)

// Type identifies a supported heating process. The set is closed;
// unsupported types fail at parse time instead of returning an empty
// result.
type Type string

const (
	TypeRF Type = "rf" // radio-frequency dielectric heating
	TypeIR Type = "ir" // infrared heating
)

// ParseType validates and converts a string to a process Type
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeRF, TypeIR:
		return Type(s), nil
	default:
		return "", errors.NewValidationError("UNKNOWN_PROCESS_TYPE",
			fmt.Sprintf("unsupported process type: %s", s))
	}
}

// Compositions holds per-component concentrations (percent) for the input
// and output sides of a balance.
type Compositions struct {
	Input  map[string]float64 `json:"input"`
	Output map[string]float64 `json:"output"`
}

// ComponentBalance is one component's share of a mass balance
type ComponentBalance struct {
	InputMass  float64 `json:"input_mass"`  // kg
	OutputMass float64 `json:"output_mass"` // kg
	Recovery   float64 `json:"recovery"`    // percent
}

// MassBalanceResult summarizes a mass balance across streams.
// Components declared only in the output composition carry no input mass
// to recover against; they are not balanced but are listed in
// UnmatchedOutputComponents so callers can see the skip.
type MassBalanceResult struct {
	TotalInput                float64                     `json:"total_input"`  // kg
	TotalOutput               float64                     `json:"total_output"` // kg
	Components                map[string]ComponentBalance `json:"components"`
	UnmatchedOutputComponents []string                    `json:"unmatched_output_components,omitempty"`
}

// OperatingParams carries the operating parameters of a heating step.
// RF uses Power; IR uses PowerDensity and Area. TimeMinutes applies to
// both.
type OperatingParams struct {
	Power        float64 `json:"power"`         // kW
	PowerDensity float64 `json:"power_density"` // kW/m2
	Area         float64 `json:"area"`          // m2
	TimeMinutes  float64 `json:"time_minutes"`
}

// MaterialProps carries the material properties the energy models need.
// A zero Absorptivity falls back to the 0.9 default.
type MaterialProps struct {
	DielectricConstant float64 `json:"dielectric_constant"`
	Absorptivity       float64 `json:"absorptivity"`
}

// DefaultAbsorptivity applies when the material omits absorptivity
const DefaultAbsorptivity = 0.9

// EnergyBalanceResult holds the energy balance of one heating step.
// EffectivePower is set for RF, HeatAbsorbed for IR.
type EnergyBalanceResult struct {
	ProcessType    Type    `json:"process_type"`
	EnergyInput    float64 `json:"energy_input"`     // kJ
	EnergyInputKWh float64 `json:"energy_input_kwh"` // same quantity for utility costing
	EffectivePower float64 `json:"effective_power,omitempty"`
	HeatAbsorbed   float64 `json:"heat_absorbed,omitempty"`
	EfficiencyPct  float64 `json:"efficiency_pct"`
}

// PerformanceResult maps each matched target to its efficiency
// (actual/target, percent). Overall is nil when no target matched.
type PerformanceResult struct {
	Efficiencies map[string]float64 `json:"efficiencies"`
	Overall      *float64           `json:"overall_performance,omitempty"`
}

// ParticleSizeResult holds the percentile summary of a particle-size
// distribution.
type ParticleSizeResult struct {
	D10  float64 `json:"d10"` // micron
	D50  float64 `json:"d50"`
	D90  float64 `json:"d90"`
	Span float64 `json:"span"` // (d90 - d10) / d50
}
