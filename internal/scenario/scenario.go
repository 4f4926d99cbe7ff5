// Package scenario is the engine's composition root: it validates a
// scenario document at the boundary, wires the calculation services into
// one runner and produces a JSON-ready analysis report.
package scenario

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/verdantis/peaproc/internal/domain/equipment"
	"github.com/verdantis/peaproc/internal/domain/errors"
	"github.com/verdantis/peaproc/internal/service/costing"
	"github.com/verdantis/peaproc/internal/service/ecoefficiency"
	"github.com/verdantis/peaproc/internal/service/process"
	"github.com/verdantis/peaproc/internal/service/sensitivity"
	"github.com/verdantis/peaproc/internal/service/tracking"
)

// EquipmentInput is one equipment line in a scenario
type EquipmentInput struct {
	Name                   string  `json:"name" validate:"required"`
	BaseCost               float64 `json:"base_cost" validate:"gte=0"`
	EfficiencyFactor       float64 `json:"efficiency_factor" validate:"gt=0,lte=1"`
	InstallationComplexity float64 `json:"installation_complexity" validate:"gte=1"`
	MaintenanceCost        float64 `json:"maintenance_cost" validate:"gte=0"`
	EnergyConsumption      float64 `json:"energy_consumption" validate:"gte=0"`
	ProcessingCapacity     float64 `json:"processing_capacity" validate:"gt=0"`
}

// ProcessInput describes the heating step under analysis
type ProcessInput struct {
	Type               string  `json:"type" validate:"required,oneof=rf ir"`
	Power              float64 `json:"power,omitempty" validate:"gte=0"`
	PowerDensity       float64 `json:"power_density,omitempty" validate:"gte=0"`
	Area               float64 `json:"area,omitempty" validate:"gte=0"`
	TimeMinutes        float64 `json:"time_minutes" validate:"gt=0"`
	DielectricConstant float64 `json:"dielectric_constant,omitempty" validate:"gte=0"`
	Absorptivity       float64 `json:"absorptivity,omitempty" validate:"gte=0,lte=1"`
}

// CostInput carries the financial side of a scenario
type CostInput struct {
	IndirectCost    float64            `json:"indirect_cost" validate:"gte=0"`
	OpexByCategory  map[string]float64 `json:"opex_by_category" validate:"required,dive,gte=0"`
	ProjectYears    int                `json:"project_years" validate:"gt=0"`
	InterestRate    float64            `json:"interest_rate" validate:"gte=0"`
	AnnualCashFlows []float64          `json:"annual_cash_flows,omitempty"`
}

// MonteCarloInput configures the optional Monte Carlo run. A zero
// Iterations or Seed falls back to the engine configuration.
type MonteCarloInput struct {
	Iterations int                    `json:"iterations,omitempty" validate:"gte=0"`
	Seed       int64                  `json:"seed,omitempty"`
	Variables  []sensitivity.Variable `json:"variables" validate:"required,min=1"`
}

// EcoInput configures the optional eco-efficiency assessment
type EcoInput struct {
	Consumptions     map[string]float64 `json:"consumptions" validate:"required,dive,gte=0"`
	ProductValue     float64            `json:"product_value" validate:"gt=0"`
	FunctionalUnitKg float64            `json:"functional_unit_kg" validate:"gt=0"`
}

// Scenario is the validated input document one analysis run consumes
type Scenario struct {
	Name          string                        `json:"name" validate:"required"`
	Currency      string                        `json:"currency,omitempty" validate:"omitempty,oneof=USD EUR GBP CAD"`
	Equipment     []EquipmentInput              `json:"equipment" validate:"required,min=1,dive"`
	InputStreams  map[string]float64            `json:"input_streams" validate:"required,min=1,dive,gte=0"`
	OutputStreams map[string]float64            `json:"output_streams" validate:"required,dive,gte=0"`
	Compositions  process.Compositions          `json:"compositions"`
	Process       *ProcessInput                 `json:"process,omitempty"`
	Costs         CostInput                     `json:"costs" validate:"required"`
	Readings      map[string]map[string]float64 `json:"readings,omitempty"`
	Targets       map[string]float64            `json:"targets,omitempty"`
	ProcessData   map[string]float64            `json:"process_data,omitempty"`
	ParticleSizes []float64                     `json:"particle_sizes,omitempty" validate:"omitempty,dive,gt=0"`
	MonteCarlo    *MonteCarloInput              `json:"monte_carlo,omitempty"`
	Eco           *EcoInput                     `json:"eco,omitempty"`
	SwingPct      float64                       `json:"swing_pct,omitempty" validate:"gte=0,lt=100"`
}

// Validate checks the scenario document at the boundary
func (s *Scenario) Validate(v *validator.Validate) error {
	if err := v.Struct(s); err != nil {
		return errors.NewValidationError("INVALID_SCENARIO", err.Error()).WithCause(err)
	}
	return nil
}

// Report is the JSON-ready output of one analysis run
type Report struct {
	Scenario    string    `json:"scenario"`
	GeneratedAt time.Time `json:"generated_at"`
	InputHash   string    `json:"input_hash"`
	FromCache   bool      `json:"from_cache,omitempty"`

	Investment    costing.InvestmentBreakdown `json:"investment"`
	AnnualCosts   costing.AnnualCosts         `json:"annual_costs"`
	Profitability *costing.Profitability      `json:"profitability,omitempty"`

	MassBalance   process.MassBalanceResult    `json:"mass_balance"`
	EnergyBalance *process.EnergyBalanceResult `json:"energy_balance,omitempty"`
	Performance   *process.PerformanceResult   `json:"performance,omitempty"`
	ParticleSizes *process.ParticleSizeResult  `json:"particle_sizes,omitempty"`

	MonitoringSamples []equipment.Sample            `json:"monitoring_samples,omitempty"`
	Trends            []tracking.TrendResult        `json:"trends,omitempty"`
	Tornado           []sensitivity.TornadoRow      `json:"tornado,omitempty"`
	MonteCarlo        *sensitivity.MonteCarloResult `json:"monte_carlo,omitempty"`
	EcoEfficiency     *ecoefficiency.Assessment     `json:"eco_efficiency,omitempty"`
}
