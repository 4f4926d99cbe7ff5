// Package equipment holds the process-equipment domain model: equipment
// records, the closed set of monitored equipment types, their operating
// ranges and the immutable monitoring samples produced against them.
package equipment

import (
	"fmt"
	"math"

	"github.com/verdantis/peaproc/internal/domain/errors"
)

// Type identifies a monitored equipment class. The set is closed; parsing
// an unknown type fails.
type Type string

const (
	TypeClassifier  Type = "classifier"
	TypeRFGenerator Type = "rf_generator"
	TypeIRHeater    Type = "ir_heater"
)

// ParseType validates and converts a string to an equipment Type
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeClassifier, TypeRFGenerator, TypeIRHeater:
		return Type(s), nil
	default:
		return "", errors.NewValidationError("UNKNOWN_EQUIPMENT_TYPE",
			fmt.Sprintf("unknown equipment type: %s", s))
	}
}

// Types returns all registered equipment types
func Types() []Type {
	return []Type{TypeClassifier, TypeRFGenerator, TypeIRHeater}
}

// Equipment describes one piece of process equipment for costing and
// monitoring purposes.
type Equipment struct {
	Name                   string  `json:"name"`
	BaseCost               float64 `json:"base_cost"`               // currency units
	EfficiencyFactor       float64 `json:"efficiency_factor"`       // (0, 1]
	InstallationComplexity float64 `json:"installation_complexity"` // installed-cost multiplier, >= 1
	MaintenanceCost        float64 `json:"maintenance_cost"`        // currency units per year
	EnergyConsumption      float64 `json:"energy_consumption"`      // kWh per operating hour
	ProcessingCapacity     float64 `json:"processing_capacity"`     // kg per hour
}

// NewEquipment creates an Equipment record with validation
func NewEquipment(name string, baseCost, efficiencyFactor, installationComplexity, maintenanceCost, energyConsumption, processingCapacity float64) (Equipment, error) {
	if name == "" {
		return Equipment{}, errors.NewValidationError("EMPTY_NAME", "equipment name cannot be empty")
	}
	if err := validateNonNegative(baseCost, "base_cost"); err != nil {
		return Equipment{}, err
	}
	if err := validateNonNegative(maintenanceCost, "maintenance_cost"); err != nil {
		return Equipment{}, err
	}
	if err := validateNonNegative(energyConsumption, "energy_consumption"); err != nil {
		return Equipment{}, err
	}
	if math.IsNaN(efficiencyFactor) || efficiencyFactor <= 0 || efficiencyFactor > 1 {
		return Equipment{}, errors.NewValidationError("EFFICIENCY_RANGE",
			"efficiency_factor must be in (0, 1]")
	}
	if math.IsNaN(installationComplexity) || math.IsInf(installationComplexity, 0) || installationComplexity < 1 {
		return Equipment{}, errors.NewValidationError("COMPLEXITY_RANGE",
			"installation_complexity must be at least 1")
	}
	if math.IsNaN(processingCapacity) || math.IsInf(processingCapacity, 0) || processingCapacity <= 0 {
		return Equipment{}, errors.NewValidationError("CAPACITY_RANGE",
			"processing_capacity must be positive")
	}

	return Equipment{
		Name:                   name,
		BaseCost:               baseCost,
		EfficiencyFactor:       efficiencyFactor,
		InstallationComplexity: installationComplexity,
		MaintenanceCost:        maintenanceCost,
		EnergyConsumption:      energyConsumption,
		ProcessingCapacity:     processingCapacity,
	}, nil
}

// InstallationCost is the portion of installed cost above the base cost.
func (e Equipment) InstallationCost() float64 {
	return e.BaseCost * (e.InstallationComplexity - 1)
}

// InstalledCost is base cost scaled by the installation complexity factor.
func (e Equipment) InstalledCost() float64 {
	return e.BaseCost * e.InstallationComplexity
}

func validateNonNegative(value float64, fieldName string) error {
	if math.IsNaN(value) {
		return errors.NewValidationError("NOT_FINITE", fieldName+" cannot be NaN")
	}
	if math.IsInf(value, 0) {
		return errors.NewValidationError("NOT_FINITE", fieldName+" cannot be infinite")
	}
	if value < 0 {
		return errors.NewValidationError("NEGATIVE_VALUE", fieldName+" cannot be negative")
	}
	return nil
}
