package monitoring

import (
	"github.com/verdantis/peaproc/internal/domain/equipment"
)

// Config tunes the monitoring service
type Config struct {
	// MaxSamples caps the in-memory sample log; 0 means unbounded.
	MaxSamples int

	// MaintenancePriorityThreshold above which maintenance is recommended.
	MaintenancePriorityThreshold float64

	// FailureRates per equipment type, per operating hour.
	FailureRates map[equipment.Type]float64

	// DefaultFailureRate applies to types missing from FailureRates.
	DefaultFailureRate float64
}

// DefaultConfig returns the monitoring defaults
func DefaultConfig() Config {
	return Config{
		MaxSamples:                   10000,
		MaintenancePriorityThreshold: 0.7,
		FailureRates:                 equipment.DefaultFailureRates(),
		DefaultFailureRate:           0.0001,
	}
}

// PerformanceMetrics summarizes one operating period for a piece of
// equipment. SpecificEnergy is only meaningful when
// SpecificEnergyDefined is true; zero throughput leaves it undefined
// instead of producing an infinite float.
type PerformanceMetrics struct {
	EquipmentType         equipment.Type `json:"equipment_type"`
	EnergyEfficiency      float64        `json:"energy_efficiency"`  // kg per kWh
	UtilizationRate       float64        `json:"utilization_rate"`   // percent of 24h
	SpecificEnergy        float64        `json:"specific_energy"`    // kWh per kg
	SpecificEnergyDefined bool           `json:"specific_energy_defined"`
}

// ParameterDrift is the per-parameter drift estimate from a history of
// readings: (last - first) / n. Sufficient is false when fewer than two
// samples were available.
type ParameterDrift struct {
	Drift      float64 `json:"drift"`
	Samples    int     `json:"samples"`
	Sufficient bool    `json:"sufficient"`
}

// MaintenanceIndicators scores how urgently a piece of equipment needs
// attention.
type MaintenanceIndicators struct {
	EquipmentType          equipment.Type            `json:"equipment_type"`
	OperatingHours         float64                   `json:"operating_hours"`
	Reliability            float64                   `json:"reliability"` // e^(-lambda * hours)
	Drift                  map[string]ParameterDrift `json:"drift"`
	PriorityScore          float64                   `json:"priority_score"`
	MaintenanceRecommended bool                      `json:"maintenance_recommended"`
}
