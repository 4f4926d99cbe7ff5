package equipment

import (
	"time"

	"github.com/google/uuid"
)

// ParameterStatus classifies one reading against its operating range
type ParameterStatus string

const (
	StatusNormal   ParameterStatus = "normal"
	StatusWarning  ParameterStatus = "warning"
	StatusCritical ParameterStatus = "critical"
)

// severity orders statuses for worst-of aggregation
var severity = map[ParameterStatus]int{
	StatusNormal:   0,
	StatusWarning:  1,
	StatusCritical: 2,
}

// Worse returns the more severe of two statuses
func (s ParameterStatus) Worse(other ParameterStatus) ParameterStatus {
	if severity[other] > severity[s] {
		return other
	}
	return s
}

// Reading is one parameter's observed value evaluated against its range
type Reading struct {
	Value     float64         `json:"value"`
	Min       float64         `json:"min"`
	Max       float64         `json:"max"`
	Unit      string          `json:"unit"`
	Position  float64         `json:"position"`  // 0 at min, 1 at max
	Deviation float64         `json:"deviation"` // distance from center / half-range
	Status    ParameterStatus `json:"status"`
}

// Sample is one monitoring observation for a piece of equipment.
// Samples are immutable once built; the monitoring log appends and never
// rewrites them.
type Sample struct {
	ID            uuid.UUID          `json:"id"`
	EquipmentType Type               `json:"equipment_type"`
	Timestamp     time.Time          `json:"timestamp"`
	Readings      map[string]Reading `json:"readings"`
	Status        ParameterStatus    `json:"status"`
	MaxDeviation  float64            `json:"max_deviation"`
}

// NewSample builds a Sample from evaluated readings, deriving the overall
// status (worst reading wins) and the maximum deviation score.
func NewSample(equipmentType Type, at time.Time, readings map[string]Reading) Sample {
	status := StatusNormal
	maxDeviation := 0.0
	copied := make(map[string]Reading, len(readings))
	for name, r := range readings {
		copied[name] = r
		status = status.Worse(r.Status)
		if r.Deviation > maxDeviation {
			maxDeviation = r.Deviation
		}
	}

	return Sample{
		ID:            uuid.New(),
		EquipmentType: equipmentType,
		Timestamp:     at,
		Readings:      copied,
		Status:        status,
		MaxDeviation:  maxDeviation,
	}
}

// Clone returns a deep copy of the sample so callers can hand out
// snapshots without exposing the log's backing maps.
func (s Sample) Clone() Sample {
	readings := make(map[string]Reading, len(s.Readings))
	for name, r := range s.Readings {
		readings[name] = r
	}
	clone := s
	clone.Readings = readings
	return clone
}
