package tracking

import (
	"fmt"
	"time"

	"github.com/verdantis/peaproc/internal/domain/errors"
)

// MetricType names one of the three tracking logs
type MetricType string

const (
	MetricMassFlow  MetricType = "mass_flow"
	MetricEquipment MetricType = "equipment_parameter"
	MetricQuality   MetricType = "quality_metric"
)

// ParseMetricType validates and converts a string to a MetricType
func ParseMetricType(s string) (MetricType, error) {
	switch MetricType(s) {
	case MetricMassFlow, MetricEquipment, MetricQuality:
		return MetricType(s), nil
	default:
		return "", errors.NewValidationError("UNKNOWN_METRIC_TYPE",
			fmt.Sprintf("unknown metric type: %s", s))
	}
}

// Entry is one timestamped record in a tracking log. Label identifies the
// stream or equipment the values belong to; quality entries leave it
// empty. Entries are immutable once appended.
type Entry struct {
	Timestamp time.Time          `json:"timestamp"`
	Label     string             `json:"label,omitempty"`
	Values    map[string]float64 `json:"values"`
}

// Clone returns a deep copy of the entry
func (e Entry) Clone() Entry {
	values := make(map[string]float64, len(e.Values))
	for k, v := range e.Values {
		values[k] = v
	}
	clone := e
	clone.Values = values
	return clone
}

// TimeWindow bounds a trend analysis. Start and End are inclusive.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// TrendResult summarizes one parameter's behavior over the matched
// entries. Points is 0 when nothing matched; Slope is the least-squares
// trend per second and 0 when fewer than two points were available.
type TrendResult struct {
	MetricType MetricType `json:"metric_type"`
	Parameter  string     `json:"parameter"`
	Points     int        `json:"points"`
	Mean       float64    `json:"mean"`
	StdDev     float64    `json:"std_dev"`
	Slope      float64    `json:"slope"`
	Min        float64    `json:"min"`
	Max        float64    `json:"max"`
	Range      float64    `json:"range"`
}
