package fixtures

import (
	"github.com/verdantis/peaproc/internal/service/process"
)

// ExtractionStreams returns a single-stream mass balance input: 100 kg of
// pea flour in, 80 kg of fine fraction out, protein enriched from 25% to
// 45%. Protein recovery for this set is exactly 144%.
func ExtractionStreams() (map[string]float64, map[string]float64, process.Compositions) {
	inputs := map[string]float64{"s1": 100}
	outputs := map[string]float64{"s1": 80}
	compositions := process.Compositions{
		Input:  map[string]float64{"protein": 25},
		Output: map[string]float64{"protein": 45},
	}
	return inputs, outputs, compositions
}

// BalancedStreams returns multi-stream inputs and outputs that close the
// mass balance exactly.
func BalancedStreams() (map[string]float64, map[string]float64) {
	inputs := map[string]float64{
		"pea_flour": 1000,
		"air":       200,
	}
	outputs := map[string]float64{
		"fine_fraction":   350,
		"coarse_fraction": 650,
		"exhaust":         200,
	}
	return inputs, outputs
}
