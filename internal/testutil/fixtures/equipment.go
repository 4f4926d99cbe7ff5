// Package fixtures provides shared test inputs for the engine services
package fixtures

// ClassifierParameters returns a near-center parameter set for a
// classifier. Every reading evaluates to normal status.
func ClassifierParameters() map[string]float64 {
	return map[string]float64{
		"feed_rate":   275,
		"wheel_speed": 6000,
		"air_flow":    550,
	}
}
