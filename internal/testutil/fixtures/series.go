package fixtures

// LinearSeries returns n values on the line start + step*i
func LinearSeries(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// ConstantSeries returns n copies of value
func ConstantSeries(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}
