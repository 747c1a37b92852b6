package calculator

import "math"

// Shift returns values lagged by k positions; the first k positions are NaN.
// A negative k leads instead of lags.
func Shift(values []float64, k int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		j := i - k
		if j < 0 || j >= len(values) {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[j]
	}
	return out
}

// Diff returns values[i] - values[i-k], NaN where the lagged value is missing.
func Diff(values []float64, k int) []float64 {
	lagged := Shift(values, k)
	out := make([]float64, len(values))
	for i := range values {
		out[i] = values[i] - lagged[i]
	}
	return out
}

// CumSum returns the running sum. NaN inputs stay NaN in the output and do
// not reset the running total.
func CumSum(values []float64) []float64 {
	out := make([]float64, len(values))
	total := 0.0
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		total += v
		out[i] = total
	}
	return out
}
