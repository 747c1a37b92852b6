package calculator

import "math"

// Gains returns max(delta, 0) per row. NaN deltas stay NaN.
func Gains(deltas []float64) []float64 {
	out := make([]float64, len(deltas))
	for i, d := range deltas {
		switch {
		case math.IsNaN(d):
			out[i] = d
		case d > 0:
			out[i] = d
		}
	}
	return out
}

// Losses returns max(-delta, 0) per row. NaN deltas stay NaN.
func Losses(deltas []float64) []float64 {
	out := make([]float64, len(deltas))
	for i, d := range deltas {
		switch {
		case math.IsNaN(d):
			out[i] = d
		case d < 0:
			out[i] = -d
		}
	}
	return out
}
