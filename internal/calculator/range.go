package calculator

import "math"

// RollingMax returns the highest non-NaN value in each window.
func RollingMax(values []float64, window, minPeriods int) ([]float64, error) {
	return rolling(values, window, minPeriods, func(obs []float64) float64 {
		high := math.Inf(-1)
		for _, v := range obs {
			if v > high {
				high = v
			}
		}
		return high
	})
}

// RollingMin returns the lowest non-NaN value in each window.
func RollingMin(values []float64, window, minPeriods int) ([]float64, error) {
	return rolling(values, window, minPeriods, func(obs []float64) float64 {
		low := math.Inf(1)
		for _, v := range obs {
			if v < low {
				low = v
			}
		}
		return low
	})
}

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per row,
// skipping NaN terms. The first row of a series, where prevClose is missing,
// therefore falls back to high-low.
func TrueRange(high, low, prevClose []float64) []float64 {
	out := make([]float64, len(high))
	for i := range high {
		best := math.NaN()
		for _, v := range [3]float64{
			high[i] - low[i],
			math.Abs(high[i] - prevClose[i]),
			math.Abs(low[i] - prevClose[i]),
		} {
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(best) || v > best {
				best = v
			}
		}
		out[i] = best
	}
	return out
}
