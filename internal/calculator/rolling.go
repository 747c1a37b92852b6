package calculator

import (
	"fmt"
	"math"
)

// Rolling statistics use growing-window semantics: position i looks at
// [i-window+1, i] clipped to the series start, counts only non-NaN values as
// observations, and yields NaN while observations < minPeriods.
// minPeriods == 0 requires a full window.

// RollingMean returns the rolling arithmetic mean.
func RollingMean(values []float64, window, minPeriods int) ([]float64, error) {
	return rolling(values, window, minPeriods, mean)
}

// RollingStd returns the rolling sample standard deviation (N-1 denominator).
func RollingStd(values []float64, window, minPeriods int) ([]float64, error) {
	return rolling(values, window, minPeriods, sampleStd)
}

// RollingSum returns the rolling sum.
func RollingSum(values []float64, window, minPeriods int) ([]float64, error) {
	return rolling(values, window, minPeriods, sum)
}

func rolling(values []float64, window, minPeriods int, stat func([]float64) float64) ([]float64, error) {
	if err := checkWindow(window, minPeriods); err != nil {
		return nil, err
	}
	if minPeriods == 0 {
		minPeriods = window
	}
	out := make([]float64, len(values))
	obs := make([]float64, 0, window)
	for i := range values {
		obs = obs[:0]
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		for j := start; j <= i; j++ {
			if !math.IsNaN(values[j]) {
				obs = append(obs, values[j])
			}
		}
		if len(obs) < minPeriods {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat(obs)
	}
	return out, nil
}

func checkWindow(window, minPeriods int) error {
	if window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %d", ErrParameter, window)
	}
	if minPeriods < 0 || minPeriods > window {
		return fmt.Errorf("%w: min periods %d outside [0, %d]", ErrParameter, minPeriods, window)
	}
	return nil
}

func sum(obs []float64) float64 {
	s := 0.0
	for _, v := range obs {
		s += v
	}
	return s
}

func mean(obs []float64) float64 {
	return sum(obs) / float64(len(obs))
}

func sampleStd(obs []float64) float64 {
	if len(obs) < 2 {
		return math.NaN()
	}
	m := mean(obs)
	ss := 0.0
	for _, v := range obs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(obs)-1))
}
