// Package indicator computes technical indicators over a panel.
//
// Every indicator is a pure function: it reads existing columns, computes
// per ticker through panel.ApplyGroups, and returns a new panel with its
// declared output columns appended. Intermediate series are local slices
// and never appear in the result. Invalid lookbacks return
// calculator.ErrParameter, missing columns return panel.ErrInputShape, and
// indeterminate values (division by zero, short windows) are NaN.
package indicator

import (
	"math"
	"strconv"

	"VnPanel/internal/calculator"
	"VnPanel/internal/panel"
)

type seriesFunc func([]float64) ([]float64, error)

func shift(k int) seriesFunc {
	return func(v []float64) ([]float64, error) { return calculator.Shift(v, k), nil }
}

func diff(k int) seriesFunc {
	return func(v []float64) ([]float64, error) { return calculator.Diff(v, k), nil }
}

func cumSum(v []float64) ([]float64, error) { return calculator.CumSum(v), nil }

func rollingMean(window, minPeriods int) seriesFunc {
	return func(v []float64) ([]float64, error) { return calculator.RollingMean(v, window, minPeriods) }
}

func rollingStd(window, minPeriods int) seriesFunc {
	return func(v []float64) ([]float64, error) { return calculator.RollingStd(v, window, minPeriods) }
}

func rollingSum(window int) seriesFunc {
	return func(v []float64) ([]float64, error) { return calculator.RollingSum(v, window, 0) }
}

func rollingMax(window int) seriesFunc {
	return func(v []float64) ([]float64, error) { return calculator.RollingMax(v, window, 0) }
}

func rollingMin(window int) seriesFunc {
	return func(v []float64) ([]float64, error) { return calculator.RollingMin(v, window, 0) }
}

func ewm(opts calculator.EWMOptions) seriesFunc {
	return func(v []float64) ([]float64, error) { return calculator.EWMMean(v, opts) }
}

// columns fetches several columns at once after checking they all exist.
func columns(p *panel.Panel, names ...string) ([][]float64, error) {
	if err := p.Require(names...); err != nil {
		return nil, err
	}
	out := make([][]float64, len(names))
	for i, name := range names {
		out[i], _ = p.Column(name)
	}
	return out, nil
}

func zip(a, b []float64, f func(x, y float64) float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = f(a[i], b[i])
	}
	return out
}

func mapSeries(a []float64, f func(x float64) float64) []float64 {
	out := make([]float64, len(a))
	for i, x := range a {
		out[i] = f(x)
	}
	return out
}

func sub(x, y float64) float64 { return x - y }
func div(x, y float64) float64 { return x / y }

// typicalPrice is the NaN-skipping mean of high, low and close.
func typicalPrice(high, low, cls []float64) []float64 {
	out := make([]float64, len(cls))
	for i := range cls {
		total, n := 0.0, 0
		for _, v := range [3]float64{high[i], low[i], cls[i]} {
			if !math.IsNaN(v) {
				total += v
				n++
			}
		}
		if n == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = total / float64(n)
	}
	return out
}

func named(prefix string, n int) string {
	return prefix + "_" + strconv.Itoa(n)
}
