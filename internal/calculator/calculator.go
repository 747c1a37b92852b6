// Package calculator implements the windowed and exponential statistics that
// indicators are built from. Every function works on one ticker's series in
// date order; grouping across tickers is the caller's job (see
// panel.ApplyGroups). Indeterminate results are NaN, never errors.
package calculator

import (
	"errors"
	"fmt"
	"math"
)

// ErrParameter reports an invalid window, lookback or smoothing setting.
var ErrParameter = errors.New("invalid parameter")

// CheckLookback rejects non-positive lookbacks.
func CheckLookback(name string, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", ErrParameter, name, n)
	}
	return nil
}

// FillNaN returns a copy of values with NaN replaced by v.
func FillNaN(values []float64, v float64) []float64 {
	out := make([]float64, len(values))
	for i, x := range values {
		if math.IsNaN(x) {
			out[i] = v
		} else {
			out[i] = x
		}
	}
	return out
}
