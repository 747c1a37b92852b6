package calculator

import (
	"fmt"
	"math"
)

// EWMOptions configures an exponential moving mean. Exactly one of Span or
// CenterOfMass must be set; zero means unset.
type EWMOptions struct {
	Span         float64 // alpha = 2/(span+1), span >= 1
	CenterOfMass float64 // alpha = 1/(1+com), com > 0
	MinPeriods   int     // observations required before output is defined
}

// Alpha returns the smoothing factor.
func (o EWMOptions) Alpha() (float64, error) {
	switch {
	case o.Span != 0 && o.CenterOfMass != 0:
		return 0, fmt.Errorf("%w: span and center of mass are mutually exclusive", ErrParameter)
	case o.Span != 0:
		if o.Span < 1 {
			return 0, fmt.Errorf("%w: span must be >= 1, got %g", ErrParameter, o.Span)
		}
		return 2 / (o.Span + 1), nil
	case o.CenterOfMass != 0:
		if o.CenterOfMass < 0 {
			return 0, fmt.Errorf("%w: center of mass must be positive, got %g", ErrParameter, o.CenterOfMass)
		}
		return 1 / (1 + o.CenterOfMass), nil
	default:
		return 0, fmt.Errorf("%w: one of span or center of mass is required", ErrParameter)
	}
}

// EWMMean computes the non-adjusted recursive exponential mean
//
//	y[0] = x[0]
//	y[i] = alpha*x[i] + (1-alpha)*y[i-1]
//
// The recursion starts at the first non-NaN value. A NaN input keeps the
// previous mean but decays its weight, so the next observation counts for
// more. Output is NaN until MinPeriods (at least one) observations are seen.
func EWMMean(values []float64, opts EWMOptions) ([]float64, error) {
	alpha, err := opts.Alpha()
	if err != nil {
		return nil, err
	}
	if opts.MinPeriods < 0 {
		return nil, fmt.Errorf("%w: min periods must not be negative, got %d", ErrParameter, opts.MinPeriods)
	}
	minPeriods := opts.MinPeriods
	if minPeriods < 1 {
		minPeriods = 1
	}

	out := make([]float64, len(values))
	var (
		weighted = math.NaN()
		oldWt    = 1.0
		nobs     = 0
		started  = false
	)
	for i, x := range values {
		isObs := !math.IsNaN(x)
		if isObs {
			nobs++
		}
		if started {
			oldWt *= 1 - alpha
			if isObs {
				if weighted != x {
					weighted = (oldWt*weighted + alpha*x) / (oldWt + alpha)
				}
				oldWt = 1
			}
		} else if isObs {
			weighted = x
			started = true
		}
		if nobs >= minPeriods {
			out[i] = weighted
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}
