package indicator

import (
	"strconv"

	"VnPanel/internal/calculator"
	"VnPanel/internal/panel"
)

// DefaultBandLookbacks are the Bollinger windows used when none are given.
var DefaultBandLookbacks = []int{10, 20, 30}

// BollingerBands appends ma_N, upper_bN and lower_bN for each lookback,
// one standard deviation either side of the growing-window mean. With no
// lookbacks it uses DefaultBandLookbacks.
func BollingerBands(p *panel.Panel, lookbacks ...int) (*panel.Panel, error) {
	if len(lookbacks) == 0 {
		lookbacks = DefaultBandLookbacks
	}
	for _, n := range lookbacks {
		if err := calculator.CheckLookback("lookback", n); err != nil {
			return nil, err
		}
	}
	cls, err := p.Column(panel.Close)
	if err != nil {
		return nil, err
	}
	var out []panel.Column
	for _, n := range lookbacks {
		ma, err := p.ApplyGroups(cls, rollingMean(n, 1))
		if err != nil {
			return nil, err
		}
		sd, err := p.ApplyGroups(cls, rollingStd(n, 1))
		if err != nil {
			return nil, err
		}
		upper := make([]float64, len(cls))
		lower := make([]float64, len(cls))
		for i := range cls {
			upper[i] = ma[i] + sd[i]
			lower[i] = ma[i] - sd[i]
		}
		out = append(out,
			panel.Column{Name: named("ma", n), Values: ma},
			panel.Column{Name: "upper_b" + strconv.Itoa(n), Values: upper},
			panel.Column{Name: "lower_b" + strconv.Itoa(n), Values: lower},
		)
	}
	return p.WithColumns(out...)
}
