package indicator

import (
	"VnPanel/internal/calculator"
	"VnPanel/internal/panel"
)

// OBV appends the on-balance volume: the running sum of Volume signed by
// the direction of Close versus the previous close. The first row of each
// ticker has sign 0.
func OBV(p *panel.Panel) (*panel.Panel, error) {
	cols, err := columns(p, panel.Close, panel.Volume)
	if err != nil {
		return nil, err
	}
	cls, vol := cols[0], cols[1]
	prevClose, err := p.ApplyGroups(cls, shift(1))
	if err != nil {
		return nil, err
	}
	signed := make([]float64, len(cls))
	for i := range cls {
		var sign float64
		switch {
		case cls[i] > prevClose[i]:
			sign = 1
		case cls[i] < prevClose[i]:
			sign = -1
		}
		signed[i] = vol[i] * sign
	}
	obv, err := p.ApplyGroups(signed, cumSum)
	if err != nil {
		return nil, err
	}
	return p.WithColumns(panel.Column{Name: "OBV", Values: obv})
}

// MFI appends mfi_N. Positive flow is the previous typical price on rows
// where the typical price rose, negative flow where it fell.
func MFI(p *panel.Panel, lookback int) (*panel.Panel, error) {
	if err := calculator.CheckLookback("lookback", lookback); err != nil {
		return nil, err
	}
	cols, err := columns(p, panel.High, panel.Low, panel.Close)
	if err != nil {
		return nil, err
	}
	tp := typicalPrice(cols[0], cols[1], cols[2])
	change, err := p.ApplyGroups(tp, diff(1))
	if err != nil {
		return nil, err
	}
	prevTP, err := p.ApplyGroups(tp, shift(1))
	if err != nil {
		return nil, err
	}
	posFlow := make([]float64, len(tp))
	negFlow := make([]float64, len(tp))
	for i := range tp {
		switch {
		case change[i] > 0:
			posFlow[i] = prevTP[i]
		case change[i] < 0:
			negFlow[i] = prevTP[i]
		}
	}
	posMean, err := p.ApplyGroups(posFlow, rollingMean(lookback, 0))
	if err != nil {
		return nil, err
	}
	negMean, err := p.ApplyGroups(negFlow, rollingMean(lookback, 0))
	if err != nil {
		return nil, err
	}
	mfi := mapSeries(zip(posMean, negMean, div), func(r float64) float64 { return 100 - 100/(1+r) })
	return p.WithColumns(panel.Column{Name: named("mfi", lookback), Values: mfi})
}

// AccumulationDistribution appends acc_dist_line, the running sum of
// money-flow volume. Rows with High == Low contribute nothing.
func AccumulationDistribution(p *panel.Panel) (*panel.Panel, error) {
	cols, err := columns(p, panel.High, panel.Low, panel.Close, panel.Volume)
	if err != nil {
		return nil, err
	}
	high, low, cls, vol := cols[0], cols[1], cols[2], cols[3]
	mfVol := make([]float64, len(cls))
	for i := range cls {
		if high[i] != low[i] {
			mfVol[i] = ((cls[i] - low[i]) - (high[i] - cls[i])) / (high[i] - low[i]) * vol[i]
		}
	}
	line, err := p.ApplyGroups(mfVol, cumSum)
	if err != nil {
		return nil, err
	}
	return p.WithColumns(panel.Column{Name: "acc_dist_line", Values: line})
}
