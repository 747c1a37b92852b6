package indicator

import (
	"VnPanel/internal/calculator"
	"VnPanel/internal/panel"
)

// TripleEMASpan is the smoothing span of the triple exponential average.
const TripleEMASpan = 30

// MovingAverage appends ma_N, the growing-window mean of Close.
func MovingAverage(p *panel.Panel, lookback int) (*panel.Panel, error) {
	if err := calculator.CheckLookback("lookback", lookback); err != nil {
		return nil, err
	}
	cls, err := p.Column(panel.Close)
	if err != nil {
		return nil, err
	}
	ma, err := p.ApplyGroups(cls, rollingMean(lookback, 1))
	if err != nil {
		return nil, err
	}
	return p.WithColumns(panel.Column{Name: named("ma", lookback), Values: ma})
}

// TripleEMA appends triple_ema = 3*e1 - 3*e2 + e3 where each e is a span-30
// EMA of the previous one, starting from Close.
func TripleEMA(p *panel.Panel) (*panel.Panel, error) {
	cls, err := p.Column(panel.Close)
	if err != nil {
		return nil, err
	}
	opts := calculator.EWMOptions{Span: TripleEMASpan}
	e1, err := p.ApplyGroups(cls, ewm(opts))
	if err != nil {
		return nil, err
	}
	e2, err := p.ApplyGroups(e1, ewm(opts))
	if err != nil {
		return nil, err
	}
	e3, err := p.ApplyGroups(e2, ewm(opts))
	if err != nil {
		return nil, err
	}
	tema := make([]float64, len(cls))
	for i := range tema {
		tema[i] = 3*e1[i] - 3*e2[i] + e3[i]
	}
	return p.WithColumns(panel.Column{Name: "triple_ema", Values: tema})
}

// ROC appends roc_N = (Close - Close[N ago]) / Close[N ago].
func ROC(p *panel.Panel, lookback int) (*panel.Panel, error) {
	if err := calculator.CheckLookback("lookback", lookback); err != nil {
		return nil, err
	}
	cls, err := p.Column(panel.Close)
	if err != nil {
		return nil, err
	}
	change, err := p.ApplyGroups(cls, diff(lookback))
	if err != nil {
		return nil, err
	}
	base, err := p.ApplyGroups(cls, shift(lookback))
	if err != nil {
		return nil, err
	}
	return p.WithColumns(panel.Column{Name: named("roc", lookback), Values: zip(change, base, div)})
}

// NATR appends natr_N, the N-period average true range as a percentage of Close.
func NATR(p *panel.Panel, lookback int) (*panel.Panel, error) {
	if err := calculator.CheckLookback("lookback", lookback); err != nil {
		return nil, err
	}
	cols, err := columns(p, panel.High, panel.Low, panel.Close)
	if err != nil {
		return nil, err
	}
	high, low, cls := cols[0], cols[1], cols[2]
	prevClose, err := p.ApplyGroups(cls, shift(1))
	if err != nil {
		return nil, err
	}
	tr := calculator.TrueRange(high, low, prevClose)
	atr, err := p.ApplyGroups(tr, rollingMean(lookback, 0))
	if err != nil {
		return nil, err
	}
	natr := zip(atr, cls, func(a, c float64) float64 { return a / c * 100 })
	return p.WithColumns(panel.Column{Name: named("natr", lookback), Values: natr})
}

// DisparityIndex appends disparity_index_N, the percentage distance of Close
// from its full-window N-period mean.
func DisparityIndex(p *panel.Panel, lookback int) (*panel.Panel, error) {
	if err := calculator.CheckLookback("lookback", lookback); err != nil {
		return nil, err
	}
	cls, err := p.Column(panel.Close)
	if err != nil {
		return nil, err
	}
	ma, err := p.ApplyGroups(cls, rollingMean(lookback, 0))
	if err != nil {
		return nil, err
	}
	di := zip(cls, ma, func(c, m float64) float64 { return (c - m) / m * 100 })
	return p.WithColumns(panel.Column{Name: named("disparity_index", lookback), Values: di})
}

// EMA appends ema_N, the span-N exponential mean of Close.
func EMA(p *panel.Panel, lookback int) (*panel.Panel, error) {
	if err := calculator.CheckLookback("lookback", lookback); err != nil {
		return nil, err
	}
	cls, err := p.Column(panel.Close)
	if err != nil {
		return nil, err
	}
	ema, err := p.ApplyGroups(cls, ewm(calculator.EWMOptions{Span: float64(lookback)}))
	if err != nil {
		return nil, err
	}
	return p.WithColumns(panel.Column{Name: named("ema", lookback), Values: ema})
}
