package indicator

import (
	"fmt"

	"VnPanel/internal/calculator"
	"VnPanel/internal/panel"
)

// Default PPO spans.
const (
	PPOFast   = 12
	PPOSlow   = 26
	PPOSignal = 9
)

// RSI appends rsi_N. Up and down moves are smoothed with center of mass N;
// a flat series gives 0/0 and therefore NaN.
func RSI(p *panel.Panel, lookback int) (*panel.Panel, error) {
	if err := calculator.CheckLookback("lookback", lookback); err != nil {
		return nil, err
	}
	cls, err := p.Column(panel.Close)
	if err != nil {
		return nil, err
	}
	delta, err := p.ApplyGroups(cls, diff(1))
	if err != nil {
		return nil, err
	}
	opts := calculator.EWMOptions{CenterOfMass: float64(lookback)}
	emaUp, err := p.ApplyGroups(calculator.Gains(delta), ewm(opts))
	if err != nil {
		return nil, err
	}
	emaDown, err := p.ApplyGroups(calculator.Losses(delta), ewm(opts))
	if err != nil {
		return nil, err
	}
	rs := zip(emaUp, emaDown, div)
	rsi := mapSeries(rs, func(x float64) float64 { return 100 - 100/(1+x) })
	return p.WithColumns(panel.Column{Name: named("rsi", lookback), Values: rsi})
}

// emaSpread returns the warm-up suppressed fast and slow EMAs of Close.
func emaSpread(p *panel.Panel, fast, slow int) (emaFast, emaSlow []float64, err error) {
	cls, err := p.Column(panel.Close)
	if err != nil {
		return nil, nil, err
	}
	emaFast, err = p.ApplyGroups(cls, ewm(calculator.EWMOptions{Span: float64(fast), MinPeriods: fast}))
	if err != nil {
		return nil, nil, err
	}
	emaSlow, err = p.ApplyGroups(cls, ewm(calculator.EWMOptions{Span: float64(slow), MinPeriods: slow}))
	if err != nil {
		return nil, nil, err
	}
	return emaFast, emaSlow, nil
}

// MACD appends macd (EMA12 - EMA26), macd_s (its span-9 signal) and
// macd_h (macd - macd_s). Each EMA stays NaN until it has seen as many
// observations as its span.
func MACD(p *panel.Panel) (*panel.Panel, error) {
	ema12, ema26, err := emaSpread(p, 12, 26)
	if err != nil {
		return nil, err
	}
	macd := zip(ema12, ema26, sub)
	signal, err := p.ApplyGroups(macd, ewm(calculator.EWMOptions{Span: 9, MinPeriods: 9}))
	if err != nil {
		return nil, err
	}
	return p.WithColumns(
		panel.Column{Name: "macd", Values: macd},
		panel.Column{Name: "macd_s", Values: signal},
		panel.Column{Name: "macd_h", Values: zip(macd, signal, sub)},
	)
}

// PPONames returns the output columns of PPO for the given spans. The
// default (12, 26, 9) spans use bare names; any other combination is
// suffixed so repeated calls do not collide.
func PPONames(fast, slow, signal int) (ppo, sig, hist string) {
	if fast == PPOFast && slow == PPOSlow && signal == PPOSignal {
		return "ppo", "ppo_signal", "ppo_hist"
	}
	suffix := fmt.Sprintf("_%d_%d_%d", fast, slow, signal)
	return "ppo" + suffix, "ppo_signal" + suffix, "ppo_hist" + suffix
}

// PPO appends the percentage price oscillator, its signal line and histogram.
func PPO(p *panel.Panel, fast, slow, signal int) (*panel.Panel, error) {
	for _, c := range []struct {
		name string
		n    int
	}{{"fast", fast}, {"slow", slow}, {"signal", signal}} {
		if err := calculator.CheckLookback(c.name, c.n); err != nil {
			return nil, err
		}
	}
	emaFast, emaSlow, err := emaSpread(p, fast, slow)
	if err != nil {
		return nil, err
	}
	ppo := zip(emaFast, emaSlow, func(f, s float64) float64 { return (f - s) / s * 100 })
	line, err := p.ApplyGroups(ppo, ewm(calculator.EWMOptions{Span: float64(signal), MinPeriods: signal}))
	if err != nil {
		return nil, err
	}
	ppoName, sigName, histName := PPONames(fast, slow, signal)
	return p.WithColumns(
		panel.Column{Name: ppoName, Values: ppo},
		panel.Column{Name: sigName, Values: line},
		panel.Column{Name: histName, Values: zip(ppo, line, sub)},
	)
}

// WilliamsR appends N_day_wr = (highest high - Close) / (highest high - lowest low) * -100.
func WilliamsR(p *panel.Panel, lookback int) (*panel.Panel, error) {
	if err := calculator.CheckLookback("lookback", lookback); err != nil {
		return nil, err
	}
	cols, err := columns(p, panel.High, panel.Low, panel.Close)
	if err != nil {
		return nil, err
	}
	high, low, cls := cols[0], cols[1], cols[2]
	hh, err := p.ApplyGroups(high, rollingMax(lookback))
	if err != nil {
		return nil, err
	}
	ll, err := p.ApplyGroups(low, rollingMin(lookback))
	if err != nil {
		return nil, err
	}
	wr := make([]float64, len(cls))
	for i := range wr {
		wr[i] = (hh[i] - cls[i]) / (hh[i] - ll[i]) * -100
	}
	return p.WithColumns(panel.Column{Name: fmt.Sprintf("%d_day_wr", lookback), Values: wr})
}

// ChandeMO appends chande_mo_N, the Chande momentum oscillator. The missing
// first delta of each ticker counts as no movement.
func ChandeMO(p *panel.Panel, lookback int) (*panel.Panel, error) {
	if err := calculator.CheckLookback("lookback", lookback); err != nil {
		return nil, err
	}
	cls, err := p.Column(panel.Close)
	if err != nil {
		return nil, err
	}
	delta, err := p.ApplyGroups(cls, diff(1))
	if err != nil {
		return nil, err
	}
	sumHigher, err := p.ApplyGroups(calculator.FillNaN(calculator.Gains(delta), 0), rollingSum(lookback))
	if err != nil {
		return nil, err
	}
	sumLower, err := p.ApplyGroups(calculator.FillNaN(calculator.Losses(delta), 0), rollingSum(lookback))
	if err != nil {
		return nil, err
	}
	cmo := zip(sumHigher, sumLower, func(h, l float64) float64 { return (h - l) / (h + l) * 100 })
	return p.WithColumns(panel.Column{Name: named("chande_mo", lookback), Values: cmo})
}

// CCI appends cci_N, the commodity channel index over the typical price.
func CCI(p *panel.Panel, lookback int) (*panel.Panel, error) {
	if err := calculator.CheckLookback("lookback", lookback); err != nil {
		return nil, err
	}
	cols, err := columns(p, panel.High, panel.Low, panel.Close)
	if err != nil {
		return nil, err
	}
	tp := typicalPrice(cols[0], cols[1], cols[2])
	ma, err := p.ApplyGroups(tp, rollingMean(lookback, 0))
	if err != nil {
		return nil, err
	}
	sd, err := p.ApplyGroups(tp, rollingStd(lookback, 0))
	if err != nil {
		return nil, err
	}
	cci := make([]float64, len(tp))
	for i := range cci {
		cci[i] = (tp[i] - ma[i]) / (0.015 * sd[i])
	}
	return p.WithColumns(panel.Column{Name: named("cci", lookback), Values: cci})
}
