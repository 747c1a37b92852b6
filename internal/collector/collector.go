package collector

import (
	"context"
	"fmt"

	"VnPanel/internal/indicator"
	"VnPanel/internal/model"
	"VnPanel/internal/panel"
)

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher    Fetcher
	Chain      *indicator.Chain
	Resolution model.Resolution
}

// NewCollector creates a new Collector. A nil chain means the default set.
func NewCollector(fetcher Fetcher, chain *indicator.Chain, res model.Resolution) *Collector {
	if chain == nil {
		chain = indicator.DefaultChain()
	}
	if res == "" {
		res = model.Daily
	}
	return &Collector{Fetcher: fetcher, Chain: chain, Resolution: res}
}

// Fetch downloads one ticker's bars and wraps them in a panel.
func (c *Collector) Fetch(ctx context.Context, ticker string) (*panel.Panel, error) {
	ticker = NormalizeTicker(ticker)
	bars, err := c.Fetcher.FetchBars(ctx, ticker, c.Resolution)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fetch %s: %w", ticker, ErrNoData)
	}
	return panel.FromBars(ticker, bars), nil
}

// Compute runs the indicator chain over p.
func (c *Collector) Compute(p *panel.Panel) (*panel.Panel, error) {
	out, err := c.Chain.Apply(p)
	if err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}
	return out, nil
}

// Latest returns the last row of a single-ticker panel as a snapshot.
func Latest(p *panel.Panel) (model.Snapshot, bool) {
	n := p.Len()
	if n == 0 {
		return model.Snapshot{}, false
	}
	snap := model.Snapshot{
		Ticker: p.Ticker(n - 1),
		Date:   p.Date(n - 1),
		Values: make(map[string]float64, len(p.Columns())),
	}
	for _, name := range p.Columns() {
		snap.Values[name] = p.Value(name, n-1)
	}
	return snap, true
}
