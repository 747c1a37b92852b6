// Package panel holds per-ticker, per-date observations in a column-oriented
// table. A Panel is immutable: every operation that adds columns returns a
// new Panel and leaves the receiver untouched. Column slices may be shared
// between panels and must never be written to by callers.
package panel

import (
	"errors"
	"fmt"
	"math"
	"time"

	"VnPanel/internal/model"
)

// ErrInputShape reports a structurally unusable panel: a missing column,
// columns of different lengths, or dates that are not strictly increasing
// inside a ticker.
var ErrInputShape = errors.New("panel input shape")

// Base column names.
const (
	Open   = "Open"
	High   = "High"
	Low    = "Low"
	Close  = "Close"
	Volume = "Volume"
)

// BaseColumns are the price/volume columns every fetched panel carries.
var BaseColumns = []string{Open, High, Low, Close, Volume}

// Column is a named series aligned with the panel rows.
type Column struct {
	Name   string
	Values []float64
}

// Group is the set of rows sharing one ticker, in panel order.
type Group struct {
	Ticker string
	Rows   []int
}

// Panel is an ordered table of rows keyed by (Ticker, Date).
type Panel struct {
	tickers []string
	dates   []time.Time
	names   []string
	cols    map[string][]float64
	groups  []Group
}

// New creates a panel with the given row keys and no value columns.
func New(tickers []string, dates []time.Time) (*Panel, error) {
	if len(tickers) != len(dates) {
		return nil, fmt.Errorf("%w: %d tickers but %d dates", ErrInputShape, len(tickers), len(dates))
	}
	p := &Panel{
		tickers: tickers,
		dates:   dates,
		cols:    make(map[string][]float64),
	}
	p.groups = buildGroups(tickers)
	return p, nil
}

// FromBars builds a single-ticker panel with the base OHLCV columns.
func FromBars(ticker string, bars []model.OHLCV) *Panel {
	n := len(bars)
	tickers := make([]string, n)
	dates := make([]time.Time, n)
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	cls := make([]float64, n)
	vol := make([]float64, n)
	for i, b := range bars {
		tickers[i] = ticker
		dates[i] = model.CalendarDate(b.Date)
		open[i] = b.Open
		high[i] = b.High
		low[i] = b.Low
		cls[i] = b.Close
		vol[i] = b.Volume
	}
	p, _ := New(tickers, dates)
	p.names = append(p.names, BaseColumns...)
	p.cols[Open] = open
	p.cols[High] = high
	p.cols[Low] = low
	p.cols[Close] = cls
	p.cols[Volume] = vol
	return p
}

// Concat stacks panels row-wise. Columns missing from one input are
// filled with NaN for its rows. Column order follows first appearance.
func Concat(panels ...*Panel) (*Panel, error) {
	var (
		tickers []string
		dates   []time.Time
		names   []string
		seen    = make(map[string]bool)
	)
	for _, p := range panels {
		tickers = append(tickers, p.tickers...)
		dates = append(dates, p.dates...)
		for _, name := range p.names {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	out, err := New(tickers, dates)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		values := make([]float64, 0, len(tickers))
		for _, p := range panels {
			if col, ok := p.cols[name]; ok {
				values = append(values, col...)
				continue
			}
			for i := 0; i < p.Len(); i++ {
				values = append(values, math.NaN())
			}
		}
		out.names = append(out.names, name)
		out.cols[name] = values
	}
	return out, nil
}

func buildGroups(tickers []string) []Group {
	index := make(map[string]int)
	var groups []Group
	for i, t := range tickers {
		g, ok := index[t]
		if !ok {
			g = len(groups)
			index[t] = g
			groups = append(groups, Group{Ticker: t})
		}
		groups[g].Rows = append(groups[g].Rows, i)
	}
	return groups
}

// Len returns the number of rows.
func (p *Panel) Len() int { return len(p.tickers) }

// Ticker returns the ticker of row i.
func (p *Panel) Ticker(i int) string { return p.tickers[i] }

// Date returns the date of row i.
func (p *Panel) Date(i int) time.Time { return p.dates[i] }

// Groups returns the ticker partition of the panel in order of first appearance.
func (p *Panel) Groups() []Group { return p.groups }

// Tickers returns the distinct tickers in order of first appearance.
func (p *Panel) Tickers() []string {
	out := make([]string, len(p.groups))
	for i, g := range p.groups {
		out[i] = g.Ticker
	}
	return out
}

// Columns returns the value column names in insertion order.
func (p *Panel) Columns() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Has reports whether the named column exists.
func (p *Panel) Has(name string) bool {
	_, ok := p.cols[name]
	return ok
}

// Column returns the named series. The slice is shared and read-only.
func (p *Panel) Column(name string) ([]float64, error) {
	col, ok := p.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing column %q", ErrInputShape, name)
	}
	return col, nil
}

// Require checks that every named column is present.
func (p *Panel) Require(names ...string) error {
	for _, name := range names {
		if _, ok := p.cols[name]; !ok {
			return fmt.Errorf("%w: missing column %q", ErrInputShape, name)
		}
	}
	return nil
}

// Value returns column name at row i, or NaN when the column is absent.
func (p *Panel) Value(name string, i int) float64 {
	col, ok := p.cols[name]
	if !ok {
		return math.NaN()
	}
	return col[i]
}

// WithColumns returns a copy of p with the given columns appended. A column
// whose name already exists replaces the old series in place of order.
func (p *Panel) WithColumns(cols ...Column) (*Panel, error) {
	for _, c := range cols {
		if len(c.Values) != p.Len() {
			return nil, fmt.Errorf("%w: column %q has %d values, panel has %d rows",
				ErrInputShape, c.Name, len(c.Values), p.Len())
		}
	}
	out := &Panel{
		tickers: p.tickers,
		dates:   p.dates,
		names:   make([]string, len(p.names), len(p.names)+len(cols)),
		cols:    make(map[string][]float64, len(p.cols)+len(cols)),
		groups:  p.groups,
	}
	copy(out.names, p.names)
	for k, v := range p.cols {
		out.cols[k] = v
	}
	for _, c := range cols {
		if _, exists := out.cols[c.Name]; !exists {
			out.names = append(out.names, c.Name)
		}
		out.cols[c.Name] = c.Values
	}
	return out, nil
}

// Without returns a copy of p without the named columns.
func (p *Panel) Without(names ...string) *Panel {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := &Panel{
		tickers: p.tickers,
		dates:   p.dates,
		cols:    make(map[string][]float64, len(p.cols)),
		groups:  p.groups,
	}
	for _, name := range p.names {
		if drop[name] {
			continue
		}
		out.names = append(out.names, name)
		out.cols[name] = p.cols[name]
	}
	return out
}

// Slice returns the rows of one ticker as a new panel, or nil if the
// ticker is not present.
func (p *Panel) Slice(ticker string) *Panel {
	for _, g := range p.groups {
		if g.Ticker != ticker {
			continue
		}
		tickers := make([]string, len(g.Rows))
		dates := make([]time.Time, len(g.Rows))
		for j, r := range g.Rows {
			tickers[j] = p.tickers[r]
			dates[j] = p.dates[r]
		}
		out, _ := New(tickers, dates)
		for _, name := range p.names {
			src := p.cols[name]
			values := make([]float64, len(g.Rows))
			for j, r := range g.Rows {
				values[j] = src[r]
			}
			out.names = append(out.names, name)
			out.cols[name] = values
		}
		return out
	}
	return nil
}

// Validate checks the base columns exist, all series match the row count,
// and dates strictly increase inside every ticker.
func (p *Panel) Validate() error {
	for i, t := range p.tickers {
		if t == "" {
			return fmt.Errorf("%w: row %d has empty Ticker", ErrInputShape, i)
		}
	}
	if err := p.Require(BaseColumns...); err != nil {
		return err
	}
	for _, name := range p.names {
		if len(p.cols[name]) != p.Len() {
			return fmt.Errorf("%w: column %q has %d values, panel has %d rows",
				ErrInputShape, name, len(p.cols[name]), p.Len())
		}
	}
	for _, g := range p.groups {
		for j := 1; j < len(g.Rows); j++ {
			prev, cur := p.dates[g.Rows[j-1]], p.dates[g.Rows[j]]
			if !cur.After(prev) {
				return fmt.Errorf("%w: ticker %s date %s not after %s",
					ErrInputShape, g.Ticker, cur.Format("2006-01-02"), prev.Format("2006-01-02"))
			}
		}
	}
	return nil
}

// ApplyGroups runs fn over each ticker's subsequence of src and scatters the
// results back to panel order. fn never sees values from another ticker.
func (p *Panel) ApplyGroups(src []float64, fn func([]float64) ([]float64, error)) ([]float64, error) {
	if len(src) != p.Len() {
		return nil, fmt.Errorf("%w: series has %d values, panel has %d rows", ErrInputShape, len(src), p.Len())
	}
	out := make([]float64, len(src))
	for _, g := range p.groups {
		sub := make([]float64, len(g.Rows))
		for j, r := range g.Rows {
			sub[j] = src[r]
		}
		res, err := fn(sub)
		if err != nil {
			return nil, fmt.Errorf("ticker %s: %w", g.Ticker, err)
		}
		if len(res) != len(sub) {
			return nil, fmt.Errorf("%w: group %s produced %d values for %d rows", ErrInputShape, g.Ticker, len(res), len(sub))
		}
		for j, r := range g.Rows {
			out[r] = res[j]
		}
	}
	return out, nil
}
