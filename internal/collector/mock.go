package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"VnPanel/internal/model"
)

var mockStart = time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	Days      int
	Bars      map[string][]model.OHLCV
	Errors    map[string]error
	Dividends map[string][]model.Dividend
	Ratios    map[string][]model.FinancialRatio
	Statements map[string][]model.FinancialStatement
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, ticker string, res model.Resolution) ([]model.OHLCV, error) {
	ticker = NormalizeTicker(ticker)
	if err := m.Errors[ticker]; err != nil {
		return nil, err
	}
	daily, ok := m.Bars[ticker]
	if !ok {
		days := m.Days
		if days <= 0 {
			days = 250
		}
		price := m.Price
		if price <= 0 {
			price = 25
		}
		daily = generateMockBars(price, days)
	}
	if len(daily) == 0 {
		return nil, fmt.Errorf("mock %s: %w", ticker, ErrNoData)
	}
	return Resample(daily, res), nil
}

func (m *MockFetcher) FetchDividends(_ context.Context, ticker string) ([]model.Dividend, error) {
	if d, ok := m.Dividends[NormalizeTicker(ticker)]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("mock dividends %s: %w", ticker, ErrNoData)
}

func (m *MockFetcher) FetchFinancialRatios(_ context.Context, ticker string) ([]model.FinancialRatio, error) {
	if r, ok := m.Ratios[NormalizeTicker(ticker)]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("mock ratios %s: %w", ticker, ErrNoData)
}

// FetchStatements returns the ticker's statements of the given kind.
func (m *MockFetcher) FetchStatements(_ context.Context, ticker string, kind model.StatementKind) ([]model.FinancialStatement, error) {
	var out []model.FinancialStatement
	for _, s := range m.Statements[NormalizeTicker(ticker)] {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("mock %s %s: %w", kind, ticker, ErrNoData)
	}
	return out, nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.05*math.Sin(float64(i)/9) + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Date:   mockStart.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000 + float64(i%7)*25000,
		}
	}
	return bars
}

// Resample folds daily bars into ISO-week or calendar-month bars. Each output
// bar is dated by its first session. Daily input is returned as is.
func Resample(daily []model.OHLCV, res model.Resolution) []model.OHLCV {
	var key func(time.Time) int
	switch res {
	case model.Weekly:
		key = func(t time.Time) int {
			y, w := t.ISOWeek()
			return y*100 + w
		}
	case model.Monthly:
		key = func(t time.Time) int { return t.Year()*100 + int(t.Month()) }
	default:
		return daily
	}
	if len(daily) == 0 {
		return nil
	}

	var out []model.OHLCV
	cur := daily[0]
	curKey := key(cur.Date)
	for _, d := range daily[1:] {
		if k := key(d.Date); k != curKey {
			out = append(out, cur)
			cur, curKey = d, k
			continue
		}
		if d.High > cur.High {
			cur.High = d.High
		}
		if d.Low < cur.Low {
			cur.Low = d.Low
		}
		cur.Close = d.Close
		cur.Volume += d.Volume
	}
	return append(out, cur)
}
