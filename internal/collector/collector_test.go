package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VnPanel/internal/indicator"
	"VnPanel/internal/model"
)

func TestResample_Weekly(t *testing.T) {
	// Mon 2022-01-03 .. Tue 2022-01-11
	var daily []model.OHLCV
	for i := 0; i < 9; i++ {
		daily = append(daily, model.OHLCV{
			Date: time.Date(2022, 1, 3+i, 0, 0, 0, 0, time.UTC),
			Open: float64(10 + i), High: float64(11 + i), Low: float64(9 + i), Close: float64(10 + i), Volume: 1,
		})
	}
	weekly := Resample(daily, model.Weekly)
	require.Len(t, weekly, 2)
	assert.Equal(t, model.OHLCV{Date: daily[0].Date, Open: 10, High: 17, Low: 9, Close: 16, Volume: 7}, weekly[0])
	assert.Equal(t, model.OHLCV{Date: daily[7].Date, Open: 17, High: 19, Low: 16, Close: 18, Volume: 2}, weekly[1])

	assert.Len(t, Resample(daily, model.Monthly), 1)
	assert.Equal(t, daily, Resample(daily, model.Daily))
}

func TestCollector_FetchCompute(t *testing.T) {
	chain, err := indicator.NewChain(indicator.Expand("rsi", []int{14}, nil))
	require.NoError(t, err)
	c := NewCollector(&MockFetcher{Days: 60}, chain, model.Daily)

	raw, err := c.Fetch(context.Background(), "hpg")
	require.NoError(t, err)
	p, err := c.Compute(raw)
	require.NoError(t, err)
	assert.Equal(t, 60, p.Len())
	assert.Equal(t, []string{"HPG"}, p.Tickers())
	assert.True(t, p.Has("rsi_14"))

	snap, ok := Latest(p)
	require.True(t, ok)
	assert.Equal(t, "HPG", snap.Ticker)
	assert.Equal(t, p.Date(59), snap.Date)
	assert.Contains(t, snap.Values, "rsi_14")
}

func TestCollector_FetchError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCollector(&MockFetcher{Errors: map[string]error{"VNM": boom}}, nil, "")
	_, err := c.Fetch(context.Background(), "VNM")
	assert.ErrorIs(t, err, boom)

	c.Fetcher = &MockFetcher{Bars: map[string][]model.OHLCV{"VNM": {}}}
	_, err = c.Fetch(context.Background(), "VNM")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestMockFetcher_Weekly(t *testing.T) {
	m := &MockFetcher{Days: 28}
	bars, err := m.FetchBars(context.Background(), "FPT", model.Weekly)
	require.NoError(t, err)
	assert.True(t, len(bars) >= 4 && len(bars) <= 5, "got %d weekly bars", len(bars))
}
