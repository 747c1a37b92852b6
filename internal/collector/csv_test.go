package collector

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VnPanel/internal/model"
	"VnPanel/internal/panel"
)

const dump = `Ticker,Date,Open,High,Low,Close,Volume
FPT,20220105,80,82,79,81,1000
hpg,2022-01-04,40,41,39,40.5,2000
FPT,20220104,79,80,78,79.5,1100
HPG,20220105,40.5,42,40,41.8,
`

func TestLoadCSV(t *testing.T) {
	p, err := LoadCSV(strings.NewReader(dump))
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	assert.Equal(t, 4, p.Len())
	assert.Equal(t, []string{"FPT", "HPG"}, p.Tickers())
	assert.Equal(t, time.Date(2022, 1, 4, 0, 0, 0, 0, time.UTC), p.Date(0))
	assert.Equal(t, 79.5, p.Value(panel.Close, 0))
	assert.Equal(t, 81.0, p.Value(panel.Close, 1))
	assert.True(t, math.IsNaN(p.Value(panel.Volume, 3)))
}

func TestLoadCSV_MissingColumn(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("Ticker,Date,Open,High,Low,Close\nFPT,20220104,1,1,1,1\n"))
	require.ErrorIs(t, err, panel.ErrInputShape)
	assert.Contains(t, err.Error(), "Volume")
}

func TestLoadCSV_BadDate(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("Ticker,Date,Open,High,Low,Close,Volume\nFPT,04/01/2022,1,1,1,1,1\n"))
	assert.Error(t, err)
}

func TestCSVFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.csv")
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o644))

	f := &CSVFetcher{Path: path}
	tickers, err := f.Tickers()
	require.NoError(t, err)
	assert.Equal(t, []string{"FPT", "HPG"}, tickers)

	bars, err := f.FetchBars(context.Background(), "fpt", model.Daily)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Date.Before(bars[1].Date))

	_, err = f.FetchBars(context.Background(), "VNM", model.Daily)
	assert.ErrorIs(t, err, ErrNoData)
}
