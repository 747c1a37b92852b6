package indicator

import (
	"math"
	"testing"
	"time"

	talib "github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VnPanel/internal/model"
	"VnPanel/internal/panel"
)

var nan = math.NaN()

func day(n int) time.Time {
	return time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// closesPanel builds a one-ticker panel with a one point band around each close.
func closesPanel(ticker string, closes ...float64) *panel.Panel {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Date: day(i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return panel.FromBars(ticker, bars)
}

// wavePanel builds n rows of a deterministic, non-trivial price path.
func wavePanel(ticker string, n int, phase float64) *panel.Panel {
	bars := make([]model.OHLCV, n)
	for i := range bars {
		x := float64(i) + phase
		c := 100 + 10*math.Sin(x/5) + 0.1*x
		bars[i] = model.OHLCV{
			Date:   day(i),
			Open:   c - 0.2*math.Cos(x),
			High:   c + 1 + 0.5*math.Abs(math.Cos(x)),
			Low:    c - 1 - 0.3*math.Abs(math.Sin(x)),
			Close:  c,
			Volume: 1000 + 37*float64(i%11),
		}
	}
	return panel.FromBars(ticker, bars)
}

func mustConcat(t *testing.T, panels ...*panel.Panel) *panel.Panel {
	t.Helper()
	p, err := panel.Concat(panels...)
	require.NoError(t, err)
	return p
}

func column(t *testing.T, p *panel.Panel, name string) []float64 {
	t.Helper()
	col, err := p.Column(name)
	require.NoError(t, err)
	return col
}

// assertSeries compares two series treating NaN as equal to NaN.
func assertSeries(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.Truef(t, math.IsNaN(got[i]), "index %d: want NaN, got %v", i, got[i])
			continue
		}
		assert.InDeltaf(t, want[i], got[i], 1e-9, "index %d", i)
	}
}

// talibEma runs talib's recursive EMA over x[start:] and realigns it to x,
// NaN before the first full window. The result starts at start+n-1.
func talibEma(x []float64, n, start int) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = nan
	}
	e := talib.Ema(x[start:], n)
	for i := n - 1; i < len(e); i++ {
		out[start+i] = e[i]
	}
	return out
}

// settled is where recursive and adjusted EWMs of the long test series agree.
const settled = 500
