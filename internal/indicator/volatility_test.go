package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VnPanel/internal/calculator"
)

func TestBollingerBands_Ordering(t *testing.T) {
	p := mustConcat(t, wavePanel("A", 70, 0), wavePanel("B", 45, 3))
	out, err := BollingerBands(p)
	require.NoError(t, err)
	assert.Len(t, out.Columns(), len(p.Columns())+9)

	for _, n := range []string{"10", "20", "30"} {
		ma := column(t, out, "ma_"+n)
		upper := column(t, out, "upper_b"+n)
		lower := column(t, out, "lower_b"+n)
		for i := range ma {
			if math.IsNaN(upper[i]) {
				continue
			}
			assert.LessOrEqualf(t, lower[i], ma[i], "lookback %s index %d", n, i)
			assert.LessOrEqualf(t, ma[i], upper[i], "lookback %s index %d", n, i)
		}
	}
}

func TestBollingerBands_Values(t *testing.T) {
	out, err := BollingerBands(closesPanel("A", 1, 2, 3), 2)
	require.NoError(t, err)
	s := 1 / math.Sqrt2
	assertSeries(t, []float64{1, 1.5, 2.5}, column(t, out, "ma_2"))
	assertSeries(t, []float64{nan, 1.5 + s, 2.5 + s}, column(t, out, "upper_b2"))
	assertSeries(t, []float64{nan, 1.5 - s, 2.5 - s}, column(t, out, "lower_b2"))
}

func TestBollingerBands_BadLookback(t *testing.T) {
	_, err := BollingerBands(closesPanel("A", 1, 2), 10, -1)
	assert.ErrorIs(t, err, calculator.ErrParameter)
}
