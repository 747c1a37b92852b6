package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VnPanel/internal/model"
)

func snapshot(ticker string, values map[string]float64) *model.Snapshot {
	return &model.Snapshot{
		Ticker: ticker,
		Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Values: values,
	}
}

func TestEvaluate_ExtremeOversold(t *testing.T) {
	a := Evaluate(snapshot("HPG", map[string]float64{
		"rsi_14":             20,
		"14_day_wr":          -95,
		"mfi_14":             15,
		"disparity_index_20": -25,
		"Close":              9,
		"upper_b20":          12,
		"lower_b20":          10,
	}))
	require.NotNil(t, a)
	assert.Len(t, a.Factors, 5)
	assert.InDelta(t, 1.85, a.TotalScore, 1e-9)
	assert.Equal(t, model.OutlookOversold, a.Outlook)
	assert.Equal(t, "HPG", a.Ticker)
}

func TestEvaluate_ExtremeOverbought(t *testing.T) {
	a := Evaluate(snapshot("VNM", map[string]float64{
		"rsi_14":             85,
		"14_day_wr":          -5,
		"mfi_14":             90,
		"disparity_index_20": 30,
		"Close":              15,
		"upper_b20":          12,
		"lower_b20":          10,
	}))
	require.NotNil(t, a)
	assert.InDelta(t, -1.85, a.TotalScore, 1e-9)
	assert.Equal(t, model.OutlookOverbought, a.Outlook)
}

func TestEvaluate_PartialFactorsAreNormalised(t *testing.T) {
	a := Evaluate(snapshot("FPT", map[string]float64{"rsi_14": 28}))
	require.NotNil(t, a)
	require.Len(t, a.Factors, 1)
	assert.InDelta(t, 1.5, a.TotalScore, 1e-9)
	assert.InDelta(t, 0.45, a.Factors[0].Weighted, 1e-9)
	assert.Equal(t, model.OutlookOversold, a.Outlook)
}

func TestEvaluate_FallsBackToOtherLookback(t *testing.T) {
	a := Evaluate(snapshot("FPT", map[string]float64{
		"rsi_14": math.NaN(),
		"rsi_15": 50,
	}))
	require.NotNil(t, a)
	assert.Equal(t, "rsi_15", a.Factors[0].Name)
	assert.Equal(t, model.OutlookNeutral, a.Outlook)
}

func TestEvaluate_NothingToScore(t *testing.T) {
	assert.Nil(t, Evaluate(snapshot("NEW", map[string]float64{"Close": 10})))
	assert.Nil(t, Evaluate(snapshot("NEW", nil)))
}

func TestMapOutlook(t *testing.T) {
	cases := []struct {
		score float64
		want  model.Outlook
	}{
		{2, model.OutlookOversold},
		{1.2, model.OutlookOversold},
		{0.5, model.OutlookWeak},
		{0, model.OutlookNeutral},
		{-0.5, model.OutlookStrong},
		{-1.3, model.OutlookOverbought},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, mapOutlook(c.score), "score %.2f", c.score)
	}
}

func TestScreen_OrdersMostOversoldFirst(t *testing.T) {
	out := Screen([]model.Snapshot{
		*snapshot("A", map[string]float64{"rsi_14": 75}),
		*snapshot("B", map[string]float64{"rsi_14": 22}),
		*snapshot("C", map[string]float64{"Close": 1}),
		*snapshot("D", map[string]float64{"rsi_14": 50}),
	})
	require.Len(t, out, 3)
	assert.Equal(t, "B", out[0].Ticker)
	assert.Equal(t, "D", out[1].Ticker)
	assert.Equal(t, "A", out[2].Ticker)
}
