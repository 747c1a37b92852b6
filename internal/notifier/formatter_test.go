package notifier

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"VnPanel/internal/model"
	"VnPanel/internal/recorder"
)

var started = time.Date(2024, 5, 2, 15, 30, 0, 0, time.UTC)

func TestFormatRunReport(t *testing.T) {
	sum := &model.RunSummary{
		RunID:      "0123456789abcdef",
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Results: []model.TickerResult{
			{Ticker: "HPG"},
			{Ticker: "BAD", Err: errors.New("status 502, body: <html>")},
		},
	}
	assessments := []model.Assessment{
		{Ticker: "HPG", TotalScore: 1.5, Outlook: model.OutlookOversold,
			Factors: []model.FactorScore{{Commentary: "RSI=22"}}},
		{Ticker: "FPT", TotalScore: 0, Outlook: model.OutlookNeutral},
		{Ticker: "VNM", TotalScore: -1.6, Outlook: model.OutlookOverbought,
			Factors: []model.FactorScore{{Commentary: "RSI=85"}, {Commentary: "MFI=90"}}},
	}

	out := FormatRunReport(sum, assessments)
	assert.Contains(t, out, "2024-05-02 15:30")
	assert.Contains(t, out, "<code>01234567</code>")
	assert.Contains(t, out, "Tickers: 2 | ✅ 1 | ❌ 1 | 1.5s")
	assert.Contains(t, out, "BAD: status 502, body: &lt;html&gt;")
	assert.Contains(t, out, "HPG +1.50 OVERSOLD (RSI=22)")
	assert.Contains(t, out, "VNM -1.60 OVERBOUGHT (RSI=85, MFI=90)")
	assert.NotContains(t, out, "FPT")
}

func TestFormatRunReportNoFailures(t *testing.T) {
	sum := &model.RunSummary{RunID: "abc", StartedAt: started, FinishedAt: started,
		Results: []model.TickerResult{{Ticker: "HPG"}}}
	out := FormatRunReport(sum, nil)
	assert.NotContains(t, out, "Failed")
	assert.NotContains(t, out, "Oversold")
	assert.Contains(t, out, "<code>abc</code>")
}

func TestFormatStatus(t *testing.T) {
	assert.Equal(t, "No run recorded yet.", FormatStatus(nil))
	out := FormatStatus(&recorder.RunRecord{
		RunID: "0123456789", StartedAt: started, FinishedAt: started.Add(time.Minute),
		Tickers: 30, Succeeded: 29, Failed: 1,
	})
	assert.Contains(t, out, "2024-05-02 15:31:00")
	assert.Contains(t, out, "Tickers: 30 | ✅ 29 | ❌ 1")
}

func TestFormatLatest(t *testing.T) {
	snap := &model.Snapshot{
		Ticker: "HPG",
		Date:   started,
		Values: map[string]float64{"Close": 27.35, "Volume": 12345678, "rsi_15": math.NaN(), "macd_h": -0.126},
	}
	out := FormatLatest(snap, nil)
	assert.Contains(t, out, "<b>HPG</b> | 2024-05-02")
	assert.Contains(t, out, "Close: 27.35\n")
	assert.Contains(t, out, "Volume: 12345678\n")
	assert.Contains(t, out, "macd_h: -0.13\n")
	assert.NotContains(t, out, "rsi_15")
	assert.NotContains(t, out, "Factors")

	a := &model.Assessment{TotalScore: 0.6, Outlook: model.OutlookWeak, Factors: []model.FactorScore{
		{Name: "rsi_14", Commentary: "RSI=38", RawScore: 1, Weight: 0.3, Weighted: 0.3},
	}}
	out = FormatLatest(snap, a)
	assert.Contains(t, out, "rsi_14(RSI=38): +1.0 (×0.30) = +0.300")
	assert.Contains(t, out, "Score: +0.600 → WEAK")
}
