package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"VnPanel/internal/model"
	"VnPanel/internal/recorder"
)

// topN caps each side of the screener section in run reports.
const topN = 5

// LatestKeys are the snapshot columns shown by FormatLatest, in order.
var LatestKeys = []string{
	"Close", "Volume", "ma_20", "ma_50", "rsi_15", "14_day_wr",
	"mfi_14", "macd", "macd_s", "macd_h", "natr_15", "disparity_index_20",
}

// FormatRunReport formats a run summary plus screener results.
func FormatRunReport(sum *model.RunSummary, assessments []model.Assessment) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>VnPanel run</b> | %s\n\n", sum.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Run: <code>%s</code>\n", shortID(sum.RunID)))
	b.WriteString(fmt.Sprintf("Tickers: %d | ✅ %d | ❌ %d | %s\n",
		len(sum.Results), sum.Succeeded(), sum.Failed(), sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond)))

	if sum.Failed() > 0 {
		b.WriteString("\n⚠️ <b>Failed:</b>\n")
		for _, r := range sum.Results {
			if !r.OK() {
				b.WriteString(fmt.Sprintf("  %s: %s\n", r.Ticker, html.EscapeString(r.Err.Error())))
			}
		}
	}

	var low, high []model.Assessment
	for _, a := range assessments {
		switch a.Outlook {
		case model.OutlookOversold, model.OutlookWeak:
			low = append(low, a)
		case model.OutlookOverbought, model.OutlookStrong:
			high = append(high, a)
		}
	}
	if len(low) > topN {
		low = low[:topN]
	}
	// assessments are sorted high score first, so the overbought end is last
	if len(high) > topN {
		high = high[len(high)-topN:]
	}
	if len(low) > 0 {
		b.WriteString("\n📉 <b>Oversold:</b>\n")
		for _, a := range low {
			b.WriteString(assessmentLine(a))
		}
	}
	if len(high) > 0 {
		b.WriteString("\n📈 <b>Overbought:</b>\n")
		for i := len(high) - 1; i >= 0; i-- {
			b.WriteString(assessmentLine(high[i]))
		}
	}
	return b.String()
}

func assessmentLine(a model.Assessment) string {
	notes := make([]string, 0, len(a.Factors))
	for _, f := range a.Factors {
		notes = append(notes, f.Commentary)
	}
	return fmt.Sprintf("  %s %+.2f %s (%s)\n", a.Ticker, a.TotalScore, a.Outlook, strings.Join(notes, ", "))
}

// FormatStatus formats the last stored run.
func FormatStatus(rec *recorder.RunRecord) string {
	if rec == nil {
		return "No run recorded yet."
	}
	var b strings.Builder
	b.WriteString("📦 <b>Last run</b>\n\n")
	b.WriteString(fmt.Sprintf("Run: <code>%s</code>\n", shortID(rec.RunID)))
	b.WriteString(fmt.Sprintf("Started: %s\n", rec.StartedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Finished: %s\n", rec.FinishedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Tickers: %d | ✅ %d | ❌ %d\n", rec.Tickers, rec.Succeeded, rec.Failed))
	return b.String()
}

// FormatLatest formats one ticker's latest indicator row and its assessment,
// which may be nil.
func FormatLatest(snap *model.Snapshot, a *model.Assessment) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s</b> | %s\n\n", snap.Ticker, snap.Date.Format("2006-01-02")))
	for _, k := range LatestKeys {
		v, ok := snap.Values[k]
		if !ok || math.IsNaN(v) {
			continue
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", k, formatNumber(v)))
	}
	if a == nil {
		return b.String()
	}
	b.WriteString("\n<b>Factors:</b>\n")
	for _, f := range a.Factors {
		b.WriteString(fmt.Sprintf("  %s(%s): %+.1f (×%.2f) = %+.3f\n",
			f.Name, f.Commentary, f.RawScore, f.Weight, f.Weighted))
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("  Score: %+.3f → %s\n", a.TotalScore, a.Outlook))
	return b.String()
}

// HelpText lists the bot commands.
const HelpText = "Commands:\n• /run - process the ticker list now\n• /status - last run\n• /latest TICKER - latest indicators"

func formatNumber(v float64) string {
	if math.Abs(v) >= 1e6 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
