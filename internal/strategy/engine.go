// Package strategy screens the latest indicator row of each ticker into an
// oversold/overbought outlook.
package strategy

import (
	"sort"

	"VnPanel/internal/model"
)

// Outlooks maps a normalised total score to a label, highest first.
var Outlooks = []struct {
	MinScore float64
	Outlook  model.Outlook
}{
	{1.2, model.OutlookOversold},
	{0.4, model.OutlookWeak},
	{-0.4, model.OutlookNeutral},
	{-1.2, model.OutlookStrong},
}

// DefaultOutlook is used for scores below every threshold.
const DefaultOutlook = model.OutlookOverbought

func mapOutlook(score float64) model.Outlook {
	for _, o := range Outlooks {
		if score >= o.MinScore {
			return o.Outlook
		}
	}
	return DefaultOutlook
}

// Evaluate scores every factor whose inputs are present in snap. The total
// is the weighted mean over the factors that could be scored, so a short
// history does not drag the score toward zero. It returns nil when no
// factor applies.
func Evaluate(snap *model.Snapshot) *model.Assessment {
	var (
		factors []model.FactorScore
		total   float64
		weights float64
	)
	for _, score := range scorers {
		f, ok := score(snap.Values)
		if !ok {
			continue
		}
		f.Weighted = f.RawScore * f.Weight
		factors = append(factors, f)
		total += f.Weighted
		weights += f.Weight
	}
	if len(factors) == 0 {
		return nil
	}
	total /= weights
	return &model.Assessment{
		Ticker:     snap.Ticker,
		Date:       snap.Date,
		Factors:    factors,
		TotalScore: total,
		Outlook:    mapOutlook(total),
	}
}

// Screen evaluates every snapshot and orders the results from most
// oversold to most overbought. Snapshots with nothing to score are dropped.
func Screen(snaps []model.Snapshot) []model.Assessment {
	out := make([]model.Assessment, 0, len(snaps))
	for i := range snaps {
		if a := Evaluate(&snaps[i]); a != nil {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalScore > out[j].TotalScore })
	return out
}
