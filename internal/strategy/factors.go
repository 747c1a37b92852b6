package strategy

import (
	"fmt"
	"math"

	"VnPanel/internal/model"
)

type scorer func(values map[string]float64) (model.FactorScore, bool)

var scorers = []scorer{
	scoreRSI,
	scoreWilliamsR,
	scoreMFI,
	scoreDisparity,
	scoreBands,
}

// first returns the first present, finite value among keys.
func first(values map[string]float64, keys ...string) (string, float64, bool) {
	for _, k := range keys {
		if v, ok := values[k]; ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return k, v, true
		}
	}
	return "", 0, false
}

// scoreRSI uses the shortest common RSI lookback available.
// Weight: 0.30
func scoreRSI(values map[string]float64) (model.FactorScore, bool) {
	name, rsi, ok := first(values, "rsi_14", "rsi_15", "rsi_10", "rsi_20", "rsi_25")
	if !ok {
		return model.FactorScore{}, false
	}
	var score float64
	switch {
	case rsi <= 25:
		score = 2.0
	case rsi <= 30:
		score = 1.5
	case rsi <= 40:
		score = 1.0
	case rsi <= 45:
		score = 0.5
	case rsi <= 55:
		score = 0
	case rsi <= 60:
		score = -0.5
	case rsi <= 70:
		score = -1.0
	case rsi <= 80:
		score = -1.5
	default:
		score = -2.0
	}
	return model.FactorScore{
		Name:       name,
		Value:      rsi,
		RawScore:   score,
		Weight:     0.30,
		Commentary: fmt.Sprintf("RSI=%.0f", rsi),
	}, true
}

// scoreWilliamsR reads %R on its -100..0 scale.
// Weight: 0.20
func scoreWilliamsR(values map[string]float64) (model.FactorScore, bool) {
	name, wr, ok := first(values, "14_day_wr", "15_day_wr", "10_day_wr", "20_day_wr")
	if !ok {
		return model.FactorScore{}, false
	}
	var score float64
	switch {
	case wr <= -90:
		score = 2.0
	case wr <= -80:
		score = 1.0
	case wr >= -10:
		score = -2.0
	case wr >= -20:
		score = -1.0
	}
	return model.FactorScore{
		Name:       name,
		Value:      wr,
		RawScore:   score,
		Weight:     0.20,
		Commentary: fmt.Sprintf("%%R=%.0f", wr),
	}, true
}

// scoreMFI treats money flow like a volume-weighted RSI.
// Weight: 0.20
func scoreMFI(values map[string]float64) (model.FactorScore, bool) {
	name, mfi, ok := first(values, "mfi_14", "mfi_10", "mfi_20")
	if !ok {
		return model.FactorScore{}, false
	}
	var score float64
	switch {
	case mfi <= 20:
		score = 1.5
	case mfi <= 30:
		score = 0.5
	case mfi >= 80:
		score = -1.5
	case mfi >= 70:
		score = -0.5
	}
	return model.FactorScore{
		Name:       name,
		Value:      mfi,
		RawScore:   score,
		Weight:     0.20,
		Commentary: fmt.Sprintf("MFI=%.0f", mfi),
	}, true
}

// scoreDisparity scores the distance of Close from its 20-day mean.
// Weight: 0.20
func scoreDisparity(values map[string]float64) (model.FactorScore, bool) {
	name, dev, ok := first(values, "disparity_index_20", "disparity_index_50", "disparity_index_10")
	if !ok {
		return model.FactorScore{}, false
	}
	var score float64
	switch {
	case dev <= -20:
		score = 2.0
	case dev <= -10:
		score = 1.5
	case dev <= -5:
		score = 1.0
	case dev <= 0:
		score = 0.5
	case dev <= 5:
		score = 0
	case dev <= 10:
		score = -0.5
	case dev <= 15:
		score = -1.0
	case dev <= 20:
		score = -1.5
	default:
		score = -2.0
	}
	return model.FactorScore{
		Name:       name,
		Value:      dev,
		RawScore:   score,
		Weight:     0.20,
		Commentary: fmt.Sprintf("disparity %+.1f%%", dev),
	}, true
}

// scoreBands checks Close against the 20-day Bollinger band.
// Weight: 0.10
func scoreBands(values map[string]float64) (model.FactorScore, bool) {
	_, cls, ok1 := first(values, "Close")
	_, upper, ok2 := first(values, "upper_b20")
	_, lower, ok3 := first(values, "lower_b20")
	if !ok1 || !ok2 || !ok3 {
		return model.FactorScore{}, false
	}
	f := model.FactorScore{Name: "bbands_20", Value: cls, Weight: 0.10, Commentary: "inside band"}
	switch {
	case cls < lower:
		f.RawScore = 1.5
		f.Commentary = fmt.Sprintf("below %.2f", lower)
	case cls > upper:
		f.RawScore = -1.5
		f.Commentary = fmt.Sprintf("above %.2f", upper)
	}
	return f, true
}
