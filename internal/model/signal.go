package model

import "time"

// Snapshot is the last computed row of one ticker.
type Snapshot struct {
	RunID  string
	Ticker string
	Date   time.Time
	Values map[string]float64
}

// FactorScore holds one scored reading from a snapshot.
type FactorScore struct {
	Name       string
	Value      float64
	RawScore   float64 // -2 (overbought) .. +2 (oversold)
	Weight     float64
	Weighted   float64
	Commentary string
}

// Outlook is the screener's verdict for a ticker.
type Outlook string

const (
	OutlookOversold   Outlook = "OVERSOLD"
	OutlookWeak       Outlook = "WEAK"
	OutlookNeutral    Outlook = "NEUTRAL"
	OutlookStrong     Outlook = "STRONG"
	OutlookOverbought Outlook = "OVERBOUGHT"
)

// Assessment is the screener output for one snapshot.
type Assessment struct {
	Ticker     string
	Date       time.Time
	Factors    []FactorScore
	TotalScore float64
	Outlook    Outlook
}
