package model

import "time"

// Resolution is the bar interval offered by the vendor.
type Resolution string

const (
	Daily   Resolution = "D"
	Weekly  Resolution = "W"
	Monthly Resolution = "M"
)

// OHLCV represents a single bar for one ticker.
// Date is a calendar date stored as midnight UTC.
type OHLCV struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceHistory holds the raw bars returned for one ticker.
type PriceHistory struct {
	Ticker     string
	Resolution Resolution
	Bars       []OHLCV
	FetchedAt  time.Time
}

// CalendarDate truncates t to its calendar date in UTC, dropping any zone.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
