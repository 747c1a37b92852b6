package model

import "time"

// TickerResult is the outcome of processing one ticker in a run.
type TickerResult struct {
	Ticker     string
	Rows       int
	Columns    int
	ExportPath string
	Latest     map[string]float64 // last row's indicator values
	LatestDate time.Time
	Err        error
	Duration   time.Duration
}

// OK reports whether the ticker was processed without error.
func (r *TickerResult) OK() bool { return r.Err == nil }

// RunSummary aggregates one pass over the ticker list.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []TickerResult
}

// Succeeded returns the number of tickers processed without error.
func (s *RunSummary) Succeeded() int {
	n := 0
	for i := range s.Results {
		if s.Results[i].OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of tickers that ended with an error.
func (s *RunSummary) Failed() int {
	return len(s.Results) - s.Succeeded()
}

// Snapshots returns the latest row of every successful ticker.
func (s *RunSummary) Snapshots() []Snapshot {
	out := make([]Snapshot, 0, len(s.Results))
	for i := range s.Results {
		r := &s.Results[i]
		if !r.OK() || r.Latest == nil {
			continue
		}
		out = append(out, Snapshot{RunID: s.RunID, Ticker: r.Ticker, Date: r.LatestDate, Values: r.Latest})
	}
	return out
}
