package recorder

import (
	"errors"
	"time"

	"VnPanel/internal/model"
)

// ErrNotFound is returned when nothing has been recorded for a key yet.
var ErrNotFound = errors.New("not recorded")

// RunRecord is the stored header of one run.
type RunRecord struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Tickers    int
	Succeeded  int
	Failed     int
}

// Recorder persists run history and the latest indicator row per ticker.
type Recorder interface {
	RecordRun(sum *model.RunSummary) error
	RecordSnapshot(snap *model.Snapshot) error
	RecordDividends(ticker string, divs []model.Dividend) error
	RecordFinancialRatios(ticker string, ratios []model.FinancialRatio) error
	RecordStatements(ticker string, stmts []model.FinancialStatement) error
	LatestSnapshot(ticker string) (*model.Snapshot, error)
	LastRun() (*RunRecord, error)
	Close() error
}
