package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VnPanel/internal/collector"
	"VnPanel/internal/exporter"
	"VnPanel/internal/metrics"
	"VnPanel/internal/model"
	"VnPanel/internal/recorder"
)

// spyRecorder keeps everything in memory.
type spyRecorder struct {
	recorder.NoopRecorder
	mu        sync.Mutex
	runs      []*model.RunSummary
	snapshots map[string]model.Snapshot
	dividends map[string][]model.Dividend
	ratios    map[string][]model.FinancialRatio
	stmts     map[string][]model.FinancialStatement
}

func newSpy() *spyRecorder {
	return &spyRecorder{
		snapshots: make(map[string]model.Snapshot),
		dividends: make(map[string][]model.Dividend),
		ratios:    make(map[string][]model.FinancialRatio),
		stmts:     make(map[string][]model.FinancialStatement),
	}
}

func (s *spyRecorder) RecordRun(sum *model.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, sum)
	return nil
}

func (s *spyRecorder) RecordSnapshot(snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.Ticker] = *snap
	return nil
}

func (s *spyRecorder) RecordDividends(ticker string, divs []model.Dividend) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dividends[ticker] = divs
	return nil
}

func (s *spyRecorder) RecordFinancialRatios(ticker string, ratios []model.FinancialRatio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratios[ticker] = ratios
	return nil
}

func (s *spyRecorder) RecordStatements(ticker string, stmts []model.FinancialStatement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stmts[ticker] = append(s.stmts[ticker], stmts...)
	return nil
}

func newTestRunner(t *testing.T, fetcher collector.Fetcher) (*Runner, *spyRecorder) {
	t.Helper()
	spy := newSpy()
	r := New(collector.NewCollector(fetcher, nil, model.Daily), exporter.New(t.TempDir()))
	r.Recorder = spy
	r.Metrics = metrics.NewMetrics()
	r.Workers = 2
	return r, spy
}

func TestRunIsolatesFailures(t *testing.T) {
	mock := &collector.MockFetcher{
		Days:   120,
		Errors: map[string]error{"BAD": errors.New("vendor down")},
	}
	r, spy := newTestRunner(t, mock)

	sum := r.Run(context.Background(), []string{"HPG", "bad", "vnm"})

	require.Len(t, sum.Results, 3)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 2, sum.Succeeded())
	assert.Equal(t, 1, sum.Failed())

	assert.Equal(t, "HPG", sum.Results[0].Ticker)
	assert.Equal(t, "BAD", sum.Results[1].Ticker)
	assert.Equal(t, "VNM", sum.Results[2].Ticker)
	assert.ErrorContains(t, sum.Results[1].Err, "vendor down")

	hpg := sum.Results[0]
	assert.Equal(t, 120, hpg.Rows)
	assert.Greater(t, hpg.Columns, 5)
	assert.FileExists(t, hpg.ExportPath)
	assert.Equal(t, "HPG.csv", filepath.Base(hpg.ExportPath))
	assert.Contains(t, hpg.Latest, "rsi_15")

	require.Len(t, spy.runs, 1)
	assert.Equal(t, sum.RunID, spy.runs[0].RunID)
	assert.Equal(t, sum.RunID, spy.snapshots["VNM"].RunID)
	assert.NotContains(t, spy.snapshots, "BAD")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Metrics.TickersTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.TickersTotal.WithLabelValues("error")))
	assert.Equal(t, 240.0, testutil.ToFloat64(r.Metrics.RowsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.LastRunFailures))
}

func TestRunSnapshots(t *testing.T) {
	r, _ := newTestRunner(t, &collector.MockFetcher{
		Days:   60,
		Errors: map[string]error{"BAD": errors.New("boom")},
	})
	sum := r.Run(context.Background(), []string{"FPT", "BAD"})

	snaps := sum.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, "FPT", snaps[0].Ticker)
	assert.Equal(t, sum.RunID, snaps[0].RunID)
}

func TestRunFundamentals(t *testing.T) {
	mock := &collector.MockFetcher{
		Days: 40,
		Dividends: map[string][]model.Dividend{
			"HPG": {{Ticker: "HPG", ExerciseDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), CashYear: 2022, CashDividendPercentage: 5, IssueMethod: "cash"}},
		},
		Ratios: map[string][]model.FinancialRatio{
			"HPG": {{Ticker: "HPG", Year: 2023, Quarter: 4, Values: map[string]float64{"roe": 0.12}}},
		},
		Statements: map[string][]model.FinancialStatement{
			"HPG": {
				{Ticker: "HPG", Kind: model.IncomeStatement, Year: 2023, Quarter: 4, Values: map[string]float64{"revenue": 34000}},
				{Ticker: "HPG", Kind: model.CashFlow, Year: 2023, Quarter: 4, Values: map[string]float64{"fromSale": 5100}},
			},
		},
	}
	r, spy := newTestRunner(t, mock)
	r.Fundamentals = true

	sum := r.Run(context.Background(), []string{"HPG", "VNM"})

	assert.Equal(t, 0, sum.Failed())
	assert.Len(t, spy.dividends["HPG"], 1)
	assert.Len(t, spy.ratios["HPG"], 1)
	assert.NotContains(t, spy.dividends, "VNM")

	kinds := map[model.StatementKind]bool{}
	for _, st := range spy.stmts["HPG"] {
		kinds[st.Kind] = true
	}
	assert.Equal(t, map[model.StatementKind]bool{model.IncomeStatement: true, model.CashFlow: true}, kinds)
	assert.NotContains(t, spy.stmts, "VNM")
}

func TestRunWritesWorkbook(t *testing.T) {
	r, _ := newTestRunner(t, &collector.MockFetcher{Days: 30})
	r.XLSX = "panel.xlsx"

	r.Run(context.Background(), []string{"HPG", "FPT"})

	_, err := os.Stat(filepath.Join(r.Exporter.Dir, "panel.xlsx"))
	assert.NoError(t, err)
}

func TestRunCanceledContext(t *testing.T) {
	r, _ := newTestRunner(t, collector.NewTCBSFetcher("http://127.0.0.1:1", "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum := r.Run(ctx, []string{"HPG"})
	assert.Equal(t, 1, sum.Failed())
}

func TestRunWithSQLite(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "vnpanel.db"))
	require.NoError(t, err)
	defer rec.Close()

	r := New(collector.NewCollector(&collector.MockFetcher{Days: 50}, nil, model.Weekly), nil)
	r.Recorder = rec
	fixed := time.Date(2024, 5, 2, 15, 0, 0, 0, time.UTC)
	r.Now = func() time.Time { return fixed }

	sum := r.Run(context.Background(), []string{"MWG"})
	require.Equal(t, 1, sum.Succeeded())
	assert.Empty(t, sum.Results[0].ExportPath)

	last, err := rec.LastRun()
	require.NoError(t, err)
	assert.Equal(t, sum.RunID, last.RunID)
	assert.Equal(t, 1, last.Succeeded)

	snap, err := rec.LatestSnapshot("MWG")
	require.NoError(t, err)
	assert.Equal(t, sum.Results[0].LatestDate, snap.Date)
}
