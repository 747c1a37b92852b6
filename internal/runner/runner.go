// Package runner processes a ticker list: fetch, indicators, export and
// persistence, with a bounded number of tickers in flight.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"VnPanel/internal/collector"
	"VnPanel/internal/exporter"
	"VnPanel/internal/metrics"
	"VnPanel/internal/model"
	"VnPanel/internal/panel"
	"VnPanel/internal/recorder"
)

// DefaultWorkers is used when Workers is not positive.
const DefaultWorkers = 4

// Runner wires a Collector to its sinks. Exporter and Metrics may be nil.
type Runner struct {
	Collector    *collector.Collector
	Exporter     *exporter.Exporter
	Recorder     recorder.Recorder
	Metrics      *metrics.Metrics
	Workers      int
	Fundamentals bool
	XLSX         string // workbook name under the export dir, empty to skip
	Now          func() time.Time
}

// New creates a Runner with a no-op recorder.
func New(col *collector.Collector, exp *exporter.Exporter) *Runner {
	return &Runner{
		Collector: col,
		Exporter:  exp,
		Recorder:  &recorder.NoopRecorder{},
		Workers:   DefaultWorkers,
	}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run processes tickers and returns one result per ticker in input order.
// A failing ticker is reported in its result and never stops the others;
// only ctx cancellation cuts the run short.
func (r *Runner) Run(ctx context.Context, tickers []string) *model.RunSummary {
	sum := &model.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: r.now(),
		Results:   make([]model.TickerResult, len(tickers)),
	}
	log.Printf("[INFO] run %s: %d tickers via %s", sum.RunID, len(tickers), r.Collector.Fetcher.Name())

	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	panels := make([]*panel.Panel, len(tickers))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, ticker := range tickers {
		g.Go(func() error {
			res, p := r.processTicker(ctx, sum.RunID, ticker)
			sum.Results[i] = res
			panels[i] = p
			return nil
		})
	}
	_ = g.Wait()

	if r.XLSX != "" && r.Exporter != nil {
		r.writeWorkbook(sum.RunID, panels)
	}

	sum.FinishedAt = r.now()
	if err := r.Recorder.RecordRun(sum); err != nil {
		log.Printf("[ERROR] run %s: record run: %v", sum.RunID, err)
	}
	r.Metrics.RunFinished(sum.FinishedAt, sum.Failed())
	log.Printf("[INFO] run %s finished: %d ok, %d failed in %s",
		sum.RunID, sum.Succeeded(), sum.Failed(), sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond))
	return sum
}

func (r *Runner) processTicker(ctx context.Context, runID, ticker string) (model.TickerResult, *panel.Panel) {
	ticker = collector.NormalizeTicker(ticker)
	res := model.TickerResult{Ticker: ticker}
	start := time.Now()

	out, err := r.compute(ctx, ticker)
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		r.Metrics.ObserveTicker(false, 0)
		log.Printf("[ERROR] run %s: %s: %v", runID, ticker, err)
		return res, nil
	}
	res.Rows = out.Len()
	res.Columns = len(out.Columns())

	if r.Exporter != nil {
		paths, err := r.Exporter.WriteCSV(out)
		if err != nil {
			res.Err = err
			res.Duration = time.Since(start)
			r.Metrics.ObserveTicker(false, 0)
			log.Printf("[ERROR] run %s: %s: %v", runID, ticker, err)
			return res, nil
		}
		if len(paths) > 0 {
			res.ExportPath = paths[0]
		}
	}

	if snap, ok := collector.Latest(out); ok {
		snap.RunID = runID
		res.Latest = snap.Values
		res.LatestDate = snap.Date
		if err := r.Recorder.RecordSnapshot(&snap); err != nil {
			log.Printf("[WARN] run %s: %s: record snapshot: %v", runID, ticker, err)
		}
	}

	if r.Fundamentals {
		r.collectFundamentals(ctx, runID, ticker)
	}

	r.Metrics.ObserveTicker(true, res.Rows)
	res.Duration = time.Since(start)
	return res, out
}

func (r *Runner) compute(ctx context.Context, ticker string) (*panel.Panel, error) {
	t0 := time.Now()
	p, err := r.Collector.Fetch(ctx, ticker)
	r.Metrics.ObserveFetch(time.Since(t0))
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	t1 := time.Now()
	out, err := r.Collector.Compute(p)
	r.Metrics.ObserveIndicators(time.Since(t1))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// collectFundamentals is best effort: a vendor without fundamentals is
// skipped quietly and any other failure is only logged.
func (r *Runner) collectFundamentals(ctx context.Context, runID, ticker string) {
	f := r.Collector.Fetcher
	divs, err := f.FetchDividends(ctx, ticker)
	if fundamentalOK(runID, ticker, "dividends", err) {
		if err := r.Recorder.RecordDividends(ticker, divs); err != nil {
			log.Printf("[WARN] run %s: %s: record dividends: %v", runID, ticker, err)
		}
	}

	ratios, err := f.FetchFinancialRatios(ctx, ticker)
	if fundamentalOK(runID, ticker, "financial ratios", err) {
		if err := r.Recorder.RecordFinancialRatios(ticker, ratios); err != nil {
			log.Printf("[WARN] run %s: %s: record ratios: %v", runID, ticker, err)
		}
	}

	for _, kind := range model.StatementKinds {
		stmts, err := f.FetchStatements(ctx, ticker, kind)
		if !fundamentalOK(runID, ticker, string(kind), err) {
			continue
		}
		if err := r.Recorder.RecordStatements(ticker, stmts); err != nil {
			log.Printf("[WARN] run %s: %s: record %s: %v", runID, ticker, kind, err)
		}
	}
}

func fundamentalOK(runID, ticker, what string, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, collector.ErrUnsupported), errors.Is(err, collector.ErrNoData):
	default:
		log.Printf("[WARN] run %s: %s: %s: %v", runID, ticker, what, err)
	}
	return false
}

func (r *Runner) writeWorkbook(runID string, panels []*panel.Panel) {
	var ok []*panel.Panel
	for _, p := range panels {
		if p != nil {
			ok = append(ok, p)
		}
	}
	if len(ok) == 0 {
		return
	}
	joint, err := panel.Concat(ok...)
	if err != nil {
		log.Printf("[ERROR] run %s: merge workbook panels: %v", runID, err)
		return
	}
	path, err := r.Exporter.WriteXLSX(r.XLSX, joint)
	if err != nil {
		log.Printf("[ERROR] run %s: write workbook: %v", runID, err)
		return
	}
	log.Printf("[INFO] run %s: workbook %s", runID, path)
}
