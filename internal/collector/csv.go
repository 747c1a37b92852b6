package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"VnPanel/internal/model"
	"VnPanel/internal/panel"
)

var csvColumns = []string{"Ticker", "Date", "Open", "High", "Low", "Close", "Volume"}

// ReadBars parses a merged exchange dump with header
// Ticker,Date,Open,High,Low,Close,Volume (extra columns are ignored) and
// returns each ticker's bars sorted by date. Empty numeric cells become NaN.
func ReadBars(r io.Reader) (map[string][]model.OHLCV, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty csv", panel.ErrInputShape)
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	pos := make([]int, len(csvColumns))
	for i, name := range csvColumns {
		j, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("%w: csv has no %q column", panel.ErrInputShape, name)
		}
		pos[i] = j
	}

	out := make(map[string][]model.OHLCV)
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		ticker := NormalizeTicker(rec[pos[0]])
		date, err := parseCSVDate(rec[pos[1]])
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		var vals [5]float64
		for k := range vals {
			vals[k], err = parseCell(rec[pos[k+2]])
			if err != nil {
				return nil, fmt.Errorf("csv line %d column %s: %w", line, csvColumns[k+2], err)
			}
		}
		out[ticker] = append(out[ticker], model.OHLCV{
			Date: date, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4],
		})
	}
	for _, bars := range out {
		sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	}
	return out, nil
}

// LoadCSV reads a dump into one panel ordered by (Ticker, Date).
func LoadCSV(r io.Reader) (*panel.Panel, error) {
	byTicker, err := ReadBars(r)
	if err != nil {
		return nil, err
	}
	tickers := make([]string, 0, len(byTicker))
	for t := range byTicker {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	parts := make([]*panel.Panel, len(tickers))
	for i, t := range tickers {
		parts[i] = panel.FromBars(t, byTicker[t])
	}
	if len(parts) == 0 {
		return panel.FromBars("", nil), nil
	}
	return panel.Concat(parts...)
}

// LoadCSVFile is LoadCSV on a file path.
func LoadCSVFile(path string) (*panel.Panel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// CSVFetcher serves bars from a local exchange dump, read once on first use.
type CSVFetcher struct {
	Path string

	once sync.Once
	bars map[string][]model.OHLCV
	err  error
}

func (f *CSVFetcher) Name() string { return "csv" }

func (f *CSVFetcher) load() {
	file, err := os.Open(f.Path)
	if err != nil {
		f.err = fmt.Errorf("open csv: %w", err)
		return
	}
	defer file.Close()
	f.bars, f.err = ReadBars(file)
}

func (f *CSVFetcher) FetchBars(_ context.Context, ticker string, res model.Resolution) ([]model.OHLCV, error) {
	f.once.Do(f.load)
	if f.err != nil {
		return nil, f.err
	}
	bars, ok := f.bars[NormalizeTicker(ticker)]
	if !ok {
		return nil, fmt.Errorf("csv %s: %w", ticker, ErrNoData)
	}
	return Resample(bars, res), nil
}

// Tickers lists every ticker in the dump, sorted.
func (f *CSVFetcher) Tickers() ([]string, error) {
	f.once.Do(f.load)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, 0, len(f.bars))
	for t := range f.bars {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func (f *CSVFetcher) FetchDividends(context.Context, string) ([]model.Dividend, error) {
	return nil, fmt.Errorf("csv dividends: %w", ErrUnsupported)
}

func (f *CSVFetcher) FetchFinancialRatios(context.Context, string) ([]model.FinancialRatio, error) {
	return nil, fmt.Errorf("csv ratios: %w", ErrUnsupported)
}

func (f *CSVFetcher) FetchStatements(context.Context, string, model.StatementKind) ([]model.FinancialStatement, error) {
	return nil, fmt.Errorf("csv statements: %w", ErrUnsupported)
}

func parseCSVDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
