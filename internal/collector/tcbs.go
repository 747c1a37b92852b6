package collector

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"VnPanel/internal/model"
)

// DefaultTCBSBaseURL is the public TCBS API host.
const DefaultTCBSBaseURL = "https://apipubaws.tcbs.com.vn"

// maxDividendPages stops pagination against a misbehaving server.
const maxDividendPages = 50

// TCBSFetcher implements Fetcher using the TCBS public REST API.
type TCBSFetcher struct {
	BaseURL  string
	Client   *http.Client
	Limiter  *rate.Limiter
	PageSize int
	Now      func() time.Time
}

// NewTCBSFetcher creates a fetcher with optional proxy support. rps caps the
// request rate shared by every caller of this fetcher; zero disables it.
func NewTCBSFetcher(baseURL, proxyURL string, rps float64) *TCBSFetcher {
	if baseURL == "" {
		baseURL = DefaultTCBSBaseURL
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &TCBSFetcher{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Client:   newHTTPClient(proxyURL),
		Limiter:  rate.NewLimiter(limit, 1),
		PageSize: 40,
		Now:      time.Now,
	}
}

func (f *TCBSFetcher) Name() string { return "tcbs" }

// FetchBars returns the full bar history of ticker at the given resolution,
// oldest first.
func (f *TCBSFetcher) FetchBars(ctx context.Context, ticker string, res model.Resolution) ([]model.OHLCV, error) {
	ticker = NormalizeTicker(ticker)
	res, err := ParseResolution(string(res))
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/stock-insight/v1/stock/bars-long-term?ticker=%s&type=stock&resolution=%s&from=0&to=%d",
		f.BaseURL, url.QueryEscape(ticker), res, f.Now().Unix())
	body, err := f.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch bars %s: %w", ticker, err)
	}

	data := gjson.GetBytes(body, "data").Array()
	if len(data) == 0 {
		return nil, fmt.Errorf("fetch bars %s: %w", ticker, ErrNoData)
	}
	bars := make([]model.OHLCV, 0, len(data))
	for _, item := range data {
		date, err := parseTradingDate(item.Get("tradingDate").String())
		if err != nil {
			log.Printf("[WARN] %s: skip bar with bad date: %v", ticker, err)
			continue
		}
		bars = append(bars, model.OHLCV{
			Date:   date,
			Open:   number(item.Get("open")),
			High:   number(item.Get("high")),
			Low:    number(item.Get("low")),
			Close:  number(item.Get("close")),
			Volume: number(item.Get("volume")),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// FetchDividends walks the paginated dividend history until a short page.
func (f *TCBSFetcher) FetchDividends(ctx context.Context, ticker string) ([]model.Dividend, error) {
	ticker = NormalizeTicker(ticker)
	size := f.PageSize
	if size <= 0 {
		size = 40
	}
	var out []model.Dividend
	for page := 0; page < maxDividendPages; page++ {
		endpoint := fmt.Sprintf("%s/tcanalysis/v1/company/%s/dividend-payment-histories?page=%d&size=%d",
			f.BaseURL, url.PathEscape(ticker), page, size)
		body, err := f.get(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("fetch dividends %s: %w", ticker, err)
		}
		items := gjson.GetBytes(body, "listDividendPaymentHis").Array()
		for _, item := range items {
			d := model.Dividend{
				Ticker:                 ticker,
				CashYear:               int(item.Get("cashYear").Int()),
				CashDividendPercentage: number(item.Get("cashDividendPercentage")) * 100,
				IssueMethod:            item.Get("issueMethod").String(),
			}
			if t, err := parseExerciseDate(item.Get("exerciseDate").String()); err == nil {
				d.ExerciseDate = t
			}
			out = append(out, d)
		}
		if len(items) < size {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("fetch dividends %s: %w", ticker, ErrNoData)
	}
	return out, nil
}

// FetchFinancialRatios returns quarterly ratios, keeping every numeric field.
func (f *TCBSFetcher) FetchFinancialRatios(ctx context.Context, ticker string) ([]model.FinancialRatio, error) {
	ticker = NormalizeTicker(ticker)
	rows, err := f.fetchPeriods(ctx, ticker, "financialratio")
	if err != nil {
		return nil, fmt.Errorf("fetch ratios %s: %w", ticker, err)
	}
	out := make([]model.FinancialRatio, len(rows))
	for i, p := range rows {
		out[i] = model.FinancialRatio{Ticker: ticker, Year: p.year, Quarter: p.quarter, Values: p.values}
	}
	return out, nil
}

// FetchStatements returns the quarterly income statement, balance sheet or
// cash flow statement.
func (f *TCBSFetcher) FetchStatements(ctx context.Context, ticker string, kind model.StatementKind) ([]model.FinancialStatement, error) {
	ticker = NormalizeTicker(ticker)
	switch kind {
	case model.IncomeStatement, model.BalanceSheet, model.CashFlow:
	default:
		return nil, fmt.Errorf("fetch statement %s: unknown kind %q", ticker, kind)
	}
	rows, err := f.fetchPeriods(ctx, ticker, string(kind))
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", kind, ticker, err)
	}
	out := make([]model.FinancialStatement, len(rows))
	for i, p := range rows {
		out[i] = model.FinancialStatement{Ticker: ticker, Kind: kind, Year: p.year, Quarter: p.quarter, Values: p.values}
	}
	return out, nil
}

type periodRow struct {
	year    int
	quarter int
	values  map[string]float64
}

// fetchPeriods reads a tcanalysis finance endpoint: a top-level array with
// one object per quarter.
func (f *TCBSFetcher) fetchPeriods(ctx context.Context, ticker, resource string) ([]periodRow, error) {
	endpoint := fmt.Sprintf("%s/tcanalysis/v1/finance/%s/%s?yearly=0&isAll=true",
		f.BaseURL, url.PathEscape(ticker), resource)
	body, err := f.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	parsed := gjson.ParseBytes(body)
	rows := parsed.Array()
	if !parsed.IsArray() || len(rows) == 0 {
		return nil, ErrNoData
	}
	out := make([]periodRow, 0, len(rows))
	for _, row := range rows {
		p := periodRow{
			year:    int(row.Get("year").Int()),
			quarter: int(row.Get("quarter").Int()),
			values:  make(map[string]float64),
		}
		row.ForEach(func(key, value gjson.Result) bool {
			switch key.String() {
			case "ticker", "year", "quarter":
			default:
				if value.Type == gjson.Number {
					p.values[key.String()] = value.Float()
				}
			}
			return true
		})
		out = append(out, p)
	}
	return out, nil
}

// get waits for the limiter and returns the body of a 200 response.
func (f *TCBSFetcher) get(ctx context.Context, endpoint string) ([]byte, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	// Unknown tickers come back as {"message":"Bad Request"}.
	if gjson.GetBytes(body, "message").String() == "Bad Request" {
		return nil, ErrNoData
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// number maps JSON null or a missing field to NaN.
func number(r gjson.Result) float64 {
	if r.Type != gjson.Number {
		return math.NaN()
	}
	return r.Float()
}

func parseTradingDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return model.CalendarDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised trading date %q", s)
}

func parseExerciseDate(s string) (time.Time, error) {
	for _, layout := range []string{"02/01/06", "02/01/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised exercise date %q", s)
}
