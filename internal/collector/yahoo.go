package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"VnPanel/internal/model"
)

// DefaultYahooBaseURL is the Yahoo Finance chart API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements the bar part of Fetcher using the Yahoo Finance
// chart API. HOSE listings are quoted with a ".VN" suffix there.
type YahooFetcher struct {
	BaseURL string
	Suffix  string
	Client  *http.Client
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL, proxyURL string) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooFetcher{
		BaseURL: baseURL,
		Suffix:  ".VN",
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

var yahooIntervals = map[model.Resolution]string{
	model.Daily:   "1d",
	model.Weekly:  "1wk",
	model.Monthly: "1mo",
}

func (f *YahooFetcher) FetchBars(ctx context.Context, ticker string, res model.Resolution) ([]model.OHLCV, error) {
	ticker = NormalizeTicker(ticker)
	res, err := ParseResolution(string(res))
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=max",
		f.BaseURL, url.PathEscape(ticker+f.Suffix), yahooIntervals[res])

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s: status %d, body: %s", ticker, resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	at := func(s []*float64, i int) (float64, bool) {
		if i >= len(s) || s[i] == nil {
			return 0, false
		}
		return *s[i], true
	}
	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c, ok := at(quote.Close, i)
		if !ok {
			continue // holiday rows carry nulls
		}
		o, _ := at(quote.Open, i)
		h, _ := at(quote.High, i)
		l, _ := at(quote.Low, i)
		v, _ := at(quote.Volume, i)
		bars = append(bars, model.OHLCV{
			Date:   model.CalendarDate(time.Unix(ts, 0).UTC()),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func (f *YahooFetcher) FetchDividends(context.Context, string) ([]model.Dividend, error) {
	return nil, fmt.Errorf("yahoo dividends: %w", ErrUnsupported)
}

func (f *YahooFetcher) FetchFinancialRatios(context.Context, string) ([]model.FinancialRatio, error) {
	return nil, fmt.Errorf("yahoo ratios: %w", ErrUnsupported)
}

func (f *YahooFetcher) FetchStatements(context.Context, string, model.StatementKind) ([]model.FinancialStatement, error) {
	return nil, fmt.Errorf("yahoo statements: %w", ErrUnsupported)
}
