package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"VnPanel/internal/model"
)

var (
	// ErrNoData is returned when the vendor knows nothing about a ticker.
	ErrNoData = errors.New("no data")
	// ErrUnsupported is returned by fetchers that lack an endpoint.
	ErrUnsupported = errors.New("not supported by fetcher")
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchBars(ctx context.Context, ticker string, res model.Resolution) ([]model.OHLCV, error)
	FetchDividends(ctx context.Context, ticker string) ([]model.Dividend, error)
	FetchFinancialRatios(ctx context.Context, ticker string) ([]model.FinancialRatio, error)
	FetchStatements(ctx context.Context, ticker string, kind model.StatementKind) ([]model.FinancialStatement, error)
	Name() string
}

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// ParseResolution accepts D, W or M in any case.
func ParseResolution(s string) (model.Resolution, error) {
	switch r := model.Resolution(strings.ToUpper(strings.TrimSpace(s))); r {
	case model.Daily, model.Weekly, model.Monthly:
		return r, nil
	case "":
		return model.Daily, nil
	default:
		return "", fmt.Errorf("unknown resolution %q, want D, W or M", s)
	}
}

// newHTTPClient builds a client with optional proxy support.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
