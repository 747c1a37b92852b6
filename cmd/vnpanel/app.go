package main

import (
	"fmt"
	"log"

	"VnPanel/internal/collector"
	"VnPanel/internal/config"
	"VnPanel/internal/exporter"
	"VnPanel/internal/indicator"
	"VnPanel/internal/metrics"
	"VnPanel/internal/notifier"
	"VnPanel/internal/recorder"
	"VnPanel/internal/runner"
)

// App is the wired set of components shared by both commands.
type App struct {
	Config   *config.Config
	Runner   *runner.Runner
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
	Notifier *notifier.TelegramNotifier // nil when Telegram is not configured
}

func newApp(cfg *config.Config) (*App, error) {
	fetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// "ALL" with the csv vendor means every ticker in the dump.
	if csv, ok := fetcher.(*collector.CSVFetcher); ok && len(cfg.Tickers) == 1 && cfg.Tickers[0] == "ALL" {
		tickers, err := csv.Tickers()
		if err != nil {
			return nil, fmt.Errorf("list csv tickers: %w", err)
		}
		cfg.Tickers = tickers
	}

	chain, err := indicator.NewChain(cfg.Steps())
	if err != nil {
		return nil, fmt.Errorf("build indicator chain: %w", err)
	}
	res, err := collector.ParseResolution(cfg.Resolution)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Recorder: newRecorder(cfg.Database.SQLitePath),
		Metrics:  metrics.NewMetrics(),
	}
	r := runner.New(collector.NewCollector(fetcher, chain, res), exporter.New(cfg.Export.Dir))
	r.Recorder = app.Recorder
	r.Metrics = app.Metrics
	r.Workers = cfg.Workers
	r.Fundamentals = cfg.Fundamentals
	r.XLSX = cfg.Export.XLSX
	app.Runner = r

	if cfg.TelegramEnabled() {
		app.Notifier = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	} else {
		log.Println("[WARN] Telegram not configured, reports are only logged")
	}
	return app, nil
}

func newFetcher(cfg *config.Config) (collector.Fetcher, error) {
	switch cfg.Vendor.Name {
	case "tcbs":
		return collector.NewTCBSFetcher(cfg.Vendor.BaseURL, cfg.Proxy, cfg.Vendor.RateLimit), nil
	case "yahoo":
		return collector.NewYahooFetcher(cfg.Vendor.BaseURL, cfg.Proxy), nil
	case "csv":
		return &collector.CSVFetcher{Path: cfg.Vendor.CSVPath}, nil
	case "mock":
		return &collector.MockFetcher{}, nil
	}
	return nil, fmt.Errorf("unknown vendor %q", cfg.Vendor.Name)
}

func newRecorder(path string) recorder.Recorder {
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

// Close releases the recorder.
func (a *App) Close() {
	if err := a.Recorder.Close(); err != nil {
		log.Printf("[WARN] close recorder: %v", err)
	}
}
