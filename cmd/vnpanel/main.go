package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"VnPanel/internal/config"
	"VnPanel/internal/httpapi"
	"VnPanel/internal/notifier"
	"VnPanel/internal/scheduler"
	"VnPanel/internal/strategy"
)

const usage = `usage: vnpanel [-config path] <command>

commands:
  run     process the ticker list once and exit
  serve   run on the cron schedule with Telegram commands and the HTTP API
`

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	cfgPath := flag.String("config", defaultPath, "config file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd != "run" && cmd != "serve" {
		flag.Usage()
		os.Exit(2)
	}

	log.Printf("[INFO] VnPanel %s starting...", cmd)
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	defer app.Close()

	if cmd == "run" {
		runOnce(ctx, app)
		return
	}
	serve(ctx, app)
}

func runOnce(ctx context.Context, app *App) {
	sum := app.Runner.Run(ctx, app.Config.Tickers)
	report := notifier.FormatRunReport(sum, strategy.Screen(sum.Snapshots()))
	if app.Notifier != nil {
		if err := app.Notifier.SendWithRetry(ctx, report, 3); err != nil {
			log.Printf("[ERROR] send report: %v", err)
		}
	}
	log.Printf("[INFO] run %s: %d ok, %d failed", sum.RunID, sum.Succeeded(), sum.Failed())
	if sum.Succeeded() == 0 && len(sum.Results) > 0 {
		app.Close()
		os.Exit(1)
	}
}

func serve(ctx context.Context, app *App) {
	loc, _ := app.Config.Location()
	var n scheduler.Notifier
	if app.Notifier != nil {
		n = app.Notifier
	}
	sched := scheduler.NewScheduler(ctx, app.Runner, app.Config.Tickers, n, app.Recorder, loc)
	if err := sched.RegisterAll(app.Config.Schedule.DailyCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if app.Notifier != nil {
		go app.Notifier.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	api := &httpapi.Server{Recorder: app.Recorder, Metrics: app.Metrics, Trigger: sched.TriggerRun}
	srv := &http.Server{
		Addr:              app.Config.Server.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[INFO] HTTP API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] http server: %v", err)
		}
	}()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing run now")
		sched.TriggerRun()
	}

	log.Println("[INFO] VnPanel is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	log.Println("[INFO] VnPanel stopped")
}
