package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"VnPanel/internal/collector"
	"VnPanel/internal/model"
	"VnPanel/internal/notifier"
	"VnPanel/internal/recorder"
	"VnPanel/internal/runner"
	"VnPanel/internal/strategy"
)

// Notifier delivers run reports.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the cron task and bot commands.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   *runner.Runner
	Tickers  []string
	Notifier Notifier // nil disables reports
	Recorder recorder.Recorder
	Ctx      context.Context

	running sync.Mutex
	wg      sync.WaitGroup
}

// NewScheduler creates a new Scheduler. Cron expressions carry a seconds
// field and are evaluated in loc.
func NewScheduler(ctx context.Context, r *runner.Runner, tickers []string, n Notifier, rec recorder.Recorder, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Runner:   r,
		Tickers:  tickers,
		Notifier: n,
		Recorder: rec,
		Ctx:      ctx,
	}
}

// RegisterAll registers the daily run.
func (s *Scheduler) RegisterAll(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a run in progress.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	log.Println("[INFO] scheduler stopped")
}

// RunNow processes the ticker list and sends the report. It returns nil
// without doing anything when another run is in progress.
func (s *Scheduler) RunNow() *model.RunSummary {
	if !s.running.TryLock() {
		log.Println("[WARN] run skipped: previous run still in progress")
		return nil
	}
	defer s.running.Unlock()
	return s.run()
}

// run does the work of RunNow; the caller holds s.running.
func (s *Scheduler) run() *model.RunSummary {
	log.Println("[INFO] running daily task")
	sum := s.Runner.Run(s.Ctx, s.Tickers)
	report := notifier.FormatRunReport(sum, strategy.Screen(sum.Snapshots()))
	s.trySend(report)
	return sum
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	switch strings.ToLower(fields[0]) {
	case "/run":
		if !s.TriggerRun() {
			return "A run is already in progress."
		}
		return fmt.Sprintf("Run started for %d tickers.", len(s.Tickers))
	case "/status":
		rec, err := s.Recorder.LastRun()
		if errors.Is(err, recorder.ErrNotFound) {
			return notifier.FormatStatus(nil)
		}
		if err != nil {
			log.Printf("[ERROR] last run: %v", err)
			return "Failed to read run history."
		}
		return notifier.FormatStatus(rec)
	case "/latest":
		if len(fields) < 2 {
			return "Usage: /latest TICKER"
		}
		ticker := collector.NormalizeTicker(fields[1])
		snap, err := s.Recorder.LatestSnapshot(ticker)
		if errors.Is(err, recorder.ErrNotFound) {
			return fmt.Sprintf("No data for %s.", ticker)
		}
		if err != nil {
			log.Printf("[ERROR] latest snapshot %s: %v", ticker, err)
			return "Failed to read indicators."
		}
		return notifier.FormatLatest(snap, strategy.Evaluate(snap))
	default:
		return notifier.HelpText
	}
}

// TriggerRun starts RunNow in the background. It reports false when a run
// is already in progress.
func (s *Scheduler) TriggerRun() bool {
	if !s.running.TryLock() {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Unlock()
		s.run()
	}()
	return true
}

// Wait blocks until runs started by commands have finished.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
