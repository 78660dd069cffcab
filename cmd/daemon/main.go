package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/options-levels/internal/app"
	"github.com/dgnsrekt/options-levels/internal/config"
	"github.com/dgnsrekt/options-levels/internal/notify"
	"github.com/dgnsrekt/options-levels/internal/staging"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", os.Getenv("OPTLEVELS_CONFIG"), "config file path")
	verbose := flag.Bool("v", false, "verbose logging")
	once := flag.Bool("once", false, "run for today immediately and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	logger, err := app.NewLogger("daemon", *verbose, &cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	dc := cfg.Daemon
	logger.Info("daemon configuration loaded",
		zap.Int("scheduleHour", dc.ScheduleHour),
		zap.Int("scheduleMinute", dc.ScheduleMinute),
		zap.String("timezone", dc.Timezone),
		zap.String("stateFile", dc.StateFile),
		zap.String("reportDir", dc.ReportDir),
		zap.Bool("runOnStartup", dc.RunOnStartup),
		zap.Int("tickers", len(dc.Tickers)),
	)

	notifyCfg := notify.LoadConfig()
	if err := notifyCfg.Validate(); err != nil {
		logger.Error("invalid notification config", zap.Error(err))
		return 1
	}

	runner, err := newRunner(cfg, notify.New(notifyCfg, logger), logger)
	if err != nil {
		logger.Error("failed to create runner", zap.Error(err))
		return 1
	}

	loc, err := time.LoadLocation(dc.Timezone)
	if err != nil {
		logger.Error("invalid timezone", zap.Error(err))
		return 1
	}
	scheduler := NewScheduler(dc.ScheduleHour, dc.ScheduleMinute, loc)
	tracker := NewRunTracker(dc.StateFile)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		if _, err := runner.Run(ctx, scheduler.TodayDate()); err != nil {
			logger.Error("run failed", zap.Error(err))
			return 1
		}
		return 0
	}

	logger.Info("daemon started",
		zap.String("schedule", fmt.Sprintf("%02d:%02d %s", dc.ScheduleHour, dc.ScheduleMinute, dc.Timezone)),
		zap.Time("nextRun", scheduler.NextRun()),
	)

	if dc.RunOnStartup {
		logger.Info("checking for missed run on startup")
		if shouldRun(scheduler, tracker, true, logger) {
			runLevels(ctx, runner, scheduler, tracker, logger)
		}
	}

	// Main loop - check every minute
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("received shutdown signal")
			return 0

		case <-ticker.C:
			if shouldRun(scheduler, tracker, false, logger) {
				runLevels(ctx, runner, scheduler, tracker, logger)
			}
		}
	}
}

func newRunner(cfg *config.Config, notifier notify.Notifier, logger *zap.Logger) (*Runner, error) {
	src, err := app.NewSource(cfg, "", logger)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		client:   src.Client,
		opts:     app.AnalysisOptions(cfg),
		workers:  cfg.Analysis.Workers,
		maxBatch: cfg.Analysis.MaxBatchSize,
		tickers:  cfg.Daemon.Tickers,
		reports:  staging.NewManager(cfg.Daemon.ReportDir),
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}

	// Recording a replayed snapshot would only copy it.
	if cfg.Daemon.RecordSnapshots && src.Files == nil {
		r.snapshots = staging.NewManager(cfg.Daemon.SnapshotDir)
	}
	return r, nil
}

// shouldRun checks if conditions are met for triggering a run. On startup a
// run is due any time after the schedule; otherwise only at the scheduled
// minute.
func shouldRun(scheduler *Scheduler, tracker *RunTracker, startup bool, logger *zap.Logger) bool {
	today := scheduler.TodayDate()

	if tracker.AlreadyRan(today) {
		return false
	}

	if !scheduler.IsMarketDay(today) {
		logger.Debug("not a market day", zap.String("date", today))
		return false
	}

	if startup {
		if !scheduler.IsPastSchedule() {
			return false
		}
	} else if !scheduler.IsScheduledTime() {
		return false
	}

	logger.Info("run conditions met", zap.String("date", today), zap.Bool("startup", startup))
	return true
}

func runLevels(ctx context.Context, runner *Runner, scheduler *Scheduler, tracker *RunTracker, logger *zap.Logger) {
	today := scheduler.TodayDate()

	if _, err := runner.Run(ctx, today); err != nil {
		logger.Error("levels run failed", zap.Error(err), zap.String("date", today))
		return
	}

	if err := tracker.SetLastRunDate(today); err != nil {
		logger.Error("failed to update tracker", zap.Error(err))
	}

	logger.Info("next run scheduled", zap.Time("at", scheduler.NextRun()))
}
