package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/options-levels/internal/analysis"
	"github.com/dgnsrekt/options-levels/internal/api"
	"github.com/dgnsrekt/options-levels/internal/batch"
	"github.com/dgnsrekt/options-levels/internal/data"
	"github.com/dgnsrekt/options-levels/internal/notify"
	"github.com/dgnsrekt/options-levels/internal/staging"
)

var errNothingAnalyzed = errors.New("no ticker could be analyzed")

// Runner performs one end-of-day run: analyze the watch list, stage the
// report (and snapshots), commit, notify.
type Runner struct {
	client    api.Client
	opts      analysis.Options
	workers   int
	maxBatch  int
	tickers   []string
	reports   *staging.Manager
	snapshots *staging.Manager // nil when not recording
	notifier  notify.Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// Run executes the run for date. The returned summary is nil when no
// batch ran.
func (r *Runner) Run(ctx context.Context, date string) (*batch.Summary, error) {
	start := r.now()
	r.logger.Info("starting levels run", zap.String("date", date), zap.Int("tickers", len(r.tickers)))

	summary, err := r.run(ctx, date)
	duration := r.now().Sub(start)

	// ctx may already be cancelled; notifications still go out
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err != nil {
		if nerr := r.notifier.SendFailure(notifyCtx, summary, date, duration, err); nerr != nil {
			r.logger.Warn("failed to send failure notification", zap.Error(nerr))
		}
		return summary, err
	}

	if nerr := r.notifier.SendSuccess(notifyCtx, summary, date, duration); nerr != nil {
		r.logger.Warn("failed to send success notification", zap.Error(nerr))
	}
	return summary, nil
}

func (r *Runner) run(ctx context.Context, date string) (*batch.Summary, error) {
	client := r.client
	var recorder *data.Recorder
	if r.snapshots != nil {
		recorder = data.NewRecorder(client)
		client = recorder
	}

	analyzer := batch.NewAnalyzer(client, r.opts, r.logger)
	manager := batch.NewManager(analyzer, r.workers, r.maxBatch, r.logger)

	entries, summary, err := manager.ExecuteAll(ctx, r.tickers)
	if err != nil {
		return nil, fmt.Errorf("running batch: %w", err)
	}
	if ctx.Err() != nil {
		return summary, ctx.Err()
	}
	if summary.Success == 0 {
		return summary, errNothingAnalyzed
	}

	stagers := []*staging.Manager{r.reports}
	if r.snapshots != nil {
		stagers = append(stagers, r.snapshots)
	}
	defer func() {
		for _, s := range stagers {
			if err := s.CleanupStaging(date); err != nil {
				r.logger.Warn("failed to cleanup staging", zap.String("date", date), zap.Error(err))
			}
		}
	}()
	for _, s := range stagers {
		// leftovers from an interrupted run
		if err := s.CleanupStaging(date); err != nil {
			return summary, fmt.Errorf("cleaning staging: %w", err)
		}
		if err := s.PrepareStaging(date); err != nil {
			return summary, fmt.Errorf("preparing staging: %w", err)
		}
	}

	report := batch.NewReport(date, entries, r.now())
	size, err := r.reports.WriteJSON(date, "levels.json", report)
	if err != nil {
		return summary, fmt.Errorf("writing report: %w", err)
	}
	r.logger.Debug("report staged", zap.Int64("bytes", size))

	if recorder != nil {
		for _, snap := range recorder.Snapshots() {
			if _, err := r.snapshots.WriteToStaging(date, snap.Ticker+".json", func(w io.Writer) error {
				return data.EncodeSnapshot(w, snap)
			}); err != nil {
				return summary, fmt.Errorf("writing snapshot %s: %w", snap.Ticker, err)
			}
		}
	}

	for _, s := range stagers {
		if err := s.CommitStaging(date); err != nil {
			return summary, fmt.Errorf("committing %s: %w", s.FinalDir(date), err)
		}
	}

	r.logger.Info("levels run complete",
		zap.String("date", date),
		zap.String("report", r.reports.FinalDir(date)),
		zap.Int("total", summary.Total),
		zap.Int("success", summary.Success),
		zap.Int("failed", summary.Failed),
	)
	for _, e := range summary.Errors {
		r.logger.Warn("ticker failed", zap.String("error", e))
	}

	return summary, nil
}
