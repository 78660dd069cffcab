package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-levels/internal/api"
	"github.com/dgnsrekt/options-levels/internal/app"
	"github.com/dgnsrekt/options-levels/internal/batch"
	"github.com/dgnsrekt/options-levels/internal/config"
	"github.com/dgnsrekt/options-levels/internal/data"
)

func analyzeCmd() *cobra.Command {
	var (
		format    string
		dataDir   string
		recordDir string
		quiet     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze TICKER [TICKER...]",
		Short: "Analyze the nearest expiration of one or more tickers",
		Long: `Fetch the quote and option chain for each ticker and compute max pain,
gamma exposure levels, call/put walls, the volume profile, the biggest
open interest strikes and the expected range for the nearest expiration.

Examples:
  # Single ticker, table output
  optlevels analyze TSLA

  # Several tickers as JSON
  optlevels analyze --format json SPY QQQ IWM

  # Replay recorded snapshots (DIR/<TICKER>.json)
  optlevels analyze --data-dir data/2024-01-12 SPY

  # Save what was fetched for later replay
  optlevels analyze --record data/manual SPY QQQ`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q (use table or json)", format)
			}

			symbols, err := config.NormalizeSymbols(args)
			if err != nil {
				return err
			}

			src, err := app.NewSource(cfg, dataDir, logger)
			if err != nil {
				return err
			}

			var client api.Client = src.Client
			var recorder *data.Recorder
			if recordDir != "" {
				recorder = data.NewRecorder(client)
				client = recorder
			}

			analyzer := batch.NewAnalyzer(client, app.AnalysisOptions(cfg), logger)
			manager := batch.NewManager(analyzer, cfg.Analysis.Workers, cfg.Analysis.MaxBatchSize, logger)

			if err := manager.Validate(symbols); err != nil {
				return err
			}

			var bar *progressbar.ProgressBar
			if !quiet && len(symbols) > 1 {
				bar = newProgressBar(len(symbols))
				manager.OnProgress(func(done, total int, e batch.Entry) {
					_ = bar.Set(done)
				})
			}

			entries, summary, err := manager.Execute(ctx, symbols)
			if err != nil {
				return err
			}
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(os.Stderr)
			}

			if recorder != nil {
				if err := writeSnapshots(recordDir, recorder.Snapshots()); err != nil {
					return err
				}
			}

			if format == "json" {
				if err := outputJSON(entries); err != nil {
					return err
				}
			} else {
				outputTable(entries)
			}

			logger.Debug("analyze complete",
				zap.Int("total", summary.Total),
				zap.Int("success", summary.Success),
				zap.Int("failed", summary.Failed),
			)

			if summary.Success == 0 {
				return fmt.Errorf("all %d tickers failed", summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table or json")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "read snapshots from DIR/<TICKER>.json instead of the upstream")
	cmd.Flags().StringVar(&recordDir, "record", "", "write fetched snapshots to DIR/<TICKER>.json")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")

	return cmd
}

func outputJSON(entries []batch.Entry) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if len(entries) == 1 {
		return enc.Encode(entries[0])
	}
	return enc.Encode(map[string]any{"results": entries})
}

func writeSnapshots(dir string, snaps []*data.Snapshot) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating record directory: %w", err)
	}
	for _, snap := range snaps {
		path := filepath.Join(dir, snap.Ticker+".json")
		if err := data.WriteSnapshot(path, snap); err != nil {
			return err
		}
		logger.Info("snapshot recorded", zap.String("path", path), zap.Int("contracts", len(snap.Contracts)))
	}
	return nil
}
