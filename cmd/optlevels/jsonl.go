package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-levels/internal/batch"
)

func jsonlCmd() *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "jsonl YYYY-MM-DD",
		Short: "Convert a daily levels report to JSONL",
		Long: `Convert the daemon's report_dir/<date>/levels.json into levels.jsonl,
one result or error entry per line, for loading into other tools.

Examples:
  optlevels jsonl 2024-01-12
  optlevels jsonl --keep 2024-01-12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(cfg.Daemon.ReportDir, args[0], "levels.json")
			return convertReport(path, keep)
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", true, "keep the original levels.json")

	return cmd
}

func convertReport(jsonPath string, keep bool) error {
	jsonlPath := strings.TrimSuffix(jsonPath, ".json") + ".jsonl"

	// Skip if JSONL already exists
	if _, err := os.Stat(jsonlPath); err == nil {
		logger.Info("skipping, JSONL exists", zap.String("file", jsonlPath))
		return nil
	}

	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}

	tmpPath := jsonlPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	n, err := batch.WriteJSONL(out, raw)
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, jsonlPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming output file: %w", err)
	}

	if !keep {
		if err := os.Remove(jsonPath); err != nil {
			logger.Warn("failed to delete original", zap.String("file", jsonPath), zap.Error(err))
		}
	}

	logger.Info("conversion complete", zap.String("file", jsonlPath), zap.Int("lines", n))
	return nil
}
