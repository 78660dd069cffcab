// Package app holds the wiring shared by the binaries: logger setup and
// the choice of market data source.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dgnsrekt/options-levels/internal/analysis"
	"github.com/dgnsrekt/options-levels/internal/api"
	"github.com/dgnsrekt/options-levels/internal/config"
	"github.com/dgnsrekt/options-levels/internal/data"
)

// NewLogger builds a development logger when verbose, a production one
// otherwise, and tees to logs/<name>_<timestamp>.log when file logging is on.
func NewLogger(name string, verbose bool, logCfg *config.LoggingConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if verbose {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.DisableStacktrace = true
	}
	zapConfig.OutputPaths = []string{"stderr"}

	// Set log level from config
	if logCfg != nil && logCfg.Level != "" && !verbose {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(logCfg.Level)); err == nil {
			zapConfig.Level = zap.NewAtomicLevelAt(level)
		}
	}

	// Add file output if enabled
	if logCfg != nil && logCfg.Enabled {
		if err := os.MkdirAll(logCfg.Directory, 0755); err != nil {
			return nil, fmt.Errorf("creating logs directory: %w", err)
		}
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		logFile := filepath.Join(logCfg.Directory, fmt.Sprintf("%s_%s.log", name, timestamp))
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, logFile)
	}

	return zapConfig.Build()
}

// Source is the market data client a binary analyzes against.
type Source struct {
	Client api.Client

	// Files is set when serving recorded snapshots.
	Files *data.FileSource
	// Cache is set when cache.enabled is true.
	Cache *data.SnapshotCache
}

// NewSource serves recorded snapshots from dataDir when set, from the
// configured data directory when that is set, and from the live upstream
// otherwise. The result is wrapped in the snapshot cache when enabled.
func NewSource(cfg *config.Config, dataDir string, logger *zap.Logger) (*Source, error) {
	src := &Source{}

	dir := dataDir
	if dir == "" && cfg.Data.Offline() {
		resolved, err := cfg.Data.SnapshotDir()
		if err != nil {
			return nil, err
		}
		dir = resolved
	}

	if dir != "" {
		files, err := data.NewFileSource(dir, logger)
		if err != nil {
			return nil, fmt.Errorf("loading snapshots: %w", err)
		}
		src.Files = files
		src.Client = files
	} else {
		src.Client = api.NewClient(
			cfg.Upstream.BaseURL,
			cfg.Upstream.UserAgent,
			cfg.Upstream.RatePerSecond,
			cfg.Upstream.Timeout(),
			logger,
		)
	}

	if cfg.Cache.Enabled {
		src.Cache = data.NewSnapshotCache(src.Client, cfg.Cache.TTL, logger)
		src.Client = src.Cache
	}

	return src, nil
}

// AnalysisOptions returns the pipeline options for cfg.
func AnalysisOptions(cfg *config.Config) analysis.Options {
	return analysis.Options{Location: cfg.Analysis.Location()}
}
