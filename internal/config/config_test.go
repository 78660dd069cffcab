package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected defaults to load, got error: %v", err)
	}

	if cfg.Upstream.BaseURL != "https://api.nasdaq.com/api" {
		t.Errorf("expected default base URL, got '%s'", cfg.Upstream.BaseURL)
	}
	if cfg.Analysis.MaxBatchSize != 15 {
		t.Errorf("expected max batch size 15, got %d", cfg.Analysis.MaxBatchSize)
	}
	if cfg.Analysis.Workers != 5 {
		t.Errorf("expected 5 workers by default, got %d", cfg.Analysis.Workers)
	}
	if cfg.Server.WSStreamInterval != 30*time.Second {
		t.Errorf("expected 30s stream interval, got %s", cfg.Server.WSStreamInterval)
	}
	if cfg.Cache.Enabled || cfg.Cache.TTL != time.Minute {
		t.Errorf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if cfg.Data.Offline() {
		t.Error("expected live upstream by default")
	}
	if len(cfg.Daemon.Tickers) != len(DefaultTickers) {
		t.Errorf("expected default daemon tickers, got %v", cfg.Daemon.Tickers)
	}
	if cfg.Analysis.Location().String() != "America/New_York" {
		t.Errorf("unexpected analysis location %s", cfg.Analysis.Location())
	}
	if !cfg.Daemon.RecordSnapshots || cfg.Daemon.SnapshotDir != "data" {
		t.Errorf("unexpected snapshot defaults: %v %q", cfg.Daemon.RecordSnapshots, cfg.Daemon.SnapshotDir)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OPTLEVELS_ANALYSIS_WORKERS", "9")
	t.Setenv("OPTLEVELS_CACHE_ENABLED", "true")
	t.Setenv("PORT", "9999")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Analysis.Workers != 9 {
		t.Errorf("expected 9 workers from env, got %d", cfg.Analysis.Workers)
	}
	if !cfg.Cache.Enabled {
		t.Error("expected cache enabled from env")
	}
	if cfg.Server.Port != "9999" {
		t.Errorf("expected port from PORT, got %s", cfg.Server.Port)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
upstream:
  rate_per_second: 2
analysis:
  max_batch_size: 10
daemon:
  tickers: [" tsla", "aapl", "TSLA"]
  schedule_hour: 17
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Upstream.RatePerSecond != 2 || cfg.Analysis.MaxBatchSize != 10 {
		t.Errorf("file values not applied: %+v %+v", cfg.Upstream, cfg.Analysis)
	}
	if strings.Join(cfg.Daemon.Tickers, ",") != "TSLA,AAPL" {
		t.Errorf("expected normalized tickers, got %v", cfg.Daemon.Tickers)
	}
	if cfg.Daemon.ScheduleHour != 17 || cfg.Daemon.ScheduleMinute != 30 {
		t.Errorf("unexpected schedule %d:%d", cfg.Daemon.ScheduleHour, cfg.Daemon.ScheduleMinute)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"zero workers", map[string]string{"OPTLEVELS_ANALYSIS_WORKERS": "0"}},
		{"bad timezone", map[string]string{"OPTLEVELS_DAEMON_TIMEZONE": "Mars/Olympus"}},
		{"bad hour", map[string]string{"OPTLEVELS_DAEMON_SCHEDULE_HOUR": "24"}},
		{"fast stream", map[string]string{"OPTLEVELS_SERVER_WS_STREAM_INTERVAL": "10ms"}},
		{"bad ticker", map[string]string{"OPTLEVELS_DAEMON_TICKERS": "TSLA,NOT-A-TICKER"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSnapshotDir(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"2024-01-10", "2024-01-12", "2024-01-15", "scratch"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	// 2024-01-15 stays empty and is skipped
	for _, d := range []string{"2024-01-10", "2024-01-12", "scratch"} {
		if err := os.WriteFile(filepath.Join(root, d, "SPY.json"), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	dir, err := DataConfig{Directory: root, Date: "latest"}.SnapshotDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != filepath.Join(root, "2024-01-12") {
		t.Errorf("expected newest non-empty date, got %s", dir)
	}

	dir, err = DataConfig{Directory: root, Date: "2024-01-10"}.SnapshotDir()
	if err != nil || dir != filepath.Join(root, "2024-01-10") {
		t.Errorf("expected pinned date, got %s / %v", dir, err)
	}

	if _, err := (DataConfig{Directory: t.TempDir()}).SnapshotDir(); err == nil {
		t.Error("expected error for directory without dates")
	}
}
