package app

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/dgnsrekt/options-levels/internal/api"
	"github.com/dgnsrekt/options-levels/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func writeSnapshot(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	body := `{"quote":{"currentPrice":100},"contracts":[]}`
	if err := os.WriteFile(filepath.Join(dir, "SPY.json"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNewSource_Live(t *testing.T) {
	cfg := testConfig(t)

	src, err := NewSource(cfg, "", zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := src.Client.(*api.HTTPClient); !ok {
		t.Errorf("expected HTTP client, got %T", src.Client)
	}
	if src.Files != nil || src.Cache != nil {
		t.Errorf("unexpected offline/cache parts: %+v", src)
	}
}

func TestNewSource_DataDirFlag(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = true

	dir := t.TempDir()
	writeSnapshot(t, dir)

	src, err := NewSource(cfg, dir, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Files == nil || src.Cache == nil {
		t.Fatalf("expected file source behind cache, got %+v", src)
	}
	if src.Client != api.Client(src.Cache) {
		t.Errorf("expected the cache to front the source")
	}
}

func TestNewSource_ConfiguredDataDirectory(t *testing.T) {
	cfg := testConfig(t)
	root := t.TempDir()
	writeSnapshot(t, filepath.Join(root, "2024-01-12"))
	cfg.Data = config.DataConfig{Directory: root, Date: "latest"}

	src, err := NewSource(cfg, "", zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Files == nil || src.Files.Dir() != filepath.Join(root, "2024-01-12") {
		t.Errorf("expected latest date directory, got %+v", src.Files)
	}
}

func TestNewSource_EmptyDataDir(t *testing.T) {
	if _, err := NewSource(testConfig(t), t.TempDir(), zap.NewNop()); err == nil {
		t.Error("expected error for a directory without snapshots")
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger, err := NewLogger("test", false, &config.LoggingConfig{Enabled: true, Directory: dir, Level: "warn"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Warn("hello")
	_ = logger.Sync()

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one log file, got %v / %v", entries, err)
	}
	if logger.Core().Enabled(zap.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
}
