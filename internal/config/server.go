package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

type ServerConfig struct {
	Port       string `mapstructure:"port"`
	CORSOrigin string `mapstructure:"cors_origin"`
	// WebSocket configuration
	WSEnabled        bool          `mapstructure:"ws_enabled"`
	WSStreamInterval time.Duration `mapstructure:"ws_stream_interval"`
}

func (s ServerConfig) Validate() error {
	if s.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if s.WSEnabled && s.WSStreamInterval < time.Second {
		return fmt.Errorf("server.ws_stream_interval must be at least 1s, got %s", s.WSStreamInterval)
	}
	return nil
}

// DataConfig points at recorded snapshots. An empty directory means live
// upstream data.
type DataConfig struct {
	Directory string `mapstructure:"directory"`
	Date      string `mapstructure:"date"`
}

func (d DataConfig) Offline() bool { return d.Directory != "" }

// SnapshotDir resolves the directory holding <TICKER>.json files, picking the
// newest date folder when Date is empty or "latest".
func (d DataConfig) SnapshotDir() (string, error) {
	date := d.Date
	if date == "" || date == "latest" {
		detected, err := detectLatestDate(d.Directory)
		if err != nil {
			return "", fmt.Errorf("failed to detect latest date in %s: %w", d.Directory, err)
		}
		date = detected
	}
	return filepath.Join(d.Directory, date), nil
}

type DaemonConfig struct {
	Tickers         []string `mapstructure:"tickers"`
	ScheduleHour    int      `mapstructure:"schedule_hour"`
	ScheduleMinute  int      `mapstructure:"schedule_minute"`
	Timezone        string   `mapstructure:"timezone"`
	StateFile       string   `mapstructure:"state_file"`
	ReportDir       string   `mapstructure:"report_dir"`
	RunOnStartup    bool     `mapstructure:"run_on_startup"`
	RecordSnapshots bool     `mapstructure:"record_snapshots"`
	SnapshotDir     string   `mapstructure:"snapshot_dir"`
}

func (d DaemonConfig) Validate() error {
	if d.ScheduleHour < 0 || d.ScheduleHour > 23 {
		return fmt.Errorf("daemon.schedule_hour must be 0-23, got %d", d.ScheduleHour)
	}
	if d.ScheduleMinute < 0 || d.ScheduleMinute > 59 {
		return fmt.Errorf("daemon.schedule_minute must be 0-59, got %d", d.ScheduleMinute)
	}
	if _, err := time.LoadLocation(d.Timezone); err != nil {
		return fmt.Errorf("daemon.timezone: %w", err)
	}
	return nil
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// detectLatestDate scans the data directory for date folders and returns the most recent one
func detectLatestDate(dataDir string) (string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return "", fmt.Errorf("reading data directory: %w", err)
	}

	var dates []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if datePattern.MatchString(name) {
			// Skip empty date folders
			subEntries, err := os.ReadDir(filepath.Join(dataDir, name))
			if err == nil && len(subEntries) > 0 {
				dates = append(dates, name)
			}
		}
	}

	if len(dates) == 0 {
		return "", fmt.Errorf("no date folders found in %s", dataDir)
	}

	// YYYY-MM-DD sorts lexicographically
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	return dates[0], nil
}
