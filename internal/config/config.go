package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Server   ServerConfig   `mapstructure:"server"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Data     DataConfig     `mapstructure:"data"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type UpstreamConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
	UserAgent     string `mapstructure:"user_agent"`
}

func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSec) * time.Second
}

type AnalysisConfig struct {
	MaxBatchSize int    `mapstructure:"max_batch_size"`
	Workers      int    `mapstructure:"workers"`
	Timezone     string `mapstructure:"timezone"`
}

// Location resolves the analysis timezone, falling back to UTC.
func (a AnalysisConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("upstream.base_url", "https://api.nasdaq.com/api")
	v.SetDefault("upstream.timeout_sec", 15)
	v.SetDefault("upstream.rate_per_second", 5)
	v.SetDefault("upstream.user_agent", "")
	v.SetDefault("analysis.max_batch_size", 15)
	v.SetDefault("analysis.workers", 5)
	v.SetDefault("analysis.timezone", "America/New_York")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("server.ws_enabled", true)
	v.SetDefault("server.ws_stream_interval", "30s")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", "60s")
	v.SetDefault("data.directory", "")
	v.SetDefault("data.date", "latest")
	v.SetDefault("daemon.tickers", DefaultTickers)
	v.SetDefault("daemon.schedule_hour", 16)
	v.SetDefault("daemon.schedule_minute", 30)
	v.SetDefault("daemon.timezone", "America/New_York")
	v.SetDefault("daemon.state_file", "data/.daemon-state")
	v.SetDefault("daemon.report_dir", "reports")
	v.SetDefault("daemon.run_on_startup", false)
	v.SetDefault("daemon.record_snapshots", true)
	v.SetDefault("daemon.snapshot_dir", "data")
	v.SetDefault("logging.enabled", true)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("OPTLEVELS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// PORT is what most container platforms set
	_ = v.BindEnv("server.port", "OPTLEVELS_SERVER_PORT", "PORT")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// A comma separated env value arrives as a single element.
	if len(cfg.Daemon.Tickers) == 1 {
		cfg.Daemon.Tickers = SplitSymbols(cfg.Daemon.Tickers[0])
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Upstream.TimeoutSec < 1 {
		return fmt.Errorf("upstream.timeout_sec must be >= 1")
	}
	if c.Upstream.RatePerSecond < 1 {
		return fmt.Errorf("upstream.rate_per_second must be >= 1")
	}
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be >= 1")
	}
	if c.Analysis.MaxBatchSize < 1 {
		return fmt.Errorf("analysis.max_batch_size must be >= 1")
	}
	if _, err := time.LoadLocation(c.Analysis.Timezone); err != nil {
		return fmt.Errorf("analysis.timezone: %w", err)
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when the cache is enabled")
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Daemon.Validate(); err != nil {
		return err
	}

	tickers, err := NormalizeSymbols(c.Daemon.Tickers)
	if err != nil {
		return err
	}
	c.Daemon.Tickers = tickers
	return nil
}
