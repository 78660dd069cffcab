package notify

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
)

var priorities = []string{"min", "low", "default", "high", "urgent"}

// Config holds ntfy settings, read from NTFY_* environment variables.
type Config struct {
	Enabled  bool
	Server   string
	Topic    string
	Priority string
	Tags     string // comma separated emoji shortcodes
	Token    string // bearer token for private topics

	// FailuresOnly suppresses notifications for runs where every ticker
	// succeeded. Partial runs and failures are always sent.
	FailuresOnly bool
	// ClickURL is opened when the notification is tapped. "{date}" is
	// replaced with the run date.
	ClickURL string
}

func LoadConfig() *Config {
	return &Config{
		Enabled:      envBool("NTFY_ENABLED", false),
		Server:       envString("NTFY_SERVER", "https://ntfy.sh"),
		Topic:        os.Getenv("NTFY_TOPIC"),
		Priority:     envString("NTFY_PRIORITY", "default"),
		Tags:         envString("NTFY_TAGS", "chart_with_upwards_trend"),
		Token:        os.Getenv("NTFY_TOKEN"),
		FailuresOnly: envBool("NTFY_FAILURES_ONLY", false),
		ClickURL:     os.Getenv("NTFY_CLICK_URL"),
	}
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Topic == "" {
		return errors.New("NTFY_TOPIC is required when NTFY_ENABLED=true")
	}
	if !validURL(c.Server) {
		return fmt.Errorf("invalid NTFY_SERVER: %q", c.Server)
	}
	if c.ClickURL != "" && !validURL(strings.ReplaceAll(c.ClickURL, "{date}", "2006-01-02")) {
		return fmt.Errorf("invalid NTFY_CLICK_URL: %q", c.ClickURL)
	}
	if !slices.Contains(priorities, c.Priority) {
		return fmt.Errorf("invalid NTFY_PRIORITY: %s (valid: %s)", c.Priority, strings.Join(priorities, ", "))
	}
	return nil
}

// clickURL expands ClickURL for date.
func (c *Config) clickURL(date string) string {
	return strings.ReplaceAll(c.ClickURL, "{date}", date)
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}
