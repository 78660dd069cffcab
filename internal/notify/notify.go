package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/options-levels/internal/batch"
)

// Notifier reports the outcome of an end-of-day levels run.
type Notifier interface {
	SendSuccess(ctx context.Context, summary *batch.Summary, date string, duration time.Duration) error
	SendFailure(ctx context.Context, summary *batch.Summary, date string, duration time.Duration, err error) error
}

// Client posts notifications to an ntfy topic.
type Client struct {
	httpClient *http.Client
	config     *Config
	logger     *zap.Logger
}

var _ Notifier = (*Client)(nil)

func NewClient(cfg *Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		config:     cfg,
		logger:     logger,
	}
}

// notification is one ntfy publish.
type notification struct {
	title    string
	body     string
	tags     []string
	priority string
	click    string
}

func (c *Client) SendSuccess(ctx context.Context, summary *batch.Summary, date string, duration time.Duration) error {
	if !c.config.Enabled {
		return nil
	}

	n := notification{
		title:    "Levels Recorded: " + date,
		body:     FormatSuccessMessage(summary, duration),
		tags:     []string{"white_check_mark"},
		priority: c.config.Priority,
		click:    c.config.clickURL(date),
	}
	if summary.Failed > 0 {
		n.title = fmt.Sprintf("Levels Recorded (%d/%d): %s", summary.Success, summary.Total, date)
		n.tags = []string{"warning"}
	} else if c.config.FailuresOnly {
		c.logger.Debug("clean run, notification suppressed", zap.String("date", date))
		return nil
	}

	return c.publish(ctx, n)
}

func (c *Client) SendFailure(ctx context.Context, summary *batch.Summary, date string, duration time.Duration, err error) error {
	if !c.config.Enabled {
		return nil
	}

	return c.publish(ctx, notification{
		title:    "Levels Run Failed: " + date,
		body:     FormatFailureMessage(summary, duration, err),
		tags:     []string{"x"},
		priority: "high",
		click:    c.config.clickURL(date),
	})
}

func (c *Client) publish(ctx context.Context, n notification) error {
	endpoint := strings.TrimSuffix(c.config.Server, "/") + "/" + c.config.Topic

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(n.body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	tags := n.tags
	if c.config.Tags != "" {
		tags = append([]string{c.config.Tags}, tags...)
	}
	req.Header.Set("Title", n.title)
	req.Header.Set("Priority", n.priority)
	req.Header.Set("Tags", strings.Join(tags, ","))
	if n.click != "" {
		req.Header.Set("Click", n.click)
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("topic", c.config.Topic),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", n.title))
	return nil
}

// NoopNotifier is used when notifications are disabled.
type NoopNotifier struct{}

func (n *NoopNotifier) SendSuccess(_ context.Context, _ *batch.Summary, _ string, _ time.Duration) error {
	return nil
}

func (n *NoopNotifier) SendFailure(_ context.Context, _ *batch.Summary, _ string, _ time.Duration, _ error) error {
	return nil
}

// New returns a Client, or a NoopNotifier when disabled.
func New(cfg *Config, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return &NoopNotifier{}
	}
	return NewClient(cfg, logger)
}
