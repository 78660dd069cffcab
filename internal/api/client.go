package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/options-levels/internal/market"
)

const (
	DefaultBaseURL   = "https://api.nasdaq.com/api"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxBodyBytes = 16 << 20
)

// Client interface for testability
type Client interface {
	GetQuote(ctx context.Context, ticker string) (*market.Quote, error)
	GetOptionChain(ctx context.Context, ticker string) (*market.Chain, error)
}

var _ Client = (*HTTPClient)(nil)

type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	logger     *zap.Logger
	now        func() time.Time
}

func NewClient(baseURL, userAgent string, ratePerSec int, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:       100,
		MaxConnsPerHost:    10,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: false,
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if ratePerSec <= 0 {
		ratePerSec = 1
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		logger:    logger,
		now:       time.Now,
	}
}

func (c *HTTPClient) GetQuote(ctx context.Context, ticker string) (*market.Quote, error) {
	endpoint := fmt.Sprintf("%s/quote/%s/info?assetclass=stocks", c.baseURL, url.PathEscape(ticker))

	var env envelope[quoteData]
	if err := c.getJSON(ctx, endpoint, &env); err != nil {
		return nil, fmt.Errorf("fetching quote for %s: %w", ticker, err)
	}

	quote, ok := env.Data.toQuote()
	if !ok {
		if msg := env.Status.message(); msg != "" {
			return nil, fmt.Errorf("%w for %s: %s", ErrNoQuoteData, ticker, msg)
		}
		return nil, fmt.Errorf("%w for %s", ErrNoQuoteData, ticker)
	}
	return quote, nil
}

func (c *HTTPClient) GetOptionChain(ctx context.Context, ticker string) (*market.Chain, error) {
	q := url.Values{}
	q.Set("assetclass", "stocks")
	q.Set("limit", "1000")
	q.Set("fromdate", "all")
	q.Set("todate", "all")
	q.Set("money", "all")
	q.Set("type", "all")
	endpoint := fmt.Sprintf("%s/quote/%s/option-chain?%s", c.baseURL, url.PathEscape(ticker), q.Encode())

	var env envelope[chainData]
	if err := c.getJSON(ctx, endpoint, &env); err != nil {
		return nil, fmt.Errorf("fetching option chain for %s: %w", ticker, err)
	}

	chain := &market.Chain{Ticker: ticker, FetchedAt: c.now()}
	if env.Data == nil {
		c.logger.Debug("option chain has no data",
			zap.String("ticker", ticker),
			zap.String("status", env.Status.message()))
		return chain, nil
	}

	chain.Contracts = env.Data.toContracts()
	c.logger.Debug("option chain fetched",
		zap.String("ticker", ticker),
		zap.Int("contracts", len(chain.Contracts)))
	return chain, nil
}

// getJSON performs one rate-limited GET. Transport failures and non-2xx
// statuses come back wrapped in ErrUpstreamUnavailable.
func (c *HTTPClient) getJSON(ctx context.Context, endpoint string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	c.logger.Debug("requesting", zap.String("url", endpoint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Origin", "https://www.nasdaq.com")
	req.Header.Set("Referer", "https://www.nasdaq.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}
