package data

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dgnsrekt/options-levels/internal/api"
	"github.com/dgnsrekt/options-levels/internal/market"
)

const (
	kindQuote = "quote"
	kindChain = "chain"
)

type cacheEntry struct {
	value   any
	expires time.Time
}

// SnapshotCache sits in front of an api.Client and reuses upstream
// responses within one TTL bucket. Concurrent misses for the same key
// share a single upstream call. Errors are never cached.
type SnapshotCache struct {
	next   api.Client
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group

	hits   int64
	misses int64
}

var _ api.Client = (*SnapshotCache)(nil)

func NewSnapshotCache(next api.Client, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SnapshotCache{
		next:    next,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// CacheKey builds the ticker/kind/bucket key. Snapshots taken in the same
// TTL bucket share a key.
func CacheKey(ticker, kind string, bucket time.Time) string {
	return SnapshotKey(ticker) + "/" + kind + "/" + strconv.FormatInt(bucket.Unix(), 10)
}

func (c *SnapshotCache) GetQuote(ctx context.Context, ticker string) (*market.Quote, error) {
	v, err := c.get(ctx, ticker, kindQuote, func(ctx context.Context) (any, error) {
		return c.next.GetQuote(ctx, ticker)
	})
	if err != nil {
		return nil, err
	}
	q := *v.(*market.Quote)
	return &q, nil
}

func (c *SnapshotCache) GetOptionChain(ctx context.Context, ticker string) (*market.Chain, error) {
	v, err := c.get(ctx, ticker, kindChain, func(ctx context.Context) (any, error) {
		return c.next.GetOptionChain(ctx, ticker)
	})
	if err != nil {
		return nil, err
	}
	chain := *v.(*market.Chain)
	chain.Contracts = append([]market.RawContract(nil), chain.Contracts...)
	return &chain, nil
}

func (c *SnapshotCache) get(ctx context.Context, ticker, kind string, fetch func(context.Context) (any, error)) (any, error) {
	now := c.now()
	key := CacheKey(ticker, kind, now.Truncate(c.ttl))

	if v, ok := c.lookup(key, now); ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return v, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		if v, ok := c.lookup(key, c.now()); ok {
			return v, nil
		}

		c.mu.Lock()
		c.misses++
		c.mu.Unlock()

		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, v, now.Truncate(c.ttl).Add(c.ttl))
		return v, nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("snapshot cache fill",
		zap.String("key", key),
		zap.Bool("shared", shared))
	return v, nil
}

func (c *SnapshotCache) lookup(key string, now time.Time) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !now.Before(e.expires) {
		return nil, false
	}
	return e.value, true
}

func (c *SnapshotCache) store(key string, v any, expires time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Drop anything from earlier buckets while we hold the lock.
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{value: v, expires: expires}
}

// Reset drops cached entries, either all of them or those for one ticker.
// Returns how many were removed.
func (c *SnapshotCache) Reset(ticker string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ticker == "" {
		count := len(c.entries)
		c.entries = make(map[string]cacheEntry)
		return count
	}

	prefix := SnapshotKey(ticker) + "/"
	count := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			count++
		}
	}
	return count
}

// Stats returns hit and miss counters.
func (c *SnapshotCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
