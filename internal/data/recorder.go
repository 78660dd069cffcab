package data

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dgnsrekt/options-levels/internal/api"
	"github.com/dgnsrekt/options-levels/internal/market"
)

// Recorder passes calls through to another client and keeps the last
// quote and chain seen per ticker, so a run can be saved and replayed
// later through FileSource.
type Recorder struct {
	next api.Client
	now  func() time.Time

	mu     sync.Mutex
	quotes map[string]market.Quote
	chains map[string]*market.Chain
}

var _ api.Client = (*Recorder)(nil)

func NewRecorder(next api.Client) *Recorder {
	return &Recorder{
		next:   next,
		now:    time.Now,
		quotes: make(map[string]market.Quote),
		chains: make(map[string]*market.Chain),
	}
}

func (r *Recorder) GetQuote(ctx context.Context, ticker string) (*market.Quote, error) {
	q, err := r.next.GetQuote(ctx, ticker)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.quotes[SnapshotKey(ticker)] = *q
	r.mu.Unlock()
	return q, nil
}

func (r *Recorder) GetOptionChain(ctx context.Context, ticker string) (*market.Chain, error) {
	c, err := r.next.GetOptionChain(ctx, ticker)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.chains[SnapshotKey(ticker)] = c
	r.mu.Unlock()
	return c, nil
}

// Snapshots returns one snapshot per ticker that has both a quote and a
// chain recorded, sorted by ticker.
func (r *Recorder) Snapshots() []*Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Snapshot, 0, len(r.quotes))
	for key, q := range r.quotes {
		c, ok := r.chains[key]
		if !ok {
			continue
		}
		fetched := c.FetchedAt
		if fetched.IsZero() {
			fetched = r.now()
		}
		out = append(out, &Snapshot{
			Ticker:    key,
			Quote:     q,
			Contracts: append([]market.RawContract(nil), c.Contracts...),
			FetchedAt: fetched,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}
