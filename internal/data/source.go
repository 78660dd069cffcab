package data

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dgnsrekt/options-levels/internal/api"
	"github.com/dgnsrekt/options-levels/internal/market"
)

// FileSource serves recorded snapshots from a directory of <TICKER>.json
// files. It satisfies api.Client so analysis can run offline.
type FileSource struct {
	logger *zap.Logger

	mu        sync.RWMutex
	dir       string
	snapshots map[string]*Snapshot
}

var _ api.Client = (*FileSource)(nil)

func NewFileSource(dir string, logger *zap.Logger) (*FileSource, error) {
	fs := &FileSource{dir: dir, logger: logger}
	if _, err := fs.Reload(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Reload rereads the current directory.
func (f *FileSource) Reload() (int, error) {
	return f.Load(f.Dir())
}

// Dir returns the directory the loaded set came from.
func (f *FileSource) Dir() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dir
}

// Load reads dir and swaps the loaded set in one step. Unreadable files are
// logged and skipped. On error the previous set stays in place. Returns the
// number loaded.
func (f *FileSource) Load(dir string) (int, error) {
	loaded := make(map[string]*Snapshot)

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}

		snap, err := readSnapshot(path)
		if err != nil {
			f.logger.Warn("failed to load snapshot", zap.String("path", path), zap.Error(err))
			return nil
		}

		key := SnapshotKey(strings.TrimSuffix(filepath.Base(path), ".json"))
		if snap.Ticker == "" {
			snap.Ticker = key
		}
		loaded[key] = snap

		f.logger.Debug("loaded snapshot",
			zap.String("ticker", key),
			zap.Int("contracts", len(snap.Contracts)),
		)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walking snapshot directory: %w", err)
	}

	if len(loaded) == 0 {
		return 0, fmt.Errorf("%w: no snapshots in %s", ErrNotFound, dir)
	}

	f.mu.Lock()
	f.dir = dir
	f.snapshots = loaded
	f.mu.Unlock()

	f.logger.Info("snapshots loaded", zap.String("dir", dir), zap.Int("count", len(loaded)))
	return len(loaded), nil
}

func (f *FileSource) lookup(ticker string) (*Snapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	snap, ok := f.snapshots[SnapshotKey(ticker)]
	if !ok {
		return nil, fmt.Errorf("%w: %w for %s", api.ErrUpstreamUnavailable, ErrNotFound, ticker)
	}
	return snap, nil
}

func (f *FileSource) GetQuote(ctx context.Context, ticker string) (*market.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := f.lookup(ticker)
	if err != nil {
		return nil, err
	}
	if !(snap.Quote.CurrentPrice > 0) {
		return nil, fmt.Errorf("%w for %s", api.ErrNoQuoteData, ticker)
	}
	q := snap.Quote
	return &q, nil
}

func (f *FileSource) GetOptionChain(ctx context.Context, ticker string) (*market.Chain, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := f.lookup(ticker)
	if err != nil {
		return nil, err
	}
	return &market.Chain{
		Ticker:    SnapshotKey(ticker),
		Contracts: append([]market.RawContract(nil), snap.Contracts...),
		FetchedAt: snap.FetchedAt,
	}, nil
}

// Tickers returns the loaded tickers in sorted order.
func (f *FileSource) Tickers() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	keys := make([]string, 0, len(f.snapshots))
	for k := range f.snapshots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
