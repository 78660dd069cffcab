package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/options-levels/internal/analysis"
)

const (
	DefaultMaxBatchSize = 15
	DefaultWorkers      = 5
)

var (
	ErrNoSymbols     = errors.New("no symbols provided")
	ErrBatchTooLarge = errors.New("too many symbols")
)

// Entry is the outcome for one symbol: a result or the error that stopped it.
type Entry struct {
	Symbol string
	Result *analysis.AnalysisResult
	Err    error
}

func (e Entry) OK() bool { return e.Err == nil && e.Result != nil }

// Kind classifies the entry's error; empty on success.
func (e Entry) Kind() analysis.Kind { return analysis.Classify(e.Err) }

type entryError struct {
	Symbol string        `json:"symbol"`
	Error  string        `json:"error"`
	Kind   analysis.Kind `json:"kind"`
}

// MarshalJSON renders a success as the analysis result itself and a failure
// as {symbol, error, kind}.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.OK() {
		return json.Marshal(e.Result)
	}
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(entryError{Symbol: e.Symbol, Error: msg, Kind: e.Kind()})
}

type Summary struct {
	Total   int
	Success int
	Failed  int
	ByKind  map[analysis.Kind]int
	Errors  []string
}

// ProgressFunc is called once per finished symbol, never concurrently.
type ProgressFunc func(done, total int, e Entry)

type Manager struct {
	analyzer TickerAnalyzer
	workers  int
	maxBatch int
	logger   *zap.Logger

	progress ProgressFunc
}

func NewManager(analyzer TickerAnalyzer, workers, maxBatch int, logger *zap.Logger) *Manager {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatchSize
	}
	return &Manager{
		analyzer: analyzer,
		workers:  workers,
		maxBatch: maxBatch,
		logger:   logger,
	}
}

func (m *Manager) MaxBatchSize() int { return m.maxBatch }

func (m *Manager) OnProgress(fn ProgressFunc) { m.progress = fn }

// Validate checks the batch size limits without running anything.
func (m *Manager) Validate(symbols []string) error {
	if len(symbols) == 0 {
		return ErrNoSymbols
	}
	if len(symbols) > m.maxBatch {
		return fmt.Errorf("%w: %d requested, maximum is %d", ErrBatchTooLarge, len(symbols), m.maxBatch)
	}
	return nil
}

// Execute analyzes every symbol with at most m.workers in flight. One
// symbol's failure never cancels the others; entries come back in input
// order once all symbols have finished.
func (m *Manager) Execute(ctx context.Context, symbols []string) ([]Entry, *Summary, error) {
	if err := m.Validate(symbols); err != nil {
		return nil, nil, err
	}

	entries := make([]Entry, len(symbols))

	var (
		mu   sync.Mutex
		done int
	)

	var g errgroup.Group
	g.SetLimit(m.workers)

	for i, symbol := range symbols {
		g.Go(func() error {
			entry := Entry{Symbol: symbol}
			if err := ctx.Err(); err != nil {
				entry.Err = err
			} else {
				entry.Result, entry.Err = m.analyzer.Analyze(ctx, symbol)
			}
			entries[i] = entry

			if entry.Err != nil {
				m.logger.Warn("analysis failed",
					zap.String("ticker", symbol),
					zap.String("kind", string(entry.Kind())),
					zap.Error(entry.Err))
			}

			mu.Lock()
			done++
			if m.progress != nil {
				m.progress(done, len(symbols), entry)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	summary := Summarize(entries)
	m.logger.Info("batch complete",
		zap.Int("total", summary.Total),
		zap.Int("success", summary.Success),
		zap.Int("failed", summary.Failed))

	return entries, summary, nil
}

// ExecuteAll runs symbols of any length in consecutive batches of at most
// MaxBatchSize, returning entries in input order.
func (m *Manager) ExecuteAll(ctx context.Context, symbols []string) ([]Entry, *Summary, error) {
	if len(symbols) == 0 {
		return nil, nil, ErrNoSymbols
	}

	entries := make([]Entry, 0, len(symbols))
	for start := 0; start < len(symbols); start += m.maxBatch {
		end := min(start+m.maxBatch, len(symbols))
		chunk, _, err := m.Execute(ctx, symbols[start:end])
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, chunk...)
	}
	return entries, Summarize(entries), nil
}

// Summarize counts outcomes per entry.
func Summarize(entries []Entry) *Summary {
	s := &Summary{Total: len(entries), ByKind: make(map[analysis.Kind]int)}
	for _, e := range entries {
		if e.OK() {
			s.Success++
			continue
		}
		s.Failed++
		s.ByKind[e.Kind()]++
		if e.Err != nil {
			s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", e.Symbol, e.Err))
		}
	}
	return s
}
