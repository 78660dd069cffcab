package batch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/options-levels/internal/analysis"
	"github.com/dgnsrekt/options-levels/internal/api"
	"github.com/dgnsrekt/options-levels/internal/market"
)

// TickerAnalyzer produces one analysis per ticker.
type TickerAnalyzer interface {
	Analyze(ctx context.Context, ticker string) (*analysis.AnalysisResult, error)
}

// Analyzer fetches the quote and chain for a ticker concurrently and runs
// the analysis pipeline once both have arrived.
type Analyzer struct {
	client api.Client
	opts   analysis.Options
	logger *zap.Logger
}

var _ TickerAnalyzer = (*Analyzer)(nil)

func NewAnalyzer(client api.Client, opts analysis.Options, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		client: client,
		opts:   opts,
		logger: logger,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, ticker string) (*analysis.AnalysisResult, error) {
	start := time.Now()

	var (
		quote *market.Quote
		chain *market.Chain
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := a.client.GetQuote(gctx, ticker)
		if err != nil {
			return err
		}
		quote = q
		return nil
	})
	g.Go(func() error {
		c, err := a.client.GetOptionChain(gctx, ticker)
		if err != nil {
			return err
		}
		chain = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, fmt.Errorf("%w for %s", analysis.ErrNoQuoteData, ticker)
	}

	result, err := analysis.Analyze(ticker, *quote, chain, a.opts)
	if err != nil {
		return nil, err
	}

	dq := result.DataQuality
	a.logger.Debug("analyzed",
		zap.String("ticker", ticker),
		zap.String("expiration", result.Expiration),
		zap.Int("strikes", dq.StrikesAnalyzed),
		zap.Int("malformed", dq.MalformedContracts),
		zap.Int("out_of_band", dq.OutOfBandContracts),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}
