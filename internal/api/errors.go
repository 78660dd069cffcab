package api

import (
	"errors"

	"github.com/dgnsrekt/options-levels/internal/analysis"
)

var (
	ErrUpstreamUnavailable = analysis.ErrUpstreamUnavailable
	ErrNoQuoteData         = analysis.ErrNoQuoteData
	ErrRateLimited         = errors.New("rate limited by upstream")
	ErrNotFound            = errors.New("ticker not found upstream")
)
