package analysis

import "errors"

var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrNoQuoteData         = errors.New("no quote data")
	ErrNoTradableData      = errors.New("no tradable options data")
	ErrMalformedContract   = errors.New("malformed contract")
)

// Kind is the stable classification of an analysis failure.
type Kind string

const (
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindNoQuoteData         Kind = "no_quote_data"
	KindNoTradableData      Kind = "no_tradable_data"
	KindMalformedContract   Kind = "malformed_contract"
	KindUnknown             Kind = "unknown"
)

// Classify maps an error chain onto its Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUpstreamUnavailable):
		return KindUpstreamUnavailable
	case errors.Is(err, ErrNoQuoteData):
		return KindNoQuoteData
	case errors.Is(err, ErrNoTradableData):
		return KindNoTradableData
	case errors.Is(err, ErrMalformedContract):
		return KindMalformedContract
	default:
		return KindUnknown
	}
}
