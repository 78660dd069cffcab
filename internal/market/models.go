package market

import "time"

// OptionKind is the side of an option contract.
type OptionKind string

const (
	Call OptionKind = "call"
	Put  OptionKind = "put"
)

// ParseOptionKind accepts the spellings upstream providers use for each side.
func ParseOptionKind(s string) (OptionKind, bool) {
	switch s {
	case "call", "Call", "CALL", "c", "C":
		return Call, true
	case "put", "Put", "PUT", "p", "P":
		return Put, true
	}
	return "", false
}

// Greeks as supplied by the provider. Zero means "not supplied".
type Greeks struct {
	Delta      float64 `json:"delta"`
	Gamma      float64 `json:"gamma"`
	Vega       float64 `json:"vega"`
	Theta      float64 `json:"theta"`
	ImpliedVol float64 `json:"iv"`
}

// RawContract is one option contract as reported upstream.
// Strike and Expiration are kept as reported so ingestion can decide
// what is malformed.
type RawContract struct {
	Symbol       string     `json:"symbol,omitempty"`
	Strike       string     `json:"strike,omitempty"`
	Expiration   string     `json:"expiration,omitempty"`
	Kind         OptionKind `json:"kind,omitempty"`
	Bid          float64    `json:"bid"`
	Ask          float64    `json:"ask"`
	Last         float64    `json:"last"`
	Volume       float64    `json:"volume"`
	OpenInterest float64    `json:"openInterest"`
	Greeks       Greeks     `json:"greeks"`
}

// Quote is the spot snapshot for a ticker.
type Quote struct {
	CurrentPrice       float64 `json:"currentPrice"`
	PriceChange        float64 `json:"priceChange"`
	PriceChangePercent float64 `json:"priceChangePercent"`
}

// Chain is the option chain for one ticker, possibly spanning several expirations.
type Chain struct {
	Ticker    string        `json:"ticker"`
	Contracts []RawContract `json:"contracts"`
	FetchedAt time.Time     `json:"fetchedAt"`
}
