package analysis

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgnsrekt/options-levels/internal/market"
)

func call(strike string, oi, vol float64) market.RawContract {
	return market.RawContract{Strike: strike, Expiration: "2024-01-19", Kind: market.Call, OpenInterest: oi, Volume: vol}
}

func put(strike string, oi, vol float64) market.RawContract {
	return market.RawContract{Strike: strike, Expiration: "2024-01-19", Kind: market.Put, OpenInterest: oi, Volume: vol}
}

func TestIngest_StrikeBand(t *testing.T) {
	contracts := []market.RawContract{
		call("69.99", 10, 0),
		call("70", 10, 0),
		call("130", 10, 0),
		call("130.01", 10, 0),
	}

	ing, err := Ingest("TEST", contracts, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ing.Strikes) != 2 {
		t.Fatalf("expected 2 strikes, got %d", len(ing.Strikes))
	}
	if ing.Strikes[0].Strike != 70 || ing.Strikes[1].Strike != 130 {
		t.Errorf("unexpected strikes: %v, %v", ing.Strikes[0].Strike, ing.Strikes[1].Strike)
	}
	if ing.OutOfBand != 2 {
		t.Errorf("expected 2 out of band, got %d", ing.OutOfBand)
	}
	if ing.Received != 4 {
		t.Errorf("expected 4 received, got %d", ing.Received)
	}
}

func TestIngest_MalformedSkipped(t *testing.T) {
	contracts := []market.RawContract{
		call("abc", 10, 0),
		call("--", 10, 0),
		call("-5", 10, 0),
		{Expiration: "2024-01-19", Kind: market.Call, OpenInterest: 10},
		{Symbol: "NOTASYMBOL", Kind: market.Put, OpenInterest: 10},
		{Strike: "100", Expiration: "2024-01-19", Kind: "straddle", OpenInterest: 10},
		call("100", 10, 0),
	}

	ing, err := Ingest("TEST", contracts, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ing.Malformed != 6 {
		t.Errorf("expected 6 malformed, got %d", ing.Malformed)
	}
	if len(ing.Strikes) != 1 || ing.Strikes[0].CallOpenInterest != 10 {
		t.Errorf("unexpected aggregates: %+v", ing.Strikes)
	}
}

func TestIngest_UndatedContractSkipped(t *testing.T) {
	undated := call("100", 5000, 900)
	undated.Expiration = ""
	spelled := put("95", 40, 0)
	spelled.Expiration = "Jan 19, 2024"

	ing, err := Ingest("TEST", []market.RawContract{undated, call("100", 10, 0), put("100", 20, 0), spelled}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ing.Expiration != "2024-01-19" {
		t.Errorf("expected 2024-01-19, got %q", ing.Expiration)
	}
	if ing.Malformed != 1 || ing.OtherExpiration != 0 {
		t.Errorf("expected 1 malformed and no other-expiration contracts, got %d / %d", ing.Malformed, ing.OtherExpiration)
	}
	if len(ing.Strikes) != 2 || ing.Strikes[1].CallOpenInterest != 10 {
		t.Errorf("undated contract leaked into aggregate: %+v", ing.Strikes)
	}
}

func TestIngest_OnlyUndatedIsNoTradableData(t *testing.T) {
	undated := call("100", 10, 0)
	undated.Expiration = "  "

	_, err := Ingest("TEST", []market.RawContract{undated}, 100)
	if !errors.Is(err, ErrNoTradableData) {
		t.Errorf("expected ErrNoTradableData, got %v", err)
	}
}

func TestIngest_SymbolFallback(t *testing.T) {
	contracts := []market.RawContract{
		{Symbol: "TEST240119P00095000", OpenInterest: 250, Volume: 12},
	}

	ing, err := Ingest("TEST", contracts, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ing.Expiration != "2024-01-19" {
		t.Errorf("expected expiration from symbol, got %q", ing.Expiration)
	}
	s := ing.Strikes[0]
	if s.Strike != 95 || s.PutOpenInterest != 250 || s.PutVolume != 12 {
		t.Errorf("unexpected aggregate: %+v", s)
	}
}

func TestIngest_EarliestExpiration(t *testing.T) {
	later := call("100", 999, 0)
	later.Expiration = "2024-02-16"
	earlier := put("100", 40, 0)
	earlier.Expiration = "Jan 19, 2024"

	ing, err := Ingest("TEST", []market.RawContract{later, earlier, call("105", 7, 0)}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ing.Expiration != "2024-01-19" {
		t.Errorf("expected 2024-01-19, got %s", ing.Expiration)
	}
	if ing.OtherExpiration != 1 {
		t.Errorf("expected 1 other-expiration contract, got %d", ing.OtherExpiration)
	}
	if ing.Strikes[0].CallOpenInterest != 0 {
		t.Errorf("later expiration leaked into aggregate: %+v", ing.Strikes[0])
	}
}

func TestIngest_MergeSides(t *testing.T) {
	c := call("100", 300, 20)
	c.Bid, c.Ask = 1.1, 1.3
	c.Greeks = market.Greeks{Delta: 0.52, Gamma: 0.07}

	p := put("100", 200, 15)
	p.Greeks = market.Greeks{Delta: -0.48, Gamma: 0.06}

	onlyPut := put("95", 50, 0)

	ing, err := Ingest("TEST", []market.RawContract{p, c, onlyPut}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ing.Strikes) != 2 {
		t.Fatalf("expected 2 strikes, got %d", len(ing.Strikes))
	}

	atm := ing.Strikes[1]
	if atm.Strike != 100 || atm.CallOpenInterest != 300 || atm.PutOpenInterest != 200 {
		t.Errorf("unexpected merge: %+v", atm)
	}
	if atm.CallDelta != 0.52 || atm.PutDelta != -0.48 || atm.CallGamma != 0.07 || atm.PutGamma != 0.06 {
		t.Errorf("provider greeks not preferred: %+v", atm)
	}
	if atm.CallBid != 1.1 || atm.CallAsk != 1.3 {
		t.Errorf("unexpected quotes: %+v", atm)
	}

	low := ing.Strikes[0]
	if low.CallOpenInterest != 0 || low.CallDelta != 0 || low.CallGamma != 0 {
		t.Errorf("missing call side should be zero: %+v", low)
	}
	if low.PutDelta != EstimateDelta(95, 100, market.Put) || low.PutGamma != EstimateGamma(95, 100) {
		t.Errorf("expected fallback greeks on put side: %+v", low)
	}
}

func TestIngest_DuplicatesAccumulate(t *testing.T) {
	first := call("100", 100, 5)
	first.Greeks.Delta = 0.5
	second := call("100.00", 50, 7)
	second.Greeks.Delta = 0.9

	ing, err := Ingest("TEST", []market.RawContract{first, second}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := ing.Strikes[0]
	if s.CallOpenInterest != 150 || s.CallVolume != 12 {
		t.Errorf("expected summed OI/volume, got %+v", s)
	}
	if s.CallDelta != 0.5 {
		t.Errorf("expected first delta kept, got %v", s.CallDelta)
	}
}

func TestIngest_NoTradableData(t *testing.T) {
	_, err := Ingest("ZZZ", []market.RawContract{call("500", 10, 0), call("bad", 1, 0)}, 100)
	if !errors.Is(err, ErrNoTradableData) {
		t.Fatalf("expected ErrNoTradableData, got %v", err)
	}
	if !strings.Contains(err.Error(), "ZZZ") {
		t.Errorf("error should name the ticker, got %v", err)
	}
	if Classify(err) != KindNoTradableData {
		t.Errorf("unexpected kind %s", Classify(err))
	}

	if _, err := Ingest("ZZZ", nil, 100); !errors.Is(err, ErrNoTradableData) {
		t.Errorf("expected ErrNoTradableData for empty chain, got %v", err)
	}
}

func TestEstimateDelta(t *testing.T) {
	tests := []struct {
		strike float64
		kind   market.OptionKind
		want   float64
	}{
		{85, market.Call, 0.90},
		{90, market.Call, 0.75},
		{95, market.Call, 0.60},
		{100, market.Call, 0.40},
		{105, market.Call, 0.25},
		{110, market.Call, 0.10},
		{115, market.Put, -0.90},
		{110, market.Put, -0.75},
		{105, market.Put, -0.60},
		{100, market.Put, -0.40},
		{95, market.Put, -0.25},
		{90, market.Put, -0.10},
	}

	for _, tt := range tests {
		if got := EstimateDelta(tt.strike, 100, tt.kind); got != tt.want {
			t.Errorf("EstimateDelta(%v, %s) = %v, want %v", tt.strike, tt.kind, got, tt.want)
		}
	}
}

func TestEstimateGamma(t *testing.T) {
	tests := []struct {
		strike float64
		want   float64
	}{
		{100, 0.05},
		{101.5, 0.05},
		{97, 0.03},
		{95, 0.015},
		{110, 0.008},
		{88, 0.008},
		{85, 0.003},
		{120, 0.003},
	}

	for _, tt := range tests {
		if got := EstimateGamma(tt.strike, 100); got != tt.want {
			t.Errorf("EstimateGamma(%v) = %v, want %v", tt.strike, got, tt.want)
		}
	}
}
