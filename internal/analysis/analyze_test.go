package analysis

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/dgnsrekt/options-levels/internal/market"
)

var fixedNow = time.Date(2024, 1, 12, 15, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{Now: func() time.Time { return fixedNow }}
}

func scenarioChain() *market.Chain {
	return &market.Chain{
		Ticker: "TEST",
		Contracts: []market.RawContract{
			put("90", 500, 40),
			call("100", 300, 120),
			put("100", 300, 80),
			call("110", 500, 60),
		},
	}
}

func TestAnalyze_Scenario(t *testing.T) {
	quote := market.Quote{CurrentPrice: 100, PriceChange: 1.25, PriceChangePercent: 1.27}

	res, err := Analyze("TEST", quote, scenarioChain(), testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Symbol != "TEST" || res.CurrentPrice != 100 || res.PriceChange != 1.25 {
		t.Errorf("unexpected header: %+v", res)
	}
	if res.Expiration != "2024-01-19" {
		t.Errorf("expected 2024-01-19, got %s", res.Expiration)
	}
	if res.DaysToExpiration != 7 {
		t.Errorf("expected 7 days to expiration, got %d", res.DaysToExpiration)
	}
	if res.Levels.MaxPain != 100 {
		t.Errorf("expected max pain 100, got %v", res.Levels.MaxPain)
	}
	if w := res.Levels.Walls; *w.CallWallByOI != 110 || *w.PutWallByOI != 90 {
		t.Errorf("unexpected walls: call %v put %v", *w.CallWallByOI, *w.PutWallByOI)
	}

	dq := res.DataQuality
	if dq.PutCallRatio != 1 {
		t.Errorf("expected put/call ratio 1, got %v", dq.PutCallRatio)
	}
	if dq.TotalCallOI != 800 || dq.TotalPutOI != 800 || dq.TotalCallVolume != 180 || dq.TotalPutVolume != 120 {
		t.Errorf("unexpected totals: %+v", dq)
	}
	if dq.StrikesAnalyzed != 3 || dq.ContractsReceived != 4 {
		t.Errorf("unexpected counts: %+v", dq)
	}

	r := res.Levels.ExpectedRange
	if r.Low > 100 || r.High < 100 {
		t.Errorf("range must bracket spot: %+v", r)
	}

	if res.Timestamp.Location().String() != "America/New_York" {
		t.Errorf("expected New York timestamp, got %s", res.Timestamp.Location())
	}
}

func TestAnalyze_SymmetricRange(t *testing.T) {
	chain := &market.Chain{Contracts: []market.RawContract{
		call("95", 1000, 0), put("95", 1000, 0),
		call("105", 1000, 0), put("105", 1000, 0),
	}}

	res, err := Analyze("SYM", market.Quote{CurrentPrice: 100}, chain, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := res.Levels.ExpectedRange
	if r.Low != 95 || r.High != 105 {
		t.Errorf("expected 95-105, got %v-%v", r.Low, r.High)
	}
	if r.Width != 10 || r.WidthPercent != 10 {
		t.Errorf("expected width 10 / 10%%, got %v / %v", r.Width, r.WidthPercent)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	quote := market.Quote{CurrentPrice: 101.37}

	first, err := Analyze("TEST", quote, scenarioChain(), testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Analyze("TEST", quote, scenarioChain(), testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("repeated analysis of the same input differs")
	}
}

func TestAnalyze_NoQuoteData(t *testing.T) {
	for _, price := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := Analyze("TEST", market.Quote{CurrentPrice: price}, scenarioChain(), testOptions())
		if !errors.Is(err, ErrNoQuoteData) {
			t.Errorf("price %v: expected ErrNoQuoteData, got %v", price, err)
		}
	}
}

func TestAnalyze_NilChain(t *testing.T) {
	_, err := Analyze("TEST", market.Quote{CurrentPrice: 100}, nil, testOptions())
	if Classify(err) != KindNoTradableData {
		t.Errorf("expected no_tradable_data, got %v", err)
	}
}

func TestAnalyze_NoCallOpenInterest(t *testing.T) {
	chain := &market.Chain{Contracts: []market.RawContract{put("95", 100, 0)}}

	res, err := Analyze("TEST", market.Quote{CurrentPrice: 100}, chain, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.DataQuality.PutCallRatio != 0 {
		t.Errorf("expected ratio 0 without call OI, got %v", res.DataQuality.PutCallRatio)
	}
	if res.Levels.BiggestStrikes.CallOI != nil {
		t.Errorf("expected nil biggest call, got %+v", res.Levels.BiggestStrikes.CallOI)
	}
}

func TestAnalysisResult_JSONShape(t *testing.T) {
	res, err := Analyze("TEST", market.Quote{CurrentPrice: 100}, scenarioChain(), testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"symbol", "currentPrice", "expiration", "daysToExpiration", "analysis", "dataQuality", "timestamp"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}

	levels, _ := doc["analysis"].(map[string]any)
	for _, key := range []string{"maxPain", "gex", "walls", "volumeProfile", "biggestStrikes", "expectedRange"} {
		if _, ok := levels[key]; !ok {
			t.Errorf("missing analysis key %q", key)
		}
	}
}

func TestDaysToExpiration(t *testing.T) {
	tests := []struct {
		exp  string
		want int
	}{
		{"2024-01-12", 0},
		{"2024-01-13", 1},
		{"2024-02-16", 35},
		{"2023-12-29", 0},
		{"", 0},
		{"garbage", 0},
	}

	for _, tt := range tests {
		if got := DaysToExpiration(tt.exp, fixedNow); got != tt.want {
			t.Errorf("DaysToExpiration(%q) = %d, want %d", tt.exp, got, tt.want)
		}
	}
}
