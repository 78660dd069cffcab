package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgnsrekt/options-levels/internal/market"
)

const (
	strikeBandLow  = 0.7
	strikeBandHigh = 1.3
)

// Ingestion is the normalized chain for a single expiration.
type Ingestion struct {
	Strikes    []StrikeAggregate
	Expiration string

	Received        int
	Malformed       int
	OutOfBand       int
	OtherExpiration int
}

type resolvedContract struct {
	strike     float64
	expiration string
	kind       market.OptionKind
	raw        *market.RawContract
}

// Ingest filters the raw chain to the ±30% strike band around spot, keeps the
// earliest expiration and merges calls and puts into one aggregate per strike,
// ordered by ascending strike. Malformed contracts are skipped and counted.
func Ingest(ticker string, contracts []market.RawContract, spot float64) (*Ingestion, error) {
	ing := &Ingestion{Received: len(contracts)}

	lo, hi := spot*strikeBandLow, spot*strikeBandHigh
	inBand := make([]resolvedContract, 0, len(contracts))

	for i := range contracts {
		rc, err := resolveContract(&contracts[i])
		if err != nil {
			ing.Malformed++
			continue
		}
		if rc.strike < lo || rc.strike > hi {
			ing.OutOfBand++
			continue
		}
		inBand = append(inBand, rc)
	}

	if len(inBand) == 0 {
		return ing, fmt.Errorf("%w for %s", ErrNoTradableData, ticker)
	}

	ing.Expiration = inBand[0].expiration
	for _, rc := range inBand[1:] {
		if rc.expiration < ing.Expiration {
			ing.Expiration = rc.expiration
		}
	}

	byStrike := make(map[float64]*StrikeAggregate)
	seen := make(map[float64]map[market.OptionKind]bool)

	for _, rc := range inBand {
		if rc.expiration != ing.Expiration {
			ing.OtherExpiration++
			continue
		}

		agg, ok := byStrike[rc.strike]
		if !ok {
			agg = &StrikeAggregate{Strike: rc.strike}
			byStrike[rc.strike] = agg
			seen[rc.strike] = make(map[market.OptionKind]bool)
		}

		first := !seen[rc.strike][rc.kind]
		seen[rc.strike][rc.kind] = true
		mergeSide(agg, rc, spot, first)
	}

	ing.Strikes = make([]StrikeAggregate, 0, len(byStrike))
	for _, agg := range byStrike {
		ing.Strikes = append(ing.Strikes, *agg)
	}
	sort.Slice(ing.Strikes, func(i, j int) bool {
		return ing.Strikes[i].Strike < ing.Strikes[j].Strike
	})

	return ing, nil
}

// mergeSide folds one contract into its strike aggregate. Open interest and
// volume accumulate across duplicates; quotes and greeks come from the first.
func mergeSide(agg *StrikeAggregate, rc resolvedContract, spot float64, first bool) {
	c := rc.raw

	if rc.kind == market.Call {
		agg.CallOpenInterest += c.OpenInterest
		agg.CallVolume += c.Volume
		if !first {
			return
		}
		agg.CallBid, agg.CallAsk = c.Bid, c.Ask
		agg.CallDelta = c.Greeks.Delta
		if agg.CallDelta == 0 {
			agg.CallDelta = EstimateDelta(rc.strike, spot, market.Call)
		}
		agg.CallGamma = c.Greeks.Gamma
		if agg.CallGamma == 0 {
			agg.CallGamma = EstimateGamma(rc.strike, spot)
		}
		return
	}

	agg.PutOpenInterest += c.OpenInterest
	agg.PutVolume += c.Volume
	if !first {
		return
	}
	agg.PutBid, agg.PutAsk = c.Bid, c.Ask
	agg.PutDelta = c.Greeks.Delta
	if agg.PutDelta == 0 {
		agg.PutDelta = EstimateDelta(rc.strike, spot, market.Put)
	}
	agg.PutGamma = c.Greeks.Gamma
	if agg.PutGamma == 0 {
		agg.PutGamma = EstimateGamma(rc.strike, spot)
	}
}

// resolveContract works out strike, side and expiration, falling back to the
// OCC symbol for anything the provider left blank.
func resolveContract(c *market.RawContract) (resolvedContract, error) {
	rc := resolvedContract{
		expiration: market.NormalizeExpiration(c.Expiration),
		raw:        c,
	}

	var occ *market.OCCSymbol
	if strings.TrimSpace(c.Symbol) != "" {
		occ, _ = market.ParseOCCSymbol(c.Symbol)
	}

	if strings.TrimSpace(c.Strike) != "" {
		rc.strike = market.ParseNum(c.Strike)
	} else if occ != nil {
		rc.strike = occ.Strike
	}
	if !(rc.strike > 0) {
		return rc, fmt.Errorf("%w: strike %q symbol %q", ErrMalformedContract, c.Strike, c.Symbol)
	}

	if kind, ok := market.ParseOptionKind(string(c.Kind)); ok {
		rc.kind = kind
	} else if occ != nil {
		rc.kind = occ.Kind
	} else {
		return rc, fmt.Errorf("%w: unknown side %q symbol %q", ErrMalformedContract, c.Kind, c.Symbol)
	}

	if rc.expiration == "" && occ != nil {
		rc.expiration = occ.Expiration.Format(market.ExpirationLayout)
	}
	if rc.expiration == "" {
		return rc, fmt.Errorf("%w: no expiration strike %q symbol %q", ErrMalformedContract, c.Strike, c.Symbol)
	}

	return rc, nil
}
