package analysis

import (
	"fmt"
	"math"
	"time"
	_ "time/tzdata"

	"github.com/dgnsrekt/options-levels/internal/market"
)

// Options tune Analyze. The zero value uses the wall clock in New York.
type Options struct {
	Now      func() time.Time
	Location *time.Location
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) location() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	if loc, err := time.LoadLocation("America/New_York"); err == nil {
		return loc
	}
	return time.UTC
}

// Analyze runs the full pipeline for one ticker: ingestion, then every level
// calculator over the same aggregates, then the expected range.
func Analyze(ticker string, quote market.Quote, chain *market.Chain, opts Options) (*AnalysisResult, error) {
	spot := quote.CurrentPrice
	if !(spot > 0) || math.IsInf(spot, 0) {
		return nil, fmt.Errorf("%w for %s: price %v", ErrNoQuoteData, ticker, spot)
	}

	var contracts []market.RawContract
	if chain != nil {
		contracts = chain.Contracts
	}

	ing, err := Ingest(ticker, contracts, spot)
	if err != nil {
		return nil, err
	}

	maxPain := MaxPain(ing.Strikes)
	gex := ComputeGEX(ing.Strikes, spot)
	walls := LocateWalls(ing.Strikes, spot)

	now := opts.now().In(opts.location())

	return &AnalysisResult{
		Symbol:             ticker,
		CurrentPrice:       spot,
		PriceChange:        quote.PriceChange,
		PriceChangePercent: quote.PriceChangePercent,
		Expiration:         ing.Expiration,
		DaysToExpiration:   DaysToExpiration(ing.Expiration, now),
		Levels: LevelSet{
			MaxPain:        maxPain,
			GEX:            gex,
			Walls:          walls,
			VolumeProfile:  BuildVolumeProfile(ing.Strikes),
			BiggestStrikes: FindBiggestStrikes(ing.Strikes),
			ExpectedRange:  SynthesizeRange(spot, maxPain, gex, walls),
		},
		DataQuality: summarize(ing),
		Timestamp:   now,
	}, nil
}

// DaysToExpiration counts calendar days from now's date to the expiration,
// floored at zero. Unparsable expirations count as zero.
func DaysToExpiration(expiration string, now time.Time) int {
	exp, ok := market.ParseExpiration(expiration)
	if !ok {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(exp.Sub(today).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func summarize(ing *Ingestion) DataQuality {
	dq := DataQuality{
		StrikesAnalyzed:          len(ing.Strikes),
		ContractsReceived:        ing.Received,
		MalformedContracts:       ing.Malformed,
		OutOfBandContracts:       ing.OutOfBand,
		OtherExpirationContracts: ing.OtherExpiration,
	}
	for _, s := range ing.Strikes {
		dq.TotalCallOI += s.CallOpenInterest
		dq.TotalPutOI += s.PutOpenInterest
		dq.TotalCallVolume += s.CallVolume
		dq.TotalPutVolume += s.PutVolume
	}
	if dq.TotalCallOI > 0 {
		dq.PutCallRatio = round2(dq.TotalPutOI / dq.TotalCallOI)
	}
	return dq
}
