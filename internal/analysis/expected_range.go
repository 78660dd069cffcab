package analysis

import "math"

const (
	fallbackRangeUp   = 1.03
	fallbackRangeDown = 0.97
)

// SynthesizeRange picks the nearest candidate level on each side of spot from
// the walls, GEX support/resistance and max pain, falling back to ±3%.
func SynthesizeRange(spot, maxPain float64, gex GEX, walls Walls) ExpectedRange {
	candidates := make([]float64, 0, 7)
	for _, v := range []*float64{
		walls.CallWallByDelta,
		walls.PutWallByDelta,
		walls.CallWallByOI,
		walls.PutWallByOI,
		gex.Resistance,
		gex.Support,
		&maxPain,
	} {
		if v != nil {
			candidates = append(candidates, *v)
		}
	}

	high, low := spot*fallbackRangeUp, spot*fallbackRangeDown
	var haveAbove, haveBelow bool
	for _, c := range candidates {
		switch {
		case c > spot && (!haveAbove || c < high):
			high, haveAbove = c, true
		case c < spot && (!haveBelow || c > low):
			low, haveBelow = c, true
		}
	}

	r := ExpectedRange{
		Low:  round2(math.Min(low, spot)),
		High: round2(math.Max(high, spot)),
	}
	r.Width = round2(r.High - r.Low)
	r.WidthPercent = round2((r.High - r.Low) / spot * 100)
	return r
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
