package analysis

import "math"

const (
	contractMultiplier = 100
	zeroGammaBand      = 0.15
)

// ComputeGEX derives per-strike gamma exposure and the levels read off it.
// Dealers are modeled net short put gamma, hence the sign on putGEX.
func ComputeGEX(strikes []StrikeAggregate, spot float64) GEX {
	out := GEX{Levels: make([]GEXLevel, 0, len(strikes))}

	var resistance, support, zero *GEXLevel
	for _, s := range strikes {
		callGEX := s.CallGamma * s.CallOpenInterest * contractMultiplier * spot
		putGEX := -(s.PutGamma * s.PutOpenInterest * contractMultiplier * spot)
		out.Levels = append(out.Levels, GEXLevel{
			Strike:  s.Strike,
			CallGEX: callGEX,
			PutGEX:  putGEX,
			NetGEX:  callGEX + putGEX,
		})
		out.TotalNetGEX += callGEX + putGEX
	}

	for i := range out.Levels {
		lvl := &out.Levels[i]

		// Only positive exposure counts on either side of spot.
		if lvl.NetGEX > 0 {
			if lvl.Strike > spot && (resistance == nil || lvl.NetGEX > resistance.NetGEX) {
				resistance = lvl
			}
			if lvl.Strike < spot && (support == nil || lvl.NetGEX > support.NetGEX) {
				support = lvl
			}
		}

		if math.Abs(lvl.Strike-spot)/spot < zeroGammaBand {
			if zero == nil || math.Abs(lvl.NetGEX) < math.Abs(zero.NetGEX) {
				zero = lvl
			}
		}
	}

	if resistance != nil {
		out.Resistance = ptr(resistance.Strike)
	}
	if support != nil {
		out.Support = ptr(support.Strike)
	}
	if zero != nil {
		out.Zero = ptr(zero.Strike)
	}

	out.NetSentiment = SentimentNegative
	if out.TotalNetGEX > 0 {
		out.NetSentiment = SentimentPositive
	}

	return out
}
