package analysis

import "math"

// LocateWalls finds the strongest call strike at or above spot and the
// strongest put strike at or below it, once weighted by |delta| and once by
// raw open interest. A wall needs strictly positive strength.
func LocateWalls(strikes []StrikeAggregate, spot float64) Walls {
	var w Walls
	var maxCallDelta, maxPutDelta, maxCallOI, maxPutOI float64

	for _, s := range strikes {
		callStrength := math.Abs(s.CallDelta) * s.CallOpenInterest
		putStrength := math.Abs(s.PutDelta) * s.PutOpenInterest

		if s.Strike >= spot {
			if callStrength > maxCallDelta {
				maxCallDelta = callStrength
				w.CallWallByDelta = ptr(s.Strike)
			}
			if s.CallOpenInterest > maxCallOI {
				maxCallOI = s.CallOpenInterest
				w.CallWallByOI = ptr(s.Strike)
			}
		}

		if s.Strike <= spot {
			if putStrength > maxPutDelta {
				maxPutDelta = putStrength
				w.PutWallByDelta = ptr(s.Strike)
			}
			if s.PutOpenInterest > maxPutOI {
				maxPutOI = s.PutOpenInterest
				w.PutWallByOI = ptr(s.Strike)
			}
		}
	}

	return w
}
