package analysis

import "math"

// MaxPain returns the strike at which option holders lose the most, i.e.
// the strike minimizing TotalPain. Ties go to the lowest strike.
func MaxPain(strikes []StrikeAggregate) float64 {
	minPain := math.Inf(1)
	var best float64

	for _, k := range strikes {
		if pain := TotalPain(strikes, k.Strike); pain < minPain {
			minPain = pain
			best = k.Strike
		}
	}
	return best
}

// TotalPain is the intrinsic value owed to holders if price settles at settle.
func TotalPain(strikes []StrikeAggregate, settle float64) float64 {
	var total float64
	for _, s := range strikes {
		if settle > s.Strike {
			total += (settle - s.Strike) * s.CallOpenInterest
		}
		if settle < s.Strike {
			total += (s.Strike - settle) * s.PutOpenInterest
		}
	}
	return total
}
