package analysis

import (
	"math"

	"github.com/dgnsrekt/options-levels/internal/market"
)

// EstimateDelta approximates delta from moneyness when the provider
// supplies none. The ladder is intentionally coarse.
func EstimateDelta(strike, spot float64, kind market.OptionKind) float64 {
	m := (spot - strike) / spot
	if kind == market.Call {
		switch {
		case m > 0.10:
			return 0.90
		case m > 0.05:
			return 0.75
		case m > 0:
			return 0.60
		case m > -0.05:
			return 0.40
		case m > -0.10:
			return 0.25
		default:
			return 0.10
		}
	}

	switch {
	case m < -0.10:
		return -0.90
	case m < -0.05:
		return -0.75
	case m < 0:
		return -0.60
	case m < 0.05:
		return -0.40
	case m < 0.10:
		return -0.25
	default:
		return -0.10
	}
}

// EstimateGamma approximates gamma from absolute moneyness, peaking at the money.
func EstimateGamma(strike, spot float64) float64 {
	m := math.Abs(spot-strike) / spot
	switch {
	case m < 0.02:
		return 0.05
	case m < 0.05:
		return 0.03
	case m < 0.10:
		return 0.015
	case m < 0.15:
		return 0.008
	default:
		return 0.003
	}
}
