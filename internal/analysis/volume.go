package analysis

import "sort"

const (
	topStrikeCount      = 5
	highVolumeThreshold = 1.5
)

// BuildVolumeProfile ranks traded strikes by combined call and put volume.
// High-volume strikes exceed 1.5x the mean over strikes that traded at all.
func BuildVolumeProfile(strikes []StrikeAggregate) VolumeProfile {
	vp := VolumeProfile{
		HighVolumeStrikes: []float64{},
		TopVolumeStrikes:  []StrikeVolume{},
	}

	traded := make([]StrikeVolume, 0, len(strikes))
	var total float64
	for _, s := range strikes {
		v := s.CallVolume + s.PutVolume
		if v <= 0 {
			continue
		}
		traded = append(traded, StrikeVolume{
			Strike:     s.Strike,
			Volume:     v,
			CallVolume: s.CallVolume,
			PutVolume:  s.PutVolume,
		})
		total += v
	}
	if len(traded) == 0 {
		return vp
	}

	sort.SliceStable(traded, func(i, j int) bool {
		return traded[i].Volume > traded[j].Volume
	})

	vp.PointOfControl = ptr(traded[0].Strike)

	mean := total / float64(len(traded))
	for _, t := range traded {
		if t.Volume > mean*highVolumeThreshold {
			vp.HighVolumeStrikes = append(vp.HighVolumeStrikes, t.Strike)
		}
	}

	vp.TopVolumeStrikes = append(vp.TopVolumeStrikes, traded[:min(topStrikeCount, len(traded))]...)
	return vp
}

// FindBiggestStrikes ranks strikes by total open interest and tracks the
// single largest call and put positions, first strike winning ties.
func FindBiggestStrikes(strikes []StrikeAggregate) BiggestStrikes {
	bs := BiggestStrikes{TopOIStrikes: []StrikeOpenInterest{}}

	held := make([]StrikeOpenInterest, 0, len(strikes))
	for _, s := range strikes {
		if total := s.CallOpenInterest + s.PutOpenInterest; total > 0 {
			held = append(held, StrikeOpenInterest{
				Strike:  s.Strike,
				TotalOI: total,
				CallOI:  s.CallOpenInterest,
				PutOI:   s.PutOpenInterest,
			})
		}

		if s.CallOpenInterest > 0 && (bs.CallOI == nil || s.CallOpenInterest > bs.CallOI.OI) {
			bs.CallOI = &StrikeOI{Strike: s.Strike, OI: s.CallOpenInterest}
		}
		if s.PutOpenInterest > 0 && (bs.PutOI == nil || s.PutOpenInterest > bs.PutOI.OI) {
			bs.PutOI = &StrikeOI{Strike: s.Strike, OI: s.PutOpenInterest}
		}
	}
	if len(held) == 0 {
		return bs
	}

	sort.SliceStable(held, func(i, j int) bool {
		return held[i].TotalOI > held[j].TotalOI
	})

	bs.TotalOI = &StrikeOI{Strike: held[0].Strike, OI: held[0].TotalOI}
	bs.TopOIStrikes = append(bs.TopOIStrikes, held[:min(topStrikeCount, len(held))]...)
	return bs
}
