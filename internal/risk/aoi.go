package risk

import "biosentinel/internal/types"

// AOISignals are the per-layer observations feeding the combined AOI
// aggregator. NDVI is nil when the vegetation layer was not requested.
type AOISignals struct {
	HotspotCount int
	NDVI         *float64
}

// ScoreAOI aggregates the satellite-layer signals for an area of interest
// into a combined score, level, and factor list. Its fire breakpoints are
// distinct from both ScoreFire and ClassifyHotspots.
func ScoreAOI(sig AOISignals) (float64, types.RiskLevel, []string) {
	score := 0.0
	factors := []string{}

	switch {
	case sig.HotspotCount > 10:
		score += 2
		factors = append(factors, "High fire activity")
	case sig.HotspotCount > 5:
		score += 1
		factors = append(factors, "Moderate fire activity")
	}

	if sig.NDVI != nil && *sig.NDVI < 0.3 {
		score += 1.5
		factors = append(factors, "Vegetation stress detected")
	}

	var level types.RiskLevel
	switch {
	case score >= 3:
		level = types.RiskCritical
	case score >= 2:
		level = types.RiskHigh
	case score >= 1:
		level = types.RiskAtRisk
	default:
		level = types.RiskPositive
	}

	return score, level, factors
}
