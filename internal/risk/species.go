// Package risk implements the deterministic classifiers that turn fetched
// occurrence and hotspot scalars into qualitative risk levels. Every
// scoring function here is pure: identical inputs always produce the
// identical score, level, and reason list, so the functions are safe to
// call concurrently and cheap to test exhaustively.
package risk

import (
	"fmt"
	"math"

	"biosentinel/internal/types"
)

// DefaultHumanProximity is the settlement-proximity heuristic applied to
// every classification. It is a documented placeholder for a future
// settlement-density model; keep it an explicit, overridable input
// rather than folding it into the scorer.
const DefaultHumanProximity = 0.7

// endangeredSpecies is the fixed watch list checked during scoring.
// Membership is an exact, case-sensitive match on the name as recorded
// upstream ("Snow Leopard" is listed by common name there).
var endangeredSpecies = map[string]struct{}{
	"Panthera tigris":        {}, // Tiger
	"Panthera leo":           {}, // Lion
	"Panthera onca":          {}, // Jaguar
	"Snow Leopard":           {}, // Uncia uncia
	"Elephas maximus":        {}, // Asian Elephant
	"Rhinoceros unicornis":   {}, // Indian Rhino
	"Gorilla beringei":       {}, // Mountain Gorilla
	"Pongo abelii":           {}, // Sumatran Orangutan
	"Ailuropoda melanoleuca": {}, // Giant Panda
	"Vultur gryphus":         {}, // Andean Condor
	"Aquila chrysaetos":      {}, // Golden Eagle
	"Crocodylus niloticus":   {}, // Nile Crocodile
	"Python reticulatus":     {}, // Reticulated Python
	"Macaca fascicularis":    {}, // Crab-eating Macaque
}

// IsEndangered reports whether the species name is on the watch list.
func IsEndangered(species string) bool {
	_, ok := endangeredSpecies[species]
	return ok
}

// ScoreSpecies computes the species-activity risk from the recent sighting
// count, the historical baseline, watch-list membership, and the
// human-proximity heuristic.
//
// The trend ratio divides the recent count by max(historicalAverage, 1)
// so a missing or zero baseline never divides by zero. Signals accumulate
// additively with reasons appended in a fixed order: endangered, then
// trend, then proximity. A trend ratio in [0.5, 2.0) is the normal range
// and contributes nothing.
func ScoreSpecies(recentCount, historicalAverage int, endangered bool, humanProximity float64) types.RiskResult {
	score := 0.0
	reasons := []string{}

	denom := historicalAverage
	if denom < 1 {
		denom = 1
	}
	trendRatio := float64(recentCount) / float64(denom)

	if endangered {
		score += 1.5
		reasons = append(reasons, "Endangered species detected")
	}

	switch {
	case trendRatio >= 3.0:
		score += 1.5
		reasons = append(reasons, fmt.Sprintf("Major surge in sightings (%.1fx average)", trendRatio))
	case trendRatio >= 2.0:
		score += 1.2
		reasons = append(reasons, fmt.Sprintf("Unusual increase in sightings (%.1fx average)", trendRatio))
	case trendRatio < 0.5:
		score += 1.0
		reasons = append(reasons, fmt.Sprintf("Decline in sightings (%.1fx average)", trendRatio))
	}

	switch {
	case humanProximity >= 0.7:
		score += 0.8
		reasons = append(reasons, "Near human-populated areas")
	case humanProximity >= 0.4:
		score += 0.4
		reasons = append(reasons, "Moderate proximity to settlements")
	}

	var level types.RiskLevel
	switch {
	case score >= 3.0:
		level = types.RiskCritical
	case score >= 2.0:
		level = types.RiskHigh
	case score >= 1.0:
		level = types.RiskAtRisk
	default:
		level = types.RiskPositive
	}

	return types.RiskResult{
		Score:        round2(score),
		Level:        level,
		Reasons:      reasons,
		TrendRatio:   round2(trendRatio),
		Observations: recentCount,
	}
}

// round2 rounds to two decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
