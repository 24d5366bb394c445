package risk

import "biosentinel/internal/types"

// Fire risk colors rendered by the dashboard map layer.
const (
	colorCritical = "#ff2288"
	colorHigh     = "#FF007F"
	colorAtRisk   = "#ffffff"
	colorPositive = "#39FF14"
	colorLow      = "#22ff88"
)

// ScoreFire computes the combined regional fire risk from the hotspot
// count plus two optional signals. Signals accumulate additively on an
// integer score, with factors appended in evaluation order: fire, then
// species growth, then citizen reports. Species growth is the only
// risk-reducing signal, so the final score can go negative; a negative
// score classifies as Positive.
//
// The hotspot tiers here are intentionally different from both
// ClassifyHotspots and ScoreAOI. The three classifiers serve different
// call sites and are never unified.
func ScoreFire(in types.FireRiskInput) types.FireRiskResult {
	score := 0
	factors := []string{}

	switch {
	case in.HotspotCount > 20:
		score += 3
		factors = append(factors, "High wildfire activity")
	case in.HotspotCount > 10:
		score += 2
		factors = append(factors, "Moderate wildfire activity")
	case in.HotspotCount > 0:
		score += 1
		factors = append(factors, "Minor wildfire activity")
	}

	if in.SpeciesGrowth != nil && *in.SpeciesGrowth >= 2 {
		score -= 2
		factors = append(factors, "species population growth")
	}

	if in.CitizenReportCount != nil && *in.CitizenReportCount > 5 {
		score += 1
		factors = append(factors, "multiple citizen reports")
	}

	level, color := fireLevel(score)

	percent := float64(score) / 3 * 100
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	return types.FireRiskResult{
		Level:            level,
		Color:            color,
		RiskScore:        score,
		Factors:          factors,
		RiskLevelPercent: percent,
	}
}

func fireLevel(score int) (types.RiskLevel, string) {
	switch {
	case score >= 3:
		return types.RiskCritical, colorCritical
	case score >= 2:
		return types.RiskHigh, colorHigh
	case score >= 1:
		return types.RiskAtRisk, colorAtRisk
	case score < 0:
		return types.RiskPositive, colorPositive
	default:
		return types.RiskLow, colorLow
	}
}

// ClassifyHotspots is the standalone hotspot classifier used by the
// satellite-layer endpoint. Its breakpoints are deliberately not shared
// with ScoreFire.
func ClassifyHotspots(count int) types.RiskLevel {
	switch {
	case count > 20:
		return types.RiskCritical
	case count > 10:
		return types.RiskHigh
	case count > 5:
		return types.RiskAtRisk
	default:
		return types.RiskLow
	}
}
