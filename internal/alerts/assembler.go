// Package alerts turns over-threshold risk results into alert records and
// manages their persistence: a narrow Sink interface with file and
// Postgres implementations, the alert service consumed by the API layer,
// and the cold-storage archiver.
package alerts

import (
	"fmt"
	"strconv"
	"strings"

	"biosentinel/internal/types"
)

const (
	// SpeciesAlertThreshold is the minimum species risk score that
	// materializes an alert.
	SpeciesAlertThreshold = 1.0
	// FireAlertThreshold is the minimum combined fire risk score that
	// materializes an alert.
	FireAlertThreshold = 2
)

// AssembleSpeciesAlert builds an alert record from a species risk result.
// Below the threshold it returns nil; that is the "no alert" outcome, not
// an error. ID and CreatedAt are left for the sink to assign.
func AssembleSpeciesAlert(species string, lat, lon float64, res types.RiskResult) *types.Alert {
	if res.Score < SpeciesAlertThreshold {
		return nil
	}

	return &types.Alert{
		Type:         "Species Activity",
		Level:        res.Level,
		Icon:         "eco",
		Title:        fmt.Sprintf("%s Activity Alert", species),
		Description:  strings.Join(res.Reasons, ". "),
		Time:         "Just now",
		Location:     fmt.Sprintf("%.2f° N, %.2f° E", lat, lon),
		Confidence:   formatConfidence(res.Score),
		Source:       "GBIF ML Analysis",
		Observations: res.Observations,
		TrendRatio:   res.TrendRatio,
	}
}

// AssembleFireAlert builds an alert record from a combined fire risk
// result for a named region. Below the threshold it returns nil.
func AssembleFireAlert(region string, res types.FireRiskResult) *types.Alert {
	if res.RiskScore < FireAlertThreshold {
		return nil
	}

	return &types.Alert{
		Type:        "Wildfire Activity",
		Level:       res.Level,
		Icon:        "local_fire_department",
		Title:       fmt.Sprintf("Fire Risk Alert: %s", region),
		Description: strings.Join(res.Factors, ". "),
		Time:        "Just now",
		Location:    region,
		Confidence:  formatConfidence(float64(res.RiskScore)),
		Source:      "NASA FIRMS",
	}
}

// formatConfidence renders score*30 capped at 99 as a percent string,
// dropping trailing zeros ("85%", "37.5%").
func formatConfidence(score float64) string {
	v := score * 30
	if v > 99 {
		v = 99
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
