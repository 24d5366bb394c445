// Package types defines the shared domain model for the BioSentinel platform:
// risk scoring inputs and results, alert records, areas of interest, and the
// application error taxonomy. It has no dependencies on other internal
// packages so that every layer (clients, scorers, storage, API) can consume
// it without cycles.
package types

import "time"

// RiskLevel is the qualitative classification emitted by the risk scorers.
type RiskLevel string

const (
	RiskPositive RiskLevel = "Positive"
	RiskLow      RiskLevel = "Low"
	RiskAtRisk   RiskLevel = "At Risk"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AOI is a rectangular area of interest used for satellite-layer analysis.
type AOI struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLon"`
	MaxLon float64 `json:"maxLon"`
}

// Contains reports whether the given coordinate falls inside the AOI
// (inclusive on all edges).
func (a AOI) Contains(lat, lon float64) bool {
	return lat >= a.MinLat && lat <= a.MaxLat && lon >= a.MinLon && lon <= a.MaxLon
}

// Center returns the midpoint of the AOI.
func (a AOI) Center() Location {
	return Location{
		Lat: (a.MinLat + a.MaxLat) / 2,
		Lon: (a.MinLon + a.MaxLon) / 2,
	}
}

// Hotspot is a single active-fire detection from the hotspot provider.
// Only the fields the risk core reads are modeled; the provider owns the
// full wire format.
type Hotspot struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Brightness float64 `json:"brightness"`
}

// FireData is the parsed result of a hotspot fetch. A nil FireData (or an
// empty Hotspots slice) is the documented fail-soft default when the
// provider is unavailable.
type FireData struct {
	Hotspots []Hotspot `json:"hotspots"`
}

// RiskResult is the immutable output of the species risk scorer.
// Score and TrendRatio are rounded to two decimal places; Reasons preserves
// evaluation order (endangered, then trend, then proximity).
type RiskResult struct {
	Score        float64   `json:"score"`
	Level        RiskLevel `json:"level"`
	Reasons      []string  `json:"reasons"`
	TrendRatio   float64   `json:"trendRatio"`
	Observations int       `json:"observations"`
}

// FireRiskInput carries the signals consumed by the combined fire scorer.
// SpeciesGrowth and CitizenReportCount are optional; nil means the signal
// was not observed and contributes nothing.
type FireRiskInput struct {
	HotspotCount       int
	SpeciesGrowth      *float64
	CitizenReportCount *int
}

// FireRiskResult is the immutable output of the combined fire scorer.
type FireRiskResult struct {
	Level            RiskLevel `json:"level"`
	Color            string    `json:"color"`
	RiskScore        int       `json:"riskScore"`
	Factors          []string  `json:"factors"`
	RiskLevelPercent float64   `json:"riskLevelPercent"`
}

// Alert is the record assembled from an over-threshold risk result and handed
// to the alert sink. ID and CreatedAt are assigned by the sink on save; an
// Alert constructed by the assembler carries zero values for both.
type Alert struct {
	ID           string    `json:"id,omitempty"`
	Type         string    `json:"type"`
	Level        RiskLevel `json:"level"`
	Icon         string    `json:"icon"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Time         string    `json:"time"`
	Location     string    `json:"location"`
	Confidence   string    `json:"confidence"`
	Source       string    `json:"source"`
	Observations int       `json:"observations,omitempty"`
	TrendRatio   float64   `json:"trendRatio,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}

// ClassifyRequest is the input contract for the species classification
// entrypoint. Species, Lat, and Lon are required; a missing value is a
// validation failure, never silently defaulted.
type ClassifyRequest struct {
	Species string   `json:"species" validate:"required,max=200"`
	Lat     *float64 `json:"lat" validate:"required"`
	Lon     *float64 `json:"lon" validate:"required"`
	Radius  int      `json:"radius,omitempty" validate:"omitempty,gt=0,lte=500"`
}

// ClassifyResponse is the species classification output: the RiskResult plus
// the resolved input signals, matching the shape the dashboard consumes.
type ClassifyResponse struct {
	RiskResult
	IsEndangered   bool    `json:"isEndangered"`
	HumanProximity float64 `json:"humanProximity"`
}

// LayerResult holds the per-layer outputs of an AOI satellite analysis.
// Layers that were not requested are nil.
type LayerResult struct {
	Fire       *FireLayer       `json:"fire,omitempty"`
	Vegetation *VegetationLayer `json:"vegetation,omitempty"`
	LandCover  *LandCoverLayer  `json:"landcover,omitempty"`

	RiskScore   float64   `json:"riskScore"`
	RiskLevel   RiskLevel `json:"riskLevel"`
	RiskFactors []string  `json:"riskFactors"`
	AOI         AOI       `json:"aoi"`
	Timestamp   time.Time `json:"timestamp"`
}

// FireLayer is the fire portion of an AOI analysis.
type FireLayer struct {
	HotspotCount int       `json:"hotspotCount"`
	RiskLevel    RiskLevel `json:"riskLevel"`
	LastUpdate   time.Time `json:"lastUpdate"`
}

// VegetationLayer is the NDVI portion of an AOI analysis.
type VegetationLayer struct {
	NDVI       float64   `json:"ndvi"`
	Status     string    `json:"status"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// LandCoverLayer is the land-cover portion of an AOI analysis.
type LandCoverLayer struct {
	Type             string `json:"type"`
	ForestPercentage int    `json:"forestPercentage"`
	DominantClass    string `json:"dominantClass"`
}
