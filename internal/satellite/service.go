// Package satellite implements the AOI layer analysis: per-layer fetches
// (fire hotspots, vegetation index, land cover) combined into a single
// risk-annotated result.
package satellite

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"biosentinel/internal/risk"
	"biosentinel/internal/types"

	"golang.org/x/sync/errgroup"
)

// Layer identifiers accepted by Analyze.
const (
	LayerFire       = "fire"
	LayerVegetation = "vegetation"
	LayerLandCover  = "landcover"
)

// ValidLayer reports whether the identifier names a known layer.
func ValidLayer(layer string) bool {
	switch layer {
	case LayerFire, LayerVegetation, LayerLandCover:
		return true
	}
	return false
}

// LayerInfo describes an available satellite layer for the catalog
// endpoint.
type LayerInfo struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Source          string `json:"source"`
	UpdateFrequency string `json:"updateFrequency"`
	Description     string `json:"description"`
}

// AvailableLayers returns the layer catalog.
func AvailableLayers() []LayerInfo {
	return []LayerInfo{
		{
			ID:              LayerFire,
			Name:            "Active Fire",
			Source:          "NASA FIRMS",
			UpdateFrequency: "6 hours",
			Description:     "Near-real-time fire detection from VIIRS satellite",
		},
		{
			ID:              LayerVegetation,
			Name:            "Vegetation Index (NDVI)",
			Source:          "Sentinel-2",
			UpdateFrequency: "5-10 days",
			Description:     "Normalized Difference Vegetation Index",
		},
		{
			ID:              LayerLandCover,
			Name:            "Land Cover",
			Source:          "ESA WorldCover",
			UpdateFrequency: "Annual",
			Description:     "Global land cover classification",
		},
	}
}

// FireSource is the slice of the hotspot provider the analysis consumes.
// FetchAOI fails soft, returning an empty feed on outage.
type FireSource interface {
	FetchAOI(ctx context.Context, aoi types.AOI, days int) *types.FireData
}

// VegetationSource supplies an NDVI reading for an AOI.
type VegetationSource interface {
	NDVI(ctx context.Context, aoi types.AOI) float64
}

// SimulatedVegetation generates NDVI readings in the [0.3, 0.8) range.
// It stands in for a Sentinel Hub integration.
type SimulatedVegetation struct{}

func (SimulatedVegetation) NDVI(_ context.Context, _ types.AOI) float64 {
	return 0.3 + rand.Float64()*0.5
}

// VegetationStatus maps an NDVI value to its qualitative label.
func VegetationStatus(ndvi float64) string {
	switch {
	case ndvi < 0.3:
		return "Stressed"
	case ndvi < 0.5:
		return "Moderate"
	default:
		return "Healthy"
	}
}

// Service runs AOI layer analysis. Requested layers are fetched
// concurrently, then the combined AOI risk is aggregated from the fire
// and vegetation signals.
type Service struct {
	fire   FireSource
	veg    VegetationSource
	clock  types.Clock
	logger *slog.Logger
}

// NewService creates a satellite analysis Service. A nil veg source
// defaults to the simulated vegetation reader.
func NewService(fire FireSource, veg VegetationSource, clock types.Clock, logger *slog.Logger) *Service {
	if veg == nil {
		veg = SimulatedVegetation{}
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fire:   fire,
		veg:    veg,
		clock:  clock,
		logger: logger,
	}
}

// Analyze fetches the requested layers for the AOI and aggregates the
// combined risk. Unrequested layers are nil in the result and contribute
// nothing to the score.
func (s *Service) Analyze(ctx context.Context, aoi types.AOI, layers []string) types.LayerResult {
	now := s.clock.Now()
	result := types.LayerResult{
		AOI:       aoi,
		Timestamp: now,
	}

	requested := make(map[string]bool, len(layers))
	for _, l := range layers {
		requested[l] = true
	}

	g, gctx := errgroup.WithContext(ctx)

	if requested[LayerFire] {
		g.Go(func() error {
			feed := s.fire.FetchAOI(gctx, aoi, 1)
			count := 0
			if feed != nil {
				count = len(feed.Hotspots)
			}
			result.Fire = &types.FireLayer{
				HotspotCount: count,
				RiskLevel:    risk.ClassifyHotspots(count),
				LastUpdate:   now.Add(-6 * time.Hour),
			}
			return nil
		})
	}

	if requested[LayerVegetation] {
		g.Go(func() error {
			ndvi := s.veg.NDVI(gctx, aoi)
			result.Vegetation = &types.VegetationLayer{
				NDVI:       ndvi,
				Status:     VegetationStatus(ndvi),
				LastUpdate: now.Add(-5 * 24 * time.Hour),
			}
			return nil
		})
	}

	_ = g.Wait() // layer fetches fail soft

	if requested[LayerLandCover] {
		result.LandCover = &types.LandCoverLayer{
			Type:             "Forest/Non-Forest",
			ForestPercentage: 35,
			DominantClass:    "Evergreen Broadleaf Forest",
		}
	}

	sig := risk.AOISignals{}
	if result.Fire != nil {
		sig.HotspotCount = result.Fire.HotspotCount
	}
	if result.Vegetation != nil {
		sig.NDVI = &result.Vegetation.NDVI
	}

	score, level, factors := risk.ScoreAOI(sig)
	result.RiskScore = score
	result.RiskLevel = level
	result.RiskFactors = factors

	s.logger.DebugContext(ctx, "AOI analyzed",
		"layers", layers,
		"risk_score", score,
		"risk_level", level,
	)

	return result
}
