package alerts

import (
	"context"
	"log/slog"

	"biosentinel/internal/risk"
	"biosentinel/internal/types"
)

// Classifier is the species classification entrypoint the service calls.
type Classifier interface {
	Classify(ctx context.Context, species string, lat, lon float64, radiusKm int) types.ClassifyResponse
}

// FireSource is the slice of the hotspot provider the service consumes.
// FetchRegion fails soft, returning an empty feed on outage.
type FireSource interface {
	FetchRegion(ctx context.Context, region string, days int) *types.FireData
}

// Service runs the alert pipeline: classify, assemble, persist. Sink save
// failures are logged and reported as "not saved" (a nil stored alert),
// never as a pipeline error; the classification result is always valid.
type Service struct {
	classifier Classifier
	fire       FireSource
	sink       Sink
	region     string
	logger     *slog.Logger
}

// NewService creates an alert Service. region is the hotspot feed region
// used by the regional risk analysis.
func NewService(classifier Classifier, fire FireSource, sink Sink, region string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		classifier: classifier,
		fire:       fire,
		sink:       sink,
		region:     region,
		logger:     logger,
	}
}

// ProcessSpecies classifies the species at the location and, when the
// score clears the alert threshold, persists an alert. The returned alert
// is nil when below threshold or when the sink rejected the save.
func (s *Service) ProcessSpecies(ctx context.Context, species string, lat, lon float64, radiusKm int) (types.ClassifyResponse, *types.Alert) {
	result := s.classifier.Classify(ctx, species, lat, lon, radiusKm)

	alert := AssembleSpeciesAlert(species, lat, lon, result.RiskResult)
	if alert == nil {
		return result, nil
	}

	saved, err := s.sink.Save(ctx, *alert)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to save species alert",
			"species", species,
			"level", alert.Level,
			"error", err,
		)
		return result, nil
	}

	return result, saved
}

// RiskAnalysis scores the regional hotspot feed. A provider outage reads
// as zero hotspots, which scores Low.
func (s *Service) RiskAnalysis(ctx context.Context) types.FireRiskResult {
	feed := s.fire.FetchRegion(ctx, s.region, 1)

	count := 0
	if feed != nil {
		count = len(feed.Hotspots)
	}

	return risk.ScoreFire(types.FireRiskInput{HotspotCount: count})
}

// ProcessRegion runs the regional fire risk analysis and persists an
// alert when the score clears the fire threshold. The returned alert is
// nil when below threshold or when the sink rejected the save.
func (s *Service) ProcessRegion(ctx context.Context) (types.FireRiskResult, *types.Alert) {
	result := s.RiskAnalysis(ctx)

	alert := AssembleFireAlert(s.region, result)
	if alert == nil {
		return result, nil
	}

	saved, err := s.sink.Save(ctx, *alert)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to save fire alert",
			"region", s.region,
			"level", alert.Level,
			"error", err,
		)
		return result, nil
	}

	return result, saved
}

// Create persists a caller-supplied alert record. Unlike the pipeline
// paths, a sink failure here surfaces to the caller.
func (s *Service) Create(ctx context.Context, alert types.Alert) (*types.Alert, error) {
	return s.sink.Save(ctx, alert)
}

// List returns all stored alerts, newest first.
func (s *Service) List(ctx context.Context) ([]types.Alert, error) {
	return s.sink.ListAll(ctx)
}
