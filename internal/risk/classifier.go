package risk

import (
	"context"
	"log/slog"

	"biosentinel/internal/external"
	"biosentinel/internal/types"

	"golang.org/x/sync/errgroup"
)

// OccurrenceSource is the slice of the occurrence provider the classifier
// consumes. Both methods fail soft, so classification never errors on an
// upstream outage.
type OccurrenceSource interface {
	RecentOccurrences(ctx context.Context, species string, lat, lon float64, radiusKm, limit int) []external.Occurrence
	HistoricalAverage(ctx context.Context, species string, lat, lon float64, radiusKm int) int
}

// Classifier runs the full species classification: fetch recent and
// historical occurrence counts concurrently, then score.
type Classifier struct {
	occ            OccurrenceSource
	humanProximity float64
	logger         *slog.Logger
}

// ClassifierOption is a functional option for configuring a Classifier.
type ClassifierOption func(*Classifier)

// WithHumanProximity overrides the settlement-proximity heuristic.
func WithHumanProximity(v float64) ClassifierOption {
	return func(c *Classifier) {
		c.humanProximity = v
	}
}

// NewClassifier creates a Classifier backed by the given occurrence
// source.
func NewClassifier(occ OccurrenceSource, logger *slog.Logger, opts ...ClassifierOption) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Classifier{
		occ:            occ,
		humanProximity: DefaultHumanProximity,
		logger:         logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Classify fetches the recent window and the historical baseline for the
// species concurrently, then scores them. Upstream failures have already
// degraded to the documented defaults inside the source, so the result is
// always a valid classification.
func (c *Classifier) Classify(ctx context.Context, species string, lat, lon float64, radiusKm int) types.ClassifyResponse {
	if radiusKm <= 0 {
		radiusKm = types.DefaultSearchRadiusKm
	}

	var (
		recent      []external.Occurrence
		historicAvg int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recent = c.occ.RecentOccurrences(gctx, species, lat, lon, radiusKm, types.DefaultOccurrenceLimit)
		return nil
	})
	g.Go(func() error {
		historicAvg = c.occ.HistoricalAverage(gctx, species, lat, lon, radiusKm)
		return nil
	})
	_ = g.Wait() // both branches fail soft

	endangered := IsEndangered(species)
	result := ScoreSpecies(len(recent), historicAvg, endangered, c.humanProximity)

	c.logger.DebugContext(ctx, "species classified",
		"species", species,
		"observations", result.Observations,
		"historical_avg", historicAvg,
		"score", result.Score,
		"level", result.Level,
	)

	return types.ClassifyResponse{
		RiskResult:     result,
		IsEndangered:   endangered,
		HumanProximity: c.humanProximity,
	}
}
