package risk

import (
	"context"
	"testing"

	"biosentinel/internal/external"
	"biosentinel/internal/types"
)

// stubOccurrenceSource mimics the provider's fail-soft contract: a failed
// backend reads as zero recent records and the fallback average.
type stubOccurrenceSource struct {
	recent      []external.Occurrence
	historicAvg int
}

func (s *stubOccurrenceSource) RecentOccurrences(_ context.Context, _ string, _, _ float64, _, _ int) []external.Occurrence {
	return s.recent
}

func (s *stubOccurrenceSource) HistoricalAverage(_ context.Context, _ string, _, _ float64, _ int) int {
	return s.historicAvg
}

func TestClassifyCombinesFetchedSignals(t *testing.T) {
	src := &stubOccurrenceSource{
		recent:      make([]external.Occurrence, 12),
		historicAvg: 4,
	}
	c := NewClassifier(src, nil)

	got := c.Classify(context.Background(), "Panthera tigris", 21.5, 80.2, 25)

	if !got.IsEndangered {
		t.Error("IsEndangered = false, want true")
	}
	if got.HumanProximity != DefaultHumanProximity {
		t.Errorf("HumanProximity = %v, want %v", got.HumanProximity, DefaultHumanProximity)
	}
	if got.Observations != 12 {
		t.Errorf("Observations = %d, want 12", got.Observations)
	}
	if got.Level != types.RiskCritical {
		t.Errorf("Level = %v, want %v", got.Level, types.RiskCritical)
	}
}

func TestClassifyDegradesToDefaultsOnOutage(t *testing.T) {
	// An upstream outage manifests as an empty recent window and the
	// fallback historical average, never as an error.
	src := &stubOccurrenceSource{recent: nil, historicAvg: 4}
	c := NewClassifier(src, nil)

	got := c.Classify(context.Background(), "Felis catus", 0, 0, 0)

	if got.Observations != 0 {
		t.Errorf("Observations = %d, want 0", got.Observations)
	}
	if got.Level == "" {
		t.Error("Level is empty, want a valid classification")
	}
	if got.TrendRatio != 0 {
		t.Errorf("TrendRatio = %v, want 0", got.TrendRatio)
	}
}

func TestClassifyHonorsProximityOverride(t *testing.T) {
	src := &stubOccurrenceSource{recent: make([]external.Occurrence, 4), historicAvg: 4}
	c := NewClassifier(src, nil, WithHumanProximity(0.1))

	got := c.Classify(context.Background(), "Felis catus", 0, 0, 25)

	if got.HumanProximity != 0.1 {
		t.Errorf("HumanProximity = %v, want 0.1", got.HumanProximity)
	}
	// Ratio 1.0 is the normal range and proximity 0.1 adds nothing.
	if got.Score != 0 {
		t.Errorf("Score = %v, want 0", got.Score)
	}
}
