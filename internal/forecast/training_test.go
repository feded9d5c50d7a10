package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/HerbHall/occutrend/internal/clock"
	"github.com/HerbHall/occutrend/pkg/occupancy"
)

// syntheticSamples builds a few weeks of hourly observations following a
// daily sine pattern.
func syntheticSamples(n int) []occupancy.Sample {
	start := time.Date(2026, time.February, 2, 6, 0, 0, 0, time.UTC)
	samples := make([]occupancy.Sample, n)
	for i := range samples {
		ts := start.Add(time.Duration(i) * time.Hour)
		pct := 50 + 30*math.Sin(2*math.Pi*float64(ts.Hour())/24)
		samples[i] = occupancy.Sample{ID: int64(i + 1), Timestamp: ts, Percentage: pct}
	}
	return samples
}

func TestPrepare_too_few_samples(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSamplesForTraining = 50

	preparer := NewPreparer(cfg, openCal{})
	_, _, err := preparer.Prepare(syntheticSamples(49), nil)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}

func TestPrepare_pairs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSamplesForTraining = 50

	samples := syntheticSamples(60)
	preparer := NewPreparer(cfg, openCal{})
	features, targets, err := preparer.Prepare(samples, nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(features) != 60 || len(targets) != 60 {
		t.Fatalf("got %d/%d pairs, want 60/60", len(features), len(targets))
	}

	// Training pairs use the observation itself as the target at horizon 0.
	for i := range targets {
		if targets[i] != samples[i].Percentage {
			t.Fatalf("target %d = %v, want %v", i, targets[i], samples[i].Percentage)
		}
		if features[i].HoursAhead != 0 {
			t.Fatalf("feature %d HoursAhead = %v, want 0", i, features[i].HoursAhead)
		}
	}
}

func TestTrain_pipeline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSamplesForTraining = 50

	samples := syntheticSamples(200)
	clk := clock.NewFixed(mondayTen)

	result, err := Train(samples, nil, openCal{}, cfg, clk, nil)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	if result.Model == nil || !result.Model.Validated {
		t.Fatal("expected a validated model")
	}
	if result.Model.TrainingSamples != 160 {
		t.Errorf("training samples = %d, want 160 after the 20%% split", result.Model.TrainingSamples)
	}
	if math.IsNaN(result.Model.ValidationMSE) || math.IsInf(result.Model.ValidationMSE, 0) {
		t.Errorf("validation MSE = %v", result.Model.ValidationMSE)
	}

	if result.Snapshot.Version != SnapshotVersion {
		t.Errorf("snapshot version = %d, want %d", result.Snapshot.Version, SnapshotVersion)
	}
	if !result.Snapshot.CreatedAt.Equal(mondayTen) {
		t.Errorf("snapshot created at = %v, want %v", result.Snapshot.CreatedAt, mondayTen)
	}
	if result.Extractor == nil {
		t.Error("missing extractor in training result")
	}
}

func TestTrain_pipeline_insufficient(t *testing.T) {
	cfg := DefaultConfig()
	_, err := Train(syntheticSamples(10), nil, openCal{}, cfg, clock.NewFixed(mondayTen), nil)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}
