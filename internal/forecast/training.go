package forecast

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/HerbHall/occutrend/internal/clock"
	"github.com/HerbHall/occutrend/pkg/occupancy"
)

// TrainingResult bundles the outcome of one training run.
type TrainingResult struct {
	Model     *TrainedModel
	Extractor *Extractor
	Snapshot  Snapshot
}

// Preparer converts stored samples into training pairs.
type Preparer struct {
	cfg Config
	cal Calendar
}

// NewPreparer creates a training-data preparer.
func NewPreparer(cfg Config, cal Calendar) *Preparer {
	return &Preparer{cfg: cfg, cal: cal}
}

// Prepare walks the stored samples in order, maintaining the same bounded
// momentum window the predictor uses, and extracts one feature/target
// pair per sample. Training data uses a horizon of 0 (the observation
// itself). Fails if fewer than the configured minimum samples exist.
func (p *Preparer) Prepare(samples []occupancy.Sample, baseline []occupancy.SlotAverage) ([]Features, []float64, error) {
	if len(samples) < p.cfg.MinSamplesForTraining {
		return nil, nil, fmt.Errorf("%w: %d samples", ErrInsufficientData, len(samples))
	}

	extractor := NewExtractor(p.cal)
	extractor.UpdateHistoricalStats(baseline)

	features := make([]Features, 0, len(samples))
	targets := make([]float64, 0, len(samples))
	window := make([]occupancy.TimedValue, 0, recentWindowCap)

	for _, smp := range samples {
		for len(window) >= recentWindowCap {
			window = window[1:]
		}
		window = append(window, occupancy.TimedValue{Timestamp: smp.Timestamp, Percentage: smp.Percentage})

		features = append(features, extractor.Extract(smp.Timestamp, 0, window, baseline))
		targets = append(targets, smp.Percentage)
	}

	return features, targets, nil
}

// Train runs the complete training pipeline: prepare pairs, fit with a
// 20% index-based validation split, and produce a persistable snapshot.
// A failed run leaves any previously trained model untouched.
func Train(samples []occupancy.Sample, baseline []occupancy.SlotAverage, cal Calendar, cfg Config, clk clock.Clock, log *zap.Logger) (*TrainingResult, error) {
	if log == nil {
		log = zap.NewNop()
	}

	preparer := NewPreparer(cfg, cal)
	features, targets, err := preparer.Prepare(samples, baseline)
	if err != nil {
		return nil, err
	}

	builder := NewModelBuilder().WithClock(clk)
	model, err := builder.TrainWithValidation(features, targets, 0.2)
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}

	extractor := NewExtractor(cal)
	extractor.UpdateHistoricalStats(baseline)

	snapshot := NewSnapshot(model, extractor, cfg, clk)

	log.Info("model trained",
		zap.Int("samples", model.TrainingSamples),
		zap.Float64("training_mse", model.TrainingMSE),
		zap.Float64("validation_mse", model.ValidationMSE))

	return &TrainingResult{
		Model:     model,
		Extractor: extractor,
		Snapshot:  snapshot,
	}, nil
}
