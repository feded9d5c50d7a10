package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/HerbHall/occutrend/internal/clock"
	"github.com/HerbHall/occutrend/pkg/occupancy"
)

// Monday 2026-03-09 10:00 UTC.
var mondayTen = time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)

func TestPredict_fallback_scenario(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PredictionHorizonHours = 2
	p := NewPredictor(cfg, openCal{}, nil)

	baseline := []occupancy.SlotAverage{
		sa(0, 11, 30, 10),
		sa(0, 12, 50, 10),
	}
	clk := clock.NewFixed(mondayTen)

	got := p.Predict(baseline, openCal{}, clk)
	if len(got) != 2 {
		t.Fatalf("got %d predictions, want 2", len(got))
	}

	first := got[0]
	if !first.Timestamp.Equal(mondayTen.Add(time.Hour)) {
		t.Errorf("first timestamp = %v, want 11:00", first.Timestamp)
	}
	if first.PredictedValue != 30 {
		t.Errorf("first value = %v, want 30", first.PredictedValue)
	}
	if first.ConfidenceLow != 20 || first.ConfidenceHigh != 40 {
		t.Errorf("first band = [%v, %v], want [20, 40]", first.ConfidenceLow, first.ConfidenceHigh)
	}

	second := got[1]
	if !second.Timestamp.Equal(mondayTen.Add(2 * time.Hour)) {
		t.Errorf("second timestamp = %v, want 12:00", second.Timestamp)
	}
	if second.PredictedValue != 50 {
		t.Errorf("second value = %v, want 50", second.PredictedValue)
	}

	for i, pred := range got {
		if pred.Method != MethodHistoricalAverage {
			t.Errorf("prediction %d method = %v, want historical average", i, pred.Method)
		}
		if pred.ConfidenceScore != 0.5 {
			t.Errorf("prediction %d score = %v, want 0.5", i, pred.ConfidenceScore)
		}
		if !pred.IsValid() {
			t.Errorf("prediction %d failed the confidence invariant: %+v", i, pred)
		}
	}
}

func TestPredict_fallback_unknown_slot_defaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PredictionHorizonHours = 1
	p := NewPredictor(cfg, openCal{}, nil)

	got := p.Predict(nil, openCal{}, clock.NewFixed(mondayTen))
	if len(got) != 1 {
		t.Fatalf("got %d predictions, want 1", len(got))
	}
	pred := got[0]
	if pred.PredictedValue != 50 || pred.ConfidenceLow != 30 || pred.ConfidenceHigh != 70 {
		t.Errorf("defaults = (%v, %v, %v), want (50, 30, 70)", pred.PredictedValue, pred.ConfidenceLow, pred.ConfidenceHigh)
	}
}

type offsetCal struct{ loc *time.Location }

func (c offsetCal) IsOpen(time.Time) bool    { return true }
func (c offsetCal) IsHoliday(time.Time) bool { return false }
func (c offsetCal) Location() *time.Location { return c.loc }

func TestPredict_fallback_matches_local_slots(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PredictionHorizonHours = 1
	cal := offsetCal{loc: time.FixedZone("UTC+1", 3600)}
	p := NewPredictor(cfg, cal, nil)

	// Monday 10:00 UTC is 11:00 local; the next hour is local slot (Mon, 12).
	baseline := []occupancy.SlotAverage{sa(0, 12, 30, 10)}

	got := p.Predict(baseline, cal, clock.NewFixed(mondayTen))
	if len(got) != 1 {
		t.Fatalf("got %d predictions, want 1", len(got))
	}
	if got[0].PredictedValue != 30 {
		t.Errorf("value = %v, want 30 from local slot (Mon, 12)", got[0].PredictedValue)
	}
	if got[0].ConfidenceLow != 20 || got[0].ConfidenceHigh != 40 {
		t.Errorf("band = [%v, %v], want [20, 40]", got[0].ConfidenceLow, got[0].ConfidenceHigh)
	}
}

func TestPredict_confidence_uses_local_slot_std(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PredictionHorizonHours = 1
	cal := offsetCal{loc: time.FixedZone("UTC+1", 3600)}
	p := NewPredictor(cfg, cal, nil)

	// Local slot (Mon, 12) has values {40, 50, 60}: std 10.
	p.UpdateBaseline([]occupancy.SlotAverage{
		sa(0, 12, 40, 10),
		sa(0, 12, 50, 10),
		sa(0, 12, 60, 10),
	})
	p.SetModel(&TrainedModel{weights: make([]float64, NumFeatures), intercept: 50}, mondayTen)

	got := p.Predict(nil, cal, clock.NewFixed(mondayTen))
	if len(got) != 1 {
		t.Fatalf("got %d predictions, want 1", len(got))
	}
	// Slot std 10 gives a band of 20; the default std 15 would give 30.
	if w := got[0].IntervalWidth(); math.Abs(w-20) > 1e-9 {
		t.Errorf("interval width = %v, want 20 from the local slot's std", w)
	}
}

func TestPredict_skips_closed_hours(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PredictionHorizonHours = 6
	p := NewPredictor(cfg, openCal{}, nil)

	got := p.Predict(nil, closedCal{}, clock.NewFixed(mondayTen))
	if len(got) != 0 {
		t.Errorf("got %d predictions through closed hours, want 0", len(got))
	}
}

func TestPredict_model_path(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PredictionHorizonHours = 2
	p := NewPredictor(cfg, openCal{}, nil)

	model := &TrainedModel{weights: make([]float64, NumFeatures), intercept: 42}
	p.SetModel(model, mondayTen)

	got := p.Predict(nil, openCal{}, clock.NewFixed(mondayTen))
	if len(got) != 2 {
		t.Fatalf("got %d predictions, want 2", len(got))
	}

	for i, pred := range got {
		if pred.Method != MethodModelBased {
			t.Errorf("prediction %d method = %v, want model", i, pred.Method)
		}
		if pred.PredictedValue != 42 {
			t.Errorf("prediction %d value = %v, want 42", i, pred.PredictedValue)
		}
		if !pred.IsValid() {
			t.Errorf("prediction %d failed the confidence invariant: %+v", i, pred)
		}
	}

	// No slot stats: base std 15, inflated by 15% per extra hour ahead.
	if w := got[0].IntervalWidth(); math.Abs(w-30) > 1e-9 {
		t.Errorf("1h interval width = %v, want 30", w)
	}
	if w := got[1].IntervalWidth(); math.Abs(w-34.5) > 1e-9 {
		t.Errorf("2h interval width = %v, want 34.5", w)
	}
	if got[1].ConfidenceScore >= got[0].ConfidenceScore {
		t.Error("confidence should shrink with the horizon")
	}
}

func TestPredict_disabled_uses_fallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	cfg.PredictionHorizonHours = 1
	p := NewPredictor(cfg, openCal{}, nil)
	p.SetModel(&TrainedModel{weights: make([]float64, NumFeatures), intercept: 42}, mondayTen)

	got := p.Predict(nil, openCal{}, clock.NewFixed(mondayTen))
	if len(got) != 1 {
		t.Fatalf("got %d predictions, want 1", len(got))
	}
	if got[0].Method != MethodHistoricalAverage {
		t.Errorf("method = %v, want historical average while disabled", got[0].Method)
	}
}

func TestNeedsRetraining(t *testing.T) {
	p := NewPredictor(DefaultConfig(), openCal{}, nil)
	clk := clock.NewFixed(mondayTen)

	if !p.NeedsRetraining(clk) {
		t.Error("untrained predictor should need retraining")
	}

	p.SetModel(&TrainedModel{weights: make([]float64, NumFeatures)}, mondayTen)
	if p.NeedsRetraining(clk) {
		t.Error("freshly trained predictor should not need retraining")
	}

	clk.Advance(23 * time.Hour)
	if p.NeedsRetraining(clk) {
		t.Error("should not retrain before the interval elapses")
	}

	clk.Advance(2 * time.Hour)
	if !p.NeedsRetraining(clk) {
		t.Error("should retrain once the interval elapses")
	}
}

func TestLastTraining(t *testing.T) {
	p := NewPredictor(DefaultConfig(), openCal{}, nil)
	if _, ok := p.LastTraining(); ok {
		t.Error("untrained predictor should report no training time")
	}
	p.SetModel(&TrainedModel{weights: make([]float64, NumFeatures)}, mondayTen)
	ts, ok := p.LastTraining()
	if !ok || !ts.Equal(mondayTen) {
		t.Errorf("LastTraining = (%v, %v), want (%v, true)", ts, ok, mondayTen)
	}
}

func TestAddObservation_caps_window(t *testing.T) {
	p := NewPredictor(DefaultConfig(), openCal{}, nil)
	for i := 0; i < recentWindowCap+20; i++ {
		p.AddObservation(mondayTen.Add(time.Duration(i)*time.Minute), float64(i%100))
	}
	if len(p.recent) != recentWindowCap {
		t.Errorf("window length = %d, want %d", len(p.recent), recentWindowCap)
	}
	// Oldest entries are evicted first.
	if got := p.recent[0].Timestamp; !got.Equal(mondayTen.Add(20 * time.Minute)) {
		t.Errorf("oldest retained = %v, want %v", got, mondayTen.Add(20*time.Minute))
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Enabled {
		t.Error("Enabled = false, want true")
	}
	if cfg.TrainingWindowDays != 56 {
		t.Errorf("TrainingWindowDays = %d, want 56", cfg.TrainingWindowDays)
	}
	if cfg.RetrainIntervalHours != 24 {
		t.Errorf("RetrainIntervalHours = %d, want 24", cfg.RetrainIntervalHours)
	}
	if cfg.PredictionHorizonHours != 6 {
		t.Errorf("PredictionHorizonHours = %d, want 6", cfg.PredictionHorizonHours)
	}
	if cfg.MinSamplesForTraining != 500 {
		t.Errorf("MinSamplesForTraining = %d, want 500", cfg.MinSamplesForTraining)
	}
	if !cfg.FallbackOnError {
		t.Error("FallbackOnError = false, want true")
	}
}
