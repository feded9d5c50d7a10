package forecast

import (
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/occutrend/internal/clock"
	"github.com/HerbHall/occutrend/pkg/occupancy"
)

// recentWindowCap bounds the momentum window: 3 hours at one sample per
// minute.
const recentWindowCap = 180

// Config controls the forecasting pipeline.
type Config struct {
	Enabled                bool `json:"enabled" mapstructure:"enabled"`
	TrainingWindowDays     int  `json:"training_window_days" mapstructure:"training_window_days"`
	RetrainIntervalHours   int  `json:"retrain_interval_hours" mapstructure:"retrain_interval_hours"`
	PredictionHorizonHours int  `json:"prediction_horizon_hours" mapstructure:"prediction_horizon_hours"`
	MinSamplesForTraining  int  `json:"min_samples_for_training" mapstructure:"min_samples_for_training"`
	FallbackOnError        bool `json:"fallback_on_error" mapstructure:"fallback_on_error"`
}

// DefaultConfig returns the standard forecasting configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:                true,
		TrainingWindowDays:     56,
		RetrainIntervalHours:   24,
		PredictionHorizonHours: 6,
		MinSamplesForTraining:  500,
		FallbackOnError:        true,
	}
}

// Predictor combines the trained model with the historical-average
// fallback. Its recent-sample window and slot statistics are single-owner
// state; callers must serialize access.
type Predictor struct {
	model        *TrainedModel
	extractor    *Extractor
	cal          Calendar
	recent       []occupancy.TimedValue
	lastTraining time.Time
	trained      bool
	cfg          Config
	log          *zap.Logger
}

// NewPredictor creates a predictor with no model loaded. A nil logger
// defaults to a no-op logger.
func NewPredictor(cfg Config, cal Calendar, log *zap.Logger) *Predictor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Predictor{
		extractor: NewExtractor(cal),
		cal:       cal,
		recent:    make([]occupancy.TimedValue, 0, recentWindowCap),
		cfg:       cfg,
		log:       log,
	}
}

// Config returns the predictor's configuration.
func (p *Predictor) Config() Config {
	return p.cfg
}

// HasModel reports whether a trained model is loaded.
func (p *Predictor) HasModel() bool {
	return p.model != nil
}

// CanUseModel reports whether model-based prediction is available.
func (p *Predictor) CanUseModel() bool {
	return p.cfg.Enabled && p.model != nil
}

// LastTraining returns the time of the last training, if any.
func (p *Predictor) LastTraining() (time.Time, bool) {
	return p.lastTraining, p.trained
}

// NeedsRetraining reports whether the model should be retrained: it has
// never been trained, or the retrain interval has elapsed.
func (p *Predictor) NeedsRetraining(clk clock.Clock) bool {
	if !p.trained {
		return true
	}
	hoursSince := clk.Now().Sub(p.lastTraining).Hours()
	return hoursSince >= float64(p.cfg.RetrainIntervalHours)
}

// SetModel installs a trained model and records the training time.
func (p *Predictor) SetModel(model *TrainedModel, trainedAt time.Time) {
	p.model = model
	p.lastTraining = trainedAt
	p.trained = true
}

// AddObservation pushes a raw sample onto the momentum window, evicting
// the oldest once at capacity.
func (p *Predictor) AddObservation(ts time.Time, percentage float64) {
	for len(p.recent) >= recentWindowCap {
		p.recent = p.recent[1:]
	}
	p.recent = append(p.recent, occupancy.TimedValue{Timestamp: ts, Percentage: percentage})
}

// UpdateBaseline rebuilds the extractor's slot statistics.
func (p *Predictor) UpdateBaseline(baseline []occupancy.SlotAverage) {
	p.extractor.UpdateHistoricalStats(baseline)
}

// Predict produces one confidence-scored prediction per open hour in the
// configured horizon. Closed hours are skipped; any model failure falls
// back to the historical average, so a best-effort answer is always
// returned for open hours.
func (p *Predictor) Predict(baseline []occupancy.SlotAverage, cal Calendar, clk clock.Clock) []PredictionWithConfidence {
	now := clk.Now()
	var predictions []PredictionWithConfidence

	for hoursAhead := 1; hoursAhead <= p.cfg.PredictionHorizonHours; hoursAhead++ {
		target := now.Add(time.Duration(hoursAhead) * time.Hour)
		if !cal.IsOpen(target) {
			continue
		}
		predictions = append(predictions, p.predictSingle(target, hoursAhead, baseline))
	}
	return predictions
}

func (p *Predictor) predictSingle(target time.Time, hoursAhead int, baseline []occupancy.SlotAverage) PredictionWithConfidence {
	if p.CanUseModel() {
		features := p.extractor.Extract(target, hoursAhead, p.recent, baseline)
		value := p.model.Predict(features)
		low, high, score := p.calculateConfidence(target, value, hoursAhead)
		return NewPrediction(topOfHour(target), value, low, high, score, MethodModelBased)
	}
	return p.fallbackPredict(target, baseline)
}

// fallbackPredict produces a historical-average prediction: the matching
// baseline slot's average banded by its known std (default 10), or the
// global default when the slot is unknown. Baseline slots carry the
// calendar location's weekday and hour, so the target is converted before
// matching. Fallback confidence is fixed at 0.5.
func (p *Predictor) fallbackPredict(target time.Time, baseline []occupancy.SlotAverage) PredictionWithConfidence {
	local := target.In(p.cal.Location())
	weekday := occupancy.MondayIndex(local)
	hour := local.Hour()

	value, low, high := 50.0, 30.0, 70.0
	for _, avg := range baseline {
		if avg.Weekday == weekday && avg.Hour == hour {
			std := 10.0
			if s, ok := p.extractor.SlotStd(weekday, hour); ok {
				std = s
			}
			value = avg.AvgPercentage
			low = clamp(value-std, 0, 100)
			high = clamp(value+std, 0, 100)
			break
		}
	}

	return NewPrediction(topOfHour(target), value, low, high, 0.5, MethodHistoricalAverage)
}

// calculateConfidence derives the band from the slot's historical std,
// inflated with distance, and scores stability via 1/(1+std/20).
func (p *Predictor) calculateConfidence(target time.Time, value float64, hoursAhead int) (low, high, score float64) {
	local := target.In(p.cal.Location())
	baseStd := 15.0
	if std, ok := p.extractor.SlotStd(occupancy.MondayIndex(local), local.Hour()); ok {
		baseStd = std
	}

	horizonPenalty := 1 + float64(hoursAhead-1)*0.15
	adjustedStd := baseStd * horizonPenalty

	low = clamp(value-adjustedStd, 0, 100)
	high = clamp(value+adjustedStd, 0, 100)
	score = clamp(1/(1+adjustedStd/20), 0, 1)
	return low, high, score
}

// topOfHour normalizes an instant to the start of its UTC hour.
func topOfHour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}
