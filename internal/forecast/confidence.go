package forecast

import "time"

// Method records how a prediction was produced.
type Method int

const (
	// MethodModelBased means the trained regression model produced the value.
	MethodModelBased Method = iota
	// MethodHistoricalAverage means the slot-average fallback produced it.
	MethodHistoricalAverage
)

func (m Method) String() string {
	switch m {
	case MethodModelBased:
		return "model"
	case MethodHistoricalAverage:
		return "historical-average"
	default:
		return "unknown"
	}
}

// PredictionWithConfidence is one forecast hour with its confidence band.
// The invariant 0 <= low <= value <= high <= 100 and 0 <= score <= 1 holds
// for every prediction built through NewPrediction.
type PredictionWithConfidence struct {
	Timestamp       time.Time `json:"timestamp"`
	PredictedValue  float64   `json:"predicted_value"`
	ConfidenceLow   float64   `json:"confidence_low"`
	ConfidenceHigh  float64   `json:"confidence_high"`
	ConfidenceScore float64   `json:"confidence_score"`
	Method          Method    `json:"method"`
}

// NewPrediction builds a prediction, clamping values to [0,100] and the
// score to [0,1].
func NewPrediction(ts time.Time, value, low, high, score float64, method Method) PredictionWithConfidence {
	return PredictionWithConfidence{
		Timestamp:       ts,
		PredictedValue:  clamp(value, 0, 100),
		ConfidenceLow:   clamp(low, 0, 100),
		ConfidenceHigh:  clamp(high, 0, 100),
		ConfidenceScore: clamp(score, 0, 1),
		Method:          method,
	}
}

// IsValid reports whether the prediction satisfies the confidence-band
// invariant.
func (p PredictionWithConfidence) IsValid() bool {
	return p.PredictedValue >= 0 && p.PredictedValue <= 100 &&
		p.ConfidenceLow <= p.PredictedValue &&
		p.ConfidenceHigh >= p.PredictedValue &&
		p.ConfidenceScore >= 0 && p.ConfidenceScore <= 1
}

// IntervalWidth returns the width of the confidence band.
func (p PredictionWithConfidence) IntervalWidth() float64 {
	return p.ConfidenceHigh - p.ConfidenceLow
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
