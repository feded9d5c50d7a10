package analytics

import (
	"time"

	"github.com/HerbHall/occutrend/internal/clock"
	"github.com/HerbHall/occutrend/pkg/occupancy"
)

// OpenChecker answers whether the facility is open at an instant, and in
// which timezone its calendar operates.
type OpenChecker interface {
	IsOpen(t time.Time) bool
	Location() *time.Location
}

// Prediction is a baseline-derived occupancy estimate for one upcoming hour.
type Prediction struct {
	Timestamp     time.Time `json:"timestamp"`
	AvgPercentage float64   `json:"avg_percentage"`
}

// CalculatePredictions estimates occupancy for the next two hours straight
// from the baseline slot averages. Hours at which the schedule says closed
// are skipped. Timestamps are normalized to the top of the hour. Baseline
// slots carry the schedule location's weekday and hour, so the target is
// converted before matching.
func CalculatePredictions(baseline []occupancy.SlotAverage, sched OpenChecker, clk clock.Clock) []Prediction {
	if len(baseline) == 0 {
		return nil
	}

	now := clk.Now()
	var predictions []Prediction
	for i := 1; i <= 2; i++ {
		target := now.Add(time.Duration(i) * time.Hour)
		if !sched.IsOpen(target) {
			continue
		}

		local := target.In(sched.Location())
		weekday := occupancy.MondayIndex(local)
		hour := local.Hour()
		for _, avg := range baseline {
			if avg.Weekday == weekday && avg.Hour == hour {
				predictions = append(predictions, Prediction{
					Timestamp:     target.UTC().Truncate(time.Hour),
					AvgPercentage: avg.AvgPercentage,
				})
				break
			}
		}
	}
	return predictions
}

// BestTime is the quietest remaining slot found for the current local day.
type BestTime struct {
	Hour          int     `json:"hour"`
	AvgPercentage float64 `json:"avg_percentage"`
}

// FindBestTimeToday returns the hour with the lowest baseline average for
// the current local weekday, or nil if the day has no data. Baseline slots
// already carry the schedule location's weekday and hour, so matching is a
// direct comparison.
func FindBestTimeToday(data []occupancy.SlotAverage, sched OpenChecker, clk clock.Clock) *BestTime {
	now := clk.Now().In(sched.Location())
	todayIdx := occupancy.MondayIndex(now)

	var best *BestTime
	for _, d := range data {
		if d.Weekday != todayIdx {
			continue
		}
		if best == nil || d.AvgPercentage < best.AvgPercentage {
			best = &BestTime{Hour: d.Hour, AvgPercentage: d.AvgPercentage}
		}
	}
	return best
}
