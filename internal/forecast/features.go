// Package forecast implements the occupancy forecasting pipeline: feature
// extraction with cyclical time encoding, linear-model training and
// validation, confidence-scored prediction with a historical-average
// fallback, and versioned model snapshots.
package forecast

import (
	"math"
	"time"

	"github.com/HerbHall/occutrend/pkg/occupancy"
)

// NumFeatures is the dimensionality of a feature vector.
const NumFeatures = 16

// Calendar supplies the opening-hours and holiday context the pipeline
// needs. *schedule.Schedule satisfies it.
type Calendar interface {
	IsOpen(t time.Time) bool
	IsHoliday(date time.Time) bool
	Location() *time.Location
}

// Features is the fixed 16-dimensional input for one prediction target.
type Features struct {
	// Cyclical time encoding (prevents the hour 23->0 discontinuity)
	HourSin    float64
	HourCos    float64
	WeekdaySin float64
	WeekdayCos float64

	// Historical baselines
	HistoricalAvg float64
	HistoricalStd float64

	// Recent momentum
	RecentAvg1h float64
	RecentAvg3h float64
	RecentTrend float64

	// Day-level
	DayAvgSoFar float64
	PrevDayAvg  float64

	// Categorical/seasonal
	IsWeekend     float64
	IsHoliday     float64
	WeekOfYearSin float64
	WeekOfYearCos float64

	// Prediction horizon
	HoursAhead float64
}

// Vector returns the features as an ordered slice for the model.
func (f Features) Vector() []float64 {
	return []float64{
		f.HourSin, f.HourCos,
		f.WeekdaySin, f.WeekdayCos,
		f.HistoricalAvg, f.HistoricalStd,
		f.RecentAvg1h, f.RecentAvg3h, f.RecentTrend,
		f.DayAvgSoFar, f.PrevDayAvg,
		f.IsWeekend, f.IsHoliday,
		f.WeekOfYearSin, f.WeekOfYearCos,
		f.HoursAhead,
	}
}

// FeatureNames returns the canonical feature order, for logging.
func FeatureNames() []string {
	return []string{
		"hour_sin", "hour_cos",
		"weekday_sin", "weekday_cos",
		"historical_avg", "historical_std",
		"recent_avg_1h", "recent_avg_3h", "recent_trend",
		"day_avg_so_far", "prev_day_avg",
		"is_weekend", "is_holiday",
		"week_of_year_sin", "week_of_year_cos",
		"hours_ahead",
	}
}

// Extractor converts raw occupancy context into feature vectors. It holds
// per-slot statistics rebuilt wholesale from baseline data.
type Extractor struct {
	stats map[occupancy.Slot]occupancy.SlotStats
	cal   Calendar
}

// NewExtractor creates an Extractor using the given calendar.
func NewExtractor(cal Calendar) *Extractor {
	return &Extractor{
		stats: make(map[occupancy.Slot]occupancy.SlotStats),
		cal:   cal,
	}
}

// UpdateHistoricalStats rebuilds the per-slot statistics from baseline
// data, grouping repeated slots to compute mean and sample variance.
// Single-value slots get a variance of 0.
func (e *Extractor) UpdateHistoricalStats(baseline []occupancy.SlotAverage) {
	e.stats = make(map[occupancy.Slot]occupancy.SlotStats)

	groups := make(map[occupancy.Slot][]float64)
	for _, avg := range baseline {
		slot := occupancy.Slot{Weekday: avg.Weekday, Hour: avg.Hour}
		groups[slot] = append(groups[slot], avg.AvgPercentage)
	}

	for slot, values := range groups {
		var sum float64
		for _, v := range values {
			sum += v
		}
		mean := sum / float64(len(values))

		variance := 0.0
		if len(values) > 1 {
			for _, v := range values {
				variance += (v - mean) * (v - mean)
			}
			variance /= float64(len(values) - 1)
		}

		e.stats[slot] = occupancy.SlotStats{
			Mean:        mean,
			StdDev:      math.Sqrt(variance),
			SampleCount: int64(len(values)),
		}
	}
}

// SlotStd returns the standard deviation for a slot, if known.
func (e *Extractor) SlotStd(weekday, hour int) (float64, bool) {
	s, ok := e.stats[occupancy.Slot{Weekday: weekday, Hour: hour}]
	if !ok {
		return 0, false
	}
	return s.StdDev, true
}

// SlotStats returns the statistics for a slot, if known.
func (e *Extractor) SlotStats(weekday, hour int) (occupancy.SlotStats, bool) {
	s, ok := e.stats[occupancy.Slot{Weekday: weekday, Hour: hour}]
	return s, ok
}

// Extract builds the feature vector for a prediction target. The target
// instant is interpreted in the calendar's local timezone for all
// calendar-derived features.
func (e *Extractor) Extract(target time.Time, hoursAhead int, recent []occupancy.TimedValue, baseline []occupancy.SlotAverage) Features {
	local := target.In(e.cal.Location())
	hour := local.Hour()
	weekday := occupancy.MondayIndex(local)
	_, weekOfYear := local.ISOWeek()

	hourSin, hourCos := cyclicalEncode(float64(hour), 24)
	weekdaySin, weekdayCos := cyclicalEncode(float64(weekday), 7)
	weekSin, weekCos := cyclicalEncode(float64(weekOfYear), 52)

	// Three-level fallback: computed slot stats, then a matching raw
	// baseline average with a default std, then the global default.
	historicalAvg, historicalStd := 50.0, 15.0
	if s, ok := e.stats[occupancy.Slot{Weekday: weekday, Hour: hour}]; ok {
		historicalAvg, historicalStd = s.Mean, s.StdDev
	} else {
		for _, b := range baseline {
			if b.Weekday == weekday && b.Hour == hour {
				historicalAvg, historicalStd = b.AvgPercentage, 10.0
				break
			}
		}
	}

	recentAvg1h, recentAvg3h, recentTrend := extractMomentum(recent)
	dayAvgSoFar, prevDayAvg := e.extractDayFeatures(recent, local)

	isWeekend := 0.0
	if weekday >= 5 {
		isWeekend = 1.0
	}
	isHoliday := 0.0
	if e.cal.IsHoliday(local) {
		isHoliday = 1.0
	}

	return Features{
		HourSin:    hourSin,
		HourCos:    hourCos,
		WeekdaySin: weekdaySin,
		WeekdayCos: weekdayCos,

		HistoricalAvg: historicalAvg,
		HistoricalStd: historicalStd,

		RecentAvg1h: recentAvg1h,
		RecentAvg3h: recentAvg3h,
		RecentTrend: recentTrend,

		DayAvgSoFar: dayAvgSoFar,
		PrevDayAvg:  prevDayAvg,

		IsWeekend:     isWeekend,
		IsHoliday:     isHoliday,
		WeekOfYearSin: weekSin,
		WeekOfYearCos: weekCos,

		HoursAhead: float64(hoursAhead),
	}
}

// extractMomentum computes trailing 1-hour and 3-hour averages and the
// trend slope from the recent-sample window. Windows with no qualifying
// points default to an average of 50 and a trend of 0.
func extractMomentum(recent []occupancy.TimedValue) (avg1h, avg3h, trend float64) {
	if len(recent) == 0 {
		return 50, 50, 0
	}

	now := recent[len(recent)-1].Timestamp
	oneHourAgo := now.Add(-time.Hour)
	threeHoursAgo := now.Add(-3 * time.Hour)

	var sum1h float64
	var n1h int
	var last3h []float64
	for _, tv := range recent {
		if !tv.Timestamp.Before(oneHourAgo) {
			sum1h += tv.Percentage
			n1h++
		}
		if !tv.Timestamp.Before(threeHoursAgo) {
			last3h = append(last3h, tv.Percentage)
		}
	}

	avg1h = 50
	if n1h > 0 {
		avg1h = sum1h / float64(n1h)
	}
	avg3h = 50
	if len(last3h) > 0 {
		var sum float64
		for _, v := range last3h {
			sum += v
		}
		avg3h = sum / float64(len(last3h))
	}

	return avg1h, avg3h, slope(last3h)
}

// slope fits a least-squares line over equally spaced values and scales
// the result to percent change per hour at one sample per minute.
// Returns 0 for fewer than 2 points or negligible x-variance.
func slope(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	n := float64(len(values))
	xMean := (n - 1) / 2
	var yMean float64
	for _, v := range values {
		yMean += v
	}
	yMean /= n

	var numerator, denominator float64
	for i, y := range values {
		x := float64(i)
		numerator += (x - xMean) * (y - yMean)
		denominator += (x - xMean) * (x - xMean)
	}

	if math.Abs(denominator) < 1e-12 {
		return 0
	}
	return numerator / denominator * 60
}

// extractDayFeatures averages the recent window's points over the target's
// local calendar day so far and the previous local day. Empty days
// default to 50.
func (e *Extractor) extractDayFeatures(recent []occupancy.TimedValue, local time.Time) (dayAvg, prevDayAvg float64) {
	todayY, todayM, todayD := local.Date()
	yesterday := local.AddDate(0, 0, -1)
	yesterY, yesterM, yesterD := yesterday.Date()

	var todaySum, yesterdaySum float64
	var todayN, yesterdayN int
	for _, tv := range recent {
		y, m, d := tv.Timestamp.In(e.cal.Location()).Date()
		switch {
		case y == todayY && m == todayM && d == todayD:
			todaySum += tv.Percentage
			todayN++
		case y == yesterY && m == yesterM && d == yesterD:
			yesterdaySum += tv.Percentage
			yesterdayN++
		}
	}

	dayAvg, prevDayAvg = 50, 50
	if todayN > 0 {
		dayAvg = todaySum / float64(todayN)
	}
	if yesterdayN > 0 {
		prevDayAvg = yesterdaySum / float64(yesterdayN)
	}
	return dayAvg, prevDayAvg
}

// cyclicalEncode maps a periodic value onto the unit circle so adjacent
// values stay numerically close across the wraparound.
func cyclicalEncode(value, period float64) (sin, cos float64) {
	angle := 2 * math.Pi * value / period
	return math.Sin(angle), math.Cos(angle)
}
