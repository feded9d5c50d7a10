package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/HerbHall/occutrend/pkg/occupancy"
)

type openCal struct{}

func (openCal) IsOpen(time.Time) bool    { return true }
func (openCal) IsHoliday(time.Time) bool { return false }
func (openCal) Location() *time.Location { return time.UTC }

type closedCal struct{}

func (closedCal) IsOpen(time.Time) bool    { return false }
func (closedCal) IsHoliday(time.Time) bool { return false }
func (closedCal) Location() *time.Location { return time.UTC }

func sa(weekday, hour int, avg float64, count int64) occupancy.SlotAverage {
	return occupancy.SlotAverage{Weekday: weekday, Hour: hour, AvgPercentage: avg, SampleCount: count}
}

func TestCyclicalEncode_continuity(t *testing.T) {
	sin23, cos23 := cyclicalEncode(23, 24)
	sin0, cos0 := cyclicalEncode(0, 24)

	distance := math.Hypot(sin23-sin0, cos23-cos0)
	if distance >= 0.5 {
		t.Errorf("hour 23 and hour 0 are %v apart in encoded space, want < 0.5", distance)
	}
}

func TestCyclicalEncode_opposite(t *testing.T) {
	_, cos0 := cyclicalEncode(0, 24)
	_, cos12 := cyclicalEncode(12, 24)
	if math.Abs(cos0+cos12) > 1e-10 {
		t.Errorf("cos(0) = %v and cos(12) = %v, want opposite", cos0, cos12)
	}
}

func TestCyclicalEncode_quarter(t *testing.T) {
	sin6, cos6 := cyclicalEncode(6, 24)
	if math.Abs(sin6-1) > 1e-10 || math.Abs(cos6) > 1e-10 {
		t.Errorf("hour 6 encoding = (%v, %v), want (1, 0)", sin6, cos6)
	}
}

func TestFeatures_Vector_length(t *testing.T) {
	if got := len(Features{}.Vector()); got != NumFeatures {
		t.Errorf("vector length = %d, want %d", got, NumFeatures)
	}
	if got := len(FeatureNames()); got != NumFeatures {
		t.Errorf("feature names = %d, want %d", got, NumFeatures)
	}
}

func TestUpdateHistoricalStats_grouped_variance(t *testing.T) {
	e := NewExtractor(openCal{})
	e.UpdateHistoricalStats([]occupancy.SlotAverage{
		sa(0, 10, 40, 10),
		sa(0, 10, 50, 10),
		sa(0, 10, 60, 10),
	})

	s, ok := e.SlotStats(0, 10)
	if !ok {
		t.Fatal("missing slot stats")
	}
	if s.Mean != 50 {
		t.Errorf("mean = %v, want 50", s.Mean)
	}
	// Sample variance of {40,50,60} is 100, std 10.
	if math.Abs(s.StdDev-10) > 1e-9 {
		t.Errorf("std dev = %v, want 10", s.StdDev)
	}
	if s.SampleCount != 3 {
		t.Errorf("sample count = %d, want 3", s.SampleCount)
	}
}

func TestUpdateHistoricalStats_single_value_zero_variance(t *testing.T) {
	e := NewExtractor(openCal{})
	e.UpdateHistoricalStats([]occupancy.SlotAverage{sa(2, 14, 35, 10)})

	std, ok := e.SlotStd(2, 14)
	if !ok {
		t.Fatal("missing slot std")
	}
	if std != 0 {
		t.Errorf("single-value std = %v, want 0", std)
	}
}

func TestSlope(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		check  func(float64) bool
	}{
		{"increasing", []float64{10, 20, 30, 40, 50}, func(s float64) bool { return s > 0 }},
		{"decreasing", []float64{50, 40, 30, 20, 10}, func(s float64) bool { return s < 0 }},
		{"flat", []float64{30, 30, 30, 30}, func(s float64) bool { return math.Abs(s) < 1e-10 }},
		{"single point", []float64{42}, func(s float64) bool { return s == 0 }},
		{"empty", nil, func(s float64) bool { return s == 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slope(tt.values); !tt.check(got) {
				t.Errorf("slope(%v) = %v", tt.values, got)
			}
		})
	}
}

func TestSlope_scaled_per_hour(t *testing.T) {
	// One percent per minute rises 60 percent per hour.
	got := slope([]float64{0, 1, 2, 3, 4})
	if math.Abs(got-60) > 1e-9 {
		t.Errorf("slope = %v, want 60", got)
	}
}

func TestExtractMomentum_empty_defaults(t *testing.T) {
	avg1h, avg3h, trend := extractMomentum(nil)
	if avg1h != 50 || avg3h != 50 || trend != 0 {
		t.Errorf("empty momentum = (%v, %v, %v), want (50, 50, 0)", avg1h, avg3h, trend)
	}
}

func TestExtractMomentum_windows(t *testing.T) {
	base := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)
	var recent []occupancy.TimedValue
	// 30 at 2.5h ago, 40 at 1.5h ago, 60 and 80 in the last hour.
	recent = append(recent,
		occupancy.TimedValue{Timestamp: base.Add(-150 * time.Minute), Percentage: 30},
		occupancy.TimedValue{Timestamp: base.Add(-90 * time.Minute), Percentage: 40},
		occupancy.TimedValue{Timestamp: base.Add(-30 * time.Minute), Percentage: 60},
		occupancy.TimedValue{Timestamp: base, Percentage: 80},
	)

	avg1h, avg3h, trend := extractMomentum(recent)
	if math.Abs(avg1h-70) > 1e-9 {
		t.Errorf("1h avg = %v, want 70", avg1h)
	}
	if math.Abs(avg3h-52.5) > 1e-9 {
		t.Errorf("3h avg = %v, want 52.5", avg3h)
	}
	if trend <= 0 {
		t.Errorf("trend = %v, want positive", trend)
	}
}

func TestExtract_fallback_chain(t *testing.T) {
	// Monday 2026-03-09 10:30 UTC.
	target := time.Date(2026, time.March, 9, 10, 30, 0, 0, time.UTC)

	// Level 1: computed slot stats.
	e := NewExtractor(openCal{})
	e.UpdateHistoricalStats([]occupancy.SlotAverage{sa(0, 10, 42, 10), sa(0, 10, 48, 10)})
	f := e.Extract(target, 1, nil, nil)
	if f.HistoricalAvg != 45 {
		t.Errorf("stats-level avg = %v, want 45", f.HistoricalAvg)
	}

	// Level 2: raw baseline match with default std 10.
	e2 := NewExtractor(openCal{})
	f2 := e2.Extract(target, 1, nil, []occupancy.SlotAverage{sa(0, 10, 33, 10)})
	if f2.HistoricalAvg != 33 || f2.HistoricalStd != 10 {
		t.Errorf("baseline-level = (%v, %v), want (33, 10)", f2.HistoricalAvg, f2.HistoricalStd)
	}

	// Level 3: global default.
	e3 := NewExtractor(openCal{})
	f3 := e3.Extract(target, 1, nil, nil)
	if f3.HistoricalAvg != 50 || f3.HistoricalStd != 15 {
		t.Errorf("default-level = (%v, %v), want (50, 15)", f3.HistoricalAvg, f3.HistoricalStd)
	}
}

func TestExtract_categorical_features(t *testing.T) {
	e := NewExtractor(openCal{})

	saturday := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	f := e.Extract(saturday, 2, nil, nil)
	if f.IsWeekend != 1 {
		t.Errorf("saturday IsWeekend = %v, want 1", f.IsWeekend)
	}
	if f.HoursAhead != 2 {
		t.Errorf("HoursAhead = %v, want 2", f.HoursAhead)
	}

	monday := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	f = e.Extract(monday, 1, nil, nil)
	if f.IsWeekend != 0 {
		t.Errorf("monday IsWeekend = %v, want 0", f.IsWeekend)
	}
}

func TestExtract_day_features(t *testing.T) {
	e := NewExtractor(openCal{})
	target := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)

	recent := []occupancy.TimedValue{
		{Timestamp: time.Date(2026, time.March, 8, 18, 0, 0, 0, time.UTC), Percentage: 20}, // yesterday
		{Timestamp: time.Date(2026, time.March, 8, 19, 0, 0, 0, time.UTC), Percentage: 40}, // yesterday
		{Timestamp: time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC), Percentage: 60},  // today
		{Timestamp: time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC), Percentage: 80}, // today
	}
	f := e.Extract(target, 1, recent, nil)
	if f.DayAvgSoFar != 70 {
		t.Errorf("DayAvgSoFar = %v, want 70", f.DayAvgSoFar)
	}
	if f.PrevDayAvg != 30 {
		t.Errorf("PrevDayAvg = %v, want 30", f.PrevDayAvg)
	}
}
