package analytics

import (
	"sort"

	"github.com/HerbHall/occutrend/pkg/occupancy"
)

// ComparisonMode identifies how the two periods of a comparison were chosen.
type ComparisonMode int

const (
	// WeekOverWeek compares the current week to the previous week.
	WeekOverWeek ComparisonMode = iota
	// MonthOverMonth compares the current week to the same week 4 weeks ago.
	MonthOverMonth
	// CustomRange compares two caller-chosen date ranges.
	CustomRange
)

func (m ComparisonMode) String() string {
	switch m {
	case WeekOverWeek:
		return "week-over-week"
	case MonthOverMonth:
		return "month-over-month"
	case CustomRange:
		return "custom-range"
	default:
		return "unknown"
	}
}

// TrendDirection classifies how occupancy is changing between two periods.
type TrendDirection int

const (
	TrendIncreasing TrendDirection = iota
	TrendDecreasing
	TrendStable
	TrendInsufficient
)

func (d TrendDirection) String() string {
	switch d {
	case TrendIncreasing:
		return "increasing"
	case TrendDecreasing:
		return "decreasing"
	case TrendStable:
		return "stable"
	default:
		return "insufficient"
	}
}

// Description returns a human-readable phrase for the trend.
func (d TrendDirection) Description() string {
	switch d {
	case TrendIncreasing:
		return "getting busier"
	case TrendDecreasing:
		return "getting quieter"
	case TrendStable:
		return "staying consistent"
	default:
		return "insufficient data"
	}
}

// HourlyComparison compares one (weekday, hour) slot between two periods.
type HourlyComparison struct {
	Weekday         int     `json:"weekday"`
	Hour            int     `json:"hour"`
	BaselineAvg     float64 `json:"baseline_avg"`
	CurrentAvg      float64 `json:"current_avg"`
	AbsoluteChange  float64 `json:"absolute_change"`
	PercentChange   float64 `json:"percent_change"`
	BaselineSamples int64   `json:"baseline_samples"`
	CurrentSamples  int64   `json:"current_samples"`
}

// Trend classifies this single hour's change. At least 2 samples are needed
// on each side; changes within 5% count as stable.
func (c HourlyComparison) Trend() TrendDirection {
	if c.BaselineSamples < 2 || c.CurrentSamples < 2 {
		return TrendInsufficient
	}
	switch {
	case c.PercentChange > 5:
		return TrendIncreasing
	case c.PercentChange < -5:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// HourChange is one (weekday, hour) slot with its percent change.
type HourChange struct {
	Weekday       int     `json:"weekday"`
	Hour          int     `json:"hour"`
	PercentChange float64 `json:"percent_change"`
}

// PeriodComparison is a full comparison between two periods.
type PeriodComparison struct {
	Mode                 ComparisonMode     `json:"mode"`
	BaselineOverallAvg   float64            `json:"baseline_overall_avg"`
	CurrentOverallAvg    float64            `json:"current_overall_avg"`
	OverallChangePercent float64            `json:"overall_change_percent"`
	OverallTrend         TrendDirection     `json:"overall_trend"`
	HourlyComparisons    []HourlyComparison `json:"hourly_comparisons"`
	BiggestIncreases     []HourChange       `json:"biggest_increases"`
	BiggestDecreases     []HourChange       `json:"biggest_decreases"`
}

// BuildHourlyComparisons outer-joins two slot sets on (weekday, hour) and
// computes per-slot changes. A zero baseline with nonzero current reads as
// +100%, the reverse as -100%.
func BuildHourlyComparisons(baseline, current []occupancy.SlotAverage) []HourlyComparison {
	baselineMap := make(map[occupancy.Slot]occupancy.SlotAverage, len(baseline))
	for _, h := range baseline {
		baselineMap[occupancy.Slot{Weekday: h.Weekday, Hour: h.Hour}] = h
	}
	currentMap := make(map[occupancy.Slot]occupancy.SlotAverage, len(current))
	for _, h := range current {
		currentMap[occupancy.Slot{Weekday: h.Weekday, Hour: h.Hour}] = h
	}

	keys := make([]occupancy.Slot, 0, len(baselineMap))
	for k := range baselineMap {
		keys = append(keys, k)
	}
	for k := range currentMap {
		if _, ok := baselineMap[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Weekday != keys[j].Weekday {
			return keys[i].Weekday < keys[j].Weekday
		}
		return keys[i].Hour < keys[j].Hour
	})

	comparisons := make([]HourlyComparison, 0, len(keys))
	for _, key := range keys {
		b := baselineMap[key]
		c := currentMap[key]

		absolute := c.AvgPercentage - b.AvgPercentage
		var percent float64
		switch {
		case b.AvgPercentage > 0:
			percent = absolute / b.AvgPercentage * 100
		case c.AvgPercentage > 0:
			percent = 100 // from zero to something is a full increase
		}

		comparisons = append(comparisons, HourlyComparison{
			Weekday:         key.Weekday,
			Hour:            key.Hour,
			BaselineAvg:     b.AvgPercentage,
			CurrentAvg:      c.AvgPercentage,
			AbsoluteChange:  absolute,
			PercentChange:   percent,
			BaselineSamples: b.SampleCount,
			CurrentSamples:  c.SampleCount,
		})
	}
	return comparisons
}

// DetermineTrend classifies the overall direction across hourly comparisons.
// At least 5 comparisons with 2+ samples on both sides are required;
// average changes within 3% count as stable.
func DetermineTrend(comparisons []HourlyComparison) TrendDirection {
	var sum float64
	valid := 0
	for _, c := range comparisons {
		if c.BaselineSamples >= 2 && c.CurrentSamples >= 2 {
			sum += c.PercentChange
			valid++
		}
	}
	if valid < 5 {
		return TrendInsufficient
	}

	avg := sum / float64(valid)
	switch {
	case avg > 3:
		return TrendIncreasing
	case avg < -3:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// ComparePeriods builds a full comparison of two periods, including
// sample-weighted overall averages and the top-3 biggest changes among
// slots with 2+ samples on both sides.
func ComparePeriods(baseline, current []occupancy.SlotAverage, mode ComparisonMode) PeriodComparison {
	comparisons := BuildHourlyComparisons(baseline, current)

	baselineAvg := weightedOverallAvg(baseline)
	currentAvg := weightedOverallAvg(current)

	var overallChange float64
	if baselineAvg > 0 {
		overallChange = (currentAvg - baselineAvg) / baselineAvg * 100
	}

	var qualified []HourlyComparison
	for _, c := range comparisons {
		if c.BaselineSamples >= 2 && c.CurrentSamples >= 2 {
			qualified = append(qualified, c)
		}
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].PercentChange > qualified[j].PercentChange
	})

	var increases, decreases []HourChange
	for _, c := range qualified {
		if c.PercentChange > 0 && len(increases) < 3 {
			increases = append(increases, HourChange{Weekday: c.Weekday, Hour: c.Hour, PercentChange: c.PercentChange})
		}
	}
	for i := len(qualified) - 1; i >= 0; i-- {
		c := qualified[i]
		if c.PercentChange < 0 && len(decreases) < 3 {
			decreases = append(decreases, HourChange{Weekday: c.Weekday, Hour: c.Hour, PercentChange: c.PercentChange})
		}
	}

	return PeriodComparison{
		Mode:                 mode,
		BaselineOverallAvg:   baselineAvg,
		CurrentOverallAvg:    currentAvg,
		OverallChangePercent: overallChange,
		OverallTrend:         DetermineTrend(comparisons),
		HourlyComparisons:    comparisons,
		BiggestIncreases:     increases,
		BiggestDecreases:     decreases,
	}
}

func weightedOverallAvg(data []occupancy.SlotAverage) float64 {
	var total float64
	var count int64
	for _, h := range data {
		total += h.AvgPercentage * float64(h.SampleCount)
		count += h.SampleCount
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
