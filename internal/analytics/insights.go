package analytics

import (
	"fmt"
	"sort"

	"github.com/HerbHall/occutrend/pkg/occupancy"
)

// InsightCategory classifies an insight.
type InsightCategory int

const (
	CategoryTrend InsightCategory = iota
	CategoryPeak
	CategoryQuietTime
	CategoryAnomaly
	CategoryDayPattern
	CategoryConsistency
)

func (c InsightCategory) String() string {
	switch c {
	case CategoryTrend:
		return "trend"
	case CategoryPeak:
		return "peak"
	case CategoryQuietTime:
		return "quiet-time"
	case CategoryAnomaly:
		return "anomaly"
	case CategoryDayPattern:
		return "day-pattern"
	case CategoryConsistency:
		return "consistency"
	default:
		return "unknown"
	}
}

// InsightData tags an insight with the slot and value it refers to.
type InsightData struct {
	Weekday int     `json:"weekday"`
	Hour    int     `json:"hour"`
	Value   float64 `json:"value"`
}

// Insight is one generated, human-readable observation. Importance runs
// 1-5, higher is more important.
type Insight struct {
	Category    InsightCategory `json:"category"`
	Importance  int             `json:"importance"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Data        *InsightData    `json:"data,omitempty"`
}

// GenerateInsights produces ranked insights from the current period's slot
// averages, plus trend insights when a baseline period is supplied. The
// result is sorted by descending importance; ties keep insertion order.
func GenerateInsights(current, baseline []occupancy.SlotAverage) []Insight {
	var insights []Insight

	if stats := CalculateStats(current); stats != nil {
		level := "highly variable"
		if stats.CoefficientOfVariation < 0.3 {
			level = "very consistent"
		} else if stats.CoefficientOfVariation < 0.5 {
			level = "moderately consistent"
		}
		insights = append(insights, Insight{
			Category:   CategoryConsistency,
			Importance: 2,
			Title:      fmt.Sprintf("Occupancy is %s", level),
			Description: fmt.Sprintf(
				"Average occupancy is %.1f%% with a standard deviation of %.1f%%. Range: %.1f%% to %.1f%%.",
				stats.Mean, stats.StdDev, stats.Min, stats.Max),
		})
	}

	days := AnalyzeDays(current)

	busiestIdx := -1
	for i, d := range days {
		if busiestIdx < 0 || d.AvgOccupancy > days[busiestIdx].AvgOccupancy {
			busiestIdx = i
		}
	}
	if busiestIdx >= 0 && days[busiestIdx].SampleCount >= 5 {
		busiest := days[busiestIdx]
		insights = append(insights, Insight{
			Category:   CategoryDayPattern,
			Importance: 3,
			Title:      fmt.Sprintf("%s is the busiest day", busiest.DayName),
			Description: fmt.Sprintf(
				"Average occupancy on %s is %.1f%%, peaking at %.1f%% around %d:00.",
				busiest.DayName, busiest.AvgOccupancy, busiest.PeakOccupancy, max(busiest.PeakHour, 0)),
			Data: &InsightData{Weekday: busiest.Weekday, Hour: max(busiest.PeakHour, 0), Value: busiest.AvgOccupancy},
		})
	}

	quietestIdx := -1
	for i, d := range days {
		if d.SampleCount < 5 {
			continue
		}
		if quietestIdx < 0 || d.AvgOccupancy < days[quietestIdx].AvgOccupancy {
			quietestIdx = i
		}
	}
	if quietestIdx >= 0 {
		quietest := days[quietestIdx]
		insights = append(insights, Insight{
			Category:   CategoryQuietTime,
			Importance: 4,
			Title:      fmt.Sprintf("%s is the quietest day", quietest.DayName),
			Description: fmt.Sprintf(
				"Average occupancy on %s is only %.1f%%. Best time: around %d:00 (%.1f%%).",
				quietest.DayName, quietest.AvgOccupancy, max(quietest.QuietestHour, 0), quietest.QuietestOccupancy),
			Data: &InsightData{Weekday: quietest.Weekday, Hour: max(quietest.QuietestHour, 0), Value: quietest.QuietestOccupancy},
		})
	}

	if peaks := FindPeakHours(current, 3); len(peaks) > 0 {
		desc := ""
		for i, p := range peaks {
			if i > 0 {
				desc += ", "
			}
			desc += fmt.Sprintf("%s %d:00 (%.0f%%)", occupancy.WeekdayShort(p.Weekday), p.Hour, p.AvgPercentage)
		}
		insights = append(insights, Insight{
			Category:    CategoryPeak,
			Importance:  3,
			Title:       "Busiest times to avoid",
			Description: fmt.Sprintf("Peak hours: %s", desc),
			Data:        &InsightData{Weekday: peaks[0].Weekday, Hour: peaks[0].Hour, Value: peaks[0].AvgPercentage},
		})
	}

	if windows := FindQuietWindows(current, 40, 2); len(windows) > 0 {
		best := windows[0]
		insights = append(insights, Insight{
			Category:   CategoryQuietTime,
			Importance: 5,
			Title:      "Best quiet window",
			Description: fmt.Sprintf(
				"%s %d:00-%d:00 averages only %.1f%% occupancy. %d more quiet windows available.",
				occupancy.WeekdayShort(best.Weekday), best.StartHour, best.EndHour, best.AvgOccupancy, len(windows)-1),
			Data: &InsightData{Weekday: best.Weekday, Hour: best.StartHour, Value: best.AvgOccupancy},
		})
	}

	if baseline != nil {
		comparison := ComparePeriods(baseline, current, WeekOverWeek)

		var desc string
		importance := 2
		switch comparison.OverallTrend {
		case TrendIncreasing:
			desc = fmt.Sprintf(
				"Occupancy has increased by %.1f%% compared to the previous period. Consider adjusting your visit times.",
				abs(comparison.OverallChangePercent))
			importance = 4
		case TrendDecreasing:
			desc = fmt.Sprintf(
				"Good news! Occupancy has decreased by %.1f%% compared to the previous period.",
				abs(comparison.OverallChangePercent))
			importance = 3
		case TrendStable:
			desc = "Occupancy patterns are stable compared to the previous period."
		default:
			desc = "Not enough data to determine occupancy trends."
		}
		insights = append(insights, Insight{
			Category:    CategoryTrend,
			Importance:  importance,
			Title:       fmt.Sprintf("Occupancy is %s", comparison.OverallTrend.Description()),
			Description: desc,
		})

		if len(comparison.BiggestIncreases) > 0 {
			top := comparison.BiggestIncreases[0]
			insights = append(insights, Insight{
				Category:   CategoryAnomaly,
				Importance: 3,
				Title:      "Significant occupancy increase",
				Description: fmt.Sprintf(
					"%s at %d:00 has seen a %.0f%% increase in occupancy. You may want to avoid this time slot.",
					occupancy.WeekdayShort(top.Weekday), top.Hour, top.PercentChange),
				Data: &InsightData{Weekday: top.Weekday, Hour: top.Hour, Value: top.PercentChange},
			})
		}
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Importance > insights[j].Importance
	})
	return insights
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
