package analytics

import (
	"sort"

	"github.com/HerbHall/occutrend/pkg/occupancy"
)

// HourRank is one ranked (weekday, hour) slot with its average occupancy.
type HourRank struct {
	Weekday       int     `json:"weekday"`
	Hour          int     `json:"hour"`
	AvgPercentage float64 `json:"avg_percentage"`
}

// TimePeriod is a contiguous run of quiet hours on one weekday.
// EndHour is exclusive and may be 24 when the quiet run reaches end of day.
type TimePeriod struct {
	Weekday      int     `json:"weekday"`
	StartHour    int     `json:"start_hour"`
	EndHour      int     `json:"end_hour"`
	AvgOccupancy float64 `json:"avg_occupancy"`
}

// FindPeakHours returns up to topN slots with the highest average occupancy.
// Slots with fewer than 2 samples are excluded.
func FindPeakHours(data []occupancy.SlotAverage, topN int) []HourRank {
	var ranked []HourRank
	for _, h := range data {
		if h.SampleCount >= 2 {
			ranked = append(ranked, HourRank{Weekday: h.Weekday, Hour: h.Hour, AvgPercentage: h.AvgPercentage})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AvgPercentage > ranked[j].AvgPercentage
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// FindQuietHours returns up to topN slots with the lowest average occupancy.
// Slots with fewer than 2 samples are excluded, as are exact-zero means
// (never observed rather than always empty).
func FindQuietHours(data []occupancy.SlotAverage, topN int) []HourRank {
	var ranked []HourRank
	for _, h := range data {
		if h.SampleCount >= 2 && h.AvgPercentage > 0 {
			ranked = append(ranked, HourRank{Weekday: h.Weekday, Hour: h.Hour, AvgPercentage: h.AvgPercentage})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AvgPercentage < ranked[j].AvgPercentage
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// FindQuietWindows finds runs of at least minHours consecutive hours whose
// mean occupancy stays at or below threshold, per weekday. Only slots with
// at least 2 samples qualify. Windows are sorted by ascending average.
func FindQuietWindows(data []occupancy.SlotAverage, threshold float64, minHours int) []TimePeriod {
	var windows []TimePeriod

	for weekday := 0; weekday < 7; weekday++ {
		var dayHours []occupancy.SlotAverage
		for _, h := range data {
			if h.Weekday == weekday && h.SampleCount >= 2 {
				dayHours = append(dayHours, h)
			}
		}
		sort.SliceStable(dayHours, func(i, j int) bool { return dayHours[i].Hour < dayHours[j].Hour })

		windowStart := -1
		var windowSum float64
		windowCount := 0

		for _, h := range dayHours {
			if h.AvgPercentage <= threshold {
				if windowStart < 0 {
					windowStart = h.Hour
					windowSum = 0
					windowCount = 0
				}
				windowSum += h.AvgPercentage
				windowCount++
				continue
			}
			if windowStart >= 0 && windowCount >= minHours {
				windows = append(windows, TimePeriod{
					Weekday:      weekday,
					StartHour:    windowStart,
					EndHour:      h.Hour,
					AvgOccupancy: windowSum / float64(windowCount),
				})
			}
			windowStart = -1
		}

		// A quiet run that lasts until the day's data ends extends to hour 24.
		if windowStart >= 0 && windowCount >= minHours {
			windows = append(windows, TimePeriod{
				Weekday:      weekday,
				StartHour:    windowStart,
				EndHour:      24,
				AvgOccupancy: windowSum / float64(windowCount),
			})
		}
	}

	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].AvgOccupancy < windows[j].AvgOccupancy
	})
	return windows
}
