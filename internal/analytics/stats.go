// Package analytics provides pure statistical functions over per-slot
// occupancy averages: summary statistics, day-of-week analysis, peak and
// quiet detection, period comparison, and ranked insight generation.
package analytics

import (
	"math"
	"sort"

	"github.com/HerbHall/occutrend/pkg/occupancy"
)

// Stats is a statistical summary of a set of slot averages.
type Stats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	// Number of slot averages summarized
	SampleCount int `json:"sample_count"`
	// std_dev / mean, a measure of consistency; 0 when the mean is 0
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
}

// DayAnalysis summarizes one weekday's occupancy pattern. PeakHour and
// QuietestHour are -1 when the day has no data.
type DayAnalysis struct {
	Weekday           int     `json:"weekday"`
	DayName           string  `json:"day_name"`
	AvgOccupancy      float64 `json:"avg_occupancy"`
	PeakHour          int     `json:"peak_hour"`
	PeakOccupancy     float64 `json:"peak_occupancy"`
	QuietestHour      int     `json:"quietest_hour"`
	QuietestOccupancy float64 `json:"quietest_occupancy"`
	SampleCount       int64   `json:"sample_count"`
}

// CalculateStats computes a statistical summary over the given slot
// averages. Returns nil for empty input.
func CalculateStats(data []occupancy.SlotAverage) *Stats {
	if len(data) == 0 {
		return nil
	}

	n := len(data)
	values := make([]float64, n)
	var sum float64
	for i, d := range data {
		values[i] = d.AvgPercentage
		sum += d.AvgPercentage
	}
	mean := sum / float64(n)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(n)
	stdDev := math.Sqrt(variance)

	cv := 0.0
	if mean > 0 {
		cv = stdDev / mean
	}

	return &Stats{
		Mean:                   mean,
		Median:                 median,
		StdDev:                 stdDev,
		Min:                    sorted[0],
		Max:                    sorted[n-1],
		SampleCount:            n,
		CoefficientOfVariation: cv,
	}
}

// AnalyzeDays produces a per-weekday analysis: a sample-count-weighted
// average and the peak and quietest hour for each of the 7 weekdays
// (Monday-origin). Ties are broken by first occurrence in input order.
func AnalyzeDays(data []occupancy.SlotAverage) []DayAnalysis {
	out := make([]DayAnalysis, 0, 7)
	for weekday := 0; weekday < 7; weekday++ {
		a := DayAnalysis{
			Weekday:      weekday,
			DayName:      occupancy.WeekdayName(weekday),
			PeakHour:     -1,
			QuietestHour: -1,
		}

		var weightedSum float64
		peakIdx, quietIdx := -1, -1
		var dayData []occupancy.SlotAverage
		for _, h := range data {
			if h.Weekday != weekday {
				continue
			}
			dayData = append(dayData, h)
			a.SampleCount += h.SampleCount
			weightedSum += h.AvgPercentage * float64(h.SampleCount)
			if peakIdx < 0 || h.AvgPercentage > dayData[peakIdx].AvgPercentage {
				peakIdx = len(dayData) - 1
			}
			if quietIdx < 0 || h.AvgPercentage < dayData[quietIdx].AvgPercentage {
				quietIdx = len(dayData) - 1
			}
		}
		if a.SampleCount > 0 {
			a.AvgOccupancy = weightedSum / float64(a.SampleCount)
		}
		if peakIdx >= 0 {
			a.PeakHour = dayData[peakIdx].Hour
			a.PeakOccupancy = dayData[peakIdx].AvgPercentage
		}
		if quietIdx >= 0 {
			a.QuietestHour = dayData[quietIdx].Hour
			a.QuietestOccupancy = dayData[quietIdx].AvgPercentage
		}
		out = append(out, a)
	}
	return out
}
