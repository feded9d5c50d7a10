// Package occupancy provides the shared domain types for the OccuTrend
// occupancy analytics system: raw samples, recurring (weekday, hour) slot
// aggregates, and the weekday naming table used by every component.
package occupancy

import "time"

// Sample is a single occupancy reading as stored in the record store.
// The timestamp is UTC with second precision. The value is a percentage,
// conceptually 0-100 but not clamped at ingestion.
type Sample struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Percentage float64   `json:"percentage"`
}

// TimedValue is a (timestamp, percentage) pair without a store identity,
// used for batch inserts and in-memory observation windows.
type TimedValue struct {
	Timestamp  time.Time `json:"timestamp"`
	Percentage float64   `json:"percentage"`
}

// SlotAverage is a read-only per-(weekday, hour) aggregate computed by the
// record store over a UTC range. Weekday is Monday-origin (0=Monday).
type SlotAverage struct {
	Weekday       int     `json:"weekday"` // 0=Monday .. 6=Sunday
	Hour          int     `json:"hour"`    // 0-23
	AvgPercentage float64 `json:"avg_percentage"`
	SampleCount   int64   `json:"sample_count"`
}

// SlotStats is the derived mean/spread for a single (weekday, hour) slot.
type SlotStats struct {
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
	SampleCount int64   `json:"sample_count"`
}

// Slot keys per-(weekday, hour) lookups.
type Slot struct {
	Weekday int `json:"weekday"`
	Hour    int `json:"hour"`
}

// dayNames is the single weekday table shared by all components.
// Index 0 is Monday.
var dayNames = [7]string{
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
	"Sunday",
}

var dayShort = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// WeekdayName returns the full weekday name for a Monday-origin index.
func WeekdayName(weekday int) string {
	if weekday < 0 || weekday > 6 {
		return "Unknown"
	}
	return dayNames[weekday]
}

// WeekdayShort returns the abbreviated weekday name for a Monday-origin index.
func WeekdayShort(weekday int) string {
	if weekday < 0 || weekday > 6 {
		return "???"
	}
	return dayShort[weekday]
}

// MondayIndex converts a time.Weekday (Sunday-origin) to the Monday-origin
// index used throughout the system.
func MondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
