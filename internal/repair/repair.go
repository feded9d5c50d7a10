// Package repair implements the data repair engine: out-of-hours zeroing,
// short-gap linear interpolation, and end-of-day sentinel insertion over the
// stored occupancy series. Repair is idempotent; re-running over the same
// range makes no further changes.
package repair

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/occutrend/pkg/occupancy"
)

// maxGapMinutes is the longest gap that is treated as sensor noise and
// interpolated. Longer gaps are genuine outages and are left alone.
const maxGapMinutes = 5

// ErrInvalidRange is returned when the start date is after the end date.
var ErrInvalidRange = errors.New("repair: start date after end date")

// SampleStore is the record-store contract the repair engine needs.
type SampleStore interface {
	ForLocalDate(ctx context.Context, date time.Time, loc *time.Location) ([]occupancy.Sample, error)
	UpdateValue(ctx context.Context, id int64, percentage float64) error
	BatchInsert(ctx context.Context, values []occupancy.TimedValue) error
}

// ScheduleProvider supplies per-date opening hours in local time.
type ScheduleProvider interface {
	OpenHour(date time.Time) int
	CloseHour(date time.Time) int
	Location() *time.Location
}

// Progress is reported before each day is processed.
type Progress struct {
	CurrentDay    time.Time `json:"current_day"`
	TotalDays     int       `json:"total_days"`
	ProcessedDays int       `json:"processed_days"`
}

// Summary counts the changes made by one repair invocation.
type Summary struct {
	DaysProcessed   int `json:"days_processed"`
	GapsFilled      int `json:"gaps_filled"`
	RecordsZeroed   int `json:"records_zeroed"`
	EndEntriesAdded int `json:"end_entries_added"`
}

// Repairer runs the three repair passes over calendar-day slices of the store.
type Repairer struct {
	store SampleStore
	sched ScheduleProvider
	log   *zap.Logger
}

// New creates a Repairer. A nil logger defaults to a no-op logger.
func New(store SampleStore, sched ScheduleProvider, log *zap.Logger) *Repairer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repairer{store: store, sched: sched, log: log}
}

// RepairRange processes each calendar day from start to end inclusive,
// in the schedule's timezone. The optional progress callback is invoked
// before each day. A store error aborts the current day and returns the
// summary accumulated so far. Cancellation is honored between days only.
func (r *Repairer) RepairRange(ctx context.Context, start, end time.Time, progress func(Progress)) (Summary, error) {
	loc := r.sched.Location()
	startDay := midnight(start, loc)
	endDay := midnight(end, loc)
	if endDay.Before(startDay) {
		return Summary{}, ErrInvalidRange
	}

	totalDays := int(endDay.Sub(startDay).Hours()/24) + 1
	var sum Summary

	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if progress != nil {
			progress(Progress{CurrentDay: day, TotalDays: totalDays, ProcessedDays: sum.DaysProcessed})
		}

		if err := r.repairDay(ctx, day, &sum); err != nil {
			return sum, fmt.Errorf("repair day %s: %w", day.Format("2006-01-02"), err)
		}
		sum.DaysProcessed++
	}

	r.log.Info("repair complete",
		zap.Int("days", sum.DaysProcessed),
		zap.Int("gaps_filled", sum.GapsFilled),
		zap.Int("records_zeroed", sum.RecordsZeroed),
		zap.Int("end_entries_added", sum.EndEntriesAdded))
	return sum, nil
}

// repairDay runs the three ordered passes for one local calendar day. Each
// pass re-reads the day's samples so it observes the previous pass's writes.
func (r *Repairer) repairDay(ctx context.Context, day time.Time, sum *Summary) error {
	loc := r.sched.Location()
	openMin := r.sched.OpenHour(day) * 60
	closeMin := r.sched.CloseHour(day) * 60

	// Pass 1: zero values recorded outside opening hours.
	samples, err := r.store.ForLocalDate(ctx, day, loc)
	if err != nil {
		return fmt.Errorf("read samples: %w", err)
	}
	for _, smp := range samples {
		m := minuteOfDay(smp.Timestamp.In(loc))
		if (m < openMin || m > closeMin) && smp.Percentage != 0 {
			if err := r.store.UpdateValue(ctx, smp.ID, 0); err != nil {
				return fmt.Errorf("zero sample %d: %w", smp.ID, err)
			}
			sum.RecordsZeroed++
		}
	}

	// Pass 2: interpolate short gaps within opening hours.
	samples, err = r.store.ForLocalDate(ctx, day, loc)
	if err != nil {
		return fmt.Errorf("read samples: %w", err)
	}
	filled := interpolateGaps(samples, day, loc, openMin, closeMin)
	if len(filled) > 0 {
		if err := r.store.BatchInsert(ctx, filled); err != nil {
			return fmt.Errorf("insert interpolated samples: %w", err)
		}
		sum.GapsFilled += len(filled)
	}

	// Pass 3: ensure a single zero sentinel at close_hour:01.
	samples, err = r.store.ForLocalDate(ctx, day, loc)
	if err != nil {
		return fmt.Errorf("read samples: %w", err)
	}
	sentinelMin := closeMin + 1
	exists := false
	for _, smp := range samples {
		if minuteOfDay(smp.Timestamp.In(loc)) == sentinelMin {
			exists = true
			break
		}
	}
	if !exists {
		sentinel := occupancy.TimedValue{
			Timestamp:  atMinute(day, sentinelMin),
			Percentage: 0,
		}
		if err := r.store.BatchInsert(ctx, []occupancy.TimedValue{sentinel}); err != nil {
			return fmt.Errorf("insert sentinel: %w", err)
		}
		sum.EndEntriesAdded++
	}

	return nil
}

// interpolateGaps finds adjacent minute pairs with a gap of 2..maxGapMinutes
// minutes, both endpoints within opening hours, and produces linearly
// interpolated samples for the missing minutes.
func interpolateGaps(samples []occupancy.Sample, day time.Time, loc *time.Location, openMin, closeMin int) []occupancy.TimedValue {
	type point struct {
		minute int
		value  float64
	}
	seen := make(map[int]bool)
	var points []point
	for _, smp := range samples {
		m := minuteOfDay(smp.Timestamp.In(loc))
		if seen[m] {
			continue
		}
		seen[m] = true
		points = append(points, point{minute: m, value: smp.Percentage})
	}
	// Samples arrive timestamp-ordered, so points are already minute-ordered.

	var out []occupancy.TimedValue
	for i := 1; i < len(points); i++ {
		p1, p2 := points[i-1], points[i]
		gap := p2.minute - p1.minute
		if gap <= 1 || gap > maxGapMinutes {
			continue
		}
		if p1.minute < openMin || p2.minute > closeMin {
			continue
		}
		for m := p1.minute + 1; m < p2.minute; m++ {
			frac := float64(m-p1.minute) / float64(gap)
			out = append(out, occupancy.TimedValue{
				Timestamp:  atMinute(day, m),
				Percentage: p1.value + frac*(p2.value-p1.value),
			})
		}
	}
	return out
}

// atMinute returns the wall-clock instant at the given minute of the local day.
func atMinute(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, day.Location())
}

func midnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
