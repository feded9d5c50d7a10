package repair

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/HerbHall/occutrend/internal/schedule"
	"github.com/HerbHall/occutrend/internal/store"
)

func testStore(t *testing.T) *store.SampleStore {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "repair.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background(), "occupancy", store.Migrations()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return store.NewSampleStore(s.DB())
}

func testSchedule() *schedule.Schedule {
	return schedule.New(
		schedule.Hours{OpenHour: 6, CloseHour: 23},
		schedule.Hours{OpenHour: 9, CloseHour: 21},
		time.UTC,
	)
}

// Monday 2026-03-09, a plain weekday with hours 6-23.
var monday = time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)

func insert(t *testing.T, samples *store.SampleStore, hour, minute int, pct float64) {
	t.Helper()
	ts := monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	if _, err := samples.Insert(context.Background(), ts, pct); err != nil {
		t.Fatalf("insert %02d:%02d: %v", hour, minute, err)
	}
}

func dayValues(t *testing.T, samples *store.SampleStore) map[int]float64 {
	t.Helper()
	got, err := samples.ForLocalDate(context.Background(), monday, time.UTC)
	if err != nil {
		t.Fatalf("ForLocalDate: %v", err)
	}
	byMinute := make(map[int]float64, len(got))
	for _, smp := range got {
		local := smp.Timestamp.In(time.UTC)
		byMinute[local.Hour()*60+local.Minute()] = smp.Percentage
	}
	return byMinute
}

func TestRepairRange_zeroes_out_of_hours_and_adds_sentinel(t *testing.T) {
	samples := testStore(t)
	r := New(samples, testSchedule(), nil)

	insert(t, samples, 23, 30, 12.0) // after closing, must be zeroed
	insert(t, samples, 23, 0, 35.0)  // closing minute itself, kept
	insert(t, samples, 5, 30, 8.0)   // before opening, must be zeroed
	insert(t, samples, 12, 0, 55.0)  // in hours, untouched

	sum, err := r.RepairRange(context.Background(), monday, monday, nil)
	if err != nil {
		t.Fatalf("RepairRange: %v", err)
	}

	if sum.RecordsZeroed != 2 {
		t.Errorf("RecordsZeroed = %d, want 2", sum.RecordsZeroed)
	}
	if sum.EndEntriesAdded != 1 {
		t.Errorf("EndEntriesAdded = %d, want 1", sum.EndEntriesAdded)
	}
	if sum.DaysProcessed != 1 {
		t.Errorf("DaysProcessed = %d, want 1", sum.DaysProcessed)
	}

	byMinute := dayValues(t, samples)
	if v := byMinute[23*60+30]; v != 0 {
		t.Errorf("23:30 value = %v, want 0", v)
	}
	if v := byMinute[5*60+30]; v != 0 {
		t.Errorf("05:30 value = %v, want 0", v)
	}
	if v := byMinute[23*60]; v != 35 {
		t.Errorf("23:00 closing-minute value = %v, want 35 (kept)", v)
	}
	if v := byMinute[12*60]; v != 55 {
		t.Errorf("12:00 value = %v, want 55", v)
	}
	if v, ok := byMinute[23*60+1]; !ok || v != 0 {
		t.Errorf("sentinel at 23:01 = %v (present=%v), want 0", v, ok)
	}
}

func TestRepairRange_interpolates_short_gaps(t *testing.T) {
	samples := testStore(t)
	r := New(samples, testSchedule(), nil)

	// 4-minute gap: 10:00=20 to 10:04=40 fills 10:01..10:03.
	insert(t, samples, 10, 0, 20)
	insert(t, samples, 10, 4, 40)
	// 1-minute gap: nothing to fill.
	insert(t, samples, 11, 0, 10)
	insert(t, samples, 11, 1, 12)
	// 6-minute gap: genuine outage, left alone.
	insert(t, samples, 12, 0, 30)
	insert(t, samples, 12, 6, 60)

	sum, err := r.RepairRange(context.Background(), monday, monday, nil)
	if err != nil {
		t.Fatalf("RepairRange: %v", err)
	}
	if sum.GapsFilled != 3 {
		t.Errorf("GapsFilled = %d, want 3", sum.GapsFilled)
	}

	byMinute := dayValues(t, samples)
	wants := map[int]float64{
		10*60 + 1: 25,
		10*60 + 2: 30,
		10*60 + 3: 35,
	}
	for minute, want := range wants {
		got, ok := byMinute[minute]
		if !ok {
			t.Errorf("missing interpolated sample at minute %d", minute)
			continue
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("minute %d = %v, want %v", minute, got, want)
		}
	}
	for _, minute := range []int{12*60 + 1, 12*60 + 3, 12*60 + 5} {
		if _, ok := byMinute[minute]; ok {
			t.Errorf("long gap minute %d was interpolated, want untouched", minute)
		}
	}
}

func TestRepairRange_idempotent(t *testing.T) {
	samples := testStore(t)
	r := New(samples, testSchedule(), nil)

	insert(t, samples, 23, 30, 12)
	insert(t, samples, 10, 0, 20)
	insert(t, samples, 10, 3, 50)

	if _, err := r.RepairRange(context.Background(), monday, monday, nil); err != nil {
		t.Fatalf("first RepairRange: %v", err)
	}

	sum, err := r.RepairRange(context.Background(), monday, monday, nil)
	if err != nil {
		t.Fatalf("second RepairRange: %v", err)
	}
	if sum.GapsFilled != 0 || sum.RecordsZeroed != 0 || sum.EndEntriesAdded != 0 {
		t.Errorf("second run made changes: %+v", sum)
	}
	if sum.DaysProcessed != 1 {
		t.Errorf("DaysProcessed = %d, want 1", sum.DaysProcessed)
	}
}

func TestRepairRange_invalid_range(t *testing.T) {
	samples := testStore(t)
	r := New(samples, testSchedule(), nil)

	_, err := r.RepairRange(context.Background(), monday, monday.AddDate(0, 0, -1), nil)
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestRepairRange_reports_progress(t *testing.T) {
	samples := testStore(t)
	r := New(samples, testSchedule(), nil)

	var ticks []Progress
	_, err := r.RepairRange(context.Background(), monday, monday.AddDate(0, 0, 2), func(p Progress) {
		ticks = append(ticks, p)
	})
	if err != nil {
		t.Fatalf("RepairRange: %v", err)
	}

	if len(ticks) != 3 {
		t.Fatalf("got %d progress ticks, want 3", len(ticks))
	}
	for i, p := range ticks {
		if p.TotalDays != 3 {
			t.Errorf("tick %d TotalDays = %d, want 3", i, p.TotalDays)
		}
		if p.ProcessedDays != i {
			t.Errorf("tick %d ProcessedDays = %d, want %d", i, p.ProcessedDays, i)
		}
	}
	if !ticks[1].CurrentDay.Equal(monday.AddDate(0, 0, 1)) {
		t.Errorf("tick 1 CurrentDay = %s, want %s", ticks[1].CurrentDay, monday.AddDate(0, 0, 1))
	}
}

func TestRepairRange_cancelled_between_days(t *testing.T) {
	samples := testStore(t)
	r := New(samples, testSchedule(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := r.RepairRange(ctx, monday, monday.AddDate(0, 0, 5), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sum.DaysProcessed != 0 {
		t.Errorf("DaysProcessed = %d, want 0", sum.DaysProcessed)
	}
}
