package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/HerbHall/occutrend/pkg/occupancy"
)

// SampleStore provides database access for occupancy samples.
type SampleStore struct {
	db *sql.DB
}

// NewSampleStore creates a SampleStore backed by the given database.
func NewSampleStore(db *sql.DB) *SampleStore {
	return &SampleStore{db: db}
}

// Insert stores a single sample and returns its row id. The timestamp is
// normalized to UTC before storage.
func (s *SampleStore) Insert(ctx context.Context, ts time.Time, percentage float64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO occupancy_samples (timestamp, percentage) VALUES (?, ?)",
		ts.UTC(), percentage,
	)
	if err != nil {
		return 0, fmt.Errorf("insert sample: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert sample id: %w", err)
	}
	return id, nil
}

// BatchInsert stores multiple synthetic samples in a single transaction.
func (s *SampleStore) BatchInsert(ctx context.Context, values []occupancy.TimedValue) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO occupancy_samples (timestamp, percentage) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range values {
		if _, err := stmt.ExecContext(ctx, v.Timestamp.UTC(), v.Percentage); err != nil {
			tx.Rollback()
			return fmt.Errorf("batch insert sample at %s: %w", v.Timestamp.Format(time.RFC3339), err)
		}
	}
	return tx.Commit()
}

// UpdateValue overwrites the percentage of an existing sample.
func (s *SampleStore) UpdateValue(ctx context.Context, id int64, percentage float64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE occupancy_samples SET percentage = ? WHERE id = ?",
		percentage, id,
	)
	if err != nil {
		return fmt.Errorf("update sample %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update sample %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update sample %d: no such row", id)
	}
	return nil
}

// Range returns all samples with from <= timestamp < to, ordered ascending.
func (s *SampleStore) Range(ctx context.Context, from, to time.Time) ([]occupancy.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, percentage FROM occupancy_samples
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query sample range: %w", err)
	}
	return scanSamples(rows)
}

// Since returns all samples with timestamp >= since, ordered ascending.
func (s *SampleStore) Since(ctx context.Context, since time.Time) ([]occupancy.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, percentage FROM occupancy_samples
		WHERE timestamp >= ?
		ORDER BY timestamp ASC`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query samples since: %w", err)
	}
	return scanSamples(rows)
}

// ForLocalDate returns all samples that fall on the given calendar date in
// the given timezone, ordered ascending.
func (s *SampleStore) ForLocalDate(ctx context.Context, date time.Time, loc *time.Location) ([]occupancy.Sample, error) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return s.Range(ctx, start, end)
}

// Latest returns the most recent sample, or nil if the table is empty.
func (s *SampleStore) Latest(ctx context.Context) (*occupancy.Sample, error) {
	var smp occupancy.Sample
	err := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, percentage FROM occupancy_samples
		ORDER BY timestamp DESC LIMIT 1`,
	).Scan(&smp.ID, &smp.Timestamp, &smp.Percentage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest sample: %w", err)
	}
	smp.Timestamp = smp.Timestamp.UTC()
	return &smp, nil
}

// SlotAverages aggregates samples since the given instant into per
// (weekday, hour) averages in the given timezone. Weekdays are Monday-origin.
// Results are ordered by weekday then hour.
func (s *SampleStore) SlotAverages(ctx context.Context, since time.Time, loc *time.Location) ([]occupancy.SlotAverage, error) {
	samples, err := s.Since(ctx, since)
	if err != nil {
		return nil, err
	}
	return aggregateSlots(samples, loc), nil
}

// SlotAveragesBetween is SlotAverages restricted to [from, to), for
// comparing distinct periods.
func (s *SampleStore) SlotAveragesBetween(ctx context.Context, from, to time.Time, loc *time.Location) ([]occupancy.SlotAverage, error) {
	samples, err := s.Range(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return aggregateSlots(samples, loc), nil
}

func aggregateSlots(samples []occupancy.Sample, loc *time.Location) []occupancy.SlotAverage {
	sums := make(map[occupancy.Slot]float64)
	counts := make(map[occupancy.Slot]int64)
	for _, smp := range samples {
		local := smp.Timestamp.In(loc)
		slot := occupancy.Slot{Weekday: occupancy.MondayIndex(local), Hour: local.Hour()}
		sums[slot] += smp.Percentage
		counts[slot]++
	}

	averages := make([]occupancy.SlotAverage, 0, len(sums))
	for slot, sum := range sums {
		averages = append(averages, occupancy.SlotAverage{
			Weekday:       slot.Weekday,
			Hour:          slot.Hour,
			AvgPercentage: sum / float64(counts[slot]),
			SampleCount:   counts[slot],
		})
	}
	sort.Slice(averages, func(i, j int) bool {
		if averages[i].Weekday != averages[j].Weekday {
			return averages[i].Weekday < averages[j].Weekday
		}
		return averages[i].Hour < averages[j].Hour
	})
	return averages
}

// SlotStats aggregates samples since the given instant into per
// (weekday, hour) mean and population standard deviation.
func (s *SampleStore) SlotStats(ctx context.Context, since time.Time, loc *time.Location) (map[occupancy.Slot]occupancy.SlotStats, error) {
	samples, err := s.Since(ctx, since)
	if err != nil {
		return nil, err
	}

	grouped := make(map[occupancy.Slot][]float64)
	for _, smp := range samples {
		local := smp.Timestamp.In(loc)
		slot := occupancy.Slot{Weekday: occupancy.MondayIndex(local), Hour: local.Hour()}
		grouped[slot] = append(grouped[slot], smp.Percentage)
	}

	stats := make(map[occupancy.Slot]occupancy.SlotStats, len(grouped))
	for slot, vals := range grouped {
		var sum float64
		for _, v := range vals {
			sum += v
		}
		mean := sum / float64(len(vals))
		var sq float64
		for _, v := range vals {
			sq += (v - mean) * (v - mean)
		}
		stats[slot] = occupancy.SlotStats{
			Mean:        mean,
			StdDev:      math.Sqrt(sq / float64(len(vals))),
			SampleCount: int64(len(vals)),
		}
	}
	return stats, nil
}

func scanSamples(rows *sql.Rows) ([]occupancy.Sample, error) {
	defer rows.Close()

	var samples []occupancy.Sample
	for rows.Next() {
		var smp occupancy.Sample
		if err := rows.Scan(&smp.ID, &smp.Timestamp, &smp.Percentage); err != nil {
			return nil, fmt.Errorf("scan sample row: %w", err)
		}
		smp.Timestamp = smp.Timestamp.UTC()
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}
