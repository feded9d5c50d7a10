package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/occutrend/internal/clock"
	"github.com/HerbHall/occutrend/pkg/occupancy"
)

// SnapshotVersion is the current snapshot format version. Readers reject
// snapshots written by a newer version.
const SnapshotVersion = 1

// Snapshot failure modes.
var (
	ErrSnapshotNotFound = errors.New("model snapshot not found")
	ErrSnapshotVersion  = errors.New("model snapshot has unsupported version")
)

// SnapshotSlot is one slot's statistics as persisted in a snapshot.
type SnapshotSlot struct {
	Weekday     int     `json:"weekday"`
	Hour        int     `json:"hour"`
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
	SampleCount int64   `json:"sample_count"`
}

// Snapshot is the versioned, persistable record of a training run. It
// deliberately carries summary metadata and slot statistics rather than
// raw model coefficients, keeping the format simple and forward-compatible.
type Snapshot struct {
	ID                 string         `json:"id"`
	Version            int            `json:"version"`
	CreatedAt          time.Time      `json:"created_at"`
	TrainingWindowDays int            `json:"training_window_days"`
	TrainingSamples    int            `json:"training_samples"`
	TrainingMSE        float64        `json:"training_mse"`
	ValidationMSE      float64        `json:"validation_mse"`
	Validated          bool           `json:"validated"`
	SlotStats          []SnapshotSlot `json:"slot_stats"`
	ModelType          string         `json:"model_type"`
}

// NewSnapshot records a trained model's metadata and the extractor's slot
// statistics in a snapshot with a fresh unique id.
func NewSnapshot(model *TrainedModel, extractor *Extractor, cfg Config, clk clock.Clock) Snapshot {
	slots := make([]SnapshotSlot, 0, len(extractor.stats))
	for slot, s := range extractor.stats {
		slots = append(slots, SnapshotSlot{
			Weekday:     slot.Weekday,
			Hour:        slot.Hour,
			Mean:        s.Mean,
			StdDev:      s.StdDev,
			SampleCount: s.SampleCount,
		})
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Weekday != slots[j].Weekday {
			return slots[i].Weekday < slots[j].Weekday
		}
		return slots[i].Hour < slots[j].Hour
	})

	return Snapshot{
		ID:                 uuid.NewString(),
		Version:            SnapshotVersion,
		CreatedAt:          clk.Now(),
		TrainingWindowDays: cfg.TrainingWindowDays,
		TrainingSamples:    model.TrainingSamples,
		TrainingMSE:        model.TrainingMSE,
		ValidationMSE:      model.ValidationMSE,
		Validated:          model.Validated,
		SlotStats:          slots,
		ModelType:          "linear-regression",
	}
}

// Encode serializes the snapshot to JSON.
func (s Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot, rejecting versions newer than
// SnapshotVersion.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version > SnapshotVersion {
		return Snapshot{}, fmt.Errorf("%w: found %d, supported %d", ErrSnapshotVersion, s.Version, SnapshotVersion)
	}
	return s, nil
}

// SaveFile writes the snapshot to disk, creating parent directories as
// needed.
func (s Snapshot) SaveFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	data, err := s.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadFile reads a snapshot from disk.
func LoadFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, path)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	return DecodeSnapshot(data)
}

// IsStale reports whether the snapshot is older than maxAgeHours as of
// the given clock.
func (s Snapshot) IsStale(clk clock.Clock, maxAgeHours int) bool {
	return clk.Now().Sub(s.CreatedAt).Hours() > float64(maxAgeHours)
}

// RestoreExtractor rebuilds an Extractor from the snapshot's slot
// statistics.
func (s Snapshot) RestoreExtractor(cal Calendar) *Extractor {
	e := NewExtractor(cal)
	for _, slot := range s.SlotStats {
		e.stats[occupancy.Slot{Weekday: slot.Weekday, Hour: slot.Hour}] = occupancy.SlotStats{
			Mean:        slot.Mean,
			StdDev:      slot.StdDev,
			SampleCount: slot.SampleCount,
		}
	}
	return e
}

// Summary returns a one-line human-readable description.
func (s Snapshot) Summary() string {
	val := "n/a"
	if s.Validated {
		val = fmt.Sprintf("%.2f", s.ValidationMSE)
	}
	return fmt.Sprintf("Model v%d: %d samples, train_mse=%.2f, val_mse=%s, created %s",
		s.Version, s.TrainingSamples, s.TrainingMSE, val, s.CreatedAt.Format("2006-01-02 15:04 MST"))
}
