package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SnapshotRow is a persisted model snapshot. The payload is an opaque JSON
// document owned by the forecast package.
type SnapshotRow struct {
	ID        string
	CreatedAt time.Time
	Payload   string
}

// SnapshotStore provides database access for trained model snapshots.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore creates a SnapshotStore backed by the given database.
func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Save stores a snapshot row.
func (s *SnapshotStore) Save(ctx context.Context, row SnapshotRow) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO model_snapshots (id, created_at, payload) VALUES (?, ?, ?)",
		row.ID, row.CreatedAt.UTC(), row.Payload,
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", row.ID, err)
	}
	return nil
}

// Latest returns the most recently created snapshot, or nil if none exist.
func (s *SnapshotStore) Latest(ctx context.Context) (*SnapshotRow, error) {
	var row SnapshotRow
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, payload FROM model_snapshots
		ORDER BY created_at DESC LIMIT 1`,
	).Scan(&row.ID, &row.CreatedAt, &row.Payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	row.CreatedAt = row.CreatedAt.UTC()
	return &row, nil
}

// Prune deletes all but the newest keep snapshots.
func (s *SnapshotStore) Prune(ctx context.Context, keep int) error {
	if keep < 1 {
		keep = 1
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM model_snapshots WHERE id NOT IN (
			SELECT id FROM model_snapshots ORDER BY created_at DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
