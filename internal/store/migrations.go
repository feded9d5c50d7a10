package store

import "database/sql"

// Migrations returns the occupancy schema migrations.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create occupancy tables",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS occupancy_samples (
						id          INTEGER PRIMARY KEY AUTOINCREMENT,
						timestamp   DATETIME NOT NULL,
						percentage  REAL NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_occupancy_samples_timestamp ON occupancy_samples(timestamp)`,

					`CREATE TABLE IF NOT EXISTS model_snapshots (
						id          TEXT PRIMARY KEY,
						created_at  DATETIME NOT NULL,
						payload     TEXT NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_model_snapshots_created ON model_snapshots(created_at)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
