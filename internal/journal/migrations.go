package journal

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the latest journal schema.
const SchemaVersion = 2

// Migration is one schema step.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS loads (
				id TEXT PRIMARY KEY,
				loaded_at TEXT NOT NULL,
				source TEXT NOT NULL,
				records INTEGER NOT NULL,
				notice TEXT NOT NULL DEFAULT ''
			)`)
			return err
		},
	},
	{
		Version:     2,
		Description: "Record live failure reason and index load time",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE loads ADD COLUMN live_error TEXT NOT NULL DEFAULT ''`,
				`CREATE INDEX IF NOT EXISTS idx_loads_loaded_at ON loads(loaded_at)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

// Migrate applies pending migrations.
func (j *Journal) Migrate(ctx context.Context) error {
	if j.db == nil {
		return ErrClosed
	}

	var current int
	if err := j.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := j.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
	}

	var final int
	if err := j.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&final); err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}
	if final != SchemaVersion {
		return fmt.Errorf("journal schema version mismatch: expected %d, got %d", SchemaVersion, final)
	}
	return nil
}
