package db

import (
	"context"
	"fmt"
)

// migrations are applied in order; the schema version is the number applied,
// stored in PRAGMA user_version.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS endpoint_settings (
		station_id TEXT PRIMARY KEY,
		subscription_path TEXT NOT NULL DEFAULT '',
		usage_path TEXT NOT NULL DEFAULT '',
		logs_path TEXT NOT NULL DEFAULT '',
		logs_page_size INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`,
}

// SchemaVersion returns the number of applied migrations.
func (db *DB) SchemaVersion() (int, error) {
	var v int
	if err := db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

func (db *DB) migrate() error {
	current, err := db.SchemaVersion()
	if err != nil {
		return err
	}

	for i := current; i < len(migrations); i++ {
		tx, err := db.BeginTx(context.Background(), nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(context.Background(), migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(context.Background(), fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", i+1, err)
		}
	}

	return nil
}
