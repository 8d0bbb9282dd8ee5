package store

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed migrations/0001_init.sql
var schemaInit string

// schemaSteps lists schema changes in application order. The database's
// user_version pragma records how many have been applied, so a fresh
// database runs them all and an up-to-date one runs none.
var schemaSteps = []string{
	schemaInit,
}

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var version int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > len(schemaSteps) {
		return fmt.Errorf("database schema version %d is newer than this build supports (%d)", version, len(schemaSteps))
	}
	if version == len(schemaSteps) {
		return tx.Commit()
	}

	for i := version; i < len(schemaSteps); i++ {
		if _, err := tx.ExecContext(ctx, schemaSteps[i]); err != nil {
			return fmt.Errorf("apply schema step %d: %w", i+1, err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", len(schemaSteps))); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}
