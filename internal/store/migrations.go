package store

import (
	"context"
	"database/sql"
	"fmt"
)

// runMigrations creates the schema if absent and fills date_added on rows
// where it is still 0; it adds no columns to an existing table. Runs inside one transaction so a partial
// failure never leaves the schema half-created.
func runMigrations(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err = backfillDateAdded(ctx, tx); err != nil {
		return fmt.Errorf("failed to backfill date_added: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}

	return nil
}

// backfillDateAdded fills date_added with date_modified for any row left
// over from before the column existed (default value 0 on ALTER TABLE
// would otherwise poison created:/dateadded: queries with epoch-zero rows).
func backfillDateAdded(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE file_entries SET date_added = date_modified WHERE date_added = 0
		`)
	return err
}
