package database

import (
	"context"
	"database/sql"
	"fmt"
)

type resetter struct {
	db *sql.DB
}

func NewResetter(db *sql.DB) *resetter {
	return &resetter{db: db}
}

// ResetAll empties every application table in a single transaction.
func (r *resetter) ResetAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `TRUNCATE ledger_entries, group_members, groups, users, events`); err != nil {
		return fmt.Errorf("truncating tables: %w", err)
	}

	return tx.Commit()
}
