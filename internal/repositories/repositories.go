package repositories

import (
	"database/sql"
	"fmt"
)

// withTx runs fn inside a transaction and commits only when fn returns nil.
func withTx(db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// nextSequence increments the counter row in <table>_sequence and returns the new value.
//
// The increment belongs to tx, so a failed insert hands the number back.
func nextSequence(tx *sql.Tx, table string) (int, error) {
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)

	var sequence int
	if err := tx.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment %s sequence: %w", table, err)
	}
	return sequence, nil
}
