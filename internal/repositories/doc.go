// Package repositories implements SQLite persistence for the shuffle history.
//
// [ShuffleRunRepository] implements [models.Repository] for [models.ShuffleRun] with soft deletes via a
// deleted_at timestamp; deleted rows are excluded from queries.
//
// Sequence numbers provide stable, human-readable ordering (e.g. shuffle #15) independent of UUIDs and
// creation timestamps. Each table has a one-row <table>_sequence counter that is incremented in the same
// transaction as the insert, so numbers are never skipped.
package repositories
