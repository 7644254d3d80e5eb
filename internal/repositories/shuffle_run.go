package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotify-tools/internal/models"
	"github.com/desertthunder/spotify-tools/internal/shared"
)

const shuffleRunColumns = `id, sequence, source_id, source_name, dest_id, dest_name, dest_url, track_count, public, created_at, updated_at, deleted_at`

var _ models.Repository[*models.ShuffleRun] = (*ShuffleRunRepository)(nil)

// ShuffleRunRepository implements [models.Repository] for [models.ShuffleRun] persistence.
type ShuffleRunRepository struct {
	db *sql.DB
}

// NewShuffleRunRepository creates a new [ShuffleRunRepository] with the given database connection
func NewShuffleRunRepository(db *sql.DB) *ShuffleRunRepository {
	return &ShuffleRunRepository{db: db}
}

// Create inserts run with a generated ID. The sequence is assigned in the same transaction as the insert.
func (r *ShuffleRunRepository) Create(run *models.ShuffleRun) error {
	run.SetID(shared.GenerateID())
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO shuffle_runs (id, sequence, source_id, source_name, dest_id, dest_name, dest_url, track_count, public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	return withTx(r.db, func(tx *sql.Tx) error {
		sequence, err := nextSequence(tx, "shuffle_runs")
		if err != nil {
			return err
		}

		_, err = tx.Exec(query,
			run.ID(), sequence, run.SourceID(), run.SourceName(), run.DestID(), run.DestName(), run.DestURL(),
			run.TrackCount(), run.Public(), run.CreatedAt(), run.UpdatedAt(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert shuffle run: %w", err)
		}

		run.SetSequence(sequence)
		return nil
	})
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *ShuffleRunRepository) Get(id string) (*models.ShuffleRun, error) {
	query := `SELECT ` + shuffleRunColumns + ` FROM shuffle_runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanShuffleRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("shuffle run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query shuffle run: %w", err)
	}

	return run, nil
}

// Update modifies the mutable fields of an existing run
func (r *ShuffleRunRepository) Update(run *models.ShuffleRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE shuffle_runs
		SET dest_name = ?, dest_url = ?, track_count = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, run.DestName(), run.DestURL(), run.TrackCount(), now, run.ID())
	if err != nil {
		return fmt.Errorf("failed to update shuffle run: %w", err)
	}

	return requireRow(result, run.ID())
}

// Delete soft-deletes a run by ID
func (r *ShuffleRunRepository) Delete(id string) error {
	query := `
		UPDATE shuffle_runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete shuffle run: %w", err)
	}

	return requireRow(result, id)
}

// List retrieves runs newest first, excluding soft-deleted runs.
func (r *ShuffleRunRepository) List(opts models.ListOptions) ([]*models.ShuffleRun, error) {
	query := `SELECT ` + shuffleRunColumns + ` FROM shuffle_runs WHERE deleted_at IS NULL`
	args := []any{}

	if opts.SourceID != "" {
		query += " AND source_id = ?"
		args = append(args, opts.SourceID)
	}

	query += " ORDER BY sequence DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shuffle runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ShuffleRun
	for rows.Next() {
		run, err := scanShuffleRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shuffle run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShuffleRun(row rowScanner) (*models.ShuffleRun, error) {
	var (
		id, sourceID, sourceName  string
		destID, destName, destURL string
		sequence, trackCount      int
		public                    bool
		createdAt, updatedAt      time.Time
		deletedAt                 sql.NullTime
	)

	err := row.Scan(&id, &sequence, &sourceID, &sourceName, &destID, &destName, &destURL,
		&trackCount, &public, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}

	return models.RestoreShuffleRun(id, sequence, sourceID, sourceName, destID, destName, destURL,
		trackCount, public, createdAt, updatedAt, deleted), nil
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("shuffle run not found or already deleted: %s", id)
	}
	return nil
}
