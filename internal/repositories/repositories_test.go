package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/spotify-tools/internal/models"
	"github.com/desertthunder/spotify-tools/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Every connection to :memory: is a separate database.
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newRun(sourceID, destID string, count int) *models.ShuffleRun {
	source := &models.Playlist{ID: sourceID, Name: "Summer Mix"}
	dest := &models.Playlist{
		ID:     destID,
		Name:   "Summer Mix (2024-06-01 10:30)",
		URL:    "https://open.spotify.com/playlist/" + destID,
		Public: true,
	}
	return models.NewShuffleRun(source, dest, count)
}

func TestShuffleRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewShuffleRunRepository(db)
		run := newRun("src", "dst", 250)

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
		if run.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", run.Sequence())
		}
	})

	t.Run("Create ValidationError", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewShuffleRunRepository(db)
		run := newRun("src", "", 1)

		if err := repo.Create(run); err == nil {
			t.Fatal("expected validation error for missing destination")
		}

		var count int
		db.QueryRow("SELECT value FROM shuffle_runs_sequence WHERE id = 1").Scan(&count)
		if count != 0 {
			t.Errorf("invalid runs should not consume a sequence, got %d", count)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewShuffleRunRepository(db)
		run := newRun("src", "dst", 250)
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if retrieved.SourceName() != "Summer Mix" || retrieved.DestID() != "dst" {
			t.Errorf("unexpected run: source=%s dest=%s", retrieved.SourceName(), retrieved.DestID())
		}
		if retrieved.TrackCount() != 250 || !retrieved.Public() {
			t.Errorf("expected 250 public tracks, got %d public=%v", retrieved.TrackCount(), retrieved.Public())
		}
		if retrieved.DestURL() != "https://open.spotify.com/playlist/dst" {
			t.Errorf("unexpected URL %s", retrieved.DestURL())
		}
		if !retrieved.CreatedAt().Equal(run.CreatedAt()) {
			t.Errorf("expected created_at %v, got %v", run.CreatedAt(), retrieved.CreatedAt())
		}
	})

	t.Run("Get NotFound", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NewShuffleRunRepository(db).Get("nonexistent-id"); err == nil {
			t.Fatal("expected error when getting nonexistent run")
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewShuffleRunRepository(db)
		run := newRun("src", "dst", 250)
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		before := run.UpdatedAt()
		time.Sleep(5 * time.Millisecond)

		run.SetDestName("Renamed")
		run.SetTrackCount(200)
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if retrieved.DestName() != "Renamed" || retrieved.TrackCount() != 200 {
			t.Errorf("update not persisted: %s %d", retrieved.DestName(), retrieved.TrackCount())
		}
		if !retrieved.UpdatedAt().After(before) {
			t.Error("updated_at should advance")
		}
	})

	t.Run("Update NotFound", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		run := newRun("src", "dst", 1)
		run.SetID("missing")
		if err := NewShuffleRunRepository(db).Update(run); err == nil {
			t.Fatal("expected error when updating nonexistent run")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewShuffleRunRepository(db)
		run := newRun("src", "dst", 10)
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}

		if _, err := repo.Get(run.ID()); err == nil {
			t.Error("deleted run should not be retrievable")
		}
		if err := repo.Delete(run.ID()); err == nil {
			t.Error("deleting twice should fail")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewShuffleRunRepository(db)
		for i, src := range []string{"a", "b", "a", "a"} {
			run := newRun(src, "dst-"+string(rune('0'+i)), i)
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run %d: %v", i, err)
			}
		}

		all, err := repo.List(models.ListOptions{})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 4 {
			t.Fatalf("expected 4 runs, got %d", len(all))
		}
		if all[0].Sequence() != 4 || all[3].Sequence() != 1 {
			t.Errorf("expected newest first, got sequences %d..%d", all[0].Sequence(), all[3].Sequence())
		}

		t.Run("by source", func(t *testing.T) {
			runs, err := repo.List(models.ListOptions{SourceID: "a"})
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}
			if len(runs) != 3 {
				t.Errorf("expected 3 runs for source a, got %d", len(runs))
			}
		})

		t.Run("with limit", func(t *testing.T) {
			runs, err := repo.List(models.ListOptions{Limit: 2})
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}
			if len(runs) != 2 || runs[0].Sequence() != 4 {
				t.Errorf("expected the 2 newest runs, got %d", len(runs))
			}
		})

		t.Run("excludes deleted", func(t *testing.T) {
			if err := repo.Delete(all[0].ID()); err != nil {
				t.Fatalf("failed to delete: %v", err)
			}
			runs, _ := repo.List(models.ListOptions{})
			if len(runs) != 3 {
				t.Errorf("expected 3 runs after delete, got %d", len(runs))
			}
		})
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	next := func() (int, error) {
		var seq int
		err := withTx(db, func(tx *sql.Tx) error {
			var err error
			seq, err = nextSequence(tx, "shuffle_runs")
			return err
		})
		return seq, err
	}

	t.Run("increments per commit", func(t *testing.T) {
		for want := 1; want <= 2; want++ {
			got, err := next()
			if err != nil {
				t.Fatalf("failed to get sequence: %v", err)
			}
			if got != want {
				t.Errorf("expected sequence %d, got %d", want, got)
			}
		}
	})

	t.Run("rolled back increments are reused", func(t *testing.T) {
		err := withTx(db, func(tx *sql.Tx) error {
			if _, err := nextSequence(tx, "shuffle_runs"); err != nil {
				return err
			}
			return errors.New("insert failed")
		})
		if err == nil || err.Error() != "insert failed" {
			t.Fatalf("expected the callback error, got %v", err)
		}

		got, err := next()
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != 3 {
			t.Errorf("expected sequence 3 after rollback, got %d", got)
		}
	})

	t.Run("missing table", func(t *testing.T) {
		err := withTx(db, func(tx *sql.Tx) error {
			_, err := nextSequence(tx, "missing")
			return err
		})
		if err == nil {
			t.Error("expected error for table without a sequence")
		}
	})
}
