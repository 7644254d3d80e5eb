package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spotify-tools/internal/models"
	"github.com/desertthunder/spotify-tools/internal/repositories"
	"github.com/desertthunder/spotify-tools/internal/shared"
	"github.com/urfave/cli/v3"
)

type historyEntry struct {
	ID         string    `json:"id"`
	Sequence   int       `json:"sequence"`
	SourceID   string    `json:"source_id"`
	SourceName string    `json:"source_name"`
	DestID     string    `json:"dest_id"`
	DestName   string    `json:"dest_name"`
	DestURL    string    `json:"dest_url"`
	TrackCount int       `json:"track_count"`
	Public     bool      `json:"public"`
	CreatedAt  time.Time `json:"created_at"`
}

func newHistoryEntry(run *models.ShuffleRun) historyEntry {
	return historyEntry{
		ID:         run.ID(),
		Sequence:   run.Sequence(),
		SourceID:   run.SourceID(),
		SourceName: run.SourceName(),
		DestID:     run.DestID(),
		DestName:   run.DestName(),
		DestURL:    run.DestURL(),
		TrackCount: run.TrackCount(),
		Public:     run.Public(),
		CreatedAt:  run.CreatedAt(),
	}
}

// History lists recorded shuffles, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if r.config.Database.Path == "" {
		return fmt.Errorf("%w: database.path is not set", shared.ErrInvalidConfig)
	}

	db, err := shared.OpenHistoryDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewShuffleRunRepository(db)

	if id := cmd.String("delete"); id != "" {
		return r.deleteHistoryEntry(repo, id, cmd.Bool("json"))
	}

	runs, err := repo.List(models.ListOptions{
		SourceID: cmd.String("playlist-id"),
		Limit:    int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	entries := make([]historyEntry, len(runs))
	for i, run := range runs {
		entries[i] = newHistoryEntry(run)
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No shuffles recorded yet.\n")
	}

	r.writePlain("Found %d shuffles:\n\n", len(entries))
	for _, e := range entries {
		r.writePlain("%d. %s\n", e.Sequence, e.DestName)
		r.writePlain("   Source: %s (%s)\n", e.SourceName, e.SourceID)
		r.writePlain("   Tracks: %d\n", e.TrackCount)
		if e.Public {
			r.writePlain("   Visibility: Public\n")
		} else {
			r.writePlain("   Visibility: Private\n")
		}
		r.writePlain("   Created: %s\n", e.CreatedAt.Local().Format(time.DateTime))
		r.writePlain("   URL: %s\n\n", e.DestURL)
	}

	return nil
}

// deleteHistoryEntry removes one run from the local history. The Spotify playlist is left alone.
func (r *Runner) deleteHistoryEntry(repo *repositories.ShuffleRunRepository, id string, useJSON bool) error {
	run, err := repo.Get(id)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}
	if err := repo.Delete(id); err != nil {
		return err
	}
	r.logger.Info("history entry deleted", "id", id, "dest_id", run.DestID())

	if useJSON {
		return r.writeJSON(newHistoryEntry(run), true)
	}
	r.writePlain("Removed %d. %s from history\n", run.Sequence(), run.DestName())
	r.writePlain("The playlist itself is still on Spotify: %s\n", run.DestURL())
	return nil
}
