package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotify-tools/internal/formatter"
	"github.com/desertthunder/spotify-tools/internal/models"
	"github.com/desertthunder/spotify-tools/internal/repositories"
	"github.com/desertthunder/spotify-tools/internal/shared"
	"github.com/desertthunder/spotify-tools/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Shuffle creates a new playlist holding a shuffled copy of the source playlist.
//
// When adding tracks fails part way and rollback is off, the partial playlist's URL is printed before the error is returned.
func (r *Runner) Shuffle(ctx context.Context, cmd *cli.Command) error {
	playlistID, err := r.playlistID(cmd.String("playlist-id"))
	if err != nil {
		return err
	}
	useJSON := cmd.Bool("json")

	exportPath := cmd.String("export")
	if exportPath != "" {
		if _, err := formatter.FormatFromPath(exportPath); err != nil {
			return err
		}
	}

	session, err := r.connect(ctx)
	if err != nil {
		return err
	}

	engine := r.engine(session, cmd.Bool("rollback-on-failure"))
	opts := tasks.RunOptions{
		PlaylistID:      playlistID,
		NewPlaylistName: cmd.String("new-playlist-name"),
		Public:          cmd.Bool("public-playlist"),
	}

	r.logger.Info("shuffling playlist", "id", playlistID, "public", opts.Public)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if useJSON {
				r.logger.Debug(update.Message, "phase", update.Phase)
				continue
			}
			r.writePlain("→ %s\n", update.Message)
		}
	}()

	result, err := engine.Run(ctx, opts, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		if result != nil && result.Destination != nil {
			r.writePlainln("⚠ Partial playlist kept: %s (%d tracks added)", result.Destination.Name, result.TracksAdded)
			r.writePlain("  URL: %s\n", result.Destination.URL)
		}
		return err
	}

	r.record(result)

	// The playlist exists by now, so a failed export still reports it before returning the error.
	var exportErr error
	if exportPath != "" {
		export := formatter.Export{Playlist: result.Destination, Items: result.Tracks}
		if exportErr = formatter.WriteExport(export, exportPath); exportErr != nil {
			r.logger.Warn("export failed, playlist was still created", "path", exportPath, "url", result.Destination.URL)
		} else {
			r.logger.Info("shuffled order exported", "path", exportPath)
		}
	}

	if useJSON {
		if err := r.writeJSON(result, true); err != nil {
			return err
		}
		return exportErr
	}

	r.writePlain("\n")
	r.writePlainHeader("Shuffle Complete!")
	r.writePlain("Source: %s (%d items)\n", result.Source.Name, result.TotalItems)
	r.writePlain("Destination: %s (%d tracks)\n", result.Destination.Name, result.TracksAdded)
	if result.Skipped > 0 {
		r.writePlain("Skipped: %d local or unavailable items\n", result.Skipped)
	}
	r.writePlain("URL: %s\n", result.Destination.URL)

	return exportErr
}

// playlistID resolves the source playlist from the flag, falling back to the configured default.
func (r *Runner) playlistID(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if id := r.config.Credentials.Spotify.PlaylistID; id != "" {
		return id, nil
	}
	return "", fmt.Errorf(
		"%w: set --playlist-id, credentials.spotify.playlist_id or %sPLAYLIST_ID",
		shared.ErrMissingArgument, shared.EnvPrefix,
	)
}

// record stores a completed shuffle in the history database when one is configured.
// Failures are logged and never fail the command.
func (r *Runner) record(result *tasks.ShuffleResult) {
	if r.config.Database.Path == "" || result == nil || result.Destination == nil {
		return
	}

	db, err := shared.OpenHistoryDatabase(r.config.Database)
	if err != nil {
		r.logger.Warn("failed to open history database", "path", r.config.Database.Path, "error", err)
		return
	}
	defer db.Close()

	run := models.NewShuffleRun(result.Source, result.Destination, result.TracksAdded)
	if err := repositories.NewShuffleRunRepository(db).Create(run); err != nil {
		r.logger.Warn("failed to record shuffle", "error", err)
		return
	}

	r.logger.Debug("shuffle recorded", "id", run.ID(), "sequence", run.Sequence())
}
