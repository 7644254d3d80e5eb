package tasks

import (
	"fmt"

	"github.com/desertthunder/spotify-tools/internal/models"
)

// ProgressUpdate represents a progress event during a shuffle.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	FetchTracks
	Shuffle
	ResolveUser
	CreatePlaylist
	AddTracks
	Rollback
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case FetchTracks:
		return "fetch_tracks"
	case Shuffle:
		return "shuffle"
	case ResolveUser:
		return "resolve_user"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case Rollback:
		return "rollback"
	default:
		return ""
	}
}

func fetchingSourceUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist %s from Spotify...", id),
	}
}

func foundPlaylistUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", pl.Name, pl.TrackCount),
		Data:    pl,
	}
}

func fetchTracksUpdate(loaded, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    loaded,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Loaded tracks", loaded, total),
	}
}

func shuffleUpdate(refs, skipped int) ProgressUpdate {
	msg := fmt.Sprintf("Shuffled %d tracks", refs)
	if skipped > 0 {
		msg = fmt.Sprintf("Shuffled %d tracks (%d skipped: local or unavailable)", refs, skipped)
	}
	return ProgressUpdate{
		Phase:   Shuffle,
		Step:    1,
		Total:   1,
		Message: msg,
	}
}

func resolveUserUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveUser,
		Step:    0,
		Total:   1,
		Message: "Resolving current user...",
	}
}

func creatingPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func createdPlaylistUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func addTracksUpdate(batch, batches, added int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    batch,
		Total:   batches,
		Message: fmt.Sprintf("[%d/%d] Added %d tracks", batch, batches, added),
	}
}

func rollbackUpdate(pl *models.Playlist, err error) ProgressUpdate {
	msg := fmt.Sprintf("Removed partial playlist %s", pl.Name)
	if err != nil {
		msg = fmt.Sprintf("✗ Could not remove partial playlist %s: %v", pl.Name, err)
	}
	return ProgressUpdate{
		Phase:   Rollback,
		Step:    1,
		Total:   1,
		Message: msg,
		Data:    pl,
	}
}
