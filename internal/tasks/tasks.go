// package tasks implements the playlist shuffle workflow.
//
// The core abstraction is ShuffleEngine, which loads a playlist, shuffles it and publishes the result as a new playlist.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotify-tools/internal/models"
	"github.com/desertthunder/spotify-tools/internal/services"
	"github.com/desertthunder/spotify-tools/internal/shared"
)

const (
	// DefaultBatchSize is the number of references appended per request.
	DefaultBatchSize = services.MaxTracksPerRequest

	// NameLayout formats the timestamp appended to derived playlist names.
	NameLayout = "2006-01-02 15:04"
)

// RunOptions selects the source playlist and shapes the destination.
type RunOptions struct {
	PlaylistID      string // Source playlist ID
	NewPlaylistName string // Destination name; derived from the source when empty
	Public          bool   // Destination visibility
}

// ShuffleResult contains all data from a completed shuffle.
type ShuffleResult struct {
	Source      *models.Playlist `json:"source"`       // Source playlist with every item loaded
	Destination *models.Playlist `json:"destination"`  // Created playlist
	TotalItems  int              `json:"total_items"`  // Items in the source
	TracksAdded int              `json:"tracks_added"` // References appended to the destination
	Skipped     int              `json:"skipped"`      // Items without a reference
	Batches     int              `json:"batches"`      // Append requests issued

	Tracks []models.TrackItem `json:"-"` // Source items in shuffled order, skipped ones included
}

// EngineOption configures a [ShuffleEngine].
type EngineOption func(*ShuffleEngine)

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) EngineOption {
	return func(e *ShuffleEngine) { e.rand = r }
}

// WithClock sets the clock used to derive destination names.
func WithClock(now func() time.Time) EngineOption {
	return func(e *ShuffleEngine) { e.now = now }
}

// WithBatchSize overrides the number of references per append. Values outside 1..100 are ignored.
func WithBatchSize(n int) EngineOption {
	return func(e *ShuffleEngine) {
		if n > 0 && n <= services.MaxTracksPerRequest {
			e.batchSize = n
		}
	}
}

// WithRollback makes the engine unfollow a destination left partially populated by a failed append.
func WithRollback(enabled bool) EngineOption {
	return func(e *ShuffleEngine) { e.rollback = enabled }
}

// ShuffleEngine drives the shuffle workflow against a [services.Session].
type ShuffleEngine struct {
	session   services.Session
	logger    *log.Logger
	rand      *rand.Rand
	now       func() time.Time
	batchSize int
	rollback  bool
}

// NewShuffleEngine creates a new ShuffleEngine. A nil logger discards output.
func NewShuffleEngine(session services.Session, logger *log.Logger, opts ...EngineOption) *ShuffleEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	e := &ShuffleEngine{
		session:   session,
		logger:    logger,
		now:       time.Now,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ShuffleEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full, skip this update
	}
}

// Run loads the source playlist, rejects it when empty, derives the destination name and publishes a shuffled copy.
//
// When an append fails and the destination is kept, the partial result is returned along with the error.
func (e *ShuffleEngine) Run(ctx context.Context, opts RunOptions, progress chan<- ProgressUpdate) (*ShuffleResult, error) {
	if e.session == nil {
		return nil, fmt.Errorf("%w: Spotify session not initialized", shared.ErrServiceUnavailable)
	}
	if opts.PlaylistID == "" {
		return nil, fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}

	source, err := e.loadTracks(ctx, opts.PlaylistID, progress)
	if err != nil {
		return nil, err
	}

	if len(source.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w for '%s'", shared.ErrNoTracksFound, source.Name)
	}

	name := opts.NewPlaylistName
	if name == "" {
		name = NewPlaylistName(source.Name, e.now())
	}

	order := slices.Clone(source.Tracks.Items)
	dest, stats, err := e.publish(ctx, order, source.Name, name, opts.Public, progress)
	if err != nil && dest == nil {
		return nil, err
	}

	result := &ShuffleResult{
		Source:      source,
		Destination: dest,
		Tracks:      order,
		TotalItems:  len(source.Tracks.Items),
		TracksAdded: stats.added,
		Skipped:     stats.skipped,
		Batches:     stats.batches,
	}
	return result, err
}

// LoadTracks returns the playlist with Tracks.Items holding every item, following continuation tokens until exhausted.
func (e *ShuffleEngine) LoadTracks(ctx context.Context, playlistID string) (*models.Playlist, error) {
	return e.loadTracks(ctx, playlistID, nil)
}

func (e *ShuffleEngine) loadTracks(ctx context.Context, playlistID string, progress chan<- ProgressUpdate) (*models.Playlist, error) {
	e.sendProgress(progress, fetchingSourceUpdate(playlistID))

	playlist, err := e.session.Playlist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrPlaylistNotFound, playlistID, err)
	}

	e.sendProgress(progress, foundPlaylistUpdate(playlist))
	e.logger.Debug("fetched playlist", "id", playlistID, "name", playlist.Name, "total", playlist.TrackCount)

	// Clipped so appending never writes into a backing array the session still holds.
	items := slices.Clip(playlist.Tracks.Items)
	page := playlist.Tracks
	pages := 1
	e.sendProgress(progress, fetchTracksUpdate(len(items), playlist.TrackCount))

	for page.HasNext() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := e.session.NextTracks(ctx, page.Next)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to fetch page %d of '%s': %w", shared.ErrAPIRequest, pages+1, playlist.Name, err)
		}

		items = append(items, next.Items...)
		page = *next
		pages++

		e.sendProgress(progress, fetchTracksUpdate(len(items), playlist.TrackCount))
		e.logger.Debug("fetched tracks page", "page", pages, "loaded", len(items))
	}

	playlist.Tracks = models.TrackPage{Items: items, Total: len(items)}
	return playlist, nil
}

type publishStats struct {
	added   int
	skipped int
	batches int
}

// ShuffleAndPublish shuffles tracks in place and creates destName containing them in the new order.
//
// Items without a reference are skipped. When nothing remains [shared.ErrNoTracksFound] is returned before any
// playlist is created. If an append fails, the created playlist is returned along with the error unless the
// engine rolls it back.
func (e *ShuffleEngine) ShuffleAndPublish(ctx context.Context, tracks []models.TrackItem, sourceName, destName string, public bool) (*models.Playlist, error) {
	dest, _, err := e.publish(ctx, tracks, sourceName, destName, public, nil)
	return dest, err
}

func (e *ShuffleEngine) publish(
	ctx context.Context, tracks []models.TrackItem, sourceName, destName string, public bool, progress chan<- ProgressUpdate,
) (*models.Playlist, publishStats, error) {
	var stats publishStats

	e.shuffle(tracks)
	refs := TrackReferences(tracks)
	stats.skipped = len(tracks) - len(refs)
	e.sendProgress(progress, shuffleUpdate(len(refs), stats.skipped))

	if stats.skipped > 0 {
		e.logger.Warn("skipping tracks without a reference", "count", stats.skipped)
	}
	if len(refs) == 0 {
		return nil, stats, fmt.Errorf("%w: '%s' has no tracks that can be added", shared.ErrNoTracksFound, sourceName)
	}

	e.sendProgress(progress, resolveUserUpdate())
	user, err := e.session.CurrentUser(ctx)
	if err != nil {
		return nil, stats, fmt.Errorf("%w: failed to resolve current user: %w", shared.ErrAPIRequest, err)
	}

	e.sendProgress(progress, creatingPlaylistUpdate(destName))
	dest, err := e.session.CreatePlaylist(ctx, user.ID, destName, public, Description(sourceName))
	if err != nil {
		return nil, stats, fmt.Errorf("%w: failed to create playlist '%s': %w", shared.ErrAPIRequest, destName, err)
	}
	e.sendProgress(progress, createdPlaylistUpdate(dest))

	batches := Batches(refs, e.batchSize)
	for i, batch := range batches {
		if err := e.session.AddTracks(ctx, dest.ID, batch); err != nil {
			addErr := fmt.Errorf("%w: failed to add batch %d/%d to '%s': %w", shared.ErrAPIRequest, i+1, len(batches), dest.Name, err)
			return e.abandon(ctx, dest, stats, addErr, progress)
		}
		stats.batches++
		stats.added += len(batch)
		e.sendProgress(progress, addTracksUpdate(i+1, len(batches), stats.added))
	}

	dest.TrackCount = stats.added
	e.logger.Infof("Shuffled '%s': %s", dest.Name, dest.URL)

	return dest, stats, nil
}

// abandon handles a failed append. Without rollback the partial playlist is kept and returned with cause.
func (e *ShuffleEngine) abandon(
	ctx context.Context, dest *models.Playlist, stats publishStats, cause error, progress chan<- ProgressUpdate,
) (*models.Playlist, publishStats, error) {
	dest.TrackCount = stats.added

	if !e.rollback {
		e.logger.Warn("destination playlist left partially populated", "name", dest.Name, "url", dest.URL, "added", stats.added)
		return dest, stats, cause
	}

	if err := e.session.UnfollowPlaylist(ctx, dest.ID); err != nil {
		e.sendProgress(progress, rollbackUpdate(dest, err))
		e.logger.Error("failed to remove partial playlist", "name", dest.Name, "url", dest.URL, "error", err)
		return dest, stats, errors.Join(cause, fmt.Errorf("%w: %s: %w", shared.ErrRollbackFailed, dest.ID, err))
	}

	e.sendProgress(progress, rollbackUpdate(dest, nil))
	e.logger.Warn("removed partial playlist", "name", dest.Name)
	return nil, stats, cause
}

// shuffle permutes items uniformly in place.
func (e *ShuffleEngine) shuffle(items []models.TrackItem) {
	swap := func(i, j int) { items[i], items[j] = items[j], items[i] }
	if e.rand != nil {
		e.rand.Shuffle(len(items), swap)
		return
	}
	rand.Shuffle(len(items), swap)
}

// NewPlaylistName appends the timestamp to the source name, e.g. "Summer Mix (2024-06-01 10:30)".
func NewPlaylistName(source string, at time.Time) string {
	return fmt.Sprintf("%s (%s)", source, at.Format(NameLayout))
}

// Description is the text set on every destination playlist.
func Description(source string) string {
	return "Shuffled version of " + source
}

// TrackReferences returns the reference of every item that has one, in order.
func TrackReferences(items []models.TrackItem) []string {
	refs := make([]string, 0, len(items))
	for _, item := range items {
		if ref, ok := item.Reference(); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// Batches splits refs into consecutive slices of at most size elements.
func Batches(refs []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}

	batches := make([][]string, 0, (len(refs)+size-1)/size)
	for start := 0; start < len(refs); start += size {
		end := min(start+size, len(refs))
		batches = append(batches, refs[start:end])
	}
	return batches
}
