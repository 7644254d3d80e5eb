package tasks

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotify-tools/internal/models"
	"github.com/desertthunder/spotify-tools/internal/shared"
	tu "github.com/desertthunder/spotify-tools/internal/testing"
)

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 10, 30, 0, 0, time.Local)
}

func TestNewPlaylistName(t *testing.T) {
	got := NewPlaylistName("Summer Mix", fixedClock())
	if got != "Summer Mix (2024-06-01 10:30)" {
		t.Errorf("expected 'Summer Mix (2024-06-01 10:30)', got %q", got)
	}

	if d := Description("Summer Mix"); d != "Shuffled version of Summer Mix" {
		t.Errorf("unexpected description %q", d)
	}
}

func TestTrackReferences(t *testing.T) {
	items := []models.TrackItem{
		{Track: &models.Track{URI: "spotify:track:a"}},
		{Track: nil},
		{Track: &models.Track{Name: "home recording.mp3", IsLocal: true}},
		{Track: &models.Track{URI: "spotify:track:b"}},
	}

	refs := TrackReferences(items)
	if strings.Join(refs, ",") != "spotify:track:a,spotify:track:b" {
		t.Errorf("expected only resolvable references in order, got %v", refs)
	}
}

func TestBatches(t *testing.T) {
	tc := []struct {
		name  string
		n     int
		sizes []int
	}{
		{name: "empty", n: 0, sizes: []int{}},
		{name: "single", n: 1, sizes: []int{1}},
		{name: "exactly one batch", n: 100, sizes: []int{100}},
		{name: "one over", n: 101, sizes: []int{100, 1}},
		{name: "250", n: 250, sizes: []int{100, 100, 50}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			refs := TrackReferences(tu.Tracks(tt.n))
			batches := Batches(refs, DefaultBatchSize)

			if len(batches) != (tt.n+99)/100 {
				t.Fatalf("expected %d batches, got %d", (tt.n+99)/100, len(batches))
			}

			var joined []string
			for i, batch := range batches {
				if len(batch) != tt.sizes[i] {
					t.Errorf("batch %d: expected %d refs, got %d", i, tt.sizes[i], len(batch))
				}
				joined = append(joined, batch...)
			}

			if !slices.Equal(joined, refs) {
				t.Error("concatenated batches should equal the input in order")
			}
		})
	}
}

// sharedPageSession hands out a first page that is a window onto a larger array it keeps.
type sharedPageSession struct {
	*tu.MockSession
	backing []models.TrackItem
}

func (s *sharedPageSession) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	playlist, err := s.MockSession.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	playlist.Tracks.Items = s.backing[:len(playlist.Tracks.Items)]
	return playlist, nil
}

func TestShuffleEngine_LoadTracks(t *testing.T) {
	ctx := context.Background()

	t.Run("pagination is complete and ordered", func(t *testing.T) {
		items := tu.Tracks(250)
		single := tu.NewMockSession("Summer Mix", items, 0)
		paged := tu.NewMockSession("Summer Mix", items, 100)

		one, err := NewShuffleEngine(single, nil).LoadTracks(ctx, "source-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		many, err := NewShuffleEngine(paged, nil).LoadTracks(ctx, "source-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if paged.CallCount("NextTracks") != 2 {
			t.Errorf("expected 2 continuation requests, got %d", paged.CallCount("NextTracks"))
		}
		if single.CallCount("NextTracks") != 0 {
			t.Errorf("expected no continuation requests, got %d", single.CallCount("NextTracks"))
		}

		a := TrackReferences(one.Tracks.Items)
		b := TrackReferences(many.Tracks.Items)
		if len(b) != 250 || !slices.Equal(a, b) {
			t.Errorf("paginated listing should equal single-page listing (%d vs %d items)", len(a), len(b))
		}
		if many.Tracks.HasNext() {
			t.Error("loaded listing should not carry a continuation token")
		}
	})

	t.Run("appending pages leaves the session's first page array alone", func(t *testing.T) {
		backing := tu.Tracks(300)
		untouched := slices.Clone(backing[100:])
		session := &sharedPageSession{
			MockSession: tu.NewMockSession("Summer Mix", tu.Tracks(250), 100),
			backing:     backing,
		}

		playlist, err := NewShuffleEngine(session, nil).LoadTracks(ctx, "source-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(playlist.Tracks.Items) != 250 {
			t.Fatalf("expected 250 items, got %d", len(playlist.Tracks.Items))
		}
		for i, item := range backing[100:] {
			if item.Track != untouched[i].Track {
				t.Fatalf("backing array overwritten at %d", i+100)
			}
		}
	})

	t.Run("unknown playlist", func(t *testing.T) {
		session := tu.NewMockSession("Summer Mix", tu.Tracks(3), 0)
		session.PlaylistErr = errors.New("404")

		_, err := NewShuffleEngine(session, nil).LoadTracks(ctx, "source-1")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("page failure", func(t *testing.T) {
		session := tu.NewMockSession("Summer Mix", tu.Tracks(150), 100)
		session.PageErr = errors.New("connection reset")

		_, err := NewShuffleEngine(session, nil).LoadTracks(ctx, "source-1")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("cancelled context stops pagination", func(t *testing.T) {
		session := tu.NewMockSession("Summer Mix", tu.Tracks(150), 100)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := NewShuffleEngine(session, nil).LoadTracks(cctx, "source-1")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if session.CallCount("NextTracks") != 0 {
			t.Error("no page should be requested after cancellation")
		}
	})
}

func TestShuffleEngine_ShuffleAndPublish(t *testing.T) {
	ctx := context.Background()

	t.Run("destination is a permutation of the source", func(t *testing.T) {
		items := tu.Tracks(250)
		original := TrackReferences(items)
		session := tu.NewMockSession("Summer Mix", nil, 0)
		engine := NewShuffleEngine(session, nil, WithRand(seeded()))

		dest, err := engine.ShuffleAndPublish(ctx, items, "Summer Mix", "Shuffled", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		added := session.Added()
		if !slices.Equal(added, TrackReferences(items)) {
			t.Error("appended references should follow the shuffled order")
		}
		if slices.Equal(added, original) {
			t.Error("expected order to change")
		}

		sorted := slices.Clone(added)
		slices.Sort(sorted)
		if !slices.Equal(sorted, original) {
			t.Error("appended references should be a permutation of the source")
		}
		if dest.TrackCount != 250 {
			t.Errorf("expected track count 250, got %d", dest.TrackCount)
		}
	})

	t.Run("creates playlist for current user", func(t *testing.T) {
		session := tu.NewMockSession("Summer Mix", nil, 0)
		engine := NewShuffleEngine(session, nil)

		dest, err := engine.ShuffleAndPublish(ctx, tu.Tracks(5), "Summer Mix", "Summer Mix (2024-06-01 10:30)", true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if session.CallCount("CurrentUser") != 1 {
			t.Errorf("expected user to be resolved once, got %d", session.CallCount("CurrentUser"))
		}
		if len(session.CreateRequests) != 1 {
			t.Fatalf("expected one create call, got %d", len(session.CreateRequests))
		}

		req := session.CreateRequests[0]
		if req.OwnerID != "user-1" || !req.Public || req.Name != "Summer Mix (2024-06-01 10:30)" {
			t.Errorf("unexpected create request: %+v", req)
		}
		if req.Description != "Shuffled version of Summer Mix" {
			t.Errorf("unexpected description: %s", req.Description)
		}
		if dest.URL == "" {
			t.Error("expected destination URL")
		}
	})

	t.Run("filters unresolvable items", func(t *testing.T) {
		items := tu.Tracks(4)
		items[1].Track = nil
		items[3].Track.URI = ""
		items[3].Track.IsLocal = true

		session := tu.NewMockSession("Summer Mix", nil, 0)
		engine := NewShuffleEngine(session, nil, WithRand(seeded()))

		if _, err := engine.ShuffleAndPublish(ctx, items, "Summer Mix", "Shuffled", false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		added := session.Added()
		slices.Sort(added)
		if strings.Join(added, ",") != "spotify:track:t0000,spotify:track:t0002" {
			t.Errorf("expected only resolvable references, got %v", added)
		}
	})

	t.Run("batches preserve order", func(t *testing.T) {
		session := tu.NewMockSession("Summer Mix", nil, 0)
		items := tu.Tracks(201)
		engine := NewShuffleEngine(session, nil, WithRand(seeded()))

		if _, err := engine.ShuffleAndPublish(ctx, items, "Summer Mix", "Shuffled", false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(session.AddedBatches) != 3 {
			t.Fatalf("expected 3 batches, got %d", len(session.AddedBatches))
		}
		refs := TrackReferences(items)
		for i, batch := range session.AddedBatches {
			end := min((i+1)*100, len(refs))
			if !slices.Equal(batch, refs[i*100:end]) {
				t.Errorf("batch %d should hold offsets [%d, %d)", i, i*100, end)
			}
		}
	})

	t.Run("rejects listing without references", func(t *testing.T) {
		items := []models.TrackItem{{}, {Track: &models.Track{IsLocal: true}}}
		session := tu.NewMockSession("Summer Mix", nil, 0)

		_, err := NewShuffleEngine(session, nil).ShuffleAndPublish(ctx, items, "Summer Mix", "Shuffled", false)
		if !errors.Is(err, shared.ErrNoTracksFound) {
			t.Errorf("expected ErrNoTracksFound, got %v", err)
		}
		if session.CallCount("CreatePlaylist") != 0 || session.CallCount("AddTracks") != 0 {
			t.Error("no playlist should be created")
		}
	})

	t.Run("create failure", func(t *testing.T) {
		session := tu.NewMockSession("Summer Mix", nil, 0)
		session.CreateErr = errors.New("403")

		dest, err := NewShuffleEngine(session, nil).ShuffleAndPublish(ctx, tu.Tracks(3), "Summer Mix", "Shuffled", false)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if dest != nil {
			t.Error("expected no destination")
		}
		if session.CallCount("AddTracks") != 0 {
			t.Error("no tracks should be added")
		}
	})

	t.Run("user failure", func(t *testing.T) {
		session := tu.NewMockSession("Summer Mix", nil, 0)
		session.UserErr = errors.New("401")

		_, err := NewShuffleEngine(session, nil).ShuffleAndPublish(ctx, tu.Tracks(3), "Summer Mix", "Shuffled", false)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if session.CallCount("CreatePlaylist") != 0 {
			t.Error("no playlist should be created")
		}
	})

	t.Run("shuffle is uniform over small inputs", func(t *testing.T) {
		engine := NewShuffleEngine(nil, nil, WithRand(seeded()))
		counts := map[string]int{}

		for range 6000 {
			items := tu.Tracks(3)
			engine.shuffle(items)
			counts[strings.Join(TrackReferences(items), ",")]++
		}

		if len(counts) != 6 {
			t.Fatalf("expected all 6 permutations, got %d", len(counts))
		}
		for perm, n := range counts {
			if n < 800 || n > 1200 {
				t.Errorf("permutation %s appeared %d times, expected about 1000", perm, n)
			}
		}
	})
}

func TestShuffleEngine_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("250 items across 3 pages", func(t *testing.T) {
		session := tu.NewMockSession("Summer Mix", tu.Tracks(250), 100)
		engine := NewShuffleEngine(session, nil, WithRand(seeded()), WithClock(fixedClock))

		result, err := engine.Run(ctx, RunOptions{PlaylistID: "source-1"}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if session.CallCount("NextTracks") != 2 {
			t.Errorf("expected 2 continuation requests, got %d", session.CallCount("NextTracks"))
		}

		var sizes []int
		for _, batch := range session.AddedBatches {
			sizes = append(sizes, len(batch))
		}
		if !slices.Equal(sizes, []int{100, 100, 50}) {
			t.Errorf("expected appends of 100/100/50, got %v", sizes)
		}

		if result.Destination.Name != "Summer Mix (2024-06-01 10:30)" {
			t.Errorf("unexpected destination name %q", result.Destination.Name)
		}
		if result.TotalItems != 250 || result.TracksAdded != 250 || result.Batches != 3 || result.Skipped != 0 {
			t.Errorf("unexpected result: %+v", result)
		}
		if result.Destination.Public {
			t.Error("destination should default to private")
		}

		if got := TrackReferences(result.Tracks); !slices.Equal(got, session.Added()) {
			t.Error("result tracks should match the published order")
		}
		if got := TrackReferences(result.Source.Tracks.Items); !slices.Equal(got, TrackReferences(tu.Tracks(250))) {
			t.Error("source tracks should keep their original order")
		}
	})

	t.Run("explicit name and visibility", func(t *testing.T) {
		session := tu.NewMockSession("Summer Mix", tu.Tracks(2), 0)
		engine := NewShuffleEngine(session, nil)

		result, err := engine.Run(ctx, RunOptions{PlaylistID: "source-1", NewPlaylistName: "Beach", Public: true}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Destination.Name != "Beach" || !result.Destination.Public {
			t.Errorf("unexpected destination: %+v", result.Destination)
		}
	})

	t.Run("empty source", func(t *testing.T) {
		session := tu.NewMockSession("Empty", nil, 0)

		_, err := NewShuffleEngine(session, nil).Run(ctx, RunOptions{PlaylistID: "source-1"}, nil)
		if !errors.Is(err, shared.ErrNoTracksFound) {
			t.Errorf("expected ErrNoTracksFound, got %v", err)
		}
		if !strings.Contains(err.Error(), "Empty") {
			t.Errorf("error should name the playlist: %v", err)
		}
		if session.CallCount("CreatePlaylist") != 0 || session.CallCount("AddTracks") != 0 {
			t.Error("no create or append calls expected")
		}
	})

	t.Run("missing playlist ID", func(t *testing.T) {
		session := tu.NewMockSession("Summer Mix", tu.Tracks(1), 0)

		_, err := NewShuffleEngine(session, nil).Run(ctx, RunOptions{}, nil)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if len(session.Calls) != 0 {
			t.Errorf("expected no API calls, got %v", session.Calls)
		}
	})

	t.Run("nil session", func(t *testing.T) {
		_, err := NewShuffleEngine(nil, nil).Run(ctx, RunOptions{PlaylistID: "x"}, nil)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("partial failure keeps destination by default", func(t *testing.T) {
		session := tu.NewMockSession("Summer Mix", tu.Tracks(250), 100)
		session.AddErr = errors.New("502")
		session.AddErrOnCall = 2

		result, err := NewShuffleEngine(session, nil).Run(ctx, RunOptions{PlaylistID: "source-1"}, nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if result == nil || result.Destination == nil {
			t.Fatal("expected partial result with destination")
		}
		if result.TracksAdded != 100 || result.Destination.TrackCount != 100 {
			t.Errorf("expected 100 tracks added, got %d", result.TracksAdded)
		}
		if session.CallCount("AddTracks") != 2 {
			t.Errorf("workflow should stop at the failed batch, got %d appends", session.CallCount("AddTracks"))
		}
		if session.CallCount("UnfollowPlaylist") != 0 {
			t.Error("destination should not be removed without rollback")
		}
	})

	t.Run("partial failure with rollback", func(t *testing.T) {
		session := tu.NewMockSession("Summer Mix", tu.Tracks(250), 100)
		session.AddErr = errors.New("502")
		session.AddErrOnCall = 3

		result, err := NewShuffleEngine(session, nil, WithRollback(true)).Run(ctx, RunOptions{PlaylistID: "source-1"}, nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if result != nil {
			t.Errorf("expected no result after rollback, got %+v", result)
		}
		if !slices.Equal(session.Unfollowed, []string{"shuffled-1"}) {
			t.Errorf("expected destination to be unfollowed, got %v", session.Unfollowed)
		}
	})

	t.Run("failed rollback reports both errors", func(t *testing.T) {
		session := tu.NewMockSession("Summer Mix", tu.Tracks(120), 0)
		session.AddErr = errors.New("502")
		session.AddErrOnCall = 2
		session.UnfollowErr = errors.New("403")

		_, err := NewShuffleEngine(session, nil, WithRollback(true)).Run(ctx, RunOptions{PlaylistID: "source-1"}, nil)
		if !errors.Is(err, shared.ErrAPIRequest) || !errors.Is(err, shared.ErrRollbackFailed) {
			t.Errorf("expected ErrAPIRequest and ErrRollbackFailed, got %v", err)
		}
	})

	t.Run("progress updates", func(t *testing.T) {
		session := tu.NewMockSession("Summer Mix", tu.Tracks(150), 100)
		progress := make(chan ProgressUpdate, 32)

		if _, err := NewShuffleEngine(session, nil).Run(ctx, RunOptions{PlaylistID: "source-1"}, progress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		var phases []Phase
		for update := range progress {
			if len(phases) == 0 || phases[len(phases)-1] != update.Phase {
				phases = append(phases, update.Phase)
			}
		}

		want := []Phase{FetchSource, FetchTracks, Shuffle, ResolveUser, CreatePlaylist, AddTracks}
		if !slices.Equal(phases, want) {
			t.Errorf("expected phases %v, got %v", want, phases)
		}
	})

	t.Run("progress never blocks", func(t *testing.T) {
		session := tu.NewMockSession("Summer Mix", tu.Tracks(10), 0)
		progress := make(chan ProgressUpdate)

		done := make(chan error, 1)
		go func() {
			_, err := NewShuffleEngine(session, nil).Run(ctx, RunOptions{PlaylistID: "source-1"}, progress)
			done <- err
		}()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run blocked on an unread progress channel")
		}
	})
}

func TestPhase_String(t *testing.T) {
	tc := map[Phase]string{
		FetchSource:    "fetch_source",
		FetchTracks:    "fetch_tracks",
		Shuffle:        "shuffle",
		ResolveUser:    "resolve_user",
		CreatePlaylist: "create_playlist",
		AddTracks:      "add_tracks",
		Rollback:       "rollback",
		Phase(99):      "",
	}

	for phase, want := range tc {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(phase), got, want)
		}
	}
}
