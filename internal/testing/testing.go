// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/spotify-tools/internal/models"
)

// CreateRequest records the arguments of a [MockSession.CreatePlaylist] call.
type CreateRequest struct {
	OwnerID     string
	Name        string
	Public      bool
	Description string
}

// MockSession is a test double for [services.Session].
//
// Source is served by Playlist, Pages by NextTracks keyed on continuation token.
// Error fields make the matching call fail; AddErrOnCall picks which AddTracks call (1-based) returns AddErr.
type MockSession struct {
	User    *models.User
	Source  *models.Playlist
	Pages   map[string]models.TrackPage
	Library []models.Playlist

	UserErr      error
	PlaylistErr  error
	PageErr      error
	CreateErr    error
	AddErr       error
	AddErrOnCall int
	UnfollowErr  error
	PlaylistsErr error

	mu             sync.Mutex
	Calls          []string
	CreateRequests []CreateRequest
	AddedBatches   [][]string
	Unfollowed     []string
}

// NewMockSession serves items as a playlist named name, split into pages of pageSize.
func NewMockSession(name string, items []models.TrackItem, pageSize int) *MockSession {
	if pageSize <= 0 {
		pageSize = len(items)
	}

	m := &MockSession{
		User:  &models.User{ID: "user-1", DisplayName: "Test User"},
		Pages: map[string]models.TrackPage{},
	}

	var pages []models.TrackPage
	for start := 0; start < len(items) || start == 0; start += pageSize {
		end := min(start+pageSize, len(items))
		pages = append(pages, models.TrackPage{Items: items[start:end], Total: len(items)})
		if end >= len(items) {
			break
		}
	}

	for i := range pages {
		if i+1 < len(pages) {
			pages[i].Next = fmt.Sprintf("page-%d", i+2)
		}
		if i > 0 {
			m.Pages[fmt.Sprintf("page-%d", i+1)] = pages[i]
		}
	}

	m.Source = &models.Playlist{
		ID:         "source-1",
		Name:       name,
		OwnerID:    "user-1",
		TrackCount: len(items),
		URL:        "https://open.spotify.com/playlist/source-1",
		Tracks:     pages[0],
	}

	return m
}

// Tracks returns n playable items with URIs spotify:track:t0000 and upward.
func Tracks(n int) []models.TrackItem {
	items := make([]models.TrackItem, n)
	for i := range items {
		id := fmt.Sprintf("t%04d", i)
		items[i] = models.TrackItem{
			AddedAt: "2024-01-01T00:00:00Z",
			Track:   &models.Track{ID: id, Name: "Track " + id, URI: "spotify:track:" + id},
		}
	}
	return items
}

func (m *MockSession) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

// CallCount returns how many times call was made.
func (m *MockSession) CallCount(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == call {
			n++
		}
	}
	return n
}

// Added returns every reference appended, in order.
func (m *MockSession) Added() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []string
	for _, batch := range m.AddedBatches {
		all = append(all, batch...)
	}
	return all
}

func (m *MockSession) CurrentUser(ctx context.Context) (*models.User, error) {
	m.record("CurrentUser")
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	user := *m.User
	return &user, nil
}

func (m *MockSession) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	m.record("Playlist")
	if m.PlaylistErr != nil {
		return nil, m.PlaylistErr
	}
	if m.Source == nil || m.Source.ID != playlistID {
		return nil, errors.New("playlist not found")
	}

	playlist := *m.Source
	playlist.Tracks.Items = append([]models.TrackItem(nil), m.Source.Tracks.Items...)
	return &playlist, nil
}

func (m *MockSession) NextTracks(ctx context.Context, next string) (*models.TrackPage, error) {
	m.record("NextTracks")
	if m.PageErr != nil {
		return nil, m.PageErr
	}
	page, ok := m.Pages[next]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", next)
	}
	page.Items = append([]models.TrackItem(nil), page.Items...)
	return &page, nil
}

func (m *MockSession) CreatePlaylist(ctx context.Context, ownerID, name string, public bool, description string) (*models.Playlist, error) {
	m.record("CreatePlaylist")
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	m.mu.Lock()
	m.CreateRequests = append(m.CreateRequests, CreateRequest{ownerID, name, public, description})
	id := fmt.Sprintf("shuffled-%d", len(m.CreateRequests))
	m.mu.Unlock()

	return &models.Playlist{
		ID:          id,
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		Public:      public,
		URL:         "https://open.spotify.com/playlist/" + id,
	}, nil
}

func (m *MockSession) AddTracks(ctx context.Context, playlistID string, refs []string) error {
	m.record("AddTracks")

	m.mu.Lock()
	defer m.mu.Unlock()
	call := len(m.AddedBatches) + 1
	if m.AddErr != nil && (m.AddErrOnCall == 0 || m.AddErrOnCall == call) {
		m.AddedBatches = append(m.AddedBatches, nil)
		return m.AddErr
	}
	m.AddedBatches = append(m.AddedBatches, append([]string(nil), refs...))
	return nil
}

func (m *MockSession) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	m.record("UnfollowPlaylist")
	if m.UnfollowErr != nil {
		return m.UnfollowErr
	}
	m.mu.Lock()
	m.Unfollowed = append(m.Unfollowed, playlistID)
	m.mu.Unlock()
	return nil
}

func (m *MockSession) Playlists(ctx context.Context) ([]models.Playlist, error) {
	m.record("Playlists")
	if m.PlaylistsErr != nil {
		return nil, m.PlaylistsErr
	}
	return m.Library, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
