// package services defines interface Session for interacting with the Spotify Web API
package services

import (
	"context"

	"github.com/desertthunder/spotify-tools/internal/models"
	"golang.org/x/oauth2"
)

// MaxTracksPerRequest is the most track references the API accepts in one add call.
const MaxTracksPerRequest = 100

// Session is an authenticated handle on the Spotify Web API.
//
// Every call blocks until the API answers or ctx is done.
type Session interface {
	// CurrentUser returns the account the session is authenticated as.
	CurrentUser(ctx context.Context) (*models.User, error)

	// Playlist retrieves a playlist by ID together with the first page of its tracks.
	Playlist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// NextTracks follows a continuation token returned in a [models.TrackPage].
	NextTracks(ctx context.Context, next string) (*models.TrackPage, error)

	// CreatePlaylist creates an empty playlist owned by ownerID.
	CreatePlaylist(ctx context.Context, ownerID, name string, public bool, description string) (*models.Playlist, error)

	// AddTracks appends up to [MaxTracksPerRequest] track references to the end of a playlist.
	AddTracks(ctx context.Context, playlistID string, refs []string) error

	// UnfollowPlaylist removes a playlist from the current user's library, which deletes playlists they own.
	UnfollowPlaylist(ctx context.Context, playlistID string) error

	// Playlists lists every playlist in the current user's library.
	Playlists(ctx context.Context) ([]models.Playlist, error)
}

// OAuthService is implemented by sessions that obtain their credentials through the authorization code flow.
type OAuthService interface {
	Session

	// GetAuthURL returns the URL the user visits to grant access.
	GetAuthURL(state string) string

	// GetOAuthConfig returns the configuration used to exchange authorization codes.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate binds the session to token. Expired tokens are refreshed on first use.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}
