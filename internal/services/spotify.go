// Spotify Web API implementation of [Session]
//
// HTTP, pagination and JSON decoding are delegated to [spotify.Client]; responses are converted to [models] here.
package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/spotify-tools/internal/models"
	"github.com/desertthunder/spotify-tools/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultRedirectURI is used when the credentials carry none.
	DefaultRedirectURI = "http://127.0.0.1:8888/callback"

	defaultTimeout = 30 * time.Second
	trackURIPrefix = "spotify:track:"
	playlistLimit  = 50
)

// Scopes requested during authorization.
var Scopes = []string{
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistReadPrivate,
}

// Option configures a [SpotifyService].
type Option func(*SpotifyService)

// WithAPIBaseURL points the session at a different API root, e.g. a test server.
func WithAPIBaseURL(baseURL string) Option {
	return func(s *SpotifyService) {
		if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		s.baseURL = baseURL
	}
}

// WithAuthEndpoint overrides the authorization and token URLs.
func WithAuthEndpoint(authURL, tokenURL string) Option {
	return func(s *SpotifyService) {
		s.config.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
	}
}

// WithTimeout sets the per-request timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *SpotifyService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRateLimit paces outgoing requests. Zero disables pacing.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(s *SpotifyService) {
		s.limiter = newLimiter(requestsPerSecond)
	}
}

// WithAutoRetry makes the client wait and retry when the API answers 429.
func WithAutoRetry(retry bool) Option {
	return func(s *SpotifyService) {
		s.retry = retry
	}
}

// SpotifyService implements [OAuthService] for the Spotify Web API.
// Uses [oauth2] for authentication with automatic token refresh.
type SpotifyService struct {
	config    *oauth2.Config
	baseURL   string
	timeout   time.Duration
	limiter   *rate.Limiter
	retry     bool
	onRefresh func(*oauth2.Token)

	mu     sync.RWMutex
	token  *oauth2.Token
	client *spotify.Client
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...Option) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the OAuth2 configuration for token exchange.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// SetTokenRefreshCallback registers fn to receive every token obtained by refresh.
//
// Must be called before [SpotifyService.OAuthenticate].
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onRefresh = fn
}

// OAuthenticate builds the API client around token.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: no token", shared.ErrNotAuthenticated)
	}

	// Refreshes happen long after ctx may be cancelled.
	base := context.WithoutCancel(ctx)
	source := newRefreshingTokenSource(s.config.TokenSource(base, token), token, s.storeToken)

	httpClient := oauth2.NewClient(base, source)
	if s.limiter != nil {
		httpClient.Transport = &pacedTransport{base: httpClient.Transport, limiter: s.limiter}
	}
	httpClient.Timeout = s.timeout

	clientOpts := []spotify.ClientOption{spotify.WithRetry(s.retry)}
	if s.baseURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(s.baseURL))
	}

	s.mu.Lock()
	s.token = token
	s.client = spotify.New(httpClient, clientOpts...)
	s.mu.Unlock()

	return nil
}

// Token returns the most recent token, including refreshed ones.
func (s *SpotifyService) Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *SpotifyService) storeToken(token *oauth2.Token) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if s.onRefresh != nil {
		s.onRefresh(token)
	}
}

func (s *SpotifyService) api() (*spotify.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, fmt.Errorf("%w: call OAuthenticate first", shared.ErrNotAuthenticated)
	}
	return s.client, nil
}

// CurrentUser retrieves the authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, apiError("get current user", err)
	}

	return &models.User{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// Playlist retrieves a playlist by ID with the first page of its tracks.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	fp, err := client.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, apiError("get playlist "+playlistID, err)
	}

	playlist := convertSimplePlaylist(fp.SimplePlaylist)
	playlist.TrackCount = int(fp.Tracks.Total)
	playlist.Tracks = convertTrackPage(&fp.Tracks)
	return &playlist, nil
}

// NextTracks fetches the page a continuation token points at.
func (s *SpotifyService) NextTracks(ctx context.Context, next string) (*models.TrackPage, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}
	if next == "" {
		return nil, fmt.Errorf("%w: empty continuation token", shared.ErrInvalidInput)
	}

	page := &spotify.PlaylistTrackPage{}
	page.Next = next
	if err := client.NextPage(ctx, page); err != nil {
		return nil, apiError("get next tracks page", err)
	}

	converted := convertTrackPage(page)
	return &converted, nil
}

// CreatePlaylist creates a non-collaborative playlist for ownerID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, ownerID, name string, public bool, description string) (*models.Playlist, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	fp, err := client.CreatePlaylistForUser(ctx, ownerID, name, description, public, false)
	if err != nil {
		return nil, apiError("create playlist", err)
	}

	playlist := convertSimplePlaylist(fp.SimplePlaylist)
	playlist.TrackCount = int(fp.Tracks.Total)
	return &playlist, nil
}

// AddTracks appends refs, which must be track URIs, to the end of the playlist.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, refs []string) error {
	client, err := s.api()
	if err != nil {
		return err
	}

	if len(refs) == 0 {
		return nil
	}
	if len(refs) > MaxTracksPerRequest {
		return fmt.Errorf("%w: %d tracks exceeds the limit of %d per request", shared.ErrInvalidInput, len(refs), MaxTracksPerRequest)
	}

	ids := make([]spotify.ID, 0, len(refs))
	for _, ref := range refs {
		id, ok := strings.CutPrefix(ref, trackURIPrefix)
		if !ok || id == "" {
			return fmt.Errorf("%w: not a track URI: %q", shared.ErrInvalidInput, ref)
		}
		ids = append(ids, spotify.ID(id))
	}

	if _, err := client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...); err != nil {
		return apiError("add tracks", err)
	}
	return nil
}

// UnfollowPlaylist removes the playlist from the current user's library.
func (s *SpotifyService) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	client, err := s.api()
	if err != nil {
		return err
	}

	if err := client.UnfollowPlaylist(ctx, spotify.ID(playlistID)); err != nil {
		return apiError("unfollow playlist", err)
	}
	return nil
}

// Playlists retrieves all playlists for the authenticated user.
func (s *SpotifyService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	page, err := client.CurrentUsersPlaylists(ctx, spotify.Limit(playlistLimit))
	if err != nil {
		return nil, apiError("list playlists", err)
	}

	var playlists []models.Playlist
	for {
		for _, sp := range page.Playlists {
			playlists = append(playlists, convertSimplePlaylist(sp))
		}

		err := client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, apiError("list playlists", err)
		}
	}

	return playlists, nil
}

func convertSimplePlaylist(sp spotify.SimplePlaylist) models.Playlist {
	return models.Playlist{
		ID:          string(sp.ID),
		Name:        sp.Name,
		Description: sp.Description,
		OwnerID:     sp.Owner.ID,
		Public:      sp.IsPublic,
		TrackCount:  int(sp.Tracks.Total),
		URL:         sp.ExternalURLs["spotify"],
	}
}

func convertTrackPage(page *spotify.PlaylistTrackPage) models.TrackPage {
	items := make([]models.TrackItem, 0, len(page.Tracks))
	for _, pt := range page.Tracks {
		items = append(items, convertTrackItem(pt))
	}
	return models.TrackPage{Items: items, Next: page.Next, Total: int(page.Total)}
}

// convertTrackItem maps a playlist entry. Removed tracks become a nil Track;
// local files and non-track entries (episodes) keep their metadata but lose the URI.
func convertTrackItem(pt spotify.PlaylistTrack) models.TrackItem {
	item := models.TrackItem{AddedAt: pt.AddedAt}

	ft := pt.Track
	if ft.ID == "" && ft.URI == "" && ft.Name == "" {
		return item
	}

	track := &models.Track{
		ID:      string(ft.ID),
		Name:    ft.Name,
		Album:   ft.Album.Name,
		IsLocal: pt.IsLocal,
	}
	if uri := string(ft.URI); !pt.IsLocal && strings.HasPrefix(uri, trackURIPrefix) {
		track.URI = uri
	}
	if len(ft.Artists) > 0 {
		track.Artist = ft.Artists[0].Name
	}

	item.Track = track
	return item
}

// apiError classifies a client error into the shared sentinel errors.
func apiError(op string, err error) error {
	var spotifyErr spotify.Error
	if errors.As(err, &spotifyErr) {
		switch spotifyErr.Status {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s: %w", shared.ErrNotAuthenticated, op, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %w", shared.ErrPlaylistNotFound, op, err)
		}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %s: token refresh: %w", shared.ErrAuthFailed, op, err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %w", shared.ErrTimeout, op, err)
	}

	return fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, op, err)
}
