// Package services defines the [Session] interface for the Spotify Web API and implements it with [SpotifyService].
//
// # Session Interface
//
// The shuffle workflow depends only on [Session], so tests substitute a hand-written fake.
// Every method takes a context and blocks; there are no asynchronous variants.
//
// # Spotify Implementation
//
// [SpotifyService] wraps [github.com/zmb3/spotify/v2] and converts its typed responses into [models] values
// at this boundary. It uses OAuth2 for authentication with automatic token refresh: the [oauth2] client
// refreshes expired tokens with the refresh token and reports each new token through the callback set by
// [SpotifyService.SetTokenRefreshCallback] so the caller can persist it.
//
// Requests are paced with a [rate.Limiter] when a requests-per-second budget is configured,
// and each request is bounded by the HTTP client timeout (30 seconds by default).
//
// # OAuth Service Extension
//
// The [OAuthService] interface extends Session for the authorization code flow used by the CLI.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : OAuthenticate() not called or the API answered 401
//   - [shared.ErrAuthFailed] : token refresh rejected
//   - [shared.ErrPlaylistNotFound] : the API answered 404
//   - [shared.ErrTimeout] : the request deadline passed
//   - [shared.ErrAPIRequest] : any other failed request
//   - [shared.ErrInvalidInput] : refused before any request was made
//
// # Track References
//
// A track reference is a "spotify:track:" URI. Local files and podcast episodes in a playlist
// are converted with an empty URI, so [models.TrackItem.Reference] skips them.
package services
