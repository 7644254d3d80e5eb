// Package server provides the HTTP routing, middleware and OAuth callback handling used during login.
//
// # Router Infrastructure
//
// [BasicRouter] wraps [http.ServeMux] method patterns with a [Middleware] stack; the first middleware added
// sees the request first. The login command installs [Recoverer] and [RequestLogger].
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel. It only processes one callback.
//
// # Usage
//
// When the user logs in, the CLI starts a temporary server on the host and port of the configured redirect URI
// ([CallbackAddress]), serves the callback on its path, and shuts down after receiving the token.
package server
