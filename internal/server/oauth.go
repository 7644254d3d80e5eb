package server

import (
	"fmt"
	"html/template"
	"net/http"
	"sync/atomic"

	"github.com/desertthunder/spotify-tools/internal/shared"
	"golang.org/x/oauth2"
)

// OAuthResult is the outcome of one authorization code callback.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler receives Spotify's redirect after the user approves access.
//
// It accepts exactly one callback: the first request decides the result and later ones get 400.
type OAuthHandler struct {
	config  *oauth2.Config
	state   string
	path    string
	handled atomic.Bool
	results chan OAuthResult
}

// NewOAuthHandler serves the callback at path (default "/callback").
// state must be the unguessable value sent with the authorization URL.
func NewOAuthHandler(config *oauth2.Config, state, path string) *OAuthHandler {
	if path == "" {
		path = "/callback"
	}
	return &OAuthHandler{
		config:  config,
		state:   state,
		path:    path,
		results: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP checks state, exchanges the code for a token and publishes the result.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.handled.CompareAndSwap(false, true) {
		renderCallback(w, http.StatusBadRequest, "Callback already processed", "Return to the terminal.")
		return
	}

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.finish(OAuthResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)})
		renderCallback(w, http.StatusBadRequest, "Invalid state parameter", "Start again with: spotify-tools auth login")
		return
	}

	code := query.Get("code")
	if code == "" {
		reason := query.Get("error")
		h.finish(OAuthResult{err: fmt.Errorf("%w: %s %s", shared.ErrAuthFailed, reason, query.Get("error_description"))})
		renderCallback(w, http.StatusBadRequest, "Authorization failed", "Spotify answered: "+reason)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.finish(OAuthResult{err: fmt.Errorf("%w: token exchange failed: %w", shared.ErrAuthFailed, err)})
		renderCallback(w, http.StatusInternalServerError, "Token exchange failed", "Check the client secret and try again.")
		return
	}

	h.finish(OAuthResult{Token: token})
	renderCallback(w, http.StatusOK, "✓ Connected to Spotify", "You can close this window and return to the terminal.")
}

// finish publishes result. Only the request that won CompareAndSwap calls it.
func (h *OAuthHandler) finish(result OAuthResult) {
	h.results <- result
	close(h.results)
}

// Result delivers exactly one value and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>spotify-tools</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; }
        .box { text-align: center; background: #181818; padding: 2rem; border-radius: 8px; }
        h1 { margin: 0 0 1rem 0; color: {{if .OK}}#1DB954{{else}}#E22134{{end}}; }
        p { color: #b3b3b3; margin: 0; }
    </style>
</head>
<body>
    <div class="box">
        <h1>{{.Title}}</h1>
        <p>{{.Detail}}</p>
    </div>
</body>
</html>
`))

func renderCallback(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = callbackPage.Execute(w, struct {
		OK            bool
		Title, Detail string
	}{status == http.StatusOK, title, detail})
}
