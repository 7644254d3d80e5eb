// package server contains middleware & handlers for the local OAuth callback server
package server

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers served by the callback server.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// CallbackAddress splits a redirect URI into the listen address and the callback path.
//
// Only loopback http URIs are accepted since the server runs on the user's machine.
func CallbackAddress(redirectURI string) (addr, path string, err error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}
	if u.Scheme != "http" {
		return "", "", fmt.Errorf("redirect URI %q must use http", redirectURI)
	}

	host := u.Hostname()
	if host == "localhost" {
		host = "127.0.0.1"
	}
	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		return "", "", fmt.Errorf("redirect URI %q must point at a loopback address", redirectURI)
	}

	port := u.Port()
	if port == "" {
		port = "80"
	}

	path = u.Path
	if path == "" {
		path = "/"
	}

	return net.JoinHostPort(host, port), path, nil
}

// Recoverer turns a panic in next into a 500 so the login command still gets an answer.
func Recoverer(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("callback handler panicked", "path", r.URL.Path, "panic", rec)
					http.Error(w, "internal error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs every request at debug level.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("callback request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}
