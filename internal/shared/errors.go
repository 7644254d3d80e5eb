package shared

import (
	"context"
	"errors"
)

// Configuration errors
var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrMissingArgument    = errors.New("missing required argument")
	ErrInvalidArgument    = errors.New("invalid argument")
)

// Spotify API and authorization errors
var (
	ErrAuthFailed         = errors.New("authentication failed")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrTimeout            = errors.New("operation timed out")
	ErrAPIRequest         = errors.New("API request failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrInvalidInput       = errors.New("invalid input")
)

// Workflow errors
var (
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrNoTracksFound    = errors.New("no tracks found")
	ErrRollbackFailed   = errors.New("rollback failed")
)

// ErrorKind names the class of a failure for the final log line.
type ErrorKind string

const (
	KindConfig      ErrorKind = "config"
	KindAuth        ErrorKind = "auth"
	KindNotFound    ErrorKind = "not_found"
	KindEmpty       ErrorKind = "empty"
	KindAPI         ErrorKind = "api"
	KindInterrupted ErrorKind = "interrupted"
	KindUnknown     ErrorKind = "unknown"
)

// Kind classifies err by the sentinel it wraps.
//
// A rollback failure is joined with the error that triggered it, so the triggering error decides the kind.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return KindInterrupted
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrMissingCredentials), errors.Is(err, ErrInvalidLogLevel),
		errors.Is(err, ErrMissingArgument), errors.Is(err, ErrInvalidArgument):
		return KindConfig
	case errors.Is(err, ErrPlaylistNotFound):
		return KindNotFound
	case errors.Is(err, ErrNoTracksFound):
		return KindEmpty
	case errors.Is(err, ErrAuthFailed), errors.Is(err, ErrNotAuthenticated):
		return KindAuth
	case errors.Is(err, ErrAPIRequest), errors.Is(err, ErrTimeout), errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, ErrInvalidInput), errors.Is(err, ErrRollbackFailed):
		return KindAPI
	default:
		return KindUnknown
	}
}
