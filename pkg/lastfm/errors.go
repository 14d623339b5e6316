package lastfm

import (
	"errors"
	"fmt"
)

// Error represents a Last.fm API error.
//
// The Error type provides structured error information including
// the Last.fm error code and message. It implements error, and
// provides additional methods for retry logic.
type Error struct {
	Code    int    // Last.fm error code
	Message string // Error message from Last.fm
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("lastfm: error %d: %s", e.Code, e.Message)
}

// Is checks if the target error is a Last.fm error.
//
// This allows errors.Is() to work with *Error types.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Temporary returns true if the error is temporary and the request
// should be retried.
//
// The following Last.fm error codes are considered temporary:
//   - 11: Service Offline - temporarily unavailable
//   - 16: Service Temporarily Unavailable
//   - 29: Rate Limit Exceeded
func (e *Error) Temporary() bool {
	switch e.Code {
	case ErrCodeServiceOffline, ErrCodeTempUnavailable, ErrCodeRateLimitExceeded:
		return true
	default:
		return false
	}
}

// Common Last.fm error codes.
const (
	ErrCodeInvalidService      = 2
	ErrCodeInvalidMethod       = 3
	ErrCodeInvalidFormat       = 5
	ErrCodeInvalidParameters   = 6
	ErrCodeInvalidResourceSpec = 7
	ErrCodeOperationFailed     = 8
	ErrCodeInvalidAPIKey       = 10
	ErrCodeServiceOffline      = 11
	ErrCodeTempUnavailable     = 16
	ErrCodeSuspendedAPIKey     = 26
	ErrCodeRateLimitExceeded   = 29
)

// HTTPError is returned when Last.fm answers with a non-2xx status and no
// API error envelope.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("lastfm: unexpected status code: %d", e.StatusCode)
}

// Predefined errors for common cases.
var (
	// ErrMissingAPIKey is returned by NewClient when no API key is set.
	ErrMissingAPIKey = errors.New("lastfm: APIKey is required")

	// ErrNotFound matches the error Last.fm returns for unknown artists
	// and tracks (code 6, invalid parameters).
	ErrNotFound = &Error{Code: ErrCodeInvalidParameters}
)
