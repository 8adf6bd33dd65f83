package platform

import (
	"errors"
	"fmt"

	"release-radar/internal/domain/entity"
)

// ErrorKind classifies a fetch failure. The poll loop switches on the kind:
// rate limits open a platform cooldown, not-found leaves the watermark
// untouched, and transient failures are simply retried next cycle.
type ErrorKind string

const (
	// ErrRateLimited means the platform rejected the request for quota
	// reasons (HTTP 429 or an equivalent API signal).
	ErrRateLimited ErrorKind = "rate_limited"

	// ErrNotFound means the artist or resource no longer exists upstream,
	// likely deleted or renamed.
	ErrNotFound ErrorKind = "not_found"

	// ErrTransient covers network failures and upstream 5xx responses.
	ErrTransient ErrorKind = "transient"
)

// Error is the typed failure every fetcher returns instead of raw transport
// errors. Rate limiting is a result, never a panic or control-flow exception.
type Error struct {
	Kind     ErrorKind
	Platform entity.Platform
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s fetch %s: %v", e.Platform, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err as a typed platform error.
func NewError(kind ErrorKind, platform entity.Platform, err error) *Error {
	return &Error{Kind: kind, Platform: platform, Err: err}
}

// KindOf returns the error kind of a fetch failure, or "" if err is not a
// platform error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsRateLimited reports whether err carries a rate-limit signal.
func IsRateLimited(err error) bool { return KindOf(err) == ErrRateLimited }

// IsNotFound reports whether err means the upstream resource is gone.
func IsNotFound(err error) bool { return KindOf(err) == ErrNotFound }

// ErrUnsupportedKind is returned by fetchers for content kinds the platform
// does not expose (Spotify has no repost or like feeds). The poll loop treats
// it as "no items".
var ErrUnsupportedKind = errors.New("content kind not supported by platform")
