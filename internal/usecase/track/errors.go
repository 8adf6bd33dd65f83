package track

import "errors"

// Sentinel errors for track use case operations.
var (
	// ErrArtistNotFound indicates the artist does not exist, either upstream
	// (resolve failed) or in the tracked roster (untrack of unknown artist).
	ErrArtistNotFound = errors.New("artist not found")

	// ErrUserNotRegistered indicates the requesting user has not registered
	// and therefore cannot track artists.
	ErrUserNotRegistered = errors.New("user is not registered")

	// ErrUnsupportedPlatform indicates no fetcher is configured for the
	// requested platform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)
