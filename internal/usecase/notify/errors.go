package notify

import "errors"

// Sentinel errors for notify use case operations.
var (
	// ErrChannelDisabled indicates that Send() was called on a disabled channel.
	// The item stays unmarked and is retried on a later cycle once the channel
	// is enabled.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrNoChannelConfigured indicates that the guild has no webhook configured
	// for the platform. The poll loop treats this as a skip rather than a
	// delivery failure: state stays untouched and the items deliver once an
	// operator sets a channel.
	ErrNoChannelConfigured = errors.New("no notification channel configured for guild")

	// ErrInvalidEvent indicates that the event is missing required data.
	// This error is returned when:
	//   - artist is nil
	//   - the item has no usable identity
	ErrInvalidEvent = errors.New("invalid notification event")
)
