// Package notify provides the use case for delivering content notifications.
// It resolves the configured per-guild webhook and sends through the delivery
// channel synchronously: a nil return from Deliver is the caller's license to
// mark the item notified and advance the watermark. Nothing is marked before
// delivery is confirmed.
package notify

import (
	"context"

	"release-radar/internal/domain/entity"
)

// Channel represents a notification delivery channel (Discord webhook).
// Each channel implementation handles its own rate limiting, retries, and
// error handling.
//
// Retry Policy Contract:
//   - Transient failures (5xx, network errors): Retry with exponential backoff (max 2 attempts)
//   - Rate limits (429): Sleep for retry_after duration, then retry
//   - Client errors (4xx except 429): No retry
//   - Context timeout: No retry
//
// Thread Safety:
//   - All methods must be safe for concurrent use by multiple goroutines
type Channel interface {
	// Name returns the human-readable name of the channel (e.g., "discord").
	// This is used for logging, metrics, and health check endpoints.
	Name() string

	// IsEnabled returns true if this channel is enabled via configuration.
	// Disabled channels fail delivery rather than silently dropping it, so
	// items stay unmarked and fire once the channel is enabled.
	IsEnabled() bool

	// Send posts a notification about a content item to the webhook URL.
	//
	// Implementations must:
	//   - Respect context cancellation/timeout
	//   - Apply rate limiting
	//   - Retry transient failures according to retry policy
	//   - Sanitize webhook URLs in error messages
	//
	// Parameters:
	//   - ctx: Context with timeout and request_id
	//   - webhookURL: Destination webhook for the artist's guild
	//   - artist: The tracked artist (must not be nil)
	//   - kind: The content kind being announced
	//   - item: The content item (must not be nil)
	//
	// Returns:
	//   - error: Non-nil if the notification failed after all retries
	Send(ctx context.Context, webhookURL string, artist *entity.TrackedArtist, kind entity.ContentKind, item *entity.ContentItem) error
}
