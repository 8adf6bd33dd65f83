// Package notifier provides abstraction for sending content notifications.
// It defines the Notifier interface which allows different webhook mechanisms
// to be used interchangeably through dependency injection.
//
// The package includes an implementation for Discord webhooks and a no-op
// notifier for when notifications are disabled.
package notifier

import (
	"context"

	"release-radar/internal/domain/entity"
)

// Notifier is an interface for sending content notifications.
// Implementations should handle rate limiting, retries, and error logging internally.
type Notifier interface {
	// NotifyContent sends a notification about a newly detected content item
	// to the given webhook URL. The webhook URL is per-guild configuration and
	// therefore a call parameter, not construction state.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - webhookURL: Destination webhook (includes authentication token)
	//   - artist: The tracked artist the item belongs to (must not be nil)
	//   - kind: The content kind being announced
	//   - item: The content item to announce (must not be nil)
	//
	// Returns:
	//   - error: Non-nil if the notification failed after all retry attempts
	//
	// Implementations should:
	//   - Generate a unique request ID for tracing
	//   - Apply rate limiting to prevent API abuse
	//   - Retry transient failures with exponential backoff
	//   - Log all attempts with the request ID for debugging
	//   - Respect context cancellation
	NotifyContent(ctx context.Context, webhookURL string, artist *entity.TrackedArtist, kind entity.ContentKind, item *entity.ContentItem) error
}
