package repository

import (
	"context"

	"release-radar/internal/domain/entity"
)

// LedgerRepository is the dedup ledger of already-notified content items.
// A present key is definitive proof that a notification was sent, independent
// of any timestamp the upstream reports later.
type LedgerRepository interface {
	// IsNotified reports whether a notification was already sent for the key.
	IsNotified(ctx context.Context, key entity.DedupKey) (bool, error)

	// IsNotifiedBatch checks many content IDs for one (artist, guild,
	// platform, kind) scope in a single query. The returned map contains an
	// entry for every requested content ID.
	IsNotifiedBatch(ctx context.Context, key entity.DedupKey, contentIDs []string) (map[string]bool, error)

	// MarkNotified records that a notification was sent. Insert-if-absent:
	// marking an already-marked key is not an error, and concurrent marks
	// resolve to "already marked" at the storage layer.
	MarkNotified(ctx context.Context, key entity.DedupKey) error
}
