package entity

import "time"

// ContentItem is the closed record shape every platform fetcher must return.
// It is validated at the fetch boundary before it ever reaches the change
// detector, so the detector can assume well-formed fields apart from the
// timestamp, which may legitimately be missing on broken upstream items.
type ContentItem struct {
	// TrackID is the platform-native identifier of the item, if known.
	TrackID string

	Title      string
	ArtistName string
	URL        string

	// Timestamp is the comparison timestamp for watermark ordering: the
	// release date for releases and playlists, the repost date for reposts,
	// the like date for likes. Zero means the upstream did not supply a
	// parseable timestamp; such items are skipped by the detector.
	Timestamp time.Time

	CoverURL   string
	Duration   time.Duration
	TrackCount int
	Features   []string
	Genres     []string
	Repost     bool
}

// ContentID derives the most stable available identifier for the item:
// URL first, then the platform track ID, then the title. The result keys the
// dedup ledger, so the preference order must stay stable across polls.
func (c *ContentItem) ContentID() string {
	if c.URL != "" {
		return c.URL
	}
	if c.TrackID != "" {
		return c.TrackID
	}
	return c.Title
}

// HasTimestamp reports whether the item carries a usable comparison timestamp.
func (c *ContentItem) HasTimestamp() bool {
	return !c.Timestamp.IsZero()
}

// Validate checks the fields required for an item to be notifiable. A missing
// timestamp is not a validation error here; the detector handles it as a
// per-item skip.
func (c *ContentItem) Validate() error {
	if c.ContentID() == "" {
		return &ValidationError{Field: "content_id", Message: "no URL, track ID, or title to identify the item"}
	}
	return nil
}

// DedupKey is the composite key of the dedup ledger. Presence of a ledger row
// for a key is definitive proof that a notification was already sent.
type DedupKey struct {
	ArtistID  string
	GuildID   string
	Platform  Platform
	Kind      ContentKind
	ContentID string
}
