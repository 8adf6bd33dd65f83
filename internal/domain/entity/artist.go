// Package entity defines the core domain entities and validation logic for the
// application. It contains the fundamental business objects such as
// TrackedArtist and ContentItem, along with their validation rules and
// domain-specific errors.
package entity

import "time"

// Platform identifies a supported music platform.
type Platform string

const (
	PlatformSoundCloud Platform = "soundcloud"
	PlatformSpotify    Platform = "spotify"
)

// Valid reports whether the platform is one of the supported platforms.
func (p Platform) Valid() bool {
	return p == PlatformSoundCloud || p == PlatformSpotify
}

// ContentKind identifies one of the four tracked content kinds. Each kind has
// its own watermark and comparison policy.
type ContentKind string

const (
	KindRelease  ContentKind = "release"
	KindPlaylist ContentKind = "playlist"
	KindRepost   ContentKind = "repost"
	KindLike     ContentKind = "like"
)

// Kinds lists all content kinds in processing order. The poll cycle checks the
// whole roster for each kind before moving to the next, in this order.
var Kinds = []ContentKind{KindRelease, KindPlaylist, KindRepost, KindLike}

// Valid reports whether the content kind is one of the four tracked kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case KindRelease, KindPlaylist, KindRepost, KindLike:
		return true
	}
	return false
}

// TrackedArtist represents an artist tracked for a guild. Identity is the
// composite (Platform, ArtistID, OwnerID, GuildID).
//
// The four watermarks record the timestamp of the last item notified for the
// corresponding content kind. A nil watermark means the kind has never been
// polled; at tracking time all four are seeded to the tracking timestamp so
// pre-existing content is never reported as new.
type TrackedArtist struct {
	Platform Platform
	ArtistID string
	OwnerID  string
	GuildID  string

	Name   string
	URL    string
	Genres []string

	LastReleaseDate  *time.Time
	LastPlaylistDate *time.Time
	LastRepostDate   *time.Time
	LastLikeDate     *time.Time

	CreatedAt time.Time
}

// Watermark returns the stored watermark for the given content kind, or nil if
// it has never been set.
func (a *TrackedArtist) Watermark(kind ContentKind) *time.Time {
	switch kind {
	case KindRelease:
		return a.LastReleaseDate
	case KindPlaylist:
		return a.LastPlaylistDate
	case KindRepost:
		return a.LastRepostDate
	case KindLike:
		return a.LastLikeDate
	}
	return nil
}

// SetWatermark updates the in-memory watermark for the given content kind.
// Persistence is the repository's concern.
func (a *TrackedArtist) SetWatermark(kind ContentKind, t time.Time) {
	t = t.UTC()
	switch kind {
	case KindRelease:
		a.LastReleaseDate = &t
	case KindPlaylist:
		a.LastPlaylistDate = &t
	case KindRepost:
		a.LastRepostDate = &t
	case KindLike:
		a.LastLikeDate = &t
	}
}

// Validate validates the TrackedArtist entity fields.
func (a *TrackedArtist) Validate() error {
	if !a.Platform.Valid() {
		return &ValidationError{Field: "platform", Message: "must be soundcloud or spotify"}
	}
	if a.ArtistID == "" {
		return &ValidationError{Field: "artist_id", Message: "must not be empty"}
	}
	if a.OwnerID == "" {
		return &ValidationError{Field: "owner_id", Message: "must not be empty"}
	}
	if a.GuildID == "" {
		return &ValidationError{Field: "guild_id", Message: "must not be empty"}
	}
	if a.Name == "" {
		return &ValidationError{Field: "artist_name", Message: "must not be empty"}
	}
	return nil
}
