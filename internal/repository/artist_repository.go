package repository

import (
	"context"
	"time"

	"release-radar/internal/domain/entity"
)

// ArtistFilter narrows ListTracked results. Zero values mean "no filter".
type ArtistFilter struct {
	Platform entity.Platform
	OwnerID  string
	GuildID  string
}

// ArtistRepository persists tracked artists and their per-kind watermarks.
// Watermark columns are NULLable: NULL means the kind was never polled, which
// is distinct from any sentinel timestamp.
type ArtistRepository interface {
	Get(ctx context.Context, platform entity.Platform, artistID, ownerID, guildID string) (*entity.TrackedArtist, error)
	ListTracked(ctx context.Context, filter ArtistFilter) ([]*entity.TrackedArtist, error)
	Create(ctx context.Context, artist *entity.TrackedArtist) error
	Delete(ctx context.Context, platform entity.Platform, artistID, ownerID, guildID string) error

	// GetWatermark returns the stored watermark for the kind, or nil if unset.
	GetWatermark(ctx context.Context, artist *entity.TrackedArtist, kind entity.ContentKind) (*time.Time, error)

	// SetWatermark durably advances the watermark for the kind. Each call is
	// atomic; there are no multi-artist transactions.
	SetWatermark(ctx context.Context, artist *entity.TrackedArtist, kind entity.ContentKind, t time.Time) error
}
