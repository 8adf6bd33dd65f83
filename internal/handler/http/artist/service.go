package artist

import (
	"context"

	"release-radar/internal/domain/entity"
	"release-radar/internal/repository"
	"release-radar/internal/usecase/track"
)

// Service is the subset of the track use case the artist handlers need.
// *track.Service satisfies it.
type Service interface {
	Track(ctx context.Context, in track.TrackInput) (*entity.TrackedArtist, error)
	Untrack(ctx context.Context, in track.UntrackInput) error
	List(ctx context.Context, filter repository.ArtistFilter) ([]*entity.TrackedArtist, error)
}
