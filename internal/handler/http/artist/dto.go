package artist

import (
	"time"

	"release-radar/internal/domain/entity"
)

type DTO struct {
	Platform  string     `json:"platform"`
	ArtistID  string     `json:"artist_id"`
	OwnerID   string     `json:"owner_id"`
	GuildID   string     `json:"guild_id"`
	Name      string     `json:"name"`
	URL       string     `json:"url"`
	Genres    []string   `json:"genres,omitempty"`
	TrackedAt time.Time  `json:"tracked_at"`
	LastSeen  *time.Time `json:"last_seen,omitempty"` // newest watermark across kinds
}

func toDTO(a *entity.TrackedArtist) DTO {
	dto := DTO{
		Platform:  string(a.Platform),
		ArtistID:  a.ArtistID,
		OwnerID:   a.OwnerID,
		GuildID:   a.GuildID,
		Name:      a.Name,
		URL:       a.URL,
		Genres:    a.Genres,
		TrackedAt: a.CreatedAt,
	}
	for _, kind := range entity.Kinds {
		wm := a.Watermark(kind)
		if wm != nil && (dto.LastSeen == nil || wm.After(*dto.LastSeen)) {
			dto.LastSeen = wm
		}
	}
	return dto
}
