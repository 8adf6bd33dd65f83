package artist

import (
	"encoding/json"
	"errors"
	"net/http"

	"release-radar/internal/domain/entity"
	"release-radar/internal/handler/http/respond"
	trackUC "release-radar/internal/usecase/track"
)

type TrackHandler struct{ Svc Service }

func (h TrackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Platform  string `json:"platform"`
		ArtistRef string `json:"artist_ref"`
		OwnerID   string `json:"owner_id"`
		GuildID   string `json:"guild_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ArtistRef == "" || req.OwnerID == "" || req.GuildID == "" {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("artist_ref, owner_id and guild_id required"))
		return
	}

	tracked, err := h.Svc.Track(r.Context(), trackUC.TrackInput{
		Platform:  entity.Platform(req.Platform),
		ArtistRef: req.ArtistRef,
		OwnerID:   req.OwnerID,
		GuildID:   req.GuildID,
	})
	if err != nil {
		code := http.StatusBadRequest
		switch {
		case errors.Is(err, trackUC.ErrArtistNotFound):
			code = http.StatusNotFound
		case errors.Is(err, entity.ErrAlreadyTracked):
			code = http.StatusConflict
		case errors.Is(err, trackUC.ErrUserNotRegistered):
			code = http.StatusForbidden
		}
		respond.SafeError(w, code, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(tracked))
}
