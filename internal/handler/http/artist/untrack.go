package artist

import (
	"errors"
	"net/http"

	"release-radar/internal/domain/entity"
	"release-radar/internal/handler/http/respond"
	trackUC "release-radar/internal/usecase/track"
)

type UntrackHandler struct{ Svc Service }

// ServeHTTP removes an artist from the roster. The composite identity comes
// from query parameters because a tracked artist has no single numeric ID.
func (h UntrackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := trackUC.UntrackInput{
		Platform: entity.Platform(q.Get("platform")),
		ArtistID: q.Get("artist_id"),
		OwnerID:  q.Get("owner_id"),
		GuildID:  q.Get("guild_id"),
	}
	if in.ArtistID == "" || in.OwnerID == "" || in.GuildID == "" {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("platform, artist_id, owner_id and guild_id required"))
		return
	}

	if err := h.Svc.Untrack(r.Context(), in); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, trackUC.ErrArtistNotFound) {
			code = http.StatusNotFound
		}
		var validationErr *entity.ValidationError
		if errors.As(err, &validationErr) {
			code = http.StatusBadRequest
		}
		respond.SafeError(w, code, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
