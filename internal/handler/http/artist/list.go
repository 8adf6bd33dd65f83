package artist

import (
	"net/http"

	"release-radar/internal/domain/entity"
	"release-radar/internal/handler/http/respond"
	"release-radar/internal/repository"
)

type ListHandler struct{ Svc Service }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ArtistFilter{
		Platform: entity.Platform(q.Get("platform")),
		OwnerID:  q.Get("owner_id"),
		GuildID:  q.Get("guild_id"),
	}

	list, err := h.Svc.List(r.Context(), filter)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]DTO, 0, len(list))
	for _, a := range list {
		out = append(out, toDTO(a))
	}
	respond.JSON(w, http.StatusOK, out)
}
