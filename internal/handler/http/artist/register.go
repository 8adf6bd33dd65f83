package artist

import (
	"net/http"

	"release-radar/internal/handler/http/auth"
)

// Register registers all artist-related HTTP handlers with the given mux.
// Listing is open; tracking and untracking mutate the roster and require
// authentication via the auth middleware.
func Register(mux *http.ServeMux, svc Service) {
	mux.Handle("GET    /artists", ListHandler{svc})
	mux.Handle("POST   /artists", auth.Authz(TrackHandler{svc}))
	mux.Handle("DELETE /artists", auth.Authz(UntrackHandler{svc}))
}
