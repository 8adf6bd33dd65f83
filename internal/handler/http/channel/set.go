// Package channel provides HTTP handlers for notification channel
// configuration: which Discord webhook a guild's notifications go to.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"release-radar/internal/domain/entity"
	"release-radar/internal/handler/http/auth"
	"release-radar/internal/handler/http/respond"
)

// Service is the subset of the track use case the channel handlers need.
type Service interface {
	SetChannel(ctx context.Context, guildID string, p entity.Platform, webhookURL string) error
}

type SetHandler struct{ Svc Service }

func (h SetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GuildID    string `json:"guild_id"`
		Platform   string `json:"platform"`
		WebhookURL string `json:"webhook_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.GuildID == "" || req.WebhookURL == "" {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("guild_id and webhook_url required"))
		return
	}

	err := h.Svc.SetChannel(r.Context(), req.GuildID, entity.Platform(req.Platform), req.WebhookURL)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Register registers the channel HTTP handlers with the given mux.
// Webhook URLs carry secrets, so configuration requires authentication.
func Register(mux *http.ServeMux, svc Service) {
	mux.Handle("PUT /channels", auth.Authz(SetHandler{svc}))
}
