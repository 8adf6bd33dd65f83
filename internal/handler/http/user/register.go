// Package user provides HTTP handlers for user registration.
package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"release-radar/internal/handler/http/respond"
	"release-radar/internal/repository"
)

// Service is the subset of the track use case the user handlers need.
type Service interface {
	RegisterUser(ctx context.Context, userID, username string) (*repository.User, error)
}

type RegisterHandler struct{ Svc Service }

func (h RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.UserID == "" {
		respond.SafeError(w, http.StatusBadRequest, errors.New("user_id required"))
		return
	}

	registered, err := h.Svc.RegisterUser(r.Context(), req.UserID, req.Username)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{
		"user_id":       registered.UserID,
		"username":      registered.Username,
		"registered_at": registered.RegisteredAt,
	})
}

// Register registers the user HTTP handlers with the given mux.
func Register(mux *http.ServeMux, svc Service) {
	mux.Handle("POST /users", RegisterHandler{svc})
}
