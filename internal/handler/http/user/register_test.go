package user_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"release-radar/internal/handler/http/user"
	"release-radar/internal/repository"
)

type stubService struct {
	err          error
	lastUserID   string
	lastUsername string
}

func (s *stubService) RegisterUser(_ context.Context, userID, username string) (*repository.User, error) {
	s.lastUserID = userID
	s.lastUsername = username
	if s.err != nil {
		return nil, s.err
	}
	return &repository.User{
		UserID:       userID,
		Username:     username,
		RegisteredAt: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
	}, nil
}

func TestRegisterHandler_Success(t *testing.T) {
	stub := &stubService{}
	handler := user.RegisterHandler{Svc: stub}

	body := `{"user_id": "user-9", "username": "listener"}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusCreated)
	}
	if stub.lastUserID != "user-9" {
		t.Errorf("user ID = %q, want %q", stub.lastUserID, "user-9")
	}
	if stub.lastUsername != "listener" {
		t.Errorf("username = %q, want %q", stub.lastUsername, "listener")
	}
}

func TestRegisterHandler_MissingUserID(t *testing.T) {
	handler := user.RegisterHandler{Svc: &stubService{}}

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"username":"x"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRegisterHandler_ServiceError(t *testing.T) {
	handler := user.RegisterHandler{Svc: &stubService{err: errors.New("db down")}}

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"user_id":"u"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
