package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wolfman30/buyer-lead-intake/internal/users"
)

func TestLogin(t *testing.T) {
	repo := users.NewInMemoryRepository()
	demo := DemoUser{ID: "demo-user-id", Email: "demo@example.com", Name: "Demo User"}
	handler := NewHandler("test-secret", time.Hour, demo, repo, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	w := httptest.NewRecorder()
	handler.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp LoginResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
	if resp.User == nil || resp.User.ID != "demo-user-id" {
		t.Fatalf("unexpected user: %+v", resp.User)
	}

	// Token resolves back to the demo user.
	userID, err := ParseToken("test-secret", resp.Token)
	if err != nil {
		t.Fatalf("issued token did not parse: %v", err)
	}
	if userID != "demo-user-id" {
		t.Errorf("expected demo-user-id, got %q", userID)
	}

	// Login upserts the demo user row.
	if _, err := repo.GetByID(req.Context(), "demo-user-id"); err != nil {
		t.Errorf("demo user was not persisted: %v", err)
	}
}

func TestLogin_NoSecret(t *testing.T) {
	handler := NewHandler("", time.Hour, DemoUser{ID: "demo-user-id"}, users.NewInMemoryRepository(), nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	w := httptest.NewRecorder()
	handler.Login(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
