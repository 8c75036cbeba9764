package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wolfman30/buyer-lead-intake/internal/users"
	"github.com/wolfman30/buyer-lead-intake/pkg/logging"
)

// DemoUser identifies the fixed demo identity issued by the login endpoint.
type DemoUser struct {
	ID    string
	Email string
	Name  string
}

// Handler issues demo-session tokens. There is no real credential check;
// any login request resolves to the configured demo user.
type Handler struct {
	secret   string
	tokenTTL time.Duration
	demo     DemoUser
	users    users.Repository
	logger   *logging.Logger
}

// NewHandler creates a new auth handler
func NewHandler(secret string, ttl time.Duration, demo DemoUser, repo users.Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{secret: secret, tokenTTL: ttl, demo: demo, users: repo, logger: logger}
}

// LoginResponse is the demo login payload.
type LoginResponse struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

// Login handles POST /auth/login requests.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		http.Error(w, "auth disabled", http.StatusServiceUnavailable)
		return
	}

	user := &users.User{ID: h.demo.ID, Email: h.demo.Email, Name: h.demo.Name}
	if err := h.users.Ensure(r.Context(), user); err != nil {
		h.logger.Error("failed to ensure demo user", "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	token, err := IssueToken(h.secret, user.ID, h.tokenTTL)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	h.logger.Info("demo login", "user_id", user.ID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{Token: token, User: user})
}
