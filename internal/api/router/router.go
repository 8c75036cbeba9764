package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/buyer-lead-intake/internal/auth"
	"github.com/wolfman30/buyer-lead-intake/internal/buyers"
	httpmiddleware "github.com/wolfman30/buyer-lead-intake/internal/http/middleware"
	"github.com/wolfman30/buyer-lead-intake/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	AuthHandler        *auth.Handler
	BuyersHandler      *buyers.Handler
	AuthSecret         string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AuthHandler != nil {
			public.Post("/auth/login", cfg.AuthHandler.Login)
		}
	})

	// Authenticated lead routes
	r.Route("/buyers", func(protected chi.Router) {
		protected.Use(auth.RequireAuth(cfg.AuthSecret))
		protected.Post("/", cfg.BuyersHandler.Create)
		protected.Get("/", cfg.BuyersHandler.List)
		protected.Get("/export", cfg.BuyersHandler.ExportCSV)
		protected.Post("/import", cfg.BuyersHandler.ImportCSV)
		protected.Get("/{id}", cfg.BuyersHandler.Get)
		protected.Put("/{id}", cfg.BuyersHandler.Update)
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
