// Package router assembles the HTTP surface: public health and scheduling
// endpoints plus the JWT-protected dispatcher admin routes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/apexhvac/dispatch-ai-platform/internal/http/handlers"
	httpmiddleware "github.com/apexhvac/dispatch-ai-platform/internal/http/middleware"
	"github.com/apexhvac/dispatch-ai-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Scheduling         *handlers.SchedulingHandler
	AdminAudit         *handlers.AdminAuditHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimitPerSecond of 0 disables rate limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

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
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Scheduling != nil {
			public.Route("/scheduling", func(s chi.Router) {
				s.Post("/availability", cfg.Scheduling.CheckAvailability)
				s.Post("/confirm", cfg.Scheduling.Confirm)
				s.Post("/reschedule", cfg.Scheduling.Reschedule)
				s.Post("/cancel", cfg.Scheduling.Cancel)
			})
		}
	})

	if cfg.AdminAudit != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/audit", cfg.AdminAudit.ListEvents)
			admin.Get("/audit/kpis", cfg.AdminAudit.KPIs)
		})
	}

	return r
}
