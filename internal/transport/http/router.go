// Package httptransport assembles the HTTP surface: middleware chain, health
// and metrics endpoints, and the authenticated API routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"turfwars/internal/platform/metrics"
	"turfwars/internal/platform/middleware"
)

// Registrar mounts a module's routes on the router.
type Registrar interface {
	Register(r chi.Router)
}

// Config carries everything the router needs.
type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	TokenValidator middleware.TokenValidator
	RequestTimeout time.Duration

	// Handlers are mounted inside the authenticated group, in order. The
	// leaderboard registrar must precede the club registrar so the static
	// /clubs/leaderboard route wins over /clubs/{clubID}.
	Handlers []Registrar
}

// NewRouter builds the full router. Health and metrics stay outside the auth
// group; everything else requires a bearer token.
func NewRouter(cfg Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Latency(cfg.Metrics))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.TokenValidator, cfg.Logger))
		for _, h := range cfg.Handlers {
			h.Register(r)
		}
	})

	return r
}
