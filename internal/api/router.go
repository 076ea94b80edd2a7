package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/rakansens/gardenwars-colyseus/internal/game"
	"github.com/rakansens/gardenwars-colyseus/internal/metrics"
)

// RouterConfig carries the router's dependencies. Built for injection so
// tests can construct a router around a manager with httptest.
type RouterConfig struct {
	Manager *game.Manager
	Logger  zerolog.Logger

	// RateLimiter is optional; when nil one is created from
	// RateLimitConfig (or the defaults).
	RateLimiter     *IPRateLimiter
	RateLimitConfig *RateLimitConfig

	// DisableLogging drops the request logger middleware (benchmarks).
	DisableLogging bool
}

// NewRouter builds the HTTP surface. Pure: no goroutines, no listeners,
// safe to wrap in httptest.NewServer.
//
// The CORS policy is deliberately permissive: the server is authoritative
// and the discovery surface is public read-only metadata.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting before CORS so floods are rejected cheaply.
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rlCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rlCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rlCfg)
	}
	r.Use(rateLimiter.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	h := &handlers{manager: cfg.Manager, log: cfg.Logger}

	r.Get("/health", h.handleHealth)
	r.Get("/rooms", h.handleRooms)
	r.Get("/ws", h.handleWS)
	r.Handle("/metrics", metrics.Handler())
	r.NotFound(h.handleNotFound)

	return r
}
