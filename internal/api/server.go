package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rakansens/gardenwars-colyseus/internal/game"
)

// Server is the HTTP front of the battle server: the websocket endpoint
// plus the discovery surface. Construction is side-effect free; Start is
// the only method that opens a listener.
type Server struct {
	httpServer  *http.Server
	rateLimiter *IPRateLimiter
	log         zerolog.Logger
}

// NewServer builds the server around a room manager.
func NewServer(addr string, manager *game.Manager, log zerolog.Logger) *Server {
	rateLimiter := NewIPRateLimiter(DefaultRateLimitConfig)
	router := NewRouter(RouterConfig{
		Manager:     manager,
		Logger:      log,
		RateLimiter: rateLimiter,
	})
	return &Server{
		httpServer:  &http.Server{Addr: addr, Handler: router},
		rateLimiter: rateLimiter,
		log:         log,
	}
}

// Start listens and serves until Shutdown. Returns nil on graceful exit.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.httpServer.Shutdown(ctx)
}
