package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rakansens/gardenwars-colyseus/internal/api"
	"github.com/rakansens/gardenwars-colyseus/internal/catalog"
	"github.com/rakansens/gardenwars-colyseus/internal/config"
	"github.com/rakansens/gardenwars-colyseus/internal/game"
	"github.com/rakansens/gardenwars-colyseus/internal/logger"
	"github.com/rakansens/gardenwars-colyseus/internal/sink"
)

func main() {
	// .env is optional; real environment variables always win.
	_ = godotenv.Load()

	logger.Init()
	log := logger.Get()

	cfg := config.Load()

	cat, err := catalog.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load unit catalog")
	}
	log.Info().Int("units", cat.Size()).Msg("Unit catalog loaded")

	var resultSink sink.ResultSink = sink.NewLogSink(log)
	var pgSink *sink.PostgresSink
	if cfg.Server.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pgSink, err = sink.NewPostgresSink(ctx, cfg.Server.DatabaseURL)
		cancel()
		if err != nil {
			log.Error().Err(err).Msg("Postgres sink unavailable, falling back to log sink")
		} else {
			resultSink = pgSink
			log.Info().Msg("Postgres result sink connected")
		}
	}

	manager := game.NewManager(game.ManagerConfig{
		Room: game.RoomConfig{
			TickInterval:     cfg.Game.TickInterval,
			StageLength:      cfg.Game.StageLength,
			CastleHP:         cfg.Game.CastleHP,
			CountdownSeconds: cfg.Game.CountdownSeconds,
		},
		IdleRoomTTL: cfg.Game.IdleRoomTTL,
	}, cat, resultSink, log)

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port)
	server := api.NewServer(addr, manager, log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
		return
	}

	// Stop accepting, then dispose rooms so final broadcasts flush.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown error")
	}
	manager.Shutdown()
	if pgSink != nil {
		pgSink.Close()
	}
	log.Info().Msg("Goodbye")
}
