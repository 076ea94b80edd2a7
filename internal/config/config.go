// Package config centralizes the server's runtime settings. Defaults
// live here; environment variables override them in *FromEnv.
package config

import (
	"os"
	"strconv"
	"time"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port        int
	DatabaseURL string // empty disables the Postgres result sink
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port: 2567,
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()
	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	return cfg
}

// GameConfig holds the match tuning shared by every room.
type GameConfig struct {
	TickInterval     time.Duration
	StageLength      float64
	CastleHP         float64
	CountdownSeconds int
	IdleRoomTTL      time.Duration
}

// DefaultGame returns the standard 20Hz match configuration.
func DefaultGame() GameConfig {
	return GameConfig{
		TickInterval:     50 * time.Millisecond,
		StageLength:      1200,
		CastleHP:         5000,
		CountdownSeconds: 3,
		IdleRoomTTL:      5 * time.Minute,
	}
}

// GameFromEnv returns game configuration with environment overrides.
func GameFromEnv() GameConfig {
	cfg := DefaultGame()
	if ms := getEnvInt("TICK_INTERVAL_MS", 0); ms > 0 {
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	}
	if v := getEnvFloat("STAGE_LENGTH", 0); v > 0 {
		cfg.StageLength = v
	}
	if v := getEnvFloat("CASTLE_HP", 0); v > 0 {
		cfg.CastleHP = v
	}
	if v := getEnvInt("COUNTDOWN_SECONDS", 0); v > 0 {
		cfg.CountdownSeconds = v
	}
	if v := getEnvInt("IDLE_ROOM_TTL_SEC", 0); v > 0 {
		cfg.IdleRoomTTL = time.Duration(v) * time.Second
	}
	return cfg
}

// AppConfig is the complete application configuration.
type AppConfig struct {
	Server ServerConfig
	Game   GameConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server: ServerFromEnv(),
		Game:   GameFromEnv(),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
