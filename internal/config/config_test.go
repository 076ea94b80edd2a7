package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	srv := DefaultServer()
	if srv.Port != 2567 {
		t.Errorf("port = %d, want 2567", srv.Port)
	}
	if srv.DatabaseURL != "" {
		t.Errorf("database url default = %q, want empty", srv.DatabaseURL)
	}

	g := DefaultGame()
	if g.TickInterval != 50*time.Millisecond {
		t.Errorf("tick interval = %v, want 50ms", g.TickInterval)
	}
	if g.StageLength != 1200 {
		t.Errorf("stage length = %v, want 1200", g.StageLength)
	}
	if g.CastleHP != 5000 {
		t.Errorf("castle hp = %v, want 5000", g.CastleHP)
	}
	if g.CountdownSeconds != 3 {
		t.Errorf("countdown = %d, want 3", g.CountdownSeconds)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/battles")
	t.Setenv("TICK_INTERVAL_MS", "25")
	t.Setenv("STAGE_LENGTH", "1600")
	t.Setenv("CASTLE_HP", "8000")
	t.Setenv("COUNTDOWN_SECONDS", "5")
	t.Setenv("IDLE_ROOM_TTL_SEC", "60")

	cfg := Load()
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.DatabaseURL != "postgres://localhost/battles" {
		t.Errorf("database url = %q", cfg.Server.DatabaseURL)
	}
	if cfg.Game.TickInterval != 25*time.Millisecond {
		t.Errorf("tick interval = %v, want 25ms", cfg.Game.TickInterval)
	}
	if cfg.Game.StageLength != 1600 {
		t.Errorf("stage length = %v, want 1600", cfg.Game.StageLength)
	}
	if cfg.Game.CastleHP != 8000 {
		t.Errorf("castle hp = %v, want 8000", cfg.Game.CastleHP)
	}
	if cfg.Game.CountdownSeconds != 5 {
		t.Errorf("countdown = %d, want 5", cfg.Game.CountdownSeconds)
	}
	if cfg.Game.IdleRoomTTL != time.Minute {
		t.Errorf("idle ttl = %v, want 1m", cfg.Game.IdleRoomTTL)
	}
}

func TestInvalidEnvValuesKeepDefaults(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("TICK_INTERVAL_MS", "-5")

	cfg := Load()
	if cfg.Server.Port != 2567 {
		t.Errorf("port = %d, want default 2567", cfg.Server.Port)
	}
	if cfg.Game.TickInterval != 50*time.Millisecond {
		t.Errorf("tick interval = %v, want default 50ms", cfg.Game.TickInterval)
	}
}
