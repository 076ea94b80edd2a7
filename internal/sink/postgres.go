package sink

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

const battleResultsSchema = `
CREATE TABLE IF NOT EXISTS battle_results (
	id               BIGSERIAL PRIMARY KEY,
	player1_id       TEXT NOT NULL DEFAULT '',
	player2_id       TEXT NOT NULL DEFAULT '',
	player1_name     TEXT NOT NULL,
	player2_name     TEXT NOT NULL,
	player1_deck     TEXT[] NOT NULL,
	player2_deck     TEXT[] NOT NULL,
	winner_player_num SMALLINT NOT NULL,
	player1_castle_hp INTEGER NOT NULL,
	player2_castle_hp INTEGER NOT NULL,
	player1_kills    INTEGER NOT NULL,
	player2_kills    INTEGER NOT NULL,
	battle_duration  INTEGER NOT NULL,
	win_reason       TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresSink persists battle records to a battle_results table.
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink opens a connection pool, verifies it and ensures the
// battle_results table exists.
func NewPostgresSink(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, battleResultsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ensure schema: %w", err)
	}
	return &PostgresSink{db: db}, nil
}

// SaveBattleResult inserts one record.
func (s *PostgresSink) SaveBattleResult(ctx context.Context, rec *BattleRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO battle_results (
			player1_id, player2_id, player1_name, player2_name,
			player1_deck, player2_deck, winner_player_num,
			player1_castle_hp, player2_castle_hp,
			player1_kills, player2_kills, battle_duration, win_reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.Player1ID, rec.Player2ID, rec.Player1Name, rec.Player2Name,
		pq.Array(rec.Player1Deck), pq.Array(rec.Player2Deck), rec.WinnerPlayerNum,
		rec.Player1CastleHP, rec.Player2CastleHP,
		rec.Player1Kills, rec.Player2Kills, rec.BattleDurationSec, rec.WinReason,
	)
	if err != nil {
		return fmt.Errorf("insert battle result: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}
