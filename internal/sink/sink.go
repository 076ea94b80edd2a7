// Package sink hands finished-match scoreboards to persistent storage.
// The room never blocks on a sink: persistence runs after the final
// broadcast and failures are logged, not surfaced to clients.
package sink

import (
	"context"

	"github.com/rs/zerolog"
)

// BattleRecord is the persisted scoreboard of one finished match.
type BattleRecord struct {
	Player1ID         string   `json:"player1_id"`
	Player2ID         string   `json:"player2_id"`
	Player1Name       string   `json:"player1_name"`
	Player2Name       string   `json:"player2_name"`
	Player1Deck       []string `json:"player1_deck"`
	Player2Deck       []string `json:"player2_deck"`
	WinnerPlayerNum   int      `json:"winner_player_num"` // 1 or 2
	Player1CastleHP   int      `json:"player1_castle_hp"`
	Player2CastleHP   int      `json:"player2_castle_hp"`
	Player1Kills      int      `json:"player1_kills"`
	Player2Kills      int      `json:"player2_kills"`
	BattleDurationSec int      `json:"battle_duration"`
	WinReason         string   `json:"win_reason"`
}

// ResultSink stores one battle record.
type ResultSink interface {
	SaveBattleResult(ctx context.Context, rec *BattleRecord) error
}

// LogSink is the default sink when no database is configured: it writes
// the record to the structured log and always succeeds.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a sink that logs records.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

// SaveBattleResult logs the scoreboard.
func (s *LogSink) SaveBattleResult(_ context.Context, rec *BattleRecord) error {
	s.log.Info().
		Str("player1", rec.Player1Name).
		Str("player2", rec.Player2Name).
		Int("winner", rec.WinnerPlayerNum).
		Str("winReason", rec.WinReason).
		Int("duration", rec.BattleDurationSec).
		Int("player1Kills", rec.Player1Kills).
		Int("player2Kills", rec.Player2Kills).
		Msg("Battle result")
	return nil
}
