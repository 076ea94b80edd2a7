package game

// Outbound event names. Every server-to-client frame is an
// {event, data} envelope carrying one of these.
const (
	EventPlayerJoined    = "player_joined"
	EventAllPlayers      = "all_players"
	EventRoomState       = "room_state"
	EventUnitSpawned     = "unit_spawned"
	EventUnitsSync       = "units_sync"
	EventPlayersSync     = "players_sync"
	EventPhaseChange     = "phase_change"
	EventCountdownUpdate = "countdown_update"
	EventError           = "error"
)

// Win reasons carried in phase_change{finished} and the persisted record.
const (
	WinReasonCastleDestroyed      = "castle_destroyed"
	WinReasonOpponentDisconnected = "opponent_disconnected"
)

// Error codes sent only to the offending client, never broadcast.
const (
	ErrCodeGameNotPlaying   = "GAME_NOT_PLAYING"
	ErrCodeInvalidUnit      = "INVALID_UNIT"
	ErrCodeUnitNotInDeck    = "UNIT_NOT_IN_DECK"
	ErrCodeCooldown         = "COOLDOWN"
	ErrCodeInsufficientCost = "INSUFFICIENT_COST"
	ErrCodeSpawnFailed      = "SPAWN_FAILED"
	ErrCodeCannotUpgrade    = "CANNOT_UPGRADE"
)

// ErrorPayload is the error{code, message} frame.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PlayerView is the full client-visible player state.
type PlayerView struct {
	SessionID        string   `json:"sessionId"`
	ExternalPlayerID string   `json:"externalPlayerId"`
	DisplayName      string   `json:"displayName"`
	Side             string   `json:"side"`
	Cost             int      `json:"cost"`
	MaxCost          int      `json:"maxCost"`
	CostLevel        int      `json:"costLevel"`
	CastleHP         float64  `json:"castleHp"`
	MaxCastleHP      float64  `json:"maxCastleHp"`
	Ready            bool     `json:"ready"`
	Deck             []string `json:"deck"`
}

// PlayerSyncView is the per-tick players_sync slice: just the numbers
// that change during play.
type PlayerSyncView struct {
	SessionID   string  `json:"sessionId"`
	Cost        int     `json:"cost"`
	MaxCost     int     `json:"maxCost"`
	CostLevel   int     `json:"costLevel"`
	CastleHP    float64 `json:"castleHp"`
	MaxCastleHP float64 `json:"maxCastleHp"`
}

// UnitView is the client-visible unit state.
type UnitView struct {
	InstanceID   string  `json:"instanceId"`
	DefinitionID string  `json:"definitionId"`
	Side         string  `json:"side"`
	X            float64 `json:"x"`
	HP           float64 `json:"hp"`
	MaxHP        float64 `json:"maxHp"`
	State        string  `json:"state"`
	StateTimer   float64 `json:"stateTimer"`
	TargetID     string  `json:"targetId"`
}

// RoomStateView is the replicated full room state sent to a session on
// join; afterwards units_sync/players_sync keep clients current.
type RoomStateView struct {
	Phase       string                `json:"phase"`
	GameTime    float64               `json:"gameTime"`
	Countdown   int                   `json:"countdown"`
	StageLength float64               `json:"stageLength"`
	Players     map[string]PlayerView `json:"players"`
	Units       map[string]UnitView   `json:"units"`
	WinnerID    string                `json:"winnerId"`
	WinReason   string                `json:"winReason"`
}

// viewOfPlayer builds the full player view.
func viewOfPlayer(p *Player) PlayerView {
	return PlayerView{
		SessionID:        p.SessionID,
		ExternalPlayerID: p.ExternalID,
		DisplayName:      p.Name,
		Side:             p.Side.String(),
		Cost:             CostValue(p),
		MaxCost:          p.MaxCost,
		CostLevel:        p.CostLevel,
		CastleHP:         p.CastleHP,
		MaxCastleHP:      p.MaxCastleHP,
		Ready:            p.Ready,
		Deck:             append([]string(nil), p.Deck...),
	}
}

func syncViewOfPlayer(p *Player) PlayerSyncView {
	return PlayerSyncView{
		SessionID:   p.SessionID,
		Cost:        CostValue(p),
		MaxCost:     p.MaxCost,
		CostLevel:   p.CostLevel,
		CastleHP:    p.CastleHP,
		MaxCastleHP: p.MaxCastleHP,
	}
}

func viewOfUnit(u *Unit) UnitView {
	return UnitView{
		InstanceID:   u.InstanceID,
		DefinitionID: u.DefinitionID,
		Side:         u.Side.String(),
		X:            u.X,
		HP:           u.HP,
		MaxHP:        u.MaxHP,
		State:        u.State.String(),
		StateTimer:   u.StateTimerMs,
		TargetID:     u.TargetID,
	}
}

// View builds the replicated room state object.
func (s *State) View() RoomStateView {
	players := make(map[string]PlayerView, len(s.Players))
	for _, p := range s.Players {
		players[p.SessionID] = viewOfPlayer(p)
	}
	units := make(map[string]UnitView, len(s.Units))
	for _, id := range s.unitOrder {
		if u, ok := s.Units[id]; ok {
			units[id] = viewOfUnit(u)
		}
	}
	return RoomStateView{
		Phase:       string(s.Phase),
		GameTime:    s.GameTimeMs,
		Countdown:   s.Countdown,
		StageLength: s.StageLength,
		Players:     players,
		Units:       units,
		WinnerID:    s.WinnerID,
		WinReason:   s.WinReason,
	}
}
