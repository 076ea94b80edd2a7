package game

// Side is a player's allegiance on the lane. Player 1 attacks toward +x,
// player 2 toward -x.
type Side int

const (
	SideNone Side = iota
	SidePlayer1
	SidePlayer2
)

func (s Side) String() string {
	switch s {
	case SidePlayer1:
		return "player1"
	case SidePlayer2:
		return "player2"
	default:
		return "none"
	}
}

// Direction returns the side's travel direction along the lane.
func (s Side) Direction() float64 {
	if s == SidePlayer2 {
		return -1
	}
	return 1
}

// Opposite returns the enemy side.
func (s Side) Opposite() Side {
	switch s {
	case SidePlayer1:
		return SidePlayer2
	case SidePlayer2:
		return SidePlayer1
	default:
		return SideNone
	}
}

// MaxDeckSize caps how many unit ids a player may bring into a match.
const MaxDeckSize = 7

// Player is the per-session state inside a room. It lives from join until
// the room is disposed or the session leaves. All mutation happens on the
// owning room's serial loop.
type Player struct {
	SessionID  string
	ExternalID string // persistence id, may be empty
	Name       string
	Side       Side

	// Regenerating summon resource. Fractional internally; the wire and
	// all affordability checks use the floored integer value.
	Cost      float64
	MaxCost   int
	CostLevel int

	CastleHP    float64
	MaxCastleHP float64

	Ready bool
	Deck  []string

	// Remaining per-unit-id summon delay in milliseconds.
	SpawnCooldowns map[string]float64

	Kills int
}

// NewPlayer creates a room player with the initial resource state and a
// full castle.
func NewPlayer(sessionID, externalID, name string, deck []string, castleHP float64) *Player {
	p := &Player{
		SessionID:      sessionID,
		ExternalID:     externalID,
		Name:           name,
		CastleHP:       castleHP,
		MaxCastleHP:    castleHP,
		Deck:           deck,
		SpawnCooldowns: make(map[string]float64),
	}
	InitCost(p)
	return p
}

// HasInDeck reports whether the player brought the given unit id.
func (p *Player) HasInDeck(unitID string) bool {
	for _, id := range p.Deck {
		if id == unitID {
			return true
		}
	}
	return false
}

// DecaySpawnCooldowns reduces every pending cooldown by dtMs, floored at 0.
func (p *Player) DecaySpawnCooldowns(dtMs float64) {
	for id, remaining := range p.SpawnCooldowns {
		remaining -= dtMs
		if remaining <= 0 {
			delete(p.SpawnCooldowns, id)
		} else {
			p.SpawnCooldowns[id] = remaining
		}
	}
}

// SpawnCooldownRemaining returns the remaining delay for a unit id, or 0.
func (p *Player) SpawnCooldownRemaining(unitID string) float64 {
	return p.SpawnCooldowns[unitID]
}
