package game

// Phase is a room's lifecycle stage. It only ever advances:
// waiting -> countdown -> playing -> finished.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhaseFinished  Phase = "finished"
)

// State is the authoritative room state. The room's serial loop is the
// only writer; the combat simulator borrows it for the duration of a tick.
type State struct {
	Phase       Phase
	GameTimeMs  float64
	Countdown   int
	StageLength float64

	// Players in join order: index 0 is player 1, index 1 is player 2.
	Players []*Player

	// Units by instance id, plus a stable insertion-order index so the
	// pairwise loops and tie-breaks are deterministic.
	Units     map[string]*Unit
	unitOrder []string

	WinnerID  string
	WinReason string
}

// NewState creates an empty waiting-room state.
func NewState(stageLength float64) *State {
	return &State{
		Phase:       PhaseWaiting,
		StageLength: stageLength,
		Units:       make(map[string]*Unit),
	}
}

// CastleX is the castle position for a side.
func (s *State) CastleX(side Side) float64 {
	if side == SidePlayer2 {
		return s.StageLength - castleOffset
	}
	return castleOffset
}

// PlayerBySession returns the player for a session id, or nil.
func (s *State) PlayerBySession(sessionID string) *Player {
	for _, p := range s.Players {
		if p.SessionID == sessionID {
			return p
		}
	}
	return nil
}

// PlayerOnSide returns the player fighting on the given side, or nil.
func (s *State) PlayerOnSide(side Side) *Player {
	for _, p := range s.Players {
		if p.Side == side {
			return p
		}
	}
	return nil
}

// Opponent returns the other player, or nil while the room is short-handed.
func (s *State) Opponent(sessionID string) *Player {
	for _, p := range s.Players {
		if p.SessionID != sessionID {
			return p
		}
	}
	return nil
}

// addUnit registers a spawned unit preserving insertion order.
func (s *State) addUnit(u *Unit) {
	s.Units[u.InstanceID] = u
	s.unitOrder = append(s.unitOrder, u.InstanceID)
}

// removeUnit deletes a unit from both the map and the order index.
func (s *State) removeUnit(instanceID string) {
	delete(s.Units, instanceID)
	for i, id := range s.unitOrder {
		if id == instanceID {
			s.unitOrder = append(s.unitOrder[:i], s.unitOrder[i+1:]...)
			break
		}
	}
}

// orderedUnits returns live pointers in spawn order. The returned slice
// is rebuilt per call; callers iterate it within a single tick only.
func (s *State) orderedUnits() []*Unit {
	units := make([]*Unit, 0, len(s.unitOrder))
	for _, id := range s.unitOrder {
		if u, ok := s.Units[id]; ok {
			units = append(units, u)
		}
	}
	return units
}
