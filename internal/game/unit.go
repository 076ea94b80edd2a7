package game

import "github.com/rakansens/gardenwars-colyseus/internal/catalog"

// UnitState is a live unit's position in the combat state machine.
type UnitState int

const (
	UnitSpawn UnitState = iota
	UnitWalk
	UnitAttackWindup
	UnitAttackCooldown
	UnitHitstun
	UnitDie
)

func (s UnitState) String() string {
	switch s {
	case UnitSpawn:
		return "SPAWN"
	case UnitWalk:
		return "WALK"
	case UnitAttackWindup:
		return "ATTACK_WINDUP"
	case UnitAttackCooldown:
		return "ATTACK_COOLDOWN"
	case UnitHitstun:
		return "HITSTUN"
	case UnitDie:
		return "DIE"
	default:
		return "UNKNOWN"
	}
}

// Unit is a live entity on the lane. Created by a validated summon,
// removed by cleanup 500ms after entering DIE.
type Unit struct {
	InstanceID   string
	DefinitionID string
	Side         Side
	X            float64
	HP           float64
	MaxHP        float64
	State        UnitState
	StateTimerMs float64
	TargetID     string // instance id of current target, "" for none
	Width        float64

	// Cumulative damage taken since the last knockback, compared against
	// the 15% maxHp threshold.
	DamageAccumulated float64

	def          *catalog.UnitDefinition
	ownerSession string
}

// Alive reports whether the unit still participates in combat.
func (u *Unit) Alive() bool {
	return u.State != UnitDie
}

// HalfWidth is the unit's half extent on the lane.
func (u *Unit) HalfWidth() float64 {
	return u.Width / 2
}

// setState enters a new state and resets the state timer.
func (u *Unit) setState(s UnitState) {
	u.State = s
	u.StateTimerMs = 0
}

// edgeDistance is the gap between the bounding extents of two units along
// the lane. Negative when they overlap.
func edgeDistance(a, b *Unit) float64 {
	if a.X < b.X {
		return (b.X - b.HalfWidth()) - (a.X + a.HalfWidth())
	}
	return (a.X - a.HalfWidth()) - (b.X + b.HalfWidth())
}

// isInRange reports whether target is within attacker's attack range,
// edge to edge.
func isInRange(attacker, target *Unit) bool {
	return edgeDistance(attacker, target) <= attacker.def.AttackRange
}
