package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/rakansens/gardenwars-colyseus/internal/catalog"
)

// Lane geometry and combat timing constants.
const (
	// DefaultStageLength is the lane length in pixels.
	DefaultStageLength = 1200.0

	// DefaultCastleHP is each player's starting life pool.
	DefaultCastleHP = 5000.0

	// castleOffset is the castle distance from its own lane end:
	// player 1's castle sits at x=80, player 2's at stageLength-80.
	castleOffset = 80.0

	// spawnOffset places new units 50px inward of their own castle.
	spawnOffset = 50.0

	// laneMin / lane max padding clamp every unit to [80, stageLength-30].
	laneMinX      = 80.0
	laneMaxPad    = 30.0
	sameSideGap   = 30.0
	spawnDelayMs  = 300.0
	hitstunMs     = 200.0
	dieLingerMs   = 500.0
	targetPad     = 20.0  // targeting searches attackRange+20 by edge distance
	knockbackFrac = 0.15  // cumulative damage fraction that triggers knockback
	blockFactor   = 0.5   // enemy blocking distance factor on combined half-widths
	crowdFactor   = 0.6   // same-side crowding distance factor
)

// Spawn failures. Command validation upstream makes these unreachable for
// well-behaved input; they guard the simulator's own contract.
var (
	ErrUnknownUnit = errors.New("combat: unknown unit definition")
	ErrUnknownSide = errors.New("combat: player has no side assigned")
)

// Simulator advances the battle state with fixed-order, delta-driven
// steps. It is owned by exactly one room and never reentered concurrently;
// it borrows the room state for the duration of a call.
type Simulator struct {
	state        *State
	catalog      *catalog.Catalog
	nextInstance int
}

// NewSimulator creates a simulator bound to a room state.
func NewSimulator(state *State, cat *catalog.Catalog) *Simulator {
	return &Simulator{state: state, catalog: cat}
}

// SpawnUnit creates a unit for the owning player just inside their castle
// and returns the new instance. The caller has already validated deck,
// cooldown and cost.
func (sim *Simulator) SpawnUnit(owner *Player, unitID string) (*Unit, error) {
	def := sim.catalog.Lookup(unitID)
	if def == nil {
		return nil, ErrUnknownUnit
	}
	if owner.Side != SidePlayer1 && owner.Side != SidePlayer2 {
		return nil, ErrUnknownSide
	}

	sim.nextInstance++
	u := &Unit{
		InstanceID:   fmt.Sprintf("unit_%s_%d", unitID, sim.nextInstance),
		DefinitionID: unitID,
		Side:         owner.Side,
		X:            sim.state.CastleX(owner.Side) + spawnOffset*owner.Side.Direction(),
		HP:           def.MaxHP,
		MaxHP:        def.MaxHP,
		State:        UnitSpawn,
		Width:        def.Width(),
		def:          def,
		ownerSession: owner.SessionID,
	}
	sim.state.addUnit(u)
	return u, nil
}

// Update advances combat by dtMs. Step order is fixed: per-unit state
// machine, same-side collision resolution, targeting, cleanup, win check.
func (sim *Simulator) Update(dtMs float64) {
	units := sim.state.orderedUnits()

	for _, u := range units {
		u.StateTimerMs += dtMs
		if u.State == UnitDie {
			continue
		}
		sim.stepUnit(u, dtMs, units)
	}

	sim.resolveSameSideCollisions(units)
	sim.assignTargets(units)
	sim.cleanup()
	sim.checkWin()
}

func (sim *Simulator) stepUnit(u *Unit, dtMs float64, units []*Unit) {
	switch u.State {
	case UnitSpawn:
		if u.StateTimerMs >= spawnDelayMs {
			u.setState(UnitWalk)
		}

	case UnitWalk:
		if target := sim.liveTarget(u); target != nil && isInRange(u, target) {
			u.setState(UnitAttackWindup)
			return
		}
		if sim.inCastleRange(u) {
			u.setState(UnitAttackWindup)
			return
		}
		if sim.isBlockedByEnemy(u, units) {
			return // hold position, re-evaluate attacks next tick
		}
		u.X += u.def.Speed * (dtMs / 1000) * u.Side.Direction()
		if u.Side == SidePlayer1 {
			u.X = math.Min(u.X, sim.state.StageLength-laneMaxPad)
		} else {
			u.X = math.Max(u.X, laneMinX)
		}

	case UnitAttackWindup:
		if u.StateTimerMs >= u.def.AttackWindupMs {
			sim.resolveDamage(u)
			u.setState(UnitAttackCooldown)
		}

	case UnitAttackCooldown:
		if u.StateTimerMs >= u.def.AttackCooldownMs {
			if target := sim.liveTarget(u); target != nil && isInRange(u, target) {
				u.setState(UnitAttackWindup)
			} else if sim.inCastleRange(u) {
				u.setState(UnitAttackWindup)
			} else {
				u.TargetID = ""
				u.setState(UnitWalk)
			}
		}

	case UnitHitstun:
		if u.StateTimerMs >= hitstunMs {
			u.setState(UnitWalk)
		}
	}
}

// liveTarget resolves the unit's current target if it is still on the
// field and alive.
func (sim *Simulator) liveTarget(u *Unit) *Unit {
	if u.TargetID == "" {
		return nil
	}
	target, ok := sim.state.Units[u.TargetID]
	if !ok || !target.Alive() {
		return nil
	}
	return target
}

// inCastleRange reports whether the unit's leading edge is within attack
// range of the enemy castle.
func (sim *Simulator) inCastleRange(u *Unit) bool {
	enemyCastleX := sim.state.CastleX(u.Side.Opposite())
	var dist float64
	if u.Side == SidePlayer1 {
		dist = enemyCastleX - (u.X + u.HalfWidth())
	} else {
		dist = (u.X - u.HalfWidth()) - enemyCastleX
	}
	return dist <= u.def.AttackRange
}

// isBlockedByEnemy reports whether an enemy unit directly ahead stops
// this unit from advancing.
func (sim *Simulator) isBlockedByEnemy(u *Unit, units []*Unit) bool {
	for _, other := range units {
		if other.Side == u.Side || !other.Alive() {
			continue
		}
		inFront := (u.Side == SidePlayer1 && other.X > u.X) ||
			(u.Side == SidePlayer2 && other.X < u.X)
		if !inFront {
			continue
		}
		blockDist := (u.Width+other.Width)/2*blockFactor + sameSideGap
		if edgeDistance(u, other) < blockDist {
			return true
		}
	}
	return false
}

// resolveDamage applies the attack committed at windup start. A unit whose
// target died mid-windup deals no unit damage; it hits the castle instead
// only if it is in castle range.
func (sim *Simulator) resolveDamage(attacker *Unit) {
	if target := sim.liveTarget(attacker); target != nil {
		sim.damageUnit(attacker, target)
		return
	}
	if sim.inCastleRange(attacker) {
		enemy := sim.state.PlayerOnSide(attacker.Side.Opposite())
		if enemy != nil {
			enemy.CastleHP -= attacker.def.AttackDamage
			if enemy.CastleHP < 0 {
				enemy.CastleHP = 0
			}
		}
	}
}

func (sim *Simulator) damageUnit(attacker, target *Unit) {
	target.HP -= attacker.def.AttackDamage
	target.DamageAccumulated += attacker.def.AttackDamage

	if target.HP <= 0 {
		target.HP = 0
		target.setState(UnitDie)
		if owner := sim.state.PlayerBySession(attacker.ownerSession); owner != nil {
			owner.Kills++
		}
		return
	}

	sim.applyKnockback(target)
}

// applyKnockback displaces a surviving non-boss unit once its cumulative
// damage crosses 15% of max HP, then stuns it.
func (sim *Simulator) applyKnockback(target *Unit) {
	if target.def.IsBoss {
		return
	}
	if target.DamageAccumulated < target.MaxHP*knockbackFrac {
		return
	}
	target.DamageAccumulated = 0
	target.X -= target.def.Knockback * target.Side.Direction()
	target.X = clampLane(target.X, laneMinX, sim.state.StageLength-laneMaxPad)
	target.setState(UnitHitstun)
}

// assignTargets keeps valid targets and recomputes the rest: nearest enemy
// in front wins, then nearest in any direction, searched attackRange+20 by
// edge distance. Ties resolve by spawn order.
func (sim *Simulator) assignTargets(units []*Unit) {
	for _, u := range units {
		if !u.Alive() {
			continue
		}
		if target := sim.liveTarget(u); target != nil && isInRange(u, target) {
			continue
		}
		u.TargetID = ""

		searchRange := u.def.AttackRange + targetPad
		var bestFront, bestAny *Unit
		var bestFrontDist, bestAnyDist float64

		for _, enemy := range units {
			if enemy.Side == u.Side || !enemy.Alive() {
				continue
			}
			dist := edgeDistance(u, enemy)
			if dist > searchRange {
				continue
			}
			inFront := (u.Side == SidePlayer1 && enemy.X > u.X) ||
				(u.Side == SidePlayer2 && enemy.X < u.X)
			if inFront && (bestFront == nil || dist < bestFrontDist) {
				bestFront, bestFrontDist = enemy, dist
			}
			if bestAny == nil || dist < bestAnyDist {
				bestAny, bestAnyDist = enemy, dist
			}
		}

		if bestFront != nil {
			u.TargetID = bestFront.InstanceID
		} else if bestAny != nil {
			u.TargetID = bestAny.InstanceID
		}
	}
}

// resolveSameSideCollisions spreads crowded friendly units apart. Each
// unit of an overlapping pair moves a quarter of the overlap outward, then
// clamps to its side's half of the lane.
func (sim *Simulator) resolveSameSideCollisions(units []*Unit) {
	for i := 0; i < len(units); i++ {
		a := units[i]
		if !a.Alive() {
			continue
		}
		for j := i + 1; j < len(units); j++ {
			b := units[j]
			if !b.Alive() || a.Side != b.Side {
				continue
			}

			dist := math.Abs(a.X - b.X)
			minDist := (a.Width+b.Width)/2*crowdFactor + sameSideGap
			if dist >= minDist || dist == 0 {
				continue
			}

			push := (minDist - dist) / 4
			if a.X < b.X {
				a.X -= push
				b.X += push
			} else {
				a.X += push
				b.X -= push
			}
			sim.clampToOwnHalf(a)
			sim.clampToOwnHalf(b)
		}
	}
}

func (sim *Simulator) clampToOwnHalf(u *Unit) {
	if u.Side == SidePlayer1 {
		u.X = clampLane(u.X, sim.state.CastleX(SidePlayer1)+sameSideGap, sim.state.StageLength-laneMaxPad)
	} else {
		u.X = clampLane(u.X, laneMinX, sim.state.CastleX(SidePlayer2)-sameSideGap)
	}
}

func clampLane(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// cleanup removes corpses that have lingered in DIE for 500ms.
func (sim *Simulator) cleanup() {
	for _, id := range append([]string(nil), sim.state.unitOrder...) {
		u := sim.state.Units[id]
		if u != nil && u.State == UnitDie && u.StateTimerMs >= dieLingerMs {
			sim.state.removeUnit(id)
		}
	}
}

// checkWin finishes the match when a castle falls. When both fall on the
// same tick, player 1's castle is checked first so player 2 wins.
func (sim *Simulator) checkWin() {
	if sim.state.Phase != PhasePlaying {
		return
	}
	p1 := sim.state.PlayerOnSide(SidePlayer1)
	p2 := sim.state.PlayerOnSide(SidePlayer2)
	if p1 == nil || p2 == nil {
		return
	}
	if p1.CastleHP <= 0 {
		sim.state.Phase = PhaseFinished
		sim.state.WinnerID = p2.SessionID
		sim.state.WinReason = WinReasonCastleDestroyed
	} else if p2.CastleHP <= 0 {
		sim.state.Phase = PhaseFinished
		sim.state.WinnerID = p1.SessionID
		sim.state.WinReason = WinReasonCastleDestroyed
	}
}
