package game

import "math"

// Cost system tuning. Indexed by costLevel-1 throughout.
var (
	costMaxLevels    = [8]int{1000, 2500, 4500, 7000, 10000, 15000, 25000, 99999}
	costUpgradePrice = [7]int{500, 1200, 2500, 4500, 8000, 12000, 20000}
	costRegenRates   = [8]float64{100, 150, 250, 400, 600, 900, 1500, 2500} // per second
)

const (
	initialCost  = 200
	maxCostLevel = 8
)

// InitCost resets a player to the level-1 resource state.
func InitCost(p *Player) {
	p.Cost = initialCost
	p.CostLevel = 1
	p.MaxCost = costMaxLevels[0]
}

// UpdateCost regenerates the player's resource for an elapsed dtMs,
// capped at the current maximum.
func UpdateCost(p *Player, dtMs float64) {
	if dtMs <= 0 {
		return
	}
	p.Cost += costRegenRates[p.CostLevel-1] * dtMs / 1000
	if p.Cost > float64(p.MaxCost) {
		p.Cost = float64(p.MaxCost)
	}
}

// CostValue is the integer resource amount clients see and spending
// compares against. Flooring here keeps fractional regen from rounding a
// player into insufficient funds.
func CostValue(p *Player) int {
	return int(math.Floor(p.Cost))
}

// CanAfford reports whether the player has at least amount resource.
func CanAfford(p *Player, amount int) bool {
	return CostValue(p) >= amount
}

// SpendCost subtracts amount if affordable. Returns false and leaves the
// player untouched otherwise.
func SpendCost(p *Player, amount int) bool {
	if !CanAfford(p, amount) {
		return false
	}
	p.Cost -= float64(amount)
	if p.Cost < 0 {
		p.Cost = 0
	}
	return true
}

// RefundCost returns a previously spent amount, capped at the maximum.
func RefundCost(p *Player, amount int) {
	p.Cost += float64(amount)
	if p.Cost > float64(p.MaxCost) {
		p.Cost = float64(p.MaxCost)
	}
}

// CanUpgradeCost reports whether the player can buy the next cost level.
func CanUpgradeCost(p *Player) bool {
	return p.CostLevel < maxCostLevel && CanAfford(p, costUpgradePrice[p.CostLevel-1])
}

// UpgradeCost buys the next cost level: subtracts the upgrade price,
// bumps the level and raises the resource cap. No-op when not allowed.
func UpgradeCost(p *Player) bool {
	if !CanUpgradeCost(p) {
		return false
	}
	p.Cost -= float64(costUpgradePrice[p.CostLevel-1])
	if p.Cost < 0 {
		p.Cost = 0
	}
	p.CostLevel++
	p.MaxCost = costMaxLevels[p.CostLevel-1]
	return true
}
