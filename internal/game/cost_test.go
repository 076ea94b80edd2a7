package game

import "testing"

func newCostPlayer() *Player {
	return NewPlayer("sess1", "", "Tester", nil, DefaultCastleHP)
}

// TestInitCost tests the level-1 starting state
func TestInitCost(t *testing.T) {
	p := newCostPlayer()

	if CostValue(p) != 200 {
		t.Errorf("Expected initial cost 200, got %d", CostValue(p))
	}
	if p.CostLevel != 1 {
		t.Errorf("Expected cost level 1, got %d", p.CostLevel)
	}
	if p.MaxCost != 1000 {
		t.Errorf("Expected max cost 1000, got %d", p.MaxCost)
	}
}

// TestUpdateCostRegen tests resource regeneration at the level-1 rate
func TestUpdateCostRegen(t *testing.T) {
	p := newCostPlayer()

	UpdateCost(p, 1000) // 1s at 100/s
	if CostValue(p) != 300 {
		t.Errorf("Expected cost 300 after 1s, got %d", CostValue(p))
	}
}

// TestUpdateCostZeroDelta tests that a zero delta is a no-op
func TestUpdateCostZeroDelta(t *testing.T) {
	p := newCostPlayer()

	before := p.Cost
	UpdateCost(p, 0)
	if p.Cost != before {
		t.Errorf("Expected cost unchanged, got %f -> %f", before, p.Cost)
	}
}

// TestUpdateCostCap tests that regen never exceeds the maximum
func TestUpdateCostCap(t *testing.T) {
	p := newCostPlayer()

	UpdateCost(p, 1000*1000) // way past the cap
	if CostValue(p) != p.MaxCost {
		t.Errorf("Expected cost capped at %d, got %d", p.MaxCost, CostValue(p))
	}
}

// TestSpendCost tests spending and the insufficient-funds no-op
func TestSpendCost(t *testing.T) {
	p := newCostPlayer()

	if !SpendCost(p, 150) {
		t.Fatal("Expected spend of 150 to succeed with 200 cost")
	}
	if CostValue(p) != 50 {
		t.Errorf("Expected 50 remaining, got %d", CostValue(p))
	}

	if SpendCost(p, 100) {
		t.Error("Expected spend of 100 to fail with 50 cost")
	}
	if CostValue(p) != 50 {
		t.Errorf("Failed spend must not change cost, got %d", CostValue(p))
	}
}

// TestSpendCostFloorsFractional tests that fractional cost never rounds a
// player into a purchase they cannot afford
func TestSpendCostFloorsFractional(t *testing.T) {
	p := newCostPlayer()
	p.Cost = 99.999

	if SpendCost(p, 100) {
		t.Error("99.999 cost must not afford a 100 purchase")
	}
}

// TestRefundCost tests the post-spend refund path
func TestRefundCost(t *testing.T) {
	p := newCostPlayer()

	SpendCost(p, 150)
	RefundCost(p, 150)
	if CostValue(p) != 200 {
		t.Errorf("Expected 200 after refund, got %d", CostValue(p))
	}
}

// TestUpgradeCost tests a full upgrade step
func TestUpgradeCost(t *testing.T) {
	p := newCostPlayer()
	p.Cost = 600

	if !CanUpgradeCost(p) {
		t.Fatal("Expected upgrade to be affordable with 600 cost at level 1")
	}
	if !UpgradeCost(p) {
		t.Fatal("Expected upgrade to succeed")
	}
	if p.CostLevel != 2 {
		t.Errorf("Expected level 2, got %d", p.CostLevel)
	}
	if p.MaxCost != 2500 {
		t.Errorf("Expected max cost 2500, got %d", p.MaxCost)
	}
	if CostValue(p) != 100 {
		t.Errorf("Expected 100 remaining after paying 500, got %d", CostValue(p))
	}
}

// TestUpgradeCostInsufficient tests that an unaffordable upgrade is a no-op
func TestUpgradeCostInsufficient(t *testing.T) {
	p := newCostPlayer()

	if CanUpgradeCost(p) {
		t.Error("200 cost must not afford the 500 level-1 upgrade")
	}
	if UpgradeCost(p) {
		t.Error("Expected upgrade to fail")
	}
	if p.CostLevel != 1 || CostValue(p) != 200 {
		t.Errorf("Failed upgrade must not mutate: level=%d cost=%d", p.CostLevel, CostValue(p))
	}
}

// TestUpgradeCostMaxLevel tests that level 8 cannot upgrade
func TestUpgradeCostMaxLevel(t *testing.T) {
	p := newCostPlayer()
	for i := 0; i < 7; i++ {
		p.Cost = float64(p.MaxCost)
		if !UpgradeCost(p) {
			t.Fatalf("Upgrade %d should succeed with full cost", i+1)
		}
	}
	if p.CostLevel != 8 {
		t.Fatalf("Expected level 8, got %d", p.CostLevel)
	}
	if p.MaxCost != 99999 {
		t.Errorf("Expected level-8 max 99999, got %d", p.MaxCost)
	}

	p.Cost = float64(p.MaxCost)
	if CanUpgradeCost(p) || UpgradeCost(p) {
		t.Error("Level 8 must not upgrade")
	}
}

// TestRegenRatePerLevel tests that regen uses the current level's rate
func TestRegenRatePerLevel(t *testing.T) {
	p := newCostPlayer()
	p.Cost = 600
	UpgradeCost(p)

	p.Cost = 0
	UpdateCost(p, 2000) // 2s at the level-2 rate of 150/s
	if CostValue(p) != 300 {
		t.Errorf("Expected 300 at level-2 rate, got %d", CostValue(p))
	}
}
