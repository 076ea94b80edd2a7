// Package catalog holds the read-only unit master data.
// Definitions are loaded once from an embedded JSON file at process start
// and shared across every room; nothing mutates them afterwards.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed units.json
var unitsJSON []byte

// Rarity of a unit, lowest to highest.
type Rarity string

const (
	RarityN   Rarity = "N"
	RarityR   Rarity = "R"
	RaritySR  Rarity = "SR"
	RaritySSR Rarity = "SSR"
	RarityUR  Rarity = "UR"
)

// DefaultSpawnCooldownMs returns the rarity-derived spawn cooldown used
// when a definition does not set its own.
func (r Rarity) DefaultSpawnCooldownMs() float64 {
	switch r {
	case RarityN:
		return 2000
	case RarityR:
		return 4000
	case RaritySR:
		return 6000
	case RaritySSR:
		return 8000
	case RarityUR:
		return 10000
	default:
		return 3000
	}
}

// BaseUnitWidth is the on-lane width of a unit with scale 1.0, in pixels.
const BaseUnitWidth = 60.0

// UnitDefinition is an immutable catalog entry.
type UnitDefinition struct {
	ID               string  `json:"id"`
	Rarity           Rarity  `json:"rarity"`
	Cost             int     `json:"cost"`
	MaxHP            float64 `json:"maxHp"`
	Speed            float64 `json:"speed"` // pixels per second
	AttackDamage     float64 `json:"attackDamage"`
	AttackRange      float64 `json:"attackRange"` // pixels, edge to edge
	AttackCooldownMs float64 `json:"attackCooldownMs"`
	AttackWindupMs   float64 `json:"attackWindupMs"`
	SpawnCooldownMs  float64 `json:"spawnCooldownMs,omitempty"` // 0 = rarity default
	Knockback        float64 `json:"knockback"`                 // pixels
	IsBoss           bool    `json:"isBoss,omitempty"`
	Scale            float64 `json:"scale,omitempty"` // width multiplier, 0 = 1.0
}

// Width returns the unit's width on the lane.
func (d *UnitDefinition) Width() float64 {
	scale := d.Scale
	if scale == 0 {
		scale = 1.0
	}
	return BaseUnitWidth * scale
}

// EffectiveSpawnCooldownMs resolves the per-definition spawn cooldown,
// falling back to the rarity default.
func (d *UnitDefinition) EffectiveSpawnCooldownMs() float64 {
	if d.SpawnCooldownMs > 0 {
		return d.SpawnCooldownMs
	}
	return d.Rarity.DefaultSpawnCooldownMs()
}

// Catalog is the process-wide unit definition lookup.
type Catalog struct {
	defs map[string]*UnitDefinition
}

// Load parses the embedded master data. Called once from main.
func Load() (*Catalog, error) {
	return loadFrom(unitsJSON)
}

func loadFrom(data []byte) (*Catalog, error) {
	var list []*UnitDefinition
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("catalog: parse units: %w", err)
	}
	return New(list)
}

// New builds a catalog from already-decoded definitions, applying the
// same validation as the embedded master data.
func New(list []*UnitDefinition) (*Catalog, error) {
	defs := make(map[string]*UnitDefinition, len(list))
	for _, d := range list {
		if d.ID == "" {
			return nil, fmt.Errorf("catalog: entry with empty id")
		}
		if _, dup := defs[d.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate unit id %q", d.ID)
		}
		if d.Cost < 0 {
			return nil, fmt.Errorf("catalog: unit %q has negative cost", d.ID)
		}
		defs[d.ID] = d
	}
	return &Catalog{defs: defs}, nil
}

// Lookup returns the definition for id, or nil if unknown.
func (c *Catalog) Lookup(id string) *UnitDefinition {
	return c.defs[id]
}

// IsValid reports whether id names a known unit.
func (c *Catalog) IsValid(id string) bool {
	_, ok := c.defs[id]
	return ok
}

// Size returns the number of definitions loaded.
func (c *Catalog) Size() int {
	return len(c.defs)
}
