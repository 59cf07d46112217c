package world

import "github.com/tickforge/engine/internal/core/spatial"

// GroundItemPile is created on death or drop and consumed by loot handlers.
type GroundItemPile struct {
	Pos   spatial.Position
	Items []uint64
}

// Clone returns a value copy of p with its own backing items slice, so a
// snapshot reader never aliases storage the live world could later mutate.
func (p *GroundItemPile) Clone() GroundItemPile {
	return GroundItemPile{
		Pos:   p.Pos,
		Items: append([]uint64(nil), p.Items...),
	}
}

// Building is a static, content-opaque structure occupying the grid.
type Building struct {
	ID   uint64
	Pos  spatial.Position
	Kind string
}

// ResourceNode is a harvestable content-opaque node (ore vein, tree, ...).
type ResourceNode struct {
	ID        uint64
	Pos       spatial.Position
	Kind      string
	Remaining int32
}

// TerritoryEffect is a passive per-tick effect applied to entities standing
// within a Region (hostile-in-town damage, passive regen bonus, ...).
type TerritoryEffect struct {
	Kind           string
	HPDeltaPerTick int32
	AppliesTo      string // faction tag, or "" for all
}

// Region is a named rectangular area of the grid carrying an optional
// territory effect, ticked at the environment cadence.
type Region struct {
	ID         uint64
	Name       string
	MinX, MinY int32
	MaxX, MaxY int32
	Effect     *TerritoryEffect
}

func (r *Region) contains(pos spatial.Position) bool {
	return pos.X >= r.MinX && pos.X <= r.MaxX && pos.Y >= r.MinY && pos.Y <= r.MaxY
}

// Clone returns a value copy of r with its own TerritoryEffect, so a
// snapshot reader never aliases storage the live world could later mutate.
func (r *Region) Clone() Region {
	out := *r
	if r.Effect != nil {
		eff := *r.Effect
		out.Effect = &eff
	}
	return out
}
