// Package spatial implements the world's O(1) occupancy and neighbor
// index, keyed at exact tile granularity: the engine needs exact occupancy
// ("is this tile occupied right now"), not an approximate visibility
// bucket.
package spatial

import "github.com/tickforge/engine/internal/core/ecs"

// Position is an integer tile coordinate.
type Position struct {
	X, Y int32
}

// Manhattan returns the L1 distance between two positions, the engine's
// canonical adjacency metric.
func Manhattan(a, b Position) int32 {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Index maps tile positions to the set of entities occupying them.
// Maintained incrementally by Insert/Remove/Move; every live entity is
// present exactly once.
type Index struct {
	byPos map[Position]map[ecs.EntityID]struct{}
	byID  map[ecs.EntityID]Position
}

func NewIndex() *Index {
	return &Index{
		byPos: make(map[Position]map[ecs.EntityID]struct{}, 1024),
		byID:  make(map[ecs.EntityID]Position, 1024),
	}
}

func (idx *Index) Insert(id ecs.EntityID, pos Position) {
	if old, ok := idx.byID[id]; ok {
		idx.removeFromCell(old, id)
	}
	idx.byID[id] = pos
	idx.addToCell(pos, id)
}

func (idx *Index) Remove(id ecs.EntityID) {
	pos, ok := idx.byID[id]
	if !ok {
		return
	}
	idx.removeFromCell(pos, id)
	delete(idx.byID, id)
}

// Move relocates id from old to new. Callers must supply the index's own
// notion of "old" position (via PositionOf) to stay consistent; the tick
// loop calls this from within a single handler apply, never concurrently.
func (idx *Index) Move(id ecs.EntityID, old, new Position) {
	idx.removeFromCell(old, id)
	idx.byID[id] = new
	idx.addToCell(new, id)
}

// At returns the ids occupying pos.
func (idx *Index) At(pos Position) []ecs.EntityID {
	cell, ok := idx.byPos[pos]
	if !ok {
		return nil
	}
	out := make([]ecs.EntityID, 0, len(cell))
	for id := range cell {
		out = append(out, id)
	}
	return out
}

// IsOccupied reports whether any entity currently sits at pos.
func (idx *Index) IsOccupied(pos Position) bool {
	cell, ok := idx.byPos[pos]
	return ok && len(cell) > 0
}

// PositionOf returns the tracked position of id, if present.
func (idx *Index) PositionOf(id ecs.EntityID) (Position, bool) {
	p, ok := idx.byID[id]
	return p, ok
}

// InRadius returns every id within Manhattan distance r of center, scanning
// the bounding diamond's candidate cells directly rather than a 3x3
// neighbor-cell sweep, since the index is keyed at exact tile granularity.
func (idx *Index) InRadius(center Position, r int32) []ecs.EntityID {
	if r < 0 {
		return nil
	}
	var out []ecs.EntityID
	for dx := -r; dx <= r; dx++ {
		remaining := r - abs32(dx)
		for dy := -remaining; dy <= remaining; dy++ {
			pos := Position{X: center.X + dx, Y: center.Y + dy}
			if cell, ok := idx.byPos[pos]; ok {
				for id := range cell {
					out = append(out, id)
				}
			}
		}
	}
	return out
}

// Nearest returns the closest id (by Manhattan distance) satisfying
// predicate, expanding the search radius ring by ring up to maxRadius.
func (idx *Index) Nearest(center Position, maxRadius int32, predicate func(ecs.EntityID) bool) (ecs.EntityID, bool) {
	for r := int32(0); r <= maxRadius; r++ {
		candidates := idx.ringAt(center, r)
		var best ecs.EntityID
		found := false
		for _, id := range candidates {
			if predicate(id) {
				if !found || id < best {
					best, found = id, true
				}
			}
		}
		if found {
			return best, true
		}
	}
	return 0, false
}

// ringAt returns ids at exactly Manhattan distance r (r=0 means center).
func (idx *Index) ringAt(center Position, r int32) []ecs.EntityID {
	if r == 0 {
		return idx.At(center)
	}
	var out []ecs.EntityID
	for dx := -r; dx <= r; dx++ {
		dy := r - abs32(dx)
		for _, d := range uniqueDy(dy) {
			pos := Position{X: center.X + dx, Y: center.Y + d}
			out = append(out, idx.At(pos)...)
		}
	}
	return out
}

func uniqueDy(dy int32) []int32 {
	if dy == 0 {
		return []int32{0}
	}
	return []int32{dy, -dy}
}

// Rebuild discards all tracked state and re-derives it from source, a
// defensive measure run lazily at tick start if a mismatch is detected —
// not a correctness mechanism, since Insert/Remove/Move keep the index
// consistent on every mutating operation.
func (idx *Index) Rebuild(source map[ecs.EntityID]Position) {
	idx.byPos = make(map[Position]map[ecs.EntityID]struct{}, len(source))
	idx.byID = make(map[ecs.EntityID]Position, len(source))
	for id, pos := range source {
		idx.Insert(id, pos)
	}
}

// Consistent reports whether the index's tracked positions agree with
// source; used by the tick loop's defensive check at tick start.
func (idx *Index) Consistent(source map[ecs.EntityID]Position) bool {
	if len(source) != len(idx.byID) {
		return false
	}
	for id, pos := range source {
		got, ok := idx.byID[id]
		if !ok || got != pos {
			return false
		}
	}
	return true
}

func (idx *Index) addToCell(pos Position, id ecs.EntityID) {
	cell, ok := idx.byPos[pos]
	if !ok {
		cell = make(map[ecs.EntityID]struct{}, 1)
		idx.byPos[pos] = cell
	}
	cell[id] = struct{}{}
}

func (idx *Index) removeFromCell(pos Position, id ecs.EntityID) {
	cell, ok := idx.byPos[pos]
	if !ok {
		return
	}
	delete(cell, id)
	if len(cell) == 0 {
		delete(idx.byPos, pos)
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
