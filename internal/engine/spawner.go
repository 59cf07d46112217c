package engine

import (
	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/core/spatial"
	"github.com/tickforge/engine/internal/world"
)

// runSpawner adds at most one wildlife entity per call while the world holds
// fewer than maxEntities, at a position chosen deterministically by the Spawn
// domain RNG stream; it adds none when that tile is unwalkable or occupied.
// Registered as a
// Cleanup-phase system.Task gated by the spawner's configured divisor.
func runSpawner(w *world.World, src *rng.Source, maxEntities int, tick uint64) {
	if len(w.Entities) >= maxEntities {
		return
	}
	x, _ := src.NextInt(rng.Spawn, tick, tick, 0, 0, int64(w.Grid.Width-1))
	y, _ := src.NextInt(rng.Spawn, tick, tick, 1, 0, int64(w.Grid.Height-1))
	pos := spatial.Position{X: int32(x), Y: int32(y)}

	tile, ok := w.TileAt(pos)
	if !ok || !tile.Walkable || w.Spatial.IsOccupied(pos) {
		return
	}

	id := w.Dir.CreateEntity()
	e := world.NewEntity(id, "wildlife", pos)
	e.HP, e.MaxHP = 30, 30
	e.ATK, e.DEF = 5, 2
	e.SPD = 10
	e.VisionRange = 6
	e.NextActAt = tick + 1
	w.AddEntity(e)
	w.RecordEvent(tick, "spawn", "entity spawned", nil, id)
}
