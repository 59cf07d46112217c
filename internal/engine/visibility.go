package engine

import (
	"github.com/tickforge/engine/internal/world"
)

// runVisibility refreshes every living entity's terrain and entity memory
// against its current vision range: {position -> last-seen-tick} terrain
// memory and (id, kind, last known stats, last-seen-tick, visible) entity
// memory. Goal scorers consult this memory instead of reaching into live
// world state, so it must be current at the snapshot each tick publishes.
func runVisibility(w *world.World, tick uint64) {
	w.AllEntities(func(e *world.Entity) {
		if e.Dead {
			return
		}
		others := w.Spatial.InRadius(e.Pos, e.VisionRange)
		currentlyVisible := make(map[uint64]struct{}, len(others))
		for _, id := range others {
			if id == e.ID {
				continue
			}
			other, ok := w.Entities[id]
			if !ok {
				continue
			}
			currentlyVisible[uint64(id)] = struct{}{}
			e.EntityMemory[id] = &world.MemoryEntry{
				ID:           id,
				Kind:         other.Kind,
				LastHP:       other.HP,
				LastMaxHP:    other.MaxHP,
				LastPosition: other.Pos,
				LastSeenTick: tick,
				Visible:      true,
			}
			e.TerrainMemory[other.Pos] = tick
		}
		for id, mem := range e.EntityMemory {
			if !w.Dir.Alive(id) {
				delete(e.EntityMemory, id)
				continue
			}
			if _, stillVisible := currentlyVisible[uint64(id)]; !stillVisible {
				mem.Visible = false
			}
		}
		e.TerrainMemory[e.Pos] = tick
	})
}
