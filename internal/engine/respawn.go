package engine

import (
	"sort"

	"github.com/tickforge/engine/internal/core/ecs"
	"github.com/tickforge/engine/internal/core/event"
	"github.com/tickforge/engine/internal/core/spatial"
	"github.com/tickforge/engine/internal/world"
)

// heroRespawnTicks and npcCorpseLingerTicks are copied onto the loop from
// config at construction. Both hero and NPC deaths linger as a corpse for
// their configured duration before Cleanup acts on them: a hero revives at
// its home position with full vitals, an NPC corpse is removed from the
// world. RespawnAt carries either meaning depending on e.Kind.
//
// Corpses are processed in ascending id order: two entities dying on the
// same tile the same tick must stack their loot into the pile in an order
// that does not depend on map iteration.
func runDeathCleanup(w *world.World, bus *event.Bus, heroRespawnTicks, npcCorpseLingerTicks uint64, tick uint64) {
	var dead []ecs.EntityID
	for id, e := range w.Entities {
		if e.Dead {
			dead = append(dead, id)
		}
	}
	sort.Slice(dead, func(i, j int) bool { return dead[i] < dead[j] })

	var toRemove []ecs.EntityID
	for _, id := range dead {
		e := w.Entities[id]
		if e.RespawnAt == 0 {
			if e.Kind == "hero" {
				e.RespawnAt = tick + heroRespawnTicks
			} else {
				e.RespawnAt = tick + npcCorpseLingerTicks
				dropCorpseLoot(w, e, tick)
			}
			continue
		}
		if tick < e.RespawnAt {
			continue
		}
		if e.Kind == "hero" {
			respawnHero(w, e, tick)
			event.Emit(bus, event.EntityRespawned{EntityID: e.ID, AtTick: tick})
			continue
		}
		toRemove = append(toRemove, id)
	}
	for _, id := range toRemove {
		w.RemoveEntity(id)
	}
}

// dropCorpseLoot spills a freshly dead NPC's carried items onto its tile,
// the tick its corpse is first seen by Cleanup. Heroes keep their inventory
// through respawn, so only non-hero corpses reach here.
func dropCorpseLoot(w *world.World, e *world.Entity, tick uint64) {
	if len(e.Inventory) == 0 {
		return
	}
	w.DropItems(e.Pos, e.Inventory)
	e.Inventory = nil
	w.RecordEvent(tick, "loot", "corpse dropped items", nil, e.ID)
}

func respawnHero(w *world.World, e *world.Entity, tick uint64) {
	e.Dead = false
	e.HP = e.MaxHP
	e.Stamina = 100
	e.StatusEffects = nil
	e.RespawnAt = 0
	e.NextActAt = tick + 1
	dest := sanctuaryTile(w, e)
	w.Spatial.Move(e.ID, e.Pos, dest)
	e.Pos = dest
}

// sanctuaryTile returns the hero's home tile, or the nearest free walkable
// tile when home is taken, scanning outward ring by ring in a fixed offset
// order so the choice is reproducible. A fully blocked neighborhood falls
// back to home; the occupancy invariant holds at the next tick boundary
// once the squatter moves.
func sanctuaryTile(w *world.World, e *world.Entity) spatial.Position {
	if free(w, e.Home) {
		return e.Home
	}
	for r := int32(1); r <= 8; r++ {
		for dx := -r; dx <= r; dx++ {
			dy := r - abs32(dx)
			for _, d := range []int32{dy, -dy} {
				pos := spatial.Position{X: e.Home.X + dx, Y: e.Home.Y + d}
				if free(w, pos) {
					return pos
				}
				if dy == 0 {
					break
				}
			}
		}
	}
	return e.Home
}

func free(w *world.World, pos spatial.Position) bool {
	tile, ok := w.TileAt(pos)
	return ok && tile.Walkable && !w.Spatial.IsOccupied(pos)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
