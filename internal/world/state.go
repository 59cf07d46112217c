package world

import (
	"fmt"
	"sort"

	"github.com/tickforge/engine/internal/core/ecs"
	"github.com/tickforge/engine/internal/core/event"
	"github.com/tickforge/engine/internal/core/spatial"
)

// World is the single authoritative mutable store. It is owned exclusively
// by the tick loop goroutine; every method here runs on that goroutine only.
type World struct {
	Dir      *ecs.Directory
	Entities map[ecs.EntityID]*Entity
	Grid     *Grid
	Spatial  *spatial.Index

	GroundItems   map[spatial.Position]*GroundItemPile
	Buildings     map[uint64]*Building
	ResourceNodes map[uint64]*ResourceNode
	Regions       map[uint64]*Region

	Events *event.Ring

	threat *ecs.PtrComponentStore[map[ecs.EntityID]int64]

	spawnedThisTick int
	diedThisTick    int
}

func NewWorld(width, height int32, eventCapacity int) *World {
	dir := ecs.NewDirectory()
	threat := ecs.NewPtrComponentStore[map[ecs.EntityID]int64]()
	dir.Registry().Register(threat)

	return &World{
		Dir:           dir,
		Entities:      make(map[ecs.EntityID]*Entity, 256),
		Grid:          NewGrid(width, height, Floor),
		Spatial:       spatial.NewIndex(),
		GroundItems:   make(map[spatial.Position]*GroundItemPile),
		Buildings:     make(map[uint64]*Building),
		ResourceNodes: make(map[uint64]*ResourceNode),
		Regions:       make(map[uint64]*Region),
		Events:        event.NewRing(eventCapacity),
		threat:        threat,
	}
}

// AddEntity registers a fully constructed entity and indexes its position.
func (w *World) AddEntity(e *Entity) {
	w.Entities[e.ID] = e
	w.Spatial.Insert(e.ID, e.Pos)
	w.spawnedThisTick++
}

// ConsumeTickCounters returns the number of entities added/newly-killed
// since the last call and resets both to zero. Called once per tick by the
// tick loop so Manager's spawn/death stats count exact transitions rather
// than a before/after entity-count delta, which would hide a spawn and a
// death that both happened within the same tick.
func (w *World) ConsumeTickCounters() (spawned, died int) {
	spawned, died = w.spawnedThisTick, w.diedThisTick
	w.spawnedThisTick, w.diedThisTick = 0, 0
	return spawned, died
}

// RemoveEntity drops an entity and its spatial entry immediately and queues
// its side-table cleanup for the directory's destroy-queue flush at the end
// of Cleanup. Used by Cleanup after loot/death events have already fired;
// callers that need the "linger as a corpse" behavior should not call this
// until the corpse-linger countdown elapses.
func (w *World) RemoveEntity(id ecs.EntityID) {
	w.Spatial.Remove(id)
	delete(w.Entities, id)
	w.Dir.MarkForDestruction(id)
}

// MoveEntity relocates a live entity, keeping the spatial index consistent.
func (w *World) MoveEntity(id ecs.EntityID, to spatial.Position) error {
	e, ok := w.Entities[id]
	if !ok {
		return fmt.Errorf("world: move_entity: unknown entity %d", id)
	}
	from := e.Pos
	e.Pos = to
	w.Spatial.Move(id, from, to)
	return nil
}

// ApplyDamage subtracts dmg from the entity's hp, clamped to [0, max_hp],
// and marks it dead when it reaches zero. It never itself removes the
// entity — death handling (loot drop, event, respawn/removal) runs in
// Cleanup.
func (w *World) ApplyDamage(id ecs.EntityID, dmg int32, tick uint64) error {
	e, ok := w.Entities[id]
	if !ok {
		return fmt.Errorf("world: apply_damage: unknown entity %d", id)
	}
	if dmg < 0 {
		dmg = 0
	}
	e.HP -= dmg
	if e.HP < 0 {
		e.HP = 0
	}
	if e.HP == 0 && !e.Dead {
		e.Dead = true
		w.diedThisTick++
	}
	return nil
}

// DropItems creates or appends to a ground pile at pos.
func (w *World) DropItems(pos spatial.Position, items []uint64) {
	if len(items) == 0 {
		return
	}
	pile, ok := w.GroundItems[pos]
	if !ok {
		pile = &GroundItemPile{Pos: pos}
		w.GroundItems[pos] = pile
	}
	pile.Items = append(pile.Items, items...)
}

// PickUpItems transfers up to capacity items from the pile at pos into the
// entity's inventory, returning the items actually taken. The pile is
// removed once emptied.
func (w *World) PickUpItems(id ecs.EntityID, pos spatial.Position) ([]uint64, error) {
	e, ok := w.Entities[id]
	if !ok {
		return nil, fmt.Errorf("world: pick_up_items: unknown entity %d", id)
	}
	pile, ok := w.GroundItems[pos]
	if !ok || len(pile.Items) == 0 {
		return nil, nil
	}
	room := e.BagCapacity - len(e.Inventory)
	if room <= 0 {
		return nil, nil
	}
	n := len(pile.Items)
	if n > room {
		n = room
	}
	taken := pile.Items[:n]
	pile.Items = pile.Items[n:]
	e.Inventory = append(e.Inventory, taken...)
	if len(pile.Items) == 0 {
		delete(w.GroundItems, pos)
	}
	return taken, nil
}

// AttachEffect appends a status effect to the entity's active list.
func (w *World) AttachEffect(id ecs.EntityID, eff StatusEffect) error {
	e, ok := w.Entities[id]
	if !ok {
		return fmt.Errorf("world: attach_effect: unknown entity %d", id)
	}
	e.StatusEffects = append(e.StatusEffects, eff)
	return nil
}

// AdvanceEffects ticks every entity's hp-per-tick delta, decrements
// remaining_ticks, and drops expired effects. It also decrements every known
// skill's cooldown by one, the same per-tick idiom. Run once per tick in
// Cleanup.
func (w *World) AdvanceEffects(tick uint64) {
	for id, e := range w.Entities {
		if len(e.StatusEffects) > 0 {
			kept := e.StatusEffects[:0]
			for _, eff := range e.StatusEffects {
				if eff.HPDeltaPerTick != 0 {
					w.applyHPDelta(id, e, eff.HPDeltaPerTick, tick)
				}
				if eff.RemainingTicks > 0 {
					eff.RemainingTicks--
				}
				if !eff.expired() {
					kept = append(kept, eff)
				}
			}
			e.StatusEffects = kept
		}
		for _, sk := range e.Skills {
			if sk.CooldownRemaining > 0 {
				sk.CooldownRemaining--
			}
		}
	}
}

// applyHPDelta routes a per-tick hp delta to the right primitive: negative
// deltas go through ApplyDamage (which marks death), positive deltas heal
// in place clamped to max_hp. Dead entities regenerate nothing.
func (w *World) applyHPDelta(id ecs.EntityID, e *Entity, delta int32, tick uint64) {
	if delta < 0 {
		_ = w.ApplyDamage(id, -delta, tick)
		return
	}
	if e.Dead {
		return
	}
	e.HP += delta
	if e.HP > e.MaxHP {
		e.HP = e.MaxHP
	}
}

// RecordEvent appends an observable event to the ring buffer.
func (w *World) RecordEvent(tick uint64, category, message string, meta map[string]string, entities ...ecs.EntityID) {
	ids := make([]uint64, len(entities))
	for i, id := range entities {
		ids[i] = uint64(id)
	}
	w.Events.Append(event.Record{
		Tick:     tick,
		Category: category,
		Message:  message,
		Meta:     meta,
		Entities: ids,
	})
}

// TileAt returns the tile at a position.
func (w *World) TileAt(pos spatial.Position) (Tile, bool) {
	return w.Grid.At(pos.X, pos.Y)
}

// SetTile mutates the grid — a first-class state change visible to
// subsequent ticks, used only by world generation and map-altering actions.
func (w *World) SetTile(pos spatial.Position, t Tile) {
	w.Grid.Set(pos.X, pos.Y, t)
}

// ThreatTable returns (creating if absent) the per-entity threat/hate map
// that the COMBAT handler feeds through AddThreat. The stock AI goals do not
// read it when choosing a target. Pruned automatically on entity destruction
// via the directory's registry, and of dead ids during Cleanup via
// PruneThreat.
func (w *World) ThreatTable(id ecs.EntityID) map[ecs.EntityID]int64 {
	t, ok := w.threat.Get(id)
	if !ok {
		m := make(map[ecs.EntityID]int64)
		t = &m
		w.threat.Set(id, t)
	}
	return *t
}

// AddThreat accumulates damage-based threat from source onto target's table.
func (w *World) AddThreat(target, source ecs.EntityID, amount int64) {
	table := w.ThreatTable(target)
	table[source] += amount
}

// PruneThreat removes dead-id entries from every tracked threat table,
// matching the design note that cyclic id-keyed maps are pruned in Cleanup.
func (w *World) PruneThreat() {
	w.threat.Each(func(_ ecs.EntityID, table *map[ecs.EntityID]int64) {
		for id := range *table {
			if !w.Dir.Alive(id) {
				delete(*table, id)
			}
		}
	})
}

// TopThreat returns the id with the highest accumulated threat against the
// given entity, or false if its table is empty.
func (w *World) TopThreat(id ecs.EntityID) (ecs.EntityID, bool) {
	table := w.ThreatTable(id)
	var best ecs.EntityID
	var bestVal int64
	found := false
	for candidate, val := range table {
		if !found || val > bestVal || (val == bestVal && candidate < best) {
			best, bestVal, found = candidate, val, true
		}
	}
	return best, found
}

// AllEntities calls fn for every live entity. Iteration order is map order
// (unspecified); callers that need determinism must sort first — the
// resolver, not this iterator, is the engine's source of canonical order.
func (w *World) AllEntities(fn func(*Entity)) {
	for _, e := range w.Entities {
		fn(e)
	}
}

// TickTerritoryEffects applies each region's passive effect to entities
// standing within its bounds. Run at the environment cadence. Regions are
// visited in ascending id order: an entity standing in two overlapping
// regions must see their deltas (and the 0/max_hp clamps between them) in
// the same order every run.
func (w *World) TickTerritoryEffects(tick uint64) {
	ids := make([]uint64, 0, len(w.Regions))
	for id := range w.Regions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, rid := range ids {
		r := w.Regions[rid]
		if r.Effect == nil {
			continue
		}
		for id, e := range w.Entities {
			if e.Dead {
				continue
			}
			if r.Effect.AppliesTo != "" && r.Effect.AppliesTo != e.Faction {
				continue
			}
			if !r.contains(e.Pos) {
				continue
			}
			if r.Effect.HPDeltaPerTick != 0 {
				w.applyHPDelta(id, e, r.Effect.HPDeltaPerTick, tick)
			}
		}
	}
}
