// Package snapshot implements the engine's immutable, deep-cloned read view
// of world state, published once per tick boundary.
package snapshot

import (
	"github.com/google/uuid"

	"github.com/tickforge/engine/internal/core/ecs"
	"github.com/tickforge/engine/internal/core/event"
	"github.com/tickforge/engine/internal/world"
)

// Snapshot is a deep, immutable copy of world state at a tick boundary. Its
// lifetime is independent of the live world: a reader holding it is never
// disturbed by the writer producing a newer one, because nothing here
// aliases live-world backing storage.
type Snapshot struct {
	RunID   string
	Tick    uint64
	Entities map[ecs.EntityID]*world.Entity
	Grid    *world.Grid

	GroundItems   []world.GroundItemPile
	Buildings     []world.Building
	ResourceNodes []world.ResourceNode
	Regions       []world.Region

	events *event.Ring
}

// FromWorld performs the deep clone. Called by the tick loop's Schedule and
// Cleanup phases; never called concurrently with itself (single writer).
func FromWorld(w *world.World, tick uint64, runID string) *Snapshot {
	entities := make(map[ecs.EntityID]*world.Entity, len(w.Entities))
	for id, e := range w.Entities {
		entities[id] = e.Clone()
	}

	groundItems := make([]world.GroundItemPile, 0, len(w.GroundItems))
	for _, pile := range w.GroundItems {
		groundItems = append(groundItems, pile.Clone())
	}

	buildings := make([]world.Building, 0, len(w.Buildings))
	for _, b := range w.Buildings {
		buildings = append(buildings, *b)
	}

	nodes := make([]world.ResourceNode, 0, len(w.ResourceNodes))
	for _, n := range w.ResourceNodes {
		nodes = append(nodes, *n)
	}

	regions := make([]world.Region, 0, len(w.Regions))
	for _, r := range w.Regions {
		regions = append(regions, r.Clone())
	}

	return &Snapshot{
		RunID:         runID,
		Tick:          tick,
		Entities:      entities,
		Grid:          w.Grid.Clone(),
		GroundItems:   groundItems,
		Buildings:     buildings,
		ResourceNodes: nodes,
		Regions:       regions,
		events:        w.Events.Clone(),
	}
}

// EventsSince returns every retained event with Tick >= fromTick.
func (s *Snapshot) EventsSince(fromTick uint64) []event.Record {
	if s.events == nil {
		return nil
	}
	return s.events.Since(fromTick)
}

// NewRunID returns a fresh per-run correlation id, stamped once at engine
// start and carried on every published snapshot thereafter.
func NewRunID() string {
	return uuid.NewString()
}
