package event

import "github.com/tickforge/engine/internal/core/ecs"

// Signal types carried on the double-buffered Bus for inter-system
// notifications. These are distinct from the world's recorded Record log
// (see ring.go), which is the externally observable, snapshot-visible
// history: a signal drives engine behavior (experience awards, respawn
// bookkeeping), a Record informs readers.

// EntityKilled fires for every combat kill confirmed at resolve time.
type EntityKilled struct {
	Victim ecs.EntityID
	Killer ecs.EntityID
	AtTick uint64
}

// EntityRespawned fires when a dead hero revives at its sanctuary.
type EntityRespawned struct {
	EntityID ecs.EntityID
	AtTick   uint64
}
