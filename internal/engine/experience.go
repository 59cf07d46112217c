package engine

import (
	"github.com/tickforge/engine/internal/core/event"
	"github.com/tickforge/engine/internal/world"
)

const (
	baseKillXP    = 10
	levelXPFactor = 100
)

// awardKillExperience credits a confirmed kill to the killer. Signals cross
// one tick boundary, so the victim may already be gone when this runs; its
// corpse, when still lingering, supplies the level the award scales with,
// otherwise the flat base applies. Experience and level feed the snapshot
// fingerprint, which is why this runs on the bus's emission-ordered
// dispatch rather than ad hoc inside the combat handler.
func awardKillExperience(w *world.World, ev event.EntityKilled) {
	killer, ok := w.Entities[ev.Killer]
	if !ok || killer.Dead {
		return
	}
	xp := int64(baseKillXP)
	if victim, present := w.Entities[ev.Victim]; present && victim.Level > 1 {
		xp = baseKillXP * int64(victim.Level)
	}
	killer.Experience += xp
	for killer.Experience >= levelXPFactor*int64(killer.Level+1) {
		killer.Level++
	}
}
