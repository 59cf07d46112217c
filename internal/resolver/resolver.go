// Package resolver implements the deterministic conflict resolver: the
// single point where simultaneity across entities is adjudicated each tick.
package resolver

import (
	"sort"

	"github.com/tickforge/engine/internal/core/ecs"
	"github.com/tickforge/engine/internal/core/spatial"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/world"
)

// Validator is the handler-specific predicate consulted during the
// sequential application check. tentative reflects the accepted-so-far
// state (claimed and vacated tiles) layered on top of the authoritative
// world; it never layers on top of itself across ticks.
type Validator func(base *world.World, tentative *Tentative, p proposal.Proposal) bool

// Tentative is the resolver's running view of accepted-but-not-yet-applied
// changes: which tiles are claimed this tick and by whom, and which tiles
// an accepted move vacates. The consumed set is read by the COMBAT check,
// but Resolve never adds to it, since it does not know damage outcomes;
// piles are not tracked at all.
type Tentative struct {
	occupancy map[spatial.Position]ecs.EntityID // tile -> claiming actor
	vacated   map[spatial.Position]bool         // tile vacated by an accepted move this tick
	consumed  map[ecs.EntityID]bool             // target entities ruled out for COMBAT; never filled by Resolve
}

func newTentative() *Tentative {
	return &Tentative{
		occupancy: make(map[spatial.Position]ecs.EntityID),
		vacated:   make(map[spatial.Position]bool),
		consumed:  make(map[ecs.EntityID]bool),
	}
}

// Decision records the outcome of resolving one proposal, including the
// rejection reason for observability.
type Decision struct {
	Proposal proposal.Proposal
	Reason   string // empty for accepted
}

// Resolve sorts proposals canonically and runs the sequential application
// check against base. It never mutates base; accepted proposals are applied
// by the caller via the action-handler table afterward.
func Resolve(base *world.World, proposals []proposal.Proposal, validators map[proposal.Kind]Validator) (accepted []Decision, rejected []Decision) {
	sorted := append([]proposal.Proposal(nil), proposals...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		pa, pb := proposal.KindPriority(a.Kind), proposal.KindPriority(b.Kind)
		if pa != pb {
			return pa < pb
		}
		if a.NextActAt != b.NextActAt {
			return a.NextActAt < b.NextActAt
		}
		return a.ActorID < b.ActorID
	})

	t := newTentative()
	for _, p := range sorted {
		if p.Kind == proposal.NoOp {
			// A no-op is a valid intent to do nothing: it is accepted (so
			// proposal conservation holds) and the handler table simply has
			// nothing registered to apply for it.
			accepted = append(accepted, Decision{Proposal: p})
			continue
		}
		actor, alive := base.Entities[p.ActorID]
		if !alive || actor.Dead {
			rejected = append(rejected, Decision{Proposal: p, Reason: "actor not alive"})
			continue
		}

		if reason, ok := checkGeneric(base, t, p); !ok {
			rejected = append(rejected, Decision{Proposal: p, Reason: reason})
			continue
		}

		if v, hasValidator := validators[p.Kind]; hasValidator && !v(base, t, p) {
			rejected = append(rejected, Decision{Proposal: p, Reason: "handler validate rejected"})
			continue
		}

		applyTentative(t, actor, p)
		accepted = append(accepted, Decision{Proposal: p})
	}
	return accepted, rejected
}

// checkGeneric applies the resolver's own cross-cutting rules: occupancy
// conflicts for MOVE, and target-vanished checks for COMBAT/LOOT. Handler-
// specific validity is deferred to the registered Validator.
func checkGeneric(base *world.World, t *Tentative, p proposal.Proposal) (string, bool) {
	switch p.Kind {
	case proposal.Move:
		if claimant, claimed := t.occupancy[p.TargetPos]; claimed && claimant != p.ActorID {
			return "tile claimed by an earlier accepted move this tick", false
		}
		if tile, ok := base.TileAt(p.TargetPos); !ok || !tile.Walkable {
			return "target tile not walkable", false
		}
		if occupants := base.Spatial.At(p.TargetPos); len(occupants) > 0 {
			vacating := t.vacated[p.TargetPos]
			if !vacating {
				stillOccupied := false
				for _, occ := range occupants {
					if occ == p.ActorID {
						continue
					}
					if e, ok := base.Entities[occ]; ok && !e.Dead {
						stillOccupied = true
					}
				}
				if stillOccupied {
					return "target tile occupied", false
				}
			}
		}
	case proposal.Combat:
		if !p.HasTarget {
			return "no target specified", false
		}
		target, ok := base.Entities[p.TargetID]
		if !ok || target.Dead || t.consumed[p.TargetID] {
			return "target vanished", false
		}
	case proposal.Loot:
		// A LOOT proposal names its pile by TargetPos, not by an entity id.
		if _, ok := base.GroundItems[p.TargetPos]; !ok {
			return "pile vanished", false
		}
	}
	return "", true
}

// applyTentative records p's effect on the running tentative view so later
// proposals in this tick's sorted order see it. actor is the proposal's
// actor as seen in the authoritative (pre-tick) world, used to know which
// tile is being vacated by a MOVE.
func applyTentative(t *Tentative, actor *world.Entity, p proposal.Proposal) {
	switch p.Kind {
	case proposal.Move:
		t.occupancy[p.TargetPos] = p.ActorID
		t.vacated[actor.Pos] = true
	case proposal.Combat:
		// A fatal hit is reflected by the handler's apply step; the resolver
		// itself does not know the outcome of damage, only that the combat
		// proposal was accepted for this tick.
	case proposal.Loot:
		// Piles are removed by the handler's apply step once loot_progress
		// completes; nothing to mark tentative here beyond existence, which
		// checkGeneric already verified.
	}
}
