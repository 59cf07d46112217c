// Package ai implements the stock goal scorers and proposal builders: pure
// functions of (snapshot, entity) that a worker invokes read-only to
// produce exactly one proposal per eligible entity.
//
// The decision tree is the classic mob loop: scan for a target, fall back
// to remembered hostiles when the current one is gone, flee below a
// configured hp fraction, otherwise close distance or attack in range, and
// wander when nothing is nearby. Scorers are pure Go registered in a fixed
// enumeration order; there is no scripting indirection here (the Lua VM is
// reserved for the combat damage formula).
package ai

import (
	"github.com/tickforge/engine/internal/core/ecs"
	"github.com/tickforge/engine/internal/core/spatial"
	"github.com/tickforge/engine/internal/handler"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/snapshot"
	"github.com/tickforge/engine/internal/worker"
	"github.com/tickforge/engine/internal/world"
)

// Config carries the engine-level tunables goal scorers consult.
type Config struct {
	FleeHPThreshold float64
}

// RegisterDefaults wires the five stock goals into reg, in the fixed order
// that also serves as the tie-break order for equal-utility scores:
// Flee > Attack > Loot > Rest > Wander. Wander always scores a small
// positive utility so every entity always has a proposal.
func RegisterDefaults(reg *worker.Registry, cfg Config) {
	reg.Register(fleeGoal(cfg))
	reg.Register(attackGoal())
	reg.Register(lootGoal())
	reg.Register(restGoal())
	reg.Register(wanderGoal())
}

// mostRecentlySeenHostile returns the entity memory entry e last observed,
// among memories of a different faction, still alive in snap. Memory is
// keyed by id, not pointer, so a remembered entity may have died since; the
// liveness check here filters those out.
func mostRecentlySeenHostile(snap *snapshot.Snapshot, e *world.Entity) (*world.Entity, bool) {
	var bestID ecs.EntityID
	var bestTick uint64
	found := false
	for id, mem := range e.EntityMemory {
		if !mem.Visible {
			continue
		}
		target, alive := snap.Entities[id]
		if !alive || target.Dead || target.Faction == e.Faction {
			continue
		}
		// Ties on last-seen tick go to the lower id so target selection
		// never depends on map iteration order.
		if found && (mem.LastSeenTick < bestTick || (mem.LastSeenTick == bestTick && id > bestID)) {
			continue
		}
		bestID, bestTick, found = id, mem.LastSeenTick, true
	}
	if !found {
		return nil, false
	}
	return snap.Entities[bestID], true
}

// nearestHostile scans every entity within e's vision range and returns the
// closest one not sharing e's faction; an entity with an empty faction
// counts as hostile to everyone.
func nearestHostile(snap *snapshot.Snapshot, e *world.Entity) (*world.Entity, bool) {
	var nearest *world.Entity
	var nearestDist int32 = -1
	for _, other := range snap.Entities {
		if other.ID == e.ID || other.Dead {
			continue
		}
		if other.Faction != "" && other.Faction == e.Faction {
			continue
		}
		dist := spatial.Manhattan(e.Pos, other.Pos)
		if dist > e.VisionRange {
			continue
		}
		// Equal distances resolve to the lower id so the scan is
		// independent of map iteration order.
		if nearestDist == -1 || dist < nearestDist || (dist == nearestDist && other.ID < nearest.ID) {
			nearest, nearestDist = other, dist
		}
	}
	if nearest == nil {
		return nil, false
	}
	return nearest, true
}

// acquireTarget prefers an already-remembered hostile (a standing aggro
// target) and falls back to a fresh vision scan.
func acquireTarget(snap *snapshot.Snapshot, e *world.Entity) (*world.Entity, bool) {
	if target, ok := mostRecentlySeenHostile(snap, e); ok {
		if spatial.Manhattan(e.Pos, target.Pos) <= e.VisionRange {
			return target, true
		}
	}
	return nearestHostile(snap, e)
}

// stepToward returns the single Manhattan step from from toward to — a
// greedy walk, not full pathfinding. Every distance-reducing neighbor cuts
// the distance by exactly one, so the choice among them is pure policy: the
// lexicographically smallest (x, y) wins. The rule is global, not relative
// to the walker, so two entities closing on each other from two tiles apart
// always pick the same intermediate tile and the resolver, not the walk,
// decides who takes it.
func stepToward(from, to spatial.Position) spatial.Position {
	if from == to {
		return from
	}
	base := spatial.Manhattan(from, to)
	candidates := [4]spatial.Position{
		{X: from.X - 1, Y: from.Y},
		{X: from.X, Y: from.Y - 1},
		{X: from.X, Y: from.Y + 1},
		{X: from.X + 1, Y: from.Y},
	}
	for _, c := range candidates {
		if spatial.Manhattan(c, to) < base {
			return c
		}
	}
	return from
}

// stepAway is stepToward's mirror, used by the flee goal: it moves one tile
// further from the threat rather than closer to it.
func stepAway(from, threat spatial.Position) spatial.Position {
	mirrored := spatial.Position{X: 2*from.X - threat.X, Y: 2*from.Y - threat.Y}
	return stepToward(from, mirrored)
}

func combatProposal(e *world.Entity, target *world.Entity, tick uint64) proposal.Proposal {
	payload := handler.CombatPayload{
		SkillID:       1,
		SkillPower:    1.0,
		DamageType:    world.Physical,
		Range:         1,
		CooldownTicks: 4,
	}
	return proposal.Proposal{
		ActorID:    e.ID,
		Kind:       proposal.Combat,
		TargetID:   target.ID,
		HasTarget:  true,
		Payload:    payload,
		NextActAt:  tick + 1,
		TieBreaker: uint64(e.ID),
	}
}

func moveProposal(e *world.Entity, dest spatial.Position, tick uint64) proposal.Proposal {
	return proposal.Proposal{
		ActorID:    e.ID,
		Kind:       proposal.Move,
		TargetPos:  dest,
		NextActAt:  tick + 1,
		TieBreaker: uint64(e.ID),
	}
}

func restProposal(e *world.Entity, tick uint64) proposal.Proposal {
	return proposal.Proposal{
		ActorID:    e.ID,
		Kind:       proposal.Rest,
		Payload:    handler.RestPayload{},
		NextActAt:  tick + 1,
		TieBreaker: uint64(e.ID),
	}
}

func lootProposal(e *world.Entity, pilePos spatial.Position, tick uint64) proposal.Proposal {
	return proposal.Proposal{
		ActorID:    e.ID,
		Kind:       proposal.Loot,
		TargetPos:  pilePos,
		NextActAt:  tick + 1,
		TieBreaker: uint64(e.ID),
	}
}

func noOpProposal(e *world.Entity, tick uint64) proposal.Proposal {
	return proposal.NewNoOp(e.ID, tick)
}
