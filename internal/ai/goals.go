package ai

import (
	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/core/spatial"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/snapshot"
	"github.com/tickforge/engine/internal/worker"
	"github.com/tickforge/engine/internal/world"
)

// fleeGoal scores highest when the entity is hurt below cfg.FleeHPThreshold
// and a hostile is in sight. It proposes a single step directly away from
// the nearest threat.
func fleeGoal(cfg Config) worker.Goal {
	return worker.Goal{
		Name: "flee",
		Score: func(snap *snapshot.Snapshot, e *world.Entity, r *rng.Source, tick uint64) float64 {
			if e.MaxHP == 0 {
				return 0
			}
			hpFrac := float64(e.HP) / float64(e.MaxHP)
			if hpFrac > cfg.FleeHPThreshold {
				return 0
			}
			if _, ok := acquireTarget(snap, e); !ok {
				return 0
			}
			return 100 * (cfg.FleeHPThreshold - hpFrac)
		},
		Propose: func(snap *snapshot.Snapshot, e *world.Entity, r *rng.Source, tick uint64) proposal.Proposal {
			target, ok := acquireTarget(snap, e)
			if !ok {
				return noOpProposal(e, tick)
			}
			dest := stepAway(e.Pos, target.Pos)
			if dest == e.Pos {
				return restProposal(e, tick)
			}
			return moveProposal(e, dest, tick)
		},
	}
}

// attackGoal scores highest when a hostile is within weapon range (close
// enough to attack immediately) and moderately when one is merely in sight
// (worth closing the distance for).
func attackGoal() worker.Goal {
	return worker.Goal{
		Name: "attack",
		Score: func(snap *snapshot.Snapshot, e *world.Entity, r *rng.Source, tick uint64) float64 {
			target, ok := acquireTarget(snap, e)
			if !ok {
				return 0
			}
			dist := spatial.Manhattan(e.Pos, target.Pos)
			if dist <= 1 {
				return 80
			}
			return 40
		},
		Propose: func(snap *snapshot.Snapshot, e *world.Entity, r *rng.Source, tick uint64) proposal.Proposal {
			target, ok := acquireTarget(snap, e)
			if !ok {
				return noOpProposal(e, tick)
			}
			if spatial.Manhattan(e.Pos, target.Pos) <= 1 {
				return combatProposal(e, target, tick)
			}
			dest := stepToward(e.Pos, target.Pos)
			return moveProposal(e, dest, tick)
		},
	}
}

// lootGoal scores a pile sitting on the entity's own tile as worth
// collecting provided the bag has room, one tick below attack's in-range
// score so combat still wins a tie with an adjacent hostile.
func lootGoal() worker.Goal {
	return worker.Goal{
		Name: "loot",
		Score: func(snap *snapshot.Snapshot, e *world.Entity, r *rng.Source, tick uint64) float64 {
			if len(e.Inventory) >= e.BagCapacity {
				return 0
			}
			pile, ok := findPileAt(snap, e.Pos)
			if !ok || len(pile.Items) == 0 {
				return 0
			}
			return 60
		},
		Propose: func(snap *snapshot.Snapshot, e *world.Entity, r *rng.Source, tick uint64) proposal.Proposal {
			if pile, ok := findPileAt(snap, e.Pos); ok {
				return lootProposal(e, pile.Pos, tick)
			}
			return noOpProposal(e, tick)
		},
	}
}

// restGoal scores positively whenever the entity is below full hp or below
// 100 stamina, is not hunting, and has no hostile in sight. A pile underfoot
// does not stop it from scoring; lootGoal simply outscores it.
func restGoal() worker.Goal {
	return worker.Goal{
		Name: "rest",
		Score: func(snap *snapshot.Snapshot, e *world.Entity, r *rng.Source, tick uint64) float64 {
			if e.AIState == world.AIHunting {
				return 0
			}
			if e.HP >= e.MaxHP && e.Stamina >= 100 {
				return 0
			}
			if _, ok := acquireTarget(snap, e); ok {
				return 0
			}
			return 30
		},
		Propose: func(snap *snapshot.Snapshot, e *world.Entity, r *rng.Source, tick uint64) proposal.Proposal {
			return restProposal(e, tick)
		},
	}
}

// wanderGoal is the catch-all: a small, always-available utility so an
// idle entity with nothing better to do still produces a proposal, drawing
// its step direction from the AI domain RNG stream (salt 0) so the walk is
// deterministic and independent of every other domain's draws.
func wanderGoal() worker.Goal {
	return worker.Goal{
		Name: "wander",
		Score: func(snap *snapshot.Snapshot, e *world.Entity, r *rng.Source, tick uint64) float64 {
			return 1
		},
		Propose: func(snap *snapshot.Snapshot, e *world.Entity, r *rng.Source, tick uint64) proposal.Proposal {
			dirIdx, _ := r.Choice(rng.AI, uint64(e.ID), tick, 0, 4)
			dest := e.Pos
			switch dirIdx {
			case 0:
				dest.X++
			case 1:
				dest.X--
			case 2:
				dest.Y++
			case 3:
				dest.Y--
			}
			if tile, ok := snap.Grid.At(dest.X, dest.Y); !ok || !tile.Walkable {
				return noOpProposal(e, tick)
			}
			return moveProposal(e, dest, tick)
		},
	}
}

func findPileAt(snap *snapshot.Snapshot, pos spatial.Position) (world.GroundItemPile, bool) {
	for _, pile := range snap.GroundItems {
		if pile.Pos == pos {
			return pile, true
		}
	}
	return world.GroundItemPile{}, false
}
