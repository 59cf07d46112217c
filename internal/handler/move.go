package handler

import (
	"fmt"

	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/core/spatial"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/resolver"
	"github.com/tickforge/engine/internal/world"
)

const baseMoveDelayTicks = 10

// NewMoveHandler builds the MOVE validate/apply pair. validate rechecks
// adjacency and walkability on top of the resolver's own occupancy check;
// apply updates position, the spatial index, and schedules next_act_at
// scaled by the destination tile's movement cost.
func NewMoveHandler() Handler {
	return Handler{
		Validate: func(base *world.World, _ *resolver.Tentative, p proposal.Proposal) bool {
			actor, ok := base.Entities[p.ActorID]
			if !ok || actor.Dead {
				return false
			}
			if spatial.Manhattan(actor.Pos, p.TargetPos) != 1 {
				return false
			}
			tile, ok := base.TileAt(p.TargetPos)
			return ok && tile.Walkable
		},
		Apply: func(w *world.World, _ *rng.Source, tick uint64, p proposal.Proposal) {
			actor, ok := w.Entities[p.ActorID]
			if !ok {
				return
			}
			from := actor.Pos
			if err := w.MoveEntity(p.ActorID, p.TargetPos); err != nil {
				return
			}
			tile, _ := w.TileAt(p.TargetPos)
			actor.NextActAt = tick + delayForTerrain(baseMoveDelayTicks, tile.MoveCost)
			w.RecordEvent(tick, "movement", "entity moved", map[string]string{
				"from": positionString(from),
				"to":   positionString(p.TargetPos),
			}, p.ActorID)
		},
	}
}

// delayForTerrain scales the base action delay by the destination tile's
// movement cost: deterministic, and monotone non-decreasing in the cost
// multiplier.
func delayForTerrain(base int, moveCost float64) uint64 {
	scaled := float64(base) * moveCost
	if scaled < 1 {
		scaled = 1
	}
	return uint64(scaled + 0.5)
}

func positionString(p spatial.Position) string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}
