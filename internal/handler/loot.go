package handler

import (
	"fmt"

	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/resolver"
	"github.com/tickforge/engine/internal/world"
)

const (
	lootDurationTicks  = 6
	lootPostDelayTicks = 2
)

// NewLootHandler builds the LOOT validate/apply pair. This is the reference
// channelled action: validate rejects a full bag or a vanished pile, apply
// increments loot_progress and only transfers items once the channel
// completes. The worker side re-proposes LOOT every tick the channel is
// still running; nothing here schedules that continuation itself.
func NewLootHandler() Handler {
	return Handler{
		Validate: func(base *world.World, _ *resolver.Tentative, p proposal.Proposal) bool {
			actor, ok := base.Entities[p.ActorID]
			if !ok || actor.Dead {
				return false
			}
			if len(actor.Inventory) >= actor.BagCapacity {
				return false
			}
			pile, ok := base.GroundItems[p.TargetPos]
			return ok && len(pile.Items) > 0
		},
		Apply: func(w *world.World, _ *rng.Source, tick uint64, p proposal.Proposal) {
			actor, ok := w.Entities[p.ActorID]
			if !ok {
				return
			}
			actor.LootProgress++
			actor.AIState = world.AIChannelling
			if actor.LootProgress < lootDurationTicks {
				actor.NextActAt = tick + 1
				return
			}

			taken, _ := w.PickUpItems(p.ActorID, p.TargetPos)
			actor.LootProgress = 0
			actor.AIState = world.AIIdle
			actor.NextActAt = tick + lootPostDelayTicks
			w.RecordEvent(tick, "loot", "items picked up", map[string]string{
				"count": fmt.Sprintf("%d", len(taken)),
			}, p.ActorID)
		},
	}
}
