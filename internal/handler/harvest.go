package handler

import (
	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/resolver"
	"github.com/tickforge/engine/internal/world"
)

const harvestDurationTicks = 8

// HarvestPayload names the resource node the actor is working.
type HarvestPayload struct {
	NodeID uint64
	Yield  uint64
}

// NewHarvestHandler builds the HARVEST validate/apply pair, modeled on
// NewLootHandler's channelled progress pattern: validate checks the node
// still has a remaining unit and the actor's bag has room, apply advances
// loot_progress and only consumes a unit of the node once the channel
// completes.
func NewHarvestHandler() Handler {
	return Handler{
		Validate: func(base *world.World, _ *resolver.Tentative, p proposal.Proposal) bool {
			actor, ok := base.Entities[p.ActorID]
			if !ok || actor.Dead || len(actor.Inventory) >= actor.BagCapacity {
				return false
			}
			payload, ok := p.Payload.(HarvestPayload)
			if !ok {
				return false
			}
			node, ok := base.ResourceNodes[payload.NodeID]
			return ok && node.Remaining > 0
		},
		Apply: func(w *world.World, _ *rng.Source, tick uint64, p proposal.Proposal) {
			actor, ok := w.Entities[p.ActorID]
			if !ok {
				return
			}
			payload, _ := p.Payload.(HarvestPayload)
			actor.LootProgress++
			actor.AIState = world.AIChannelling
			if actor.LootProgress < harvestDurationTicks {
				actor.NextActAt = tick + 1
				return
			}
			node, ok := w.ResourceNodes[payload.NodeID]
			actor.LootProgress = 0
			actor.AIState = world.AIIdle
			if !ok || node.Remaining == 0 {
				return
			}
			node.Remaining--
			if payload.Yield != 0 && len(actor.Inventory) < actor.BagCapacity {
				actor.Inventory = append(actor.Inventory, payload.Yield)
			}
			w.RecordEvent(tick, "harvest", "resource node harvested", nil, p.ActorID)
		},
	}
}
