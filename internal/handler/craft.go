package handler

import (
	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/resolver"
	"github.com/tickforge/engine/internal/world"
)

const craftDurationTicks = 10

// CraftPayload names the recipe being worked and the items it consumes and
// produces; the recipe table itself is opaque content the core never reads.
type CraftPayload struct {
	RecipeID   uint32
	Consumes   []uint64
	ProducesID uint64
}

// NewCraftHandler builds the CRAFT validate/apply pair: channelled like
// LOOT/HARVEST, gated on the actor knowing the recipe and holding every
// consumed ingredient.
func NewCraftHandler() Handler {
	return Handler{
		Validate: func(base *world.World, _ *resolver.Tentative, p proposal.Proposal) bool {
			actor, ok := base.Entities[p.ActorID]
			if !ok || actor.Dead {
				return false
			}
			payload, ok := p.Payload.(CraftPayload)
			if !ok {
				return false
			}
			if _, known := actor.KnownRecipes[payload.RecipeID]; !known {
				return false
			}
			return hasAllIngredients(actor.Inventory, payload.Consumes)
		},
		Apply: func(w *world.World, _ *rng.Source, tick uint64, p proposal.Proposal) {
			actor, ok := w.Entities[p.ActorID]
			if !ok {
				return
			}
			payload, _ := p.Payload.(CraftPayload)
			actor.LootProgress++
			actor.AIState = world.AIChannelling
			actor.CraftTarget = payload.RecipeID
			if actor.LootProgress < craftDurationTicks {
				actor.NextActAt = tick + 1
				return
			}
			actor.LootProgress = 0
			actor.AIState = world.AIIdle
			actor.CraftTarget = 0
			if !hasAllIngredients(actor.Inventory, payload.Consumes) {
				return
			}
			actor.Inventory = removeIngredients(actor.Inventory, payload.Consumes)
			if payload.ProducesID != 0 && len(actor.Inventory) < actor.BagCapacity {
				actor.Inventory = append(actor.Inventory, payload.ProducesID)
			}
			w.RecordEvent(tick, "craft", "item crafted", nil, p.ActorID)
		},
	}
}

func hasAllIngredients(inventory []uint64, consumes []uint64) bool {
	have := make(map[uint64]int, len(inventory))
	for _, id := range inventory {
		have[id]++
	}
	for _, id := range consumes {
		if have[id] == 0 {
			return false
		}
		have[id]--
	}
	return true
}

func removeIngredients(inventory []uint64, consumes []uint64) []uint64 {
	remaining := make(map[uint64]int, len(consumes))
	for _, id := range consumes {
		remaining[id]++
	}
	out := make([]uint64, 0, len(inventory))
	for _, id := range inventory {
		if remaining[id] > 0 {
			remaining[id]--
			continue
		}
		out = append(out, id)
	}
	return out
}
