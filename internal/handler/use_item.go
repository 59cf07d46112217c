package handler

import (
	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/resolver"
	"github.com/tickforge/engine/internal/world"
)

// UseItemPayload identifies the inventory slot consumed and its effect.
type UseItemPayload struct {
	ItemID   uint64
	HPDelta  int32
	Effect   *world.StatusEffect
}

// NewUseItemHandler builds the USE_ITEM validate/apply pair. Unlike
// LOOT/HARVEST this is not channelled: content items resolve in a single
// tick, matching spec's "most are channelled" rather than "all".
func NewUseItemHandler() Handler {
	return Handler{
		Validate: func(base *world.World, _ *resolver.Tentative, p proposal.Proposal) bool {
			actor, ok := base.Entities[p.ActorID]
			if !ok || actor.Dead {
				return false
			}
			payload, ok := p.Payload.(UseItemPayload)
			if !ok {
				return false
			}
			for _, item := range actor.Inventory {
				if item == payload.ItemID {
					return true
				}
			}
			return false
		},
		Apply: func(w *world.World, _ *rng.Source, tick uint64, p proposal.Proposal) {
			actor, ok := w.Entities[p.ActorID]
			if !ok {
				return
			}
			payload, _ := p.Payload.(UseItemPayload)
			for i, item := range actor.Inventory {
				if item == payload.ItemID {
					actor.Inventory = append(actor.Inventory[:i], actor.Inventory[i+1:]...)
					break
				}
			}
			if payload.HPDelta != 0 {
				actor.HP += payload.HPDelta
				if actor.HP > actor.MaxHP {
					actor.HP = actor.MaxHP
				}
				if actor.HP < 0 {
					actor.HP = 0
				}
			}
			if payload.Effect != nil {
				_ = w.AttachEffect(p.ActorID, *payload.Effect)
			}
			w.RecordEvent(tick, "use_item", "item consumed", nil, p.ActorID)
		},
	}
}
