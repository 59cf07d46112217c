package handler

import (
	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/core/spatial"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/resolver"
	"github.com/tickforge/engine/internal/world"
)

// TradePayload is a direct, simultaneous item swap with an adjacent entity;
// unlike LOOT/CRAFT this is not channelled since both sides must commit in
// the same tick or not at all.
type TradePayload struct {
	Give []uint64
	Take []uint64
}

// NewTradeHandler builds the TRADE validate/apply pair: both parties must
// be alive, adjacent, and actually hold what they are offering, and neither
// bag may overflow once the swap completes.
func NewTradeHandler() Handler {
	return Handler{
		Validate: func(base *world.World, _ *resolver.Tentative, p proposal.Proposal) bool {
			actor, ok := base.Entities[p.ActorID]
			if !ok || actor.Dead || !p.HasTarget {
				return false
			}
			partner, ok := base.Entities[p.TargetID]
			if !ok || partner.Dead {
				return false
			}
			if spatial.Manhattan(actor.Pos, partner.Pos) > 1 {
				return false
			}
			payload, ok := p.Payload.(TradePayload)
			if !ok {
				return false
			}
			if !hasAllIngredients(actor.Inventory, payload.Give) {
				return false
			}
			if !hasAllIngredients(partner.Inventory, payload.Take) {
				return false
			}
			actorRoom := actor.BagCapacity - len(actor.Inventory) + len(payload.Give)
			partnerRoom := partner.BagCapacity - len(partner.Inventory) + len(payload.Take)
			return len(payload.Take) <= actorRoom && len(payload.Give) <= partnerRoom
		},
		Apply: func(w *world.World, _ *rng.Source, tick uint64, p proposal.Proposal) {
			actor, ok := w.Entities[p.ActorID]
			if !ok {
				return
			}
			partner, ok := w.Entities[p.TargetID]
			if !ok {
				return
			}
			payload, _ := p.Payload.(TradePayload)
			if !hasAllIngredients(actor.Inventory, payload.Give) || !hasAllIngredients(partner.Inventory, payload.Take) {
				return
			}
			actor.Inventory = removeIngredients(actor.Inventory, payload.Give)
			partner.Inventory = removeIngredients(partner.Inventory, payload.Take)
			actor.Inventory = append(actor.Inventory, payload.Take...)
			partner.Inventory = append(partner.Inventory, payload.Give...)
			w.RecordEvent(tick, "trade", "items exchanged", nil, p.ActorID, p.TargetID)
		},
	}
}
