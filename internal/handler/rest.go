package handler

import (
	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/resolver"
	"github.com/tickforge/engine/internal/world"
)

const (
	restHPEfficiency      = 0.05
	restStaminaEfficiency = 0.10
	restDelayTicks        = 5
)

// RestPayload carries nothing beyond the implicit rest_efficiency constants;
// content authors can extend it with a per-class multiplier later.
type RestPayload struct{}

// NewRestHandler builds the REST validate/apply pair. An entity actively
// hunting is engaged and may not rest; apply restores hp/stamina and lets
// AdvanceEffects continue to run as normal.
func NewRestHandler() Handler {
	return Handler{
		Validate: func(base *world.World, _ *resolver.Tentative, p proposal.Proposal) bool {
			actor, ok := base.Entities[p.ActorID]
			if !ok || actor.Dead {
				return false
			}
			return actor.AIState != world.AIHunting
		},
		Apply: func(w *world.World, _ *rng.Source, tick uint64, p proposal.Proposal) {
			actor, ok := w.Entities[p.ActorID]
			if !ok {
				return
			}
			healed := int32(float64(actor.MaxHP) * restHPEfficiency)
			actor.HP += healed
			if actor.HP > actor.MaxHP {
				actor.HP = actor.MaxHP
			}
			actor.Stamina += int32(float64(100) * restStaminaEfficiency)
			if actor.Stamina > 100 {
				actor.Stamina = 100
			}
			actor.AIState = world.AIResting
			actor.NextActAt = tick + restDelayTicks
			w.RecordEvent(tick, "rest", "entity rested", nil, p.ActorID)
		},
	}
}
