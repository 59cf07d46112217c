package handler

import (
	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/resolver"
	"github.com/tickforge/engine/internal/world"
)

const learnSkillDurationTicks = 12

// LearnSkillPayload names the skill being trained and the level required to
// unlock it; the skill tree itself is opaque content.
type LearnSkillPayload struct {
	SkillID      uint32
	RequiresLevel int32
}

// NewLearnSkillHandler builds the LEARN_SKILL validate/apply pair:
// channelled like craft, gated on level and on not already knowing the
// skill.
func NewLearnSkillHandler() Handler {
	return Handler{
		Validate: func(base *world.World, _ *resolver.Tentative, p proposal.Proposal) bool {
			actor, ok := base.Entities[p.ActorID]
			if !ok || actor.Dead {
				return false
			}
			payload, ok := p.Payload.(LearnSkillPayload)
			if !ok {
				return false
			}
			if actor.Level < payload.RequiresLevel {
				return false
			}
			_, known := actor.Skills[payload.SkillID]
			return !known
		},
		Apply: func(w *world.World, _ *rng.Source, tick uint64, p proposal.Proposal) {
			actor, ok := w.Entities[p.ActorID]
			if !ok {
				return
			}
			payload, _ := p.Payload.(LearnSkillPayload)
			actor.LootProgress++
			actor.AIState = world.AIChannelling
			if actor.LootProgress < learnSkillDurationTicks {
				actor.NextActAt = tick + 1
				return
			}
			actor.LootProgress = 0
			actor.AIState = world.AIIdle
			if _, known := actor.Skills[payload.SkillID]; known {
				return
			}
			actor.Skills[payload.SkillID] = &world.Skill{ID: payload.SkillID}
			w.RecordEvent(tick, "learn_skill", "skill learned", nil, p.ActorID)
		},
	}
}
