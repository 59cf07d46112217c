// Package proposal defines the immutable intent objects produced by AI
// workers and consumed by the conflict resolver and action handlers.
package proposal

import (
	"github.com/tickforge/engine/internal/core/ecs"
	"github.com/tickforge/engine/internal/core/spatial"
)

// Kind is the closed enum of action kinds. Order here is not priority order
// — see KindPriority.
type Kind int

const (
	Move Kind = iota
	Combat
	Rest
	Loot
	Harvest
	Trade
	UseItem
	Craft
	LearnSkill
	NoOp
)

func (k Kind) String() string {
	switch k {
	case Move:
		return "move"
	case Combat:
		return "combat"
	case Rest:
		return "rest"
	case Loot:
		return "loot"
	case Harvest:
		return "harvest"
	case Trade:
		return "trade"
	case UseItem:
		return "use_item"
	case Craft:
		return "craft"
	case LearnSkill:
		return "learn_skill"
	case NoOp:
		return "no_op"
	default:
		return "unknown"
	}
}

// KindPriority is the resolver's fixed sort key: COMBAT < MOVE < LOOT < REST
// < other. Lower value sorts first and wins ties.
func KindPriority(k Kind) int {
	switch k {
	case Combat:
		return 0
	case Move:
		return 1
	case Loot:
		return 2
	case Rest:
		return 3
	default:
		return 4
	}
}

// Proposal is an entity's intent to act, produced by exactly one worker per
// eligible entity per tick. It never mutates state; validate/apply do.
type Proposal struct {
	ActorID    ecs.EntityID
	Kind       Kind
	TargetPos  spatial.Position
	TargetID   ecs.EntityID
	HasTarget  bool
	Payload    any
	NextActAt  uint64
	TieBreaker uint64 // always actor_id; named separately per the data model
}

// NewNoOp returns the sentinel proposal a worker pushes when it has nothing
// to do, or when a worker bug must still produce exactly one entry for the
// entity. An entity whose evaluation runs past the deadline gets no entry.
func NewNoOp(actorID ecs.EntityID, tick uint64) Proposal {
	return Proposal{ActorID: actorID, Kind: NoOp, NextActAt: tick + 1, TieBreaker: uint64(actorID)}
}
