package worker

import (
	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/snapshot"
	"github.com/tickforge/engine/internal/world"
)

// Goal pairs a pure utility scorer with the proposal it emits when chosen.
// Both Score and Propose read only the snapshot and the rng source — never
// the live world — so any number of workers can run them concurrently
// without coordination.
type Goal struct {
	Name    string
	Score   func(snap *snapshot.Snapshot, e *world.Entity, r *rng.Source, tick uint64) float64
	Propose func(snap *snapshot.Snapshot, e *world.Entity, r *rng.Source, tick uint64) proposal.Proposal
}

// Registry holds goals in a fixed enumeration order, which is also the tie-
// break order when two goals score equally.
type Registry struct {
	goals []Goal
}

func NewRegistry() *Registry {
	return &Registry{goals: make([]Goal, 0, 8)}
}

func (r *Registry) Register(g Goal) {
	r.goals = append(r.goals, g)
}

// Evaluate scores every registered goal for (snap, e) and returns the
// Proposal of the highest-scoring one. Ties go to the goal registered
// earlier. A negative score counts as zero. The bool is false only for a
// registry with no goals: when every goal scores zero, the first registered
// goal wins the tie and its Propose supplies the proposal.
func (r *Registry) Evaluate(snap *snapshot.Snapshot, e *world.Entity, src *rng.Source, tick uint64) (proposal.Proposal, bool) {
	bestIdx := -1
	var bestScore float64
	for i, g := range r.goals {
		score := g.Score(snap, e, src, tick)
		if score < 0 {
			score = 0
		}
		if bestIdx == -1 || score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestIdx == -1 {
		return proposal.Proposal{}, false
	}
	return r.goals[bestIdx].Propose(snap, e, src, tick), true
}
