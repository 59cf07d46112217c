// Package worker implements the parallel AI worker pool: stateless,
// read-only evaluation of per-entity goal scorers against a snapshot,
// fanned out with golang.org/x/sync/errgroup so the per-tick deadline can
// cancel stragglers cooperatively.
package worker

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tickforge/engine/internal/core/ecs"
	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/queue"
	"github.com/tickforge/engine/internal/snapshot"
	"github.com/tickforge/engine/internal/world"
)

// Pool evaluates a batch of (snapshot, entity_id) tasks in parallel and
// pushes the resulting proposals onto the shared queue.
type Pool struct {
	NumWorkers int
	Goals      *Registry
	RNG        *rng.Source
	Queue      *queue.ProposalQueue
	Log        *zap.Logger
}

func NewPool(numWorkers int, goals *Registry, src *rng.Source, q *queue.ProposalQueue, log *zap.Logger) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool{NumWorkers: numWorkers, Goals: goals, RNG: src, Queue: q, Log: log}
}

// Result summarizes one Evaluate call for the tick loop's degraded-tick
// bookkeeping.
type Result struct {
	Submitted int
	Skipped   int // result arrived after the deadline; nothing pushed for the entity
	Degraded  bool
}

// Evaluate fans (snapshot, entity_id) tasks out across the pool. Each task
// resolves its entity from the snapshot's own clone, so a worker never
// touches live world state. ctx carries the per-tick worker deadline
// (context.WithTimeout set by the caller); a task that is still running
// when ctx is done discards its result instead of pushing it, per the
// no-op-on-deadline policy.
func (p *Pool) Evaluate(ctx context.Context, snap *snapshot.Snapshot, ids []ecs.EntityID, tick uint64) Result {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.NumWorkers)

	var submitted, skipped atomic.Int64
	for _, id := range ids {
		id := id
		g.Go(func() error {
			e, ok := snap.Entities[id]
			if !ok {
				return nil
			}
			prop := p.evaluateOne(gctx, snap, e, tick)
			if gctx.Err() != nil {
				skipped.Add(1)
				return nil
			}
			p.Queue.Push(prop)
			submitted.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Submitted: int(submitted.Load()), Skipped: int(skipped.Load())}
	if res.Skipped > 0 || ctx.Err() != nil {
		res.Degraded = true
	}
	return res
}

// evaluateOne runs goal scoring for a single entity, recovering from a
// scorer/handler panic (a "worker bug" per the error model) by substituting
// a no-op proposal rather than letting the goroutine crash the pool.
func (p *Pool) evaluateOne(ctx context.Context, snap *snapshot.Snapshot, e *world.Entity, tick uint64) (result proposal.Proposal) {
	defer func() {
		if r := recover(); r != nil {
			if p.Log != nil {
				p.Log.Warn("worker goal scorer panicked, substituting no-op",
					zap.Uint64("entity_id", uint64(e.ID)),
					zap.Any("panic", r),
				)
			}
			result = proposal.NewNoOp(e.ID, tick)
		}
	}()

	select {
	case <-ctx.Done():
		return proposal.NewNoOp(e.ID, tick)
	default:
	}

	prop, ok := p.Goals.Evaluate(snap, e, p.RNG, tick)
	if !ok {
		return proposal.NewNoOp(e.ID, tick)
	}
	return prop
}

// EligibleEntities returns the ids eligible to act this tick: next_act_at
// <= tick and not dead. An entity mid-channelled-action is still eligible
// here. No handler re-proposes a channel on its own: the entity's next
// action comes from goal scoring like any other entity's, so a channel
// advances only on ticks where a goal proposes the same action again.
func EligibleEntities(w map[ecs.EntityID]*world.Entity, tick uint64) []ecs.EntityID {
	out := make([]ecs.EntityID, 0, len(w))
	for id, e := range w {
		if e.Dead {
			continue
		}
		if e.NextActAt <= tick {
			out = append(out, id)
		}
	}
	return out
}
