// Package engine implements the four-phase tick loop and the background
// engine manager that wraps it.
package engine

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tickforge/engine/internal/core/ecs"
	"github.com/tickforge/engine/internal/core/event"
	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/core/spatial"
	coresys "github.com/tickforge/engine/internal/core/system"
	"github.com/tickforge/engine/internal/handler"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/queue"
	"github.com/tickforge/engine/internal/resolver"
	"github.com/tickforge/engine/internal/snapshot"
	"github.com/tickforge/engine/internal/worker"
	"github.com/tickforge/engine/internal/world"
)

// Loop owns the world exclusively and runs the four-phase tick. It is never
// accessed from more than one goroutine; Manager is what makes it safe to
// drive from a background thread while other goroutines read snapshots.
type Loop struct {
	World    *world.World
	RNG      *rng.Source
	Goals    *worker.Registry
	Pool     *worker.Pool
	Queue    *queue.ProposalQueue
	Handlers *handler.Table
	Cleanup  *coresys.Runner
	Bus      *event.Bus

	RunID                string
	Tick                 uint64
	WorkerDeadline       time.Duration
	HeroRespawnTicks     uint64
	NPCCorpseLingerTicks uint64
	EnvironmentDivisor   int

	Log *zap.Logger
}

// TickResult reports what happened during one RunTick call, for the
// manager's atomic stats.
type TickResult struct {
	Tick              uint64
	Accepted          int
	Rejected          int
	Degraded          bool
	AliveCount        int
	SpawnCount        int
	DeathCount        int
	Snapshot          *snapshot.Snapshot
	AcceptedDecisions []resolver.Decision
}

// RunTick executes exactly one tick: Schedule, Collect, Resolve, Cleanup.
// ctx governs only the worker-pool deadline for Phase 2; cancellation
// outside of Phase 2 is not honored mid-tick, so control commands only
// ever take effect at a tick boundary.
func (l *Loop) RunTick(ctx context.Context) TickResult {
	l.Bus.SwapBuffers()

	// Phase 1 — Schedule
	l.reindexIfInconsistent()
	snap := snapshot.FromWorld(l.World, l.Tick, l.RunID)
	eligible := worker.EligibleEntities(l.World.Entities, l.Tick)

	// Phase 2 — Collect
	deadlineCtx, cancel := context.WithTimeout(ctx, l.WorkerDeadline)
	res := l.Pool.Evaluate(deadlineCtx, snap, eligible, l.Tick)
	cancel()

	proposals := l.Queue.DrainAll()

	// Phase 3 — Resolve
	accepted, rejected := resolver.Resolve(l.World, proposals, l.Handlers.Validators())
	handlerDegraded := l.Handlers.ApplyAll(l.World, l.RNG, l.Tick, accepted)
	l.emitKillEvents(accepted)

	// Phase 4 — Cleanup
	runVisibility(l.World, l.Tick)
	l.World.AdvanceEffects(l.Tick)
	if l.EnvironmentDivisor <= 1 || l.Tick%uint64(l.EnvironmentDivisor) == 0 {
		l.World.TickTerritoryEffects(l.Tick)
	}
	runQuestProgress(l.World)
	runDeathCleanup(l.World, l.Bus, l.HeroRespawnTicks, l.NPCCorpseLingerTicks, l.Tick)
	l.Cleanup.RunEligible(l.Tick)
	l.World.PruneThreat()
	l.World.Dir.FlushDestroyQueue()
	l.recordEventOverflow()

	l.Bus.DispatchAll()

	degraded := res.Degraded || handlerDegraded
	l.Tick++
	if res.Degraded && l.Log != nil {
		l.Log.Warn("tick degraded: worker deadline exceeded",
			zap.Uint64("tick", l.Tick), zap.Int("skipped", res.Skipped))
	}

	spawned, died := l.World.ConsumeTickCounters()

	final := snapshot.FromWorld(l.World, l.Tick, l.RunID)
	return TickResult{
		Tick:              l.Tick,
		Accepted:          len(accepted),
		Rejected:          len(rejected),
		Degraded:          degraded,
		AliveCount:        len(l.World.Entities),
		SpawnCount:        spawned,
		DeathCount:        died,
		Snapshot:          final,
		AcceptedDecisions: accepted,
	}
}

// reindexIfInconsistent is the spatial index's defensive rebuild, run at
// the start of every tick. The index is maintained incrementally by every
// mutating call and should never drift, so a mismatch here signals a bug
// elsewhere, not an expected condition. Rebuilding keeps the tick
// reproducible instead of propagating stale occupancy into the resolver.
func (l *Loop) reindexIfInconsistent() {
	authoritative := make(map[ecs.EntityID]spatial.Position, len(l.World.Entities))
	for id, e := range l.World.Entities {
		authoritative[id] = e.Pos
	}
	if l.World.Spatial.Consistent(authoritative) {
		return
	}
	if l.Log != nil {
		l.Log.Warn("spatial index inconsistent with authoritative positions, rebuilding",
			zap.Uint64("tick", l.Tick))
	}
	l.World.Spatial.Rebuild(authoritative)
}

// recordEventOverflow collapses however many ring evictions happened this
// tick into a single "events_dropped" record, then resets the per-tick
// counter so the next tick reports only its own overflow.
func (l *Loop) recordEventOverflow() {
	dropped := l.World.Events.DroppedThisTick()
	if dropped == 0 {
		return
	}
	l.World.Events.ResetTickCounter()
	l.World.RecordEvent(l.Tick, "system", "events dropped", map[string]string{
		"count": strconv.FormatUint(dropped, 10),
	})
}

// emitKillEvents scans accepted COMBAT proposals for targets that died this
// tick and signals the bus. handler.Apply already recorded the death in the
// observable event Ring; this signal is what the kill-experience subscriber
// (wired in NewLoop) consumes on next tick's dispatch.
func (l *Loop) emitKillEvents(accepted []resolver.Decision) {
	for _, d := range accepted {
		if d.Proposal.Kind != proposal.Combat || !d.Proposal.HasTarget {
			continue
		}
		target, ok := l.World.Entities[d.Proposal.TargetID]
		if ok && target.Dead {
			event.Emit(l.Bus, event.EntityKilled{
				Victim: d.Proposal.TargetID,
				Killer: d.Proposal.ActorID,
				AtTick: l.Tick,
			})
		}
	}
}
