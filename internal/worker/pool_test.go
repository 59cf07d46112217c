package worker

import (
	"context"
	"testing"
	"time"

	"github.com/tickforge/engine/internal/core/ecs"
	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/core/spatial"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/queue"
	"github.com/tickforge/engine/internal/snapshot"
	"github.com/tickforge/engine/internal/world"
)

func idleGoal() Goal {
	return Goal{
		Name:  "idle",
		Score: func(*snapshot.Snapshot, *world.Entity, *rng.Source, uint64) float64 { return 1 },
		Propose: func(_ *snapshot.Snapshot, e *world.Entity, _ *rng.Source, tick uint64) proposal.Proposal {
			return proposal.Proposal{ActorID: e.ID, Kind: proposal.Rest, NextActAt: tick + 1, TieBreaker: uint64(e.ID)}
		},
	}
}

// populatedSnapshot builds a world holding n entities and returns its
// snapshot plus the ids, mirroring how the tick loop hands the pool a
// (snapshot, entity_id) batch.
func populatedSnapshot(t *testing.T, n int) (*snapshot.Snapshot, []ecs.EntityID) {
	t.Helper()
	w := world.NewWorld(8, 8, 8)
	ids := make([]ecs.EntityID, 0, n)
	for i := 0; i < n; i++ {
		id := w.Dir.CreateEntity()
		e := world.NewEntity(id, "hero", spatial.Position{X: int32(i), Y: 0})
		e.HP, e.MaxHP = 10, 10
		w.AddEntity(e)
		ids = append(ids, id)
	}
	return snapshot.FromWorld(w, 1, "run"), ids
}

func TestEvaluateSubmitsOneProposalPerEntity(t *testing.T) {
	reg := NewRegistry()
	reg.Register(idleGoal())

	q := queue.NewProposalQueue()
	p := NewPool(4, reg, rng.NewSource(1), q, nil)

	snap, ids := populatedSnapshot(t, 3)

	res := p.Evaluate(context.Background(), snap, ids, 1)
	if res.Submitted != 3 {
		t.Fatalf("expected 3 submitted, got %d", res.Submitted)
	}
	if len(q.DrainAll()) != 3 {
		t.Fatalf("expected 3 proposals in queue")
	}
}

func TestEvaluateSkipsIDsAbsentFromSnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.Register(idleGoal())

	q := queue.NewProposalQueue()
	p := NewPool(2, reg, rng.NewSource(1), q, nil)

	snap, ids := populatedSnapshot(t, 1)
	ids = append(ids, ecs.EntityID(999))

	res := p.Evaluate(context.Background(), snap, ids, 1)
	if res.Submitted != 1 {
		t.Fatalf("expected only the present entity submitted, got %d", res.Submitted)
	}
}

func TestEvaluateDiscardsAfterDeadline(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Goal{
		Name:  "slow",
		Score: func(*snapshot.Snapshot, *world.Entity, *rng.Source, uint64) float64 { return 1 },
		Propose: func(_ *snapshot.Snapshot, e *world.Entity, _ *rng.Source, tick uint64) proposal.Proposal {
			time.Sleep(50 * time.Millisecond)
			return proposal.Proposal{ActorID: e.ID, Kind: proposal.Rest}
		},
	})

	q := queue.NewProposalQueue()
	p := NewPool(1, reg, rng.NewSource(1), q, nil)
	snap, ids := populatedSnapshot(t, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	res := p.Evaluate(ctx, snap, ids, 1)
	if !res.Degraded {
		t.Fatalf("expected tick marked degraded after deadline")
	}
}

func TestEvaluateRecoversFromPanickingGoal(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Goal{
		Name:  "panics",
		Score: func(*snapshot.Snapshot, *world.Entity, *rng.Source, uint64) float64 { return 1 },
		Propose: func(*snapshot.Snapshot, *world.Entity, *rng.Source, uint64) proposal.Proposal {
			panic("boom")
		},
	})

	q := queue.NewProposalQueue()
	p := NewPool(1, reg, rng.NewSource(1), q, nil)
	snap, ids := populatedSnapshot(t, 1)

	res := p.Evaluate(context.Background(), snap, ids, 1)
	if res.Submitted != 1 {
		t.Fatalf("expected a no-op proposal still submitted, got %d", res.Submitted)
	}
	got := q.DrainAll()
	if len(got) != 1 || got[0].Kind != proposal.NoOp {
		t.Fatalf("expected no-op proposal after panic, got %+v", got)
	}
}
