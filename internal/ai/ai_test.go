package ai

import (
	"testing"

	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/core/spatial"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/snapshot"
	"github.com/tickforge/engine/internal/worker"
	"github.com/tickforge/engine/internal/world"
)

func newSnapWithTwo(a, b *world.Entity) *snapshot.Snapshot {
	w := world.NewWorld(32, 32, 8)
	w.AddEntity(a)
	w.AddEntity(b)
	return snapshot.FromWorld(w, 0, "run")
}

func TestAcquireTargetPrefersVisibleMemoryInRange(t *testing.T) {
	hero := world.NewEntity(1, "hero", spatial.Position{X: 5, Y: 5})
	hero.Faction = "heroes"
	hero.VisionRange = 8
	goblin := world.NewEntity(2, "goblin", spatial.Position{X: 6, Y: 5})
	goblin.Faction = "monsters"

	hero.EntityMemory[goblin.ID] = &world.MemoryEntry{ID: goblin.ID, Visible: true, LastSeenTick: 3}

	snap := newSnapWithTwo(hero, goblin)
	target, ok := acquireTarget(snap, hero)
	if !ok {
		t.Fatal("expected a target")
	}
	if target.ID != goblin.ID {
		t.Fatalf("expected goblin, got %d", target.ID)
	}
}

func TestAcquireTargetFallsBackToVisionScan(t *testing.T) {
	hero := world.NewEntity(1, "hero", spatial.Position{X: 0, Y: 0})
	hero.Faction = "heroes"
	hero.VisionRange = 4
	goblin := world.NewEntity(2, "goblin", spatial.Position{X: 2, Y: 0})
	goblin.Faction = "monsters"

	snap := newSnapWithTwo(hero, goblin)
	target, ok := acquireTarget(snap, hero)
	if !ok || target.ID != goblin.ID {
		t.Fatalf("expected vision-scan fallback to find goblin, got %v %v", target, ok)
	}
}

func TestAcquireTargetIgnoresSameFaction(t *testing.T) {
	heroA := world.NewEntity(1, "hero", spatial.Position{X: 0, Y: 0})
	heroA.Faction = "heroes"
	heroA.VisionRange = 4
	heroB := world.NewEntity(2, "hero", spatial.Position{X: 1, Y: 0})
	heroB.Faction = "heroes"

	snap := newSnapWithTwo(heroA, heroB)
	if _, ok := acquireTarget(snap, heroA); ok {
		t.Fatal("expected no target among same-faction entities")
	}
}

func TestStepTowardPicksLexicographicClosingTile(t *testing.T) {
	from := spatial.Position{X: 0, Y: 0}
	to := spatial.Position{X: 5, Y: 1}
	step := stepToward(from, to)
	if step != (spatial.Position{X: 0, Y: 1}) {
		t.Fatalf("expected the lexicographically smallest closing step (0,1), got %+v", step)
	}
	if d := spatial.Manhattan(step, to); d != 5 {
		t.Fatalf("expected the step to reduce distance to 5, got %d", d)
	}
}

func TestStepTowardDiagonalHuntersContestOneTile(t *testing.T) {
	a := spatial.Position{X: 5, Y: 5}
	b := spatial.Position{X: 6, Y: 6}
	stepA := stepToward(a, b)
	stepB := stepToward(b, a)
	if stepA != stepB {
		t.Fatalf("diagonal closers must target the same tile, got %+v and %+v", stepA, stepB)
	}
	if stepA != (spatial.Position{X: 5, Y: 6}) {
		t.Fatalf("expected the shared tile (5,6), got %+v", stepA)
	}
}

func TestStepAwayMovesOppositeDirection(t *testing.T) {
	from := spatial.Position{X: 5, Y: 5}
	threat := spatial.Position{X: 6, Y: 5}
	step := stepAway(from, threat)
	if step.X != 4 || step.Y != 5 {
		t.Fatalf("expected a step away along x, got %+v", step)
	}
}

func TestFleeGoalScoresZeroAboveThreshold(t *testing.T) {
	cfg := Config{FleeHPThreshold: 0.25}
	hero := world.NewEntity(1, "hero", spatial.Position{X: 0, Y: 0})
	hero.HP, hero.MaxHP = 90, 100
	goblin := world.NewEntity(2, "goblin", spatial.Position{X: 1, Y: 0})
	goblin.Faction = "monsters"
	hero.VisionRange = 4

	snap := newSnapWithTwo(hero, goblin)
	goal := fleeGoal(cfg)
	if score := goal.Score(snap, hero, rng.NewSource(1), 0); score != 0 {
		t.Fatalf("expected zero flee score above threshold, got %v", score)
	}
}

func TestFleeGoalScoresPositiveBelowThresholdWithTarget(t *testing.T) {
	cfg := Config{FleeHPThreshold: 0.5}
	hero := world.NewEntity(1, "hero", spatial.Position{X: 0, Y: 0})
	hero.HP, hero.MaxHP = 10, 100
	hero.VisionRange = 4
	goblin := world.NewEntity(2, "goblin", spatial.Position{X: 1, Y: 0})
	goblin.Faction = "monsters"

	snap := newSnapWithTwo(hero, goblin)
	goal := fleeGoal(cfg)
	if score := goal.Score(snap, hero, rng.NewSource(1), 0); score <= 0 {
		t.Fatalf("expected positive flee score, got %v", score)
	}
}

func TestWanderGoalAlwaysProposes(t *testing.T) {
	hero := world.NewEntity(1, "hero", spatial.Position{X: 5, Y: 5})
	w := world.NewWorld(32, 32, 8)
	w.AddEntity(hero)
	snap := snapshot.FromWorld(w, 0, "run")

	goal := wanderGoal()
	prop := goal.Propose(snap, hero, rng.NewSource(1), 0)
	if prop.Kind != proposal.Move && prop.Kind != proposal.NoOp {
		t.Fatalf("expected a move or no-op proposal, got %v", prop.Kind)
	}
}

func TestRegisterDefaultsAlwaysYieldsAProposal(t *testing.T) {
	reg := worker.NewRegistry()
	RegisterDefaults(reg, Config{FleeHPThreshold: 0.25})

	hero := world.NewEntity(1, "hero", spatial.Position{X: 5, Y: 5})
	w := world.NewWorld(32, 32, 8)
	w.AddEntity(hero)
	snap := snapshot.FromWorld(w, 0, "run")

	prop, ok := reg.Evaluate(snap, hero, rng.NewSource(1), 0)
	if !ok {
		t.Fatal("expected a proposal from the default goal set")
	}
	_ = prop
}
