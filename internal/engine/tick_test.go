package engine

import (
	"context"
	"testing"
	"time"

	"github.com/tickforge/engine/internal/config"
	"github.com/tickforge/engine/internal/content"
	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/core/spatial"
	"github.com/tickforge/engine/internal/replay"
	"github.com/tickforge/engine/internal/scripting"
	"github.com/tickforge/engine/internal/snapshot"
	"github.com/tickforge/engine/internal/world"
)

// loopConfig is testConfig plus the fields RunTick itself needs: a worker
// deadline generous enough that no test tick ever degrades, and an active
// spawner so the determinism checks also cover Cleanup-phase spawning.
func loopConfig(workers int) *config.Config {
	cfg := testConfig()
	cfg.World.FleeHPThreshold = 0.25
	cfg.World.HeroRespawnTicks = 30
	cfg.World.NPCCorpseLingerTicks = 5
	cfg.Engine.NumWorkers = workers
	cfg.Engine.WorkerDeadline = config.Duration(time.Hour)
	cfg.Engine.EnvironmentDivisor = 4
	cfg.Spawner.SpawnInterval = 5
	cfg.Spawner.MaxEntities = 30
	return cfg
}

func testFormula(t *testing.T) *scripting.DamageFormula {
	t.Helper()
	formula, err := scripting.NewDamageFormula("", nil)
	if err != nil {
		t.Fatalf("NewDamageFormula: %v", err)
	}
	t.Cleanup(formula.Close)
	return formula
}

func runTicks(t *testing.T, cfg *config.Config, n int) uint64 {
	t.Helper()
	src := rng.NewSource(cfg.World.Seed)
	w := BuildWorld(cfg, content.Default(), src)
	loop := NewLoop(cfg, w, src, testFormula(t), "run", nil)

	var last *snapshot.Snapshot
	for i := 0; i < n; i++ {
		res := loop.RunTick(context.Background())
		if res.Degraded {
			t.Fatalf("tick %d unexpectedly degraded", res.Tick)
		}
		last = res.Snapshot
	}
	return last.Fingerprint()
}

func TestRunIsDeterministicAcrossIdenticalConfigs(t *testing.T) {
	f1 := runTicks(t, loopConfig(4), 50)
	f2 := runTicks(t, loopConfig(4), 50)
	if f1 != f2 {
		t.Fatalf("two identical runs diverged: %x != %x", f1, f2)
	}
}

func TestRunIsInsensitiveToWorkerCount(t *testing.T) {
	f1 := runTicks(t, loopConfig(8), 50)
	f2 := runTicks(t, loopConfig(2), 50)
	if f1 != f2 {
		t.Fatalf("worker count changed the outcome: %x != %x", f1, f2)
	}
}

func TestResetReproducesTheSameRun(t *testing.T) {
	cfg := loopConfig(4)
	formula := testFormula(t)
	action := replay.NewActionLog(100, nil)
	mgr := NewManager(cfg, content.Default(), formula, action, nil)

	run := func() uint64 {
		var f uint64
		for i := 0; i < 30; i++ {
			mgr.runOneTick(context.Background())
			f = mgr.CurrentSnapshot().Fingerprint()
		}
		return f
	}

	f1 := run()
	mgr.rebuild()
	f2 := run()
	if f1 != f2 {
		t.Fatalf("reset did not reproduce the run: %x != %x", f1, f2)
	}
}

func TestTickBoundaryInvariantsHold(t *testing.T) {
	cfg := loopConfig(4)
	src := rng.NewSource(cfg.World.Seed)
	w := BuildWorld(cfg, content.Default(), src)
	loop := NewLoop(cfg, w, src, testFormula(t), "run", nil)

	for i := 0; i < 40; i++ {
		loop.RunTick(context.Background())

		occupied := make(map[spatial.Position]uint64)
		for id, e := range w.Entities {
			if e.HP < 0 || e.HP > e.MaxHP {
				t.Fatalf("tick %d: entity %d hp %d out of [0, %d]", loop.Tick, id, e.HP, e.MaxHP)
			}
			if len(e.Inventory) > e.BagCapacity {
				t.Fatalf("tick %d: entity %d inventory %d exceeds bag %d", loop.Tick, id, len(e.Inventory), e.BagCapacity)
			}
			if e.Dead {
				continue
			}
			if prev, taken := occupied[e.Pos]; taken {
				t.Fatalf("tick %d: entities %d and %d share tile %+v", loop.Tick, prev, id, e.Pos)
			}
			occupied[e.Pos] = uint64(id)
		}
	}
}

// mutualHuntWorld places two mutually hostile entities at the given
// positions; both hunt each other from tick zero.
func mutualHuntWorld(cfg *config.Config, p1, p2 spatial.Position) (*world.World, *world.Entity, *world.Entity) {
	w := world.NewWorld(cfg.World.GridWidth, cfg.World.GridHeight, cfg.World.EventBufferCap)

	id1 := w.Dir.CreateEntity()
	e1 := world.NewEntity(id1, "hero", p1)
	e1.Faction = "heroes"
	e1.HP, e1.MaxHP = 100, 100
	e1.ATK, e1.DEF = 10, 2
	e1.VisionRange = 8
	w.AddEntity(e1)

	id2 := w.Dir.CreateEntity()
	e2 := world.NewEntity(id2, "goblin", p2)
	e2.Faction = "monsters"
	e2.HP, e2.MaxHP = 100, 100
	e2.ATK, e2.DEF = 10, 2
	e2.VisionRange = 8
	w.AddEntity(e2)

	return w, e1, e2
}

func TestMutualHuntLowerIDClosesFirstThenCombat(t *testing.T) {
	cfg := loopConfig(2)
	cfg.Spawner.MaxEntities = 0 // keep the arena to the two combatants
	w, e1, e2 := mutualHuntWorld(cfg, spatial.Position{X: 10, Y: 10}, spatial.Position{X: 12, Y: 10})
	loop := NewLoop(cfg, w, rng.NewSource(cfg.World.Seed), testFormula(t), "run", nil)

	res := loop.RunTick(context.Background())
	if res.Rejected == 0 {
		t.Fatalf("expected the higher-id closing move to be rejected")
	}
	if e1.Pos != (spatial.Position{X: 11, Y: 10}) {
		t.Fatalf("expected lower-id entity to take the contested tile, got %+v", e1.Pos)
	}
	if e2.Pos != (spatial.Position{X: 12, Y: 10}) {
		t.Fatalf("expected higher-id entity held in place, got %+v", e2.Pos)
	}
	if d := spatial.Manhattan(e1.Pos, e2.Pos); d != 1 {
		t.Fatalf("expected distance 1 after the first tick, got %d", d)
	}

	// The held entity is still eligible next tick and now adjacent: combat,
	// not movement, is its winning goal.
	loop.RunTick(context.Background())
	combatSeen := false
	for _, rec := range w.Events.Since(0) {
		if rec.Category == "combat" {
			combatSeen = true
		}
	}
	if !combatSeen {
		t.Fatalf("expected a combat event on the second tick")
	}
}

// Two diagonal hunters at distance 2 have two intermediate tiles; the
// closing-step policy must still send both to the same one so the resolver
// arbitrates, instead of letting them sidestep past each other forever.
func TestDiagonalMutualHuntContestsOneTileThenCombat(t *testing.T) {
	cfg := loopConfig(2)
	cfg.Spawner.MaxEntities = 0
	w, e1, e2 := mutualHuntWorld(cfg, spatial.Position{X: 5, Y: 5}, spatial.Position{X: 6, Y: 6})
	loop := NewLoop(cfg, w, rng.NewSource(cfg.World.Seed), testFormula(t), "run", nil)

	res := loop.RunTick(context.Background())
	if res.Rejected == 0 {
		t.Fatalf("expected the higher-id closing move to be rejected")
	}
	if e1.Pos != (spatial.Position{X: 5, Y: 6}) {
		t.Fatalf("expected lower-id entity on the shared intermediate tile, got %+v", e1.Pos)
	}
	if e2.Pos != (spatial.Position{X: 6, Y: 6}) {
		t.Fatalf("expected higher-id entity held in place, got %+v", e2.Pos)
	}
	if d := spatial.Manhattan(e1.Pos, e2.Pos); d != 1 {
		t.Fatalf("expected distance 1 after the first tick, got %d", d)
	}

	loop.RunTick(context.Background())
	combatSeen := false
	for _, rec := range w.Events.Since(0) {
		if rec.Category == "combat" {
			combatSeen = true
		}
	}
	if !combatSeen {
		t.Fatalf("expected combat on the second tick once adjacent")
	}
}

func TestCombatKillAwardsExperienceNextTick(t *testing.T) {
	cfg := loopConfig(2)
	cfg.Spawner.MaxEntities = 0
	w, e1, e2 := mutualHuntWorld(cfg, spatial.Position{X: 10, Y: 10}, spatial.Position{X: 12, Y: 10})
	e1.HP = 5 // one hit from e2 kills
	loop := NewLoop(cfg, w, rng.NewSource(cfg.World.Seed), testFormula(t), "run", nil)

	// Tick 1: e1 takes the contested tile. Tick 2: e2, still eligible and
	// now adjacent, lands the killing blow. Tick 3: the kill signal crosses
	// the buffer swap and the dispatch credits e2.
	loop.RunTick(context.Background())
	loop.RunTick(context.Background())
	if !e1.Dead {
		t.Fatalf("expected e1 dead after the second tick")
	}
	if e2.Experience != 0 {
		t.Fatalf("expected the award to wait for next tick's dispatch, got %d", e2.Experience)
	}
	loop.RunTick(context.Background())
	if e2.Experience == 0 {
		t.Fatalf("expected the killer credited with experience after dispatch")
	}
}

func TestCorpseDropsLootAndIsRemovedAfterLinger(t *testing.T) {
	cfg := loopConfig(2)
	cfg.Spawner.MaxEntities = 0
	w, _, e2 := mutualHuntWorld(cfg, spatial.Position{X: 10, Y: 10}, spatial.Position{X: 12, Y: 10})
	e2.Inventory = []uint64{7, 8}
	loop := NewLoop(cfg, w, rng.NewSource(cfg.World.Seed), testFormula(t), "run", nil)

	deathPos := e2.Pos
	_ = w.ApplyDamage(e2.ID, 1000, 0)

	loop.RunTick(context.Background())
	pile, ok := w.GroundItems[deathPos]
	if !ok || len(pile.Items) != 2 {
		t.Fatalf("expected the corpse's 2 items on the ground, got %+v", pile)
	}

	for i := uint64(0); i <= cfg.World.NPCCorpseLingerTicks; i++ {
		loop.RunTick(context.Background())
	}
	if _, still := w.Entities[e2.ID]; still {
		t.Fatalf("expected the corpse removed after its linger period")
	}
}
