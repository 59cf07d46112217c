package engine

import (
	"context"
	"testing"
	"time"

	"github.com/tickforge/engine/internal/config"
	"github.com/tickforge/engine/internal/content"
	"github.com/tickforge/engine/internal/replay"
	"github.com/tickforge/engine/internal/scripting"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	cfg := testConfig()
	cfg.Engine.NumWorkers = 2
	cfg.Engine.TickRate = config.Duration(time.Millisecond)
	cfg.Engine.WorkerDeadline = config.Duration(20 * time.Millisecond)
	cfg.Spawner.SpawnInterval = 100
	cfg.Spawner.MaxEntities = 20

	formula, err := scripting.NewDamageFormula("", nil)
	if err != nil {
		t.Fatalf("NewDamageFormula: %v", err)
	}
	t.Cleanup(formula.Close)

	action := replay.NewActionLog(100, nil)
	return NewManager(cfg, content.Default(), formula, action, nil)
}

func TestManagerRunsAndAdvancesTicks(t *testing.T) {
	mgr := testManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr.Start(ctx)
	defer mgr.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if mgr.Stats().Tick > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected the tick counter to advance past zero")
}

func TestManagerPauseStopsTickAdvancement(t *testing.T) {
	mgr := testManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr.Start(ctx)
	defer mgr.Stop()

	mgr.SubmitControl("pause", 0)
	time.Sleep(20 * time.Millisecond)

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) && !mgr.Stats().Paused {
		time.Sleep(5 * time.Millisecond)
	}
	if !mgr.Stats().Paused {
		t.Fatal("expected Paused to be true after a pause command")
	}

	before := mgr.Stats().Tick
	time.Sleep(100 * time.Millisecond)
	after := mgr.Stats().Tick
	if after != before {
		t.Fatalf("expected no tick advancement while paused, went from %d to %d", before, after)
	}
}

func TestManagerStepAdvancesExactlyOneTickWhilePaused(t *testing.T) {
	mgr := testManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr.Start(ctx)
	defer mgr.Stop()

	mgr.SubmitControl("pause", 0)
	time.Sleep(50 * time.Millisecond)

	before := mgr.Stats().Tick
	mgr.SubmitControl("step", 0)
	time.Sleep(50 * time.Millisecond)
	after := mgr.Stats().Tick
	if after != before+1 {
		t.Fatalf("expected exactly one tick to advance on step, went from %d to %d", before, after)
	}
}

func TestManagerResetReturnsToTickZeroWithSameEntityCount(t *testing.T) {
	mgr := testManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initialCount := mgr.Stats().AliveCount

	mgr.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	mgr.SubmitControl("pause", 0)
	time.Sleep(50 * time.Millisecond)
	mgr.SubmitControl("reset", 0)
	time.Sleep(50 * time.Millisecond)
	mgr.Stop()

	stats := mgr.Stats()
	if stats.Tick != 0 {
		t.Fatalf("expected tick 0 immediately after reset while paused, got %d", stats.Tick)
	}
	if stats.AliveCount != initialCount {
		t.Fatalf("expected reset to reproduce the same initial entity count %d, got %d", initialCount, stats.AliveCount)
	}
}

func TestManagerCurrentSnapshotNeverNil(t *testing.T) {
	mgr := testManager(t)
	if mgr.CurrentSnapshot() == nil {
		t.Fatal("expected an initial snapshot before Start is even called")
	}
}
