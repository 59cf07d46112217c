package world

import (
	"testing"

	"github.com/tickforge/engine/internal/core/spatial"
)

func newTestWorld() (*World, *Entity) {
	w := NewWorld(16, 16, 64)
	id := w.Dir.CreateEntity()
	e := NewEntity(id, "hero", spatial.Position{X: 1, Y: 1})
	e.HP, e.MaxHP = 100, 100
	w.AddEntity(e)
	return w, e
}

func TestApplyDamageClampsToZero(t *testing.T) {
	w, e := newTestWorld()
	if err := w.ApplyDamage(e.ID, 500, 1); err != nil {
		t.Fatal(err)
	}
	if e.HP != 0 {
		t.Fatalf("expected HP clamped to 0, got %d", e.HP)
	}
	if !e.Dead {
		t.Fatalf("expected entity marked dead at 0 hp")
	}
}

func TestMoveEntityUpdatesSpatialIndex(t *testing.T) {
	w, e := newTestWorld()
	to := spatial.Position{X: 2, Y: 1}
	if err := w.MoveEntity(e.ID, to); err != nil {
		t.Fatal(err)
	}
	if w.Spatial.IsOccupied(spatial.Position{X: 1, Y: 1}) {
		t.Fatal("old position still occupied")
	}
	if !w.Spatial.IsOccupied(to) {
		t.Fatal("new position not occupied")
	}
}

func TestDropAndPickUpItemsRespectsBagCapacity(t *testing.T) {
	w, e := newTestWorld()
	e.BagCapacity = 2
	pos := spatial.Position{X: 1, Y: 1}
	w.DropItems(pos, []uint64{10, 11, 12})

	taken, err := w.PickUpItems(e.ID, pos)
	if err != nil {
		t.Fatal(err)
	}
	if len(taken) != 2 {
		t.Fatalf("expected 2 items taken (bag capacity), got %d", len(taken))
	}
	if len(e.Inventory) != 2 {
		t.Fatalf("expected inventory length 2, got %d", len(e.Inventory))
	}
	remaining, ok := w.GroundItems[pos]
	if !ok || len(remaining.Items) != 1 {
		t.Fatalf("expected 1 item left on ground, got %+v", remaining)
	}
}

func TestAdvanceEffectsExpiresAndAppliesDelta(t *testing.T) {
	w, e := newTestWorld()
	e.HP = 50
	w.AttachEffect(e.ID, StatusEffect{Kind: "poison", HPDeltaPerTick: -5, RemainingTicks: 1})

	w.AdvanceEffects(1)
	if e.HP != 45 {
		t.Fatalf("expected HP 45 after poison tick, got %d", e.HP)
	}
	if len(e.StatusEffects) != 0 {
		t.Fatalf("expected effect expired, got %+v", e.StatusEffects)
	}
}

func TestThreatTableTracksHighestAndIsPrunedOnDeath(t *testing.T) {
	w, victim := newTestWorld()
	attackerID := w.Dir.CreateEntity()
	w.AddThreat(victim.ID, attackerID, 50)

	top, ok := w.TopThreat(victim.ID)
	if !ok || top != attackerID {
		t.Fatalf("expected top threat %d, got %d ok=%v", attackerID, top, ok)
	}

	w.Dir.MarkForDestruction(attackerID)
	w.Dir.FlushDestroyQueue()
	w.PruneThreat()

	if _, ok := w.TopThreat(victim.ID); ok {
		t.Fatalf("expected threat table empty after pruning dead attacker")
	}
}

func TestRecordEventAndSince(t *testing.T) {
	w, e := newTestWorld()
	w.RecordEvent(5, "combat", "hit", nil, e.ID)
	recs := w.Events.Since(5)
	if len(recs) != 1 || recs[0].Category != "combat" {
		t.Fatalf("unexpected events: %+v", recs)
	}
}
