package snapshot

import (
	"testing"

	"github.com/tickforge/engine/internal/core/spatial"
	"github.com/tickforge/engine/internal/world"
)

func TestFromWorldIsIndependentOfLiveMutation(t *testing.T) {
	w := world.NewWorld(8, 8, 32)
	id := w.Dir.CreateEntity()
	e := world.NewEntity(id, "hero", spatial.Position{X: 0, Y: 0})
	e.HP, e.MaxHP = 100, 100
	w.AddEntity(e)

	snap := FromWorld(w, 1, "run-1")

	e.HP = 1
	e.Inventory = append(e.Inventory, 99)

	got := snap.Entities[id]
	if got.HP != 100 {
		t.Fatalf("snapshot entity HP mutated by live-world change: %d", got.HP)
	}
	if len(got.Inventory) != 0 {
		t.Fatalf("snapshot entity inventory mutated by live-world change: %v", got.Inventory)
	}
}

func TestSnapshotGridIndependentOfLiveMutation(t *testing.T) {
	w := world.NewWorld(4, 4, 8)
	snap := FromWorld(w, 1, "run-1")

	w.SetTile(spatial.Position{X: 0, Y: 0}, world.DefaultTile(world.Wall))

	tile, _ := snap.Grid.At(0, 0)
	if tile.Kind == world.Wall {
		t.Fatalf("snapshot grid mutated by live-world tile change")
	}
}

func TestFingerprintStableAndSensitive(t *testing.T) {
	w := world.NewWorld(8, 8, 32)
	id := w.Dir.CreateEntity()
	e := world.NewEntity(id, "hero", spatial.Position{X: 3, Y: 3})
	e.HP, e.MaxHP = 100, 100
	w.AddEntity(e)

	a := FromWorld(w, 5, "run-a").Fingerprint()
	b := FromWorld(w, 5, "run-b").Fingerprint()
	if a != b {
		t.Fatalf("fingerprint must not depend on the run id: %x != %x", a, b)
	}

	e.HP = 50
	c := FromWorld(w, 5, "run-a").Fingerprint()
	if a == c {
		t.Fatalf("fingerprint failed to change with entity state")
	}

	e.HP = 100
	d := FromWorld(w, 6, "run-a").Fingerprint()
	if a == d {
		t.Fatalf("fingerprint failed to change with the tick counter")
	}
}

func TestEventsSinceFiltersByTick(t *testing.T) {
	w := world.NewWorld(4, 4, 8)
	w.RecordEvent(1, "spawn", "a", nil)
	w.RecordEvent(2, "spawn", "b", nil)
	snap := FromWorld(w, 2, "run-1")

	got := snap.EventsSince(2)
	if len(got) != 1 || got[0].Message != "b" {
		t.Fatalf("unexpected events: %+v", got)
	}
}
