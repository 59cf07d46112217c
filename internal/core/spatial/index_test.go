package spatial

import (
	"testing"

	"github.com/tickforge/engine/internal/core/ecs"
)

func TestInsertAndAt(t *testing.T) {
	idx := NewIndex()
	idx.Insert(1, Position{X: 0, Y: 0})
	if !idx.IsOccupied(Position{X: 0, Y: 0}) {
		t.Fatal("expected tile to be occupied")
	}
	ids := idx.At(Position{X: 0, Y: 0})
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("unexpected occupants: %v", ids)
	}
}

func TestMoveUpdatesBothCells(t *testing.T) {
	idx := NewIndex()
	idx.Insert(1, Position{X: 0, Y: 0})
	idx.Move(1, Position{X: 0, Y: 0}, Position{X: 1, Y: 0})
	if idx.IsOccupied(Position{X: 0, Y: 0}) {
		t.Fatal("old tile still reports occupied")
	}
	if !idx.IsOccupied(Position{X: 1, Y: 0}) {
		t.Fatal("new tile does not report occupied")
	}
}

func TestRemove(t *testing.T) {
	idx := NewIndex()
	idx.Insert(1, Position{X: 0, Y: 0})
	idx.Remove(1)
	if idx.IsOccupied(Position{X: 0, Y: 0}) {
		t.Fatal("tile still occupied after remove")
	}
}

func TestInRadius(t *testing.T) {
	idx := NewIndex()
	idx.Insert(1, Position{X: 0, Y: 0})
	idx.Insert(2, Position{X: 2, Y: 0})
	idx.Insert(3, Position{X: 5, Y: 5})

	got := idx.InRadius(Position{X: 0, Y: 0}, 2)
	set := map[ecs.EntityID]bool{}
	for _, id := range got {
		set[id] = true
	}
	if !set[1] || !set[2] || set[3] {
		t.Fatalf("InRadius returned unexpected set: %v", got)
	}
}

func TestNearest(t *testing.T) {
	idx := NewIndex()
	idx.Insert(5, Position{X: 3, Y: 0})
	idx.Insert(2, Position{X: 1, Y: 0})

	id, ok := idx.Nearest(Position{X: 0, Y: 0}, 10, func(ecs.EntityID) bool { return true })
	if !ok || id != 2 {
		t.Fatalf("expected nearest id 2, got %d ok=%v", id, ok)
	}
}

func TestConsistentDetectsMismatch(t *testing.T) {
	idx := NewIndex()
	idx.Insert(1, Position{X: 0, Y: 0})
	source := map[ecs.EntityID]Position{1: {X: 1, Y: 1}}
	if idx.Consistent(source) {
		t.Fatal("expected mismatch to be detected")
	}
	idx.Rebuild(source)
	if !idx.Consistent(source) {
		t.Fatal("expected index to match source after rebuild")
	}
}
