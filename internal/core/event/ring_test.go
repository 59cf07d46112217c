package event

import "testing"

func TestRingOverflowDropsOldest(t *testing.T) {
	r := NewRing(2)
	r.Append(Record{Tick: 1, Message: "a"})
	r.Append(Record{Tick: 2, Message: "b"})
	r.Append(Record{Tick: 3, Message: "c"})

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 retained records, got %d", len(all))
	}
	if all[0].Tick != 2 || all[1].Tick != 3 {
		t.Fatalf("unexpected retained records: %+v", all)
	}
	if r.DroppedThisTick() != 1 {
		t.Fatalf("expected 1 dropped record, got %d", r.DroppedThisTick())
	}
}

func TestRingSince(t *testing.T) {
	r := NewRing(10)
	for tick := uint64(1); tick <= 5; tick++ {
		r.Append(Record{Tick: tick})
	}
	got := r.Since(3)
	if len(got) != 3 {
		t.Fatalf("expected 3 records since tick 3, got %d", len(got))
	}
}

func TestRingCloneIsIndependent(t *testing.T) {
	r := NewRing(4)
	r.Append(Record{Tick: 1, Meta: map[string]string{"k": "v"}, Entities: []uint64{1, 2}})
	c := r.Clone()

	c.buf[0].Meta["k"] = "changed"
	if r.buf[0].Meta["k"] != "v" {
		t.Fatalf("clone mutation leaked into source")
	}
}
