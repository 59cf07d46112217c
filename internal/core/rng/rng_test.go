package rng

import "testing"

func TestDrawIsDeterministic(t *testing.T) {
	s := NewSource(42)
	a, err := s.Draw(Combat, 7, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Draw(Combat, 7, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("same inputs produced different draws: %d != %d", a, b)
	}
}

func TestDrawDomainIsolation(t *testing.T) {
	s := NewSource(42)
	a, _ := s.Draw(Combat, 7, 100, 0)
	b, _ := s.Draw(Movement, 7, 100, 0)
	if a == b {
		t.Fatalf("distinct domains produced correlated draws")
	}
}

func TestDrawSaltIsolation(t *testing.T) {
	s := NewSource(42)
	a, _ := s.Draw(Combat, 7, 100, 0)
	b, _ := s.Draw(Combat, 7, 100, 1)
	if a == b {
		t.Fatalf("distinct salts produced the same draw")
	}
}

func TestDrawInvalidDomain(t *testing.T) {
	s := NewSource(42)
	_, err := s.Draw(Domain(200), 1, 1, 0)
	if err != ErrInvalidDomain {
		t.Fatalf("expected ErrInvalidDomain, got %v", err)
	}
}

func TestNextIntRange(t *testing.T) {
	s := NewSource(1)
	for i := 0; i < 200; i++ {
		v, err := s.NextInt(Loot, uint64(i), 1, 0, 5, 10)
		if err != nil {
			t.Fatal(err)
		}
		if v < 5 || v >= 10 {
			t.Fatalf("NextInt out of range: %d", v)
		}
	}
}

func TestNextFloatRange(t *testing.T) {
	s := NewSource(1)
	for i := 0; i < 200; i++ {
		f, err := s.NextFloat(AI, uint64(i), 1, 0)
		if err != nil {
			t.Fatal(err)
		}
		if f < 0 || f >= 1 {
			t.Fatalf("NextFloat out of range: %f", f)
		}
	}
}

func TestChoiceRange(t *testing.T) {
	s := NewSource(1)
	for i := 0; i < 50; i++ {
		c, err := s.Choice(Item, uint64(i), 1, 0, 3)
		if err != nil {
			t.Fatal(err)
		}
		if c < 0 || c >= 3 {
			t.Fatalf("Choice out of range: %d", c)
		}
	}
}
