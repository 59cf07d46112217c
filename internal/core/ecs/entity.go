package ecs

import "sync/atomic"

// EntityID is a process-wide unique identifier. Unlike a generational index,
// it is never reused once assigned: a dead entity's id stays retired for the
// lifetime of the run, so stored cross-references (threat tables, memory
// entries) never silently alias a different, later entity.
type EntityID uint64

func (id EntityID) IsZero() bool { return id == 0 }

// EntityAllocator hands out strictly increasing EntityIDs. Safe for
// concurrent use; the tick loop is the only caller in practice, but worker
// handlers that spawn entities (e.g. summons) may call Next from within a
// single-writer apply step.
type EntityAllocator struct {
	next uint64
}

// NewEntityAllocator returns an allocator whose first id is 1 (0 is reserved
// to mean "no entity").
func NewEntityAllocator() *EntityAllocator {
	return &EntityAllocator{next: 0}
}

func (a *EntityAllocator) Next() EntityID {
	return EntityID(atomic.AddUint64(&a.next, 1))
}

// Allocated reports how many ids have been handed out so far.
func (a *EntityAllocator) Allocated() uint64 {
	return atomic.LoadUint64(&a.next)
}
