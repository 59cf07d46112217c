// Package replay implements the tick engine's action log: the ordered
// record of every accepted proposal each tick, kept in-core for inspection
// and optionally mirrored to Postgres for durable replay. The log plus
// (seed, config) is sufficient to reconstruct any tick.
package replay

import (
	"sync"

	"github.com/tickforge/engine/internal/core/ecs"
	"github.com/tickforge/engine/internal/proposal"
)

// Entry is one accepted proposal's durable record: actor, kind, target and
// the proposal's payload. It holds the proposal, not its outcome (damage,
// crits), so reconstructing a tick replays the handlers' RNG draws from the
// run's seed.
type Entry struct {
	Tick    uint64
	ActorID ecs.EntityID
	Kind    proposal.Kind
	Target  ecs.EntityID
	Payload any
}

// Sink receives each tick's accepted entries. ActionLog always appends to
// its own in-core ring; a Sink is an optional secondary mirror (Postgres).
type Sink interface {
	WriteTick(tick uint64, entries []Entry) error
}

// ActionLog is the in-core, bounded action history. It is safe for
// concurrent reads (TicksSince) while RecordTick is called from the
// engine's single background goroutine.
type ActionLog struct {
	mu       sync.RWMutex
	capacity int
	byTick   map[uint64][]Entry
	order    []uint64 // ticks in insertion order, for eviction

	sink Sink
}

// NewActionLog builds a log that retains at most capacity ticks' worth of
// entries in-core; 0 means unbounded (only safe for short-lived runs or
// when a Sink persists everything instead).
func NewActionLog(capacity int, sink Sink) *ActionLog {
	return &ActionLog{
		capacity: capacity,
		byTick:   make(map[uint64][]Entry),
		sink:     sink,
	}
}

// RecordTick stores tick's entries (built by the caller from the accepted
// resolver decisions), evicts the oldest ticks beyond capacity, and forwards
// the entries to the Sink if one is configured. A Sink
// write failure is not fatal to the tick loop: it is the caller's
// responsibility to log it, since replay durability is observability, not a
// gameplay invariant.
func (l *ActionLog) RecordTick(tick uint64, entries []Entry) error {
	l.mu.Lock()
	l.byTick[tick] = entries
	l.order = append(l.order, tick)
	if l.capacity > 0 {
		for len(l.order) > l.capacity {
			evict := l.order[0]
			l.order = l.order[1:]
			delete(l.byTick, evict)
		}
	}
	l.mu.Unlock()

	if l.sink != nil {
		return l.sink.WriteTick(tick, entries)
	}
	return nil
}

// TicksSince returns every retained tick's entries at or after fromTick,
// keyed by tick; the map itself carries no order. Ticks evicted from the in-core ring are simply absent; a
// caller that needs the full history should configure a Sink.
func (l *ActionLog) TicksSince(fromTick uint64) map[uint64][]Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[uint64][]Entry, len(l.byTick))
	for tick, entries := range l.byTick {
		if tick >= fromTick {
			out[tick] = entries
		}
	}
	return out
}
