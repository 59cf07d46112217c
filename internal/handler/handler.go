// Package handler implements the per-action-kind validate/apply pairs.
// apply is the only code in the engine permitted to mutate world state;
// validate is called by the resolver, apply by the tick loop after
// resolution. Handlers are registered in a table indexed by action kind;
// adding a new kind never touches the tick loop.
package handler

import (
	"go.uber.org/zap"

	"github.com/tickforge/engine/internal/core/rng"
	"github.com/tickforge/engine/internal/proposal"
	"github.com/tickforge/engine/internal/resolver"
	"github.com/tickforge/engine/internal/world"
)

// Handler is the validate/apply pair for one action kind.
type Handler struct {
	Validate resolver.Validator
	Apply    func(w *world.World, src *rng.Source, tick uint64, p proposal.Proposal)
}

// Table indexes handlers by kind and doubles as the resolver's validator
// set (Table.Validators()).
type Table struct {
	handlers map[proposal.Kind]Handler
	log      *zap.Logger
}

func NewTable() *Table {
	return &Table{handlers: make(map[proposal.Kind]Handler)}
}

func (t *Table) Register(kind proposal.Kind, h Handler) {
	t.handlers[kind] = h
}

// SetLogger attaches the logger ApplyAll uses to report a recovered handler
// panic. Optional; a nil logger just means those warnings are dropped.
func (t *Table) SetLogger(log *zap.Logger) {
	t.log = log
}

func (t *Table) Validators() map[proposal.Kind]resolver.Validator {
	out := make(map[proposal.Kind]resolver.Validator, len(t.handlers))
	for k, h := range t.handlers {
		out[k] = h.Validate
	}
	return out
}

// ApplyAll runs apply for every accepted decision, in the resolver's
// canonical order. Between successive applies the world is in a transient
// intra-tick state that no observer sees.
//
// A panic from one handler's apply is a handler bug, not an engine fault:
// it is recovered here and logged. Nothing is rolled back: fields the
// handler wrote before the panic keep their new values (COMBAT, for one,
// sets AI state and next_act_at before it rolls damage). ApplyAll reports this
// tick as degraded but lets every remaining accepted decision still apply —
// a single bad handler must not block the rest of the tick. This is
// distinct from an invariant violation (spatial-index corruption, a
// negative hp on a live entity), which is never raised from inside a
// handler and propagates all the way to the engine manager's abort path.
func (t *Table) ApplyAll(w *world.World, src *rng.Source, tick uint64, accepted []resolver.Decision) (degraded bool) {
	for _, d := range accepted {
		h, ok := t.handlers[d.Proposal.Kind]
		if !ok {
			continue
		}
		if t.applyOne(w, src, tick, h, d.Proposal) {
			degraded = true
		}
	}
	return degraded
}

func (t *Table) applyOne(w *world.World, src *rng.Source, tick uint64, h Handler, p proposal.Proposal) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			if t.log != nil {
				t.log.Warn("action handler panicked, action discarded",
					zap.String("kind", p.Kind.String()),
					zap.Uint64("actor_id", uint64(p.ActorID)),
					zap.Any("panic", r),
				)
			}
		}
	}()
	h.Apply(w, src, tick, p)
	return false
}
