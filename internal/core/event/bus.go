package event

import "reflect"

// Bus is a double-buffered in-process signal channel between tick phases:
// signals emitted during tick N are delivered by DispatchAll at the end of
// tick N+1's Cleanup. Unlike the Ring (the externally observable event
// log), Bus signals exist to drive other engine systems — subscribers may
// mutate world state, so delivery order is load-bearing for determinism.
// The back buffer is a single slice, not a per-type map: DispatchAll walks
// it in emission order, and the tick loop only ever emits from already
// canonically ordered code paths (resolver order, id-sorted cleanup scans).
//
// The Bus is owned by the tick loop goroutine. Subscribe is called only
// during wiring, Emit and DispatchAll only from the loop itself, so no
// locking is needed anywhere.
type Bus struct {
	front    []any
	back     []any
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[reflect.Type][]func(any))}
}

// Emit queues a signal into the back buffer; it is delivered next tick.
func Emit[T any](b *Bus, ev T) {
	b.back = append(b.back, ev)
}

// Subscribe registers a typed handler for signals of type T. Handlers for
// the same type run in registration order.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// SwapBuffers rotates back to front and clears the new back buffer. Called
// once at tick start.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front[:0]
}

// DispatchAll delivers the front buffer to its subscribers, in emission
// order.
func (b *Bus) DispatchAll() {
	for _, ev := range b.front {
		for _, h := range b.handlers[reflect.TypeOf(ev)] {
			h(ev)
		}
	}
}
