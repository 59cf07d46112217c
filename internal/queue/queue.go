// Package queue implements the thread-safe multi-producer single-consumer
// proposal queue between the AI worker pool and the tick loop. The buffer
// is drained in full at the end of every Collect phase and is always empty
// afterward.
package queue

import (
	"sync"

	"github.com/tickforge/engine/internal/proposal"
)

// ProposalQueue is safe for any number of concurrent Push callers; DrainAll
// must be called only by the single consumer (the tick loop).
type ProposalQueue struct {
	mu   sync.Mutex
	buf  []proposal.Proposal
}

func NewProposalQueue() *ProposalQueue {
	return &ProposalQueue{buf: make([]proposal.Proposal, 0, 256)}
}

// Push enqueues one proposal. Preserves enqueue order within a single
// calling goroutine only — the resolver does not rely on cross-goroutine
// ordering.
func (q *ProposalQueue) Push(p proposal.Proposal) {
	q.mu.Lock()
	q.buf = append(q.buf, p)
	q.mu.Unlock()
}

// DrainAll atomically swaps out the backing slice and returns everything
// pushed since the last drain. The queue is empty immediately after.
func (q *ProposalQueue) DrainAll() []proposal.Proposal {
	q.mu.Lock()
	out := q.buf
	q.buf = make([]proposal.Proposal, 0, cap(out))
	q.mu.Unlock()
	return out
}

// Len reports the current backlog size; used for stats/observability only.
func (q *ProposalQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
