package lcrq

import (
	"sync"
	"sync/atomic"

	"github.com/rishav/lcrq/internal/ring"
)

// HazardPointer is a single per-call hazard slot: a caller publishes the
// ring it is about to operate on, re-validates the global pointer didn't
// move, and clears the slot when done. This is the hook spec.md §4.4
// requires ("each thread publishes the ring it is operating on before
// re-checking the global pointer"); it is not a complete reclamation
// scheme (spec.md explicitly scopes that out), and on this GC'd runtime
// it is not load-bearing for memory safety — a retired ring is simply
// unreachable once nothing points to it.
//
// Go's goroutines have no stable thread-local storage, so a Queue hands
// out a HazardPointer per Enqueue/Dequeue call from a pool rather than
// keeping one per goroutine for the goroutine's lifetime, the way the
// reference implementation's __thread hazardptr does.
type HazardPointer struct {
	ring atomic.Pointer[ring.Ring]
}

// Publish records r as the ring this caller is about to operate on.
func (h *HazardPointer) Publish(r *ring.Ring) { h.ring.Store(r) }

// Clear releases the published ring.
func (h *HazardPointer) Clear() { h.ring.Store(nil) }

func newHazardPool() *sync.Pool {
	return &sync.Pool{New: func() any { return new(HazardPointer) }}
}

// acquireHazard returns a hazard slot if hazard pointers are enabled, and
// a nil slot and a no-op release function otherwise. Calling it
// unconditionally keeps the release path free of config branching;
// Enqueue/Dequeue check the slot for nil before each publish.
func (q *Queue) acquireHazard() (hp *HazardPointer, release func()) {
	if !q.cfg.HazardPointers {
		return nil, func() {}
	}
	hp = q.hazards.Get().(*HazardPointer)
	return hp, func() {
		hp.Clear()
		q.hazards.Put(hp)
	}
}
