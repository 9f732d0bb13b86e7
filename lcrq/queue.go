// Package lcrq implements a linearizable, multi-producer multi-consumer
// FIFO queue for machine-word (uint64) values: a linked list of CRQs (see
// internal/ring) that grows a fresh ring whenever the current tail ring
// closes, so no operation ever blocks and the queue has no fixed
// capacity.
//
// Two operations only, matching the spec this module implements:
//
//	q, _ := lcrq.New()
//	q.Enqueue(42)
//	v, ok := q.Dequeue() // ok is false iff the queue was observably empty
//
// Values must not equal [Empty] (all bits set); that value is reserved as
// the in-cell sentinel distinguishing an empty slot from an occupied one.
package lcrq

import (
	"sync"
	"sync/atomic"

	"github.com/rishav/lcrq/internal/ring"
)

// Empty is the sentinel reserved for the ring's internal representation
// of an unoccupied cell. It must never be enqueued.
const Empty = ^uint64(0)

// Queue is an LCRQ: head and tail pointers into a singly linked list of
// CRQs. The tail ring receives enqueues; the head ring serves dequeues.
// A Queue's zero value is not usable; construct one with New.
type Queue struct {
	headRing atomic.Pointer[ring.Ring]
	tailRing atomic.Pointer[ring.Ring]

	cfg        Config
	stats      *ring.Stats
	hazards    *sync.Pool
	spareRings sync.Pool
}

// New constructs a Queue and allocates its first ring, realizing spec.md's
// init() operation.
func New(opts ...Option) (*Queue, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newQueue(cfg, cfg.ringConfig())
}

func newQueue(cfg Config, firstRing ring.Config) (*Queue, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	q := &Queue{cfg: cfg}
	if cfg.Stats {
		q.stats = &ring.Stats{}
	}
	q.hazards = newHazardPool()
	q.spareRings.New = func() any {
		return ring.New(cfg.ringConfig(), q.stats)
	}

	first := ring.New(firstRing, q.stats)
	q.headRing.Store(first)
	q.tailRing.Store(first)
	return q, nil
}

// RingCap returns the per-ring cell capacity (2^RingPow).
func (q *Queue) RingCap() uint64 { return uint64(1) << q.cfg.RingPow }

// Stats returns the queue's RING_STATS counters. They read zero if
// WithStats was not enabled.
func (q *Queue) Stats() Stats { return Stats{s: q.stats} }

// Enqueue inserts v. It never fails and never blocks: if the tail ring is
// closed, Enqueue allocates (or reuses a cached) successor ring and links
// it before retrying, following spec.md §4.3.
func (q *Queue) Enqueue(v uint64) {
	if v == Empty {
		panic("lcrq: Empty sentinel cannot be enqueued")
	}

	hp, release := q.acquireHazard()
	defer release()

	for {
		rq := q.tailRing.Load()
		if hp != nil {
			hp.Publish(rq)
			if q.tailRing.Load() != rq {
				continue
			}
		}

		if next := rq.Next(); next != nil {
			q.tailRing.CompareAndSwap(rq, next)
			continue
		}

		switch rq.Enqueue(v) {
		case ring.EnqueueOK:
			return
		case ring.EnqueueClosed:
			nrq := q.spareRings.Get().(*ring.Ring)
			nrq.SoloInit(v)

			if rq.CASNext(nrq) {
				q.tailRing.CompareAndSwap(rq, nrq)
				return
			}

			// Lost the race to link a successor; nrq was never
			// published anywhere else, so it's safe to hand straight
			// back to the cache for the next close.
			q.spareRings.Put(nrq)
		}
	}
}

// Dequeue removes and returns the oldest value. ok is false iff the queue
// was observably empty: every reachable ring reported drained and none
// had a successor, following spec.md §4.3.
func (q *Queue) Dequeue() (uint64, bool) {
	hp, release := q.acquireHazard()
	defer release()

outer:
	for {
		rq := q.headRing.Load()
		if hp != nil {
			hp.Publish(rq)
			if q.headRing.Load() != rq {
				continue outer
			}
		}

		for {
			val, outcome := rq.Dequeue()
			switch outcome {
			case ring.DequeueOK:
				return val, true
			case ring.DequeueRetry:
				continue
			case ring.DequeueEmpty:
				next := rq.Next()
				if next == nil {
					return 0, false
				}
				// Retire rq: advancing head past it makes rq
				// unreachable from future operations. On this
				// garbage-collected runtime that's the entire
				// reclamation story (spec.md §9); the hazard-pointer
				// hook above exists for callers layering a manual
				// scheme on top, not for memory safety here.
				q.headRing.CompareAndSwap(rq, next)
				continue outer
			}
		}
	}
}
