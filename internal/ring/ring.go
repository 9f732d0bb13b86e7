package ring

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// closeRetryBudget is the close attempt number at which a producer stops
// trying opportunistic (CAS) closure and forces it unconditionally:
// attempts 1 through closeRetryBudget-1 use CAS. Opportunistic
// closure is fair but can livelock under extreme contention; forcing
// closure after the budget guarantees forward progress at the cost of an
// occasional spurious close.
const closeRetryBudget = 10

// emptySpinLimit bounds how long a consumer spins on an empty cell before
// giving up and advancing the cell's epoch unconditionally.
const emptySpinLimit = 200_000

// tailReloadMask governs how often a spinning consumer reloads tail while
// waiting on an empty cell (every 1024 spins).
const tailReloadMask = 1<<10 - 1

// Config configures a single ring's capacity and optional instrumentation.
type Config struct {
	// RingPow is the base-2 logarithm of the ring's cell count.
	RingPow uint
	// PrimeHalfFull pre-fills the first half of the ring with placeholder
	// values (val=0) so the ring starts already half occupied. This
	// mirrors the reference implementation's FULL startup mode and is used
	// only by BenchmarkQueue_PrimedHalfFull.
	PrimeHalfFull bool
}

// Ring is a CRQ: a fixed-capacity, lock-free, multi-producer
// multi-consumer ring buffer that can be closed and chained to a
// successor. Each control word lives on its own cache line to avoid false
// sharing between producers and consumers hammering head, tail, and next
// independently.
type Ring struct {
	_    pad
	head atomix.Uint64
	_    pad
	tail atomix.Uint64
	_    pad
	next atomic.Pointer[Ring]
	_    pad

	mask  uint64
	cells []cell
	stats *Stats
}

type pad [64]byte

// New allocates and initializes a ring of 2^cfg.RingPow cells. Every cell
// starts empty, with idx set to its own slot number (epoch 0).
func New(cfg Config, stats *Stats) *Ring {
	n := uint64(1) << cfg.RingPow
	r := &Ring{
		mask:  n - 1,
		cells: make([]cell, n),
		stats: stats,
	}
	for i := uint64(0); i < n; i++ {
		r.cells[i].init(i)
	}
	if cfg.PrimeHalfFull {
		half := n / 2
		for i := uint64(0); i < half; i++ {
			r.cells[i].entry.StoreRelaxed(0, i)
		}
		r.tail.StoreRelaxed(half)
	}
	return r
}

func (r *Ring) size() uint64 { return r.mask + 1 }

// Next returns the ring's successor, or nil if none has been linked yet.
func (r *Ring) Next() *Ring { return r.next.Load() }

// CASNext links a successor onto this ring. It succeeds only if this ring
// had no successor yet.
func (r *Ring) CASNext(next *Ring) bool {
	return r.next.CompareAndSwap(nil, next)
}

// SoloInit installs v at cell 0 and sets tail to 1, preparing a freshly
// allocated ring to be linked as a successor with its first value already
// in place. The caller must not have published this ring to any other
// goroutine yet.
func (r *Ring) SoloInit(v uint64) {
	r.cells[0].entry.StoreRelease(v, 0)
	r.tail.StoreRelease(1)
}

// EnqueueOutcome reports how Enqueue resolved.
type EnqueueOutcome int

const (
	// EnqueueOK means v was written to the ring.
	EnqueueOK EnqueueOutcome = iota
	// EnqueueClosed means the ring is closed (or was just closed by this
	// call); the caller must link and retry on a successor.
	EnqueueClosed
)

// Enqueue claims a ticket and writes v to its cell, following spec.md
// §4.1: a producer that finds its cell ineligible (and the ring not yet
// saturated) retries on the SAME ticket rather than claiming a new one,
// since it is already committed to this cell.
func (r *Ring) Enqueue(v uint64) EnqueueOutcome {
	t := r.tail.AddAcqRel(1) - 1
	if isClosed(t) {
		return EnqueueClosed
	}

	c := &r.cells[t&r.mask]
	tries := 0
	sw := spin.Wait{}

	for {
		val, idx := c.load()

		if isEmpty(val) && nodeIndex(idx) <= t {
			h := r.head.LoadAcquire()
			if !nodeUnsafe(idx) || h < t {
				if c.cas(val, idx, v, t) {
					return EnqueueOK
				}
				sw.Once()
				continue
			}
		}

		h := r.head.LoadAcquire()
		if t-h >= r.size() {
			tries++
			if r.close(t, tries) {
				return EnqueueClosed
			}
		}
		sw.Once()
	}
}

// close transitions the ring's tail closed bit from 0 to 1. Attempts
// numbered below closeRetryBudget are opportunistic CAS (fails cleanly if
// another producer advanced tail); from attempt closeRetryBudget on,
// closure is forced unconditionally to guarantee progress.
func (r *Ring) close(t uint64, tries int) bool {
	if tries < closeRetryBudget {
		if r.tail.CompareAndSwapAcqRel(t+1, (t+1)|closedBit) {
			r.stats.countClose()
			return true
		}
		return false
	}
	for {
		cur := r.tail.LoadAcquire()
		if isClosed(cur) {
			return true
		}
		if r.tail.CompareAndSwapAcqRel(cur, cur|closedBit) {
			r.stats.countClose()
			return true
		}
	}
}

// DequeueOutcome reports how Dequeue resolved.
type DequeueOutcome int

const (
	// DequeueOK means a value was removed and returned.
	DequeueOK DequeueOutcome = iota
	// DequeueRetry means this ticket found no value; the caller should
	// claim a fresh ticket on the SAME ring and try again.
	DequeueRetry
	// DequeueEmpty means the ring is observably drained; the caller
	// should consult Next() and either advance to the successor ring or,
	// if there is none, report the queue empty.
	DequeueEmpty
)

// Dequeue claims a ticket and attempts to read its cell, following
// spec.md §4.1.
func (r *Ring) Dequeue() (uint64, DequeueOutcome) {
	h := r.head.AddAcqRel(1) - 1
	c := &r.cells[h&r.mask]

	var tt uint64
	spins := 0

	for {
		val, idx := c.load()
		index := nodeIndex(idx)
		unsafe := nodeUnsafe(idx)

		if index > h {
			break
		}

		if !isEmpty(val) {
			if index == h {
				if c.cas(val, idx, emptyVal, boolBit(unsafe)|(h+r.size())) {
					return val, DequeueOK
				}
			} else {
				if c.cas(val, idx, val, setUnsafe(index)) {
					r.stats.countUnsafe()
					break
				}
			}
		} else {
			if spins&tailReloadMask == 0 {
				tt = r.tail.LoadAcquire()
			}
			closed := isClosed(tt)
			t := tailIndex(tt)

			if unsafe {
				if c.cas(val, idx, val, unsafeBit|(h+r.size())) {
					break
				}
			} else if t-1 <= h || spins > emptySpinLimit || closed {
				if c.cas(val, idx, val, h+r.size()) {
					break
				}
			} else {
				spins++
			}
		}
	}

	// A tail index of 0 means nothing was ever enqueued on this ring; t-1
	// would wrap there, so that case counts as drained explicitly.
	if t := tailIndex(r.tail.LoadAcquire()); t == 0 || t-1 <= h {
		r.fixState()
		return 0, DequeueEmpty
	}
	return 0, DequeueRetry
}

func boolBit(b bool) uint64 {
	if b {
		return unsafeBit
	}
	return 0
}

// fixState restores head <= tail after a producer closes the ring while
// consumers are racing through it: an enqueuer's fetch-and-add can
// legitimately advance tail past head transiently before the producer
// discovers the ring is closed. Dequeue relies on head <= tail_index(tail)
// to decide the ring is drained, so this must run before reporting EMPTY.
func (r *Ring) fixState() {
	for {
		t := r.tail.LoadAcquire()
		h := r.head.LoadAcquire()
		if r.tail.LoadAcquire() != t {
			continue
		}
		if h > t {
			if r.tail.CompareAndSwapAcqRel(t, h) {
				return
			}
			continue
		}
		return
	}
}
