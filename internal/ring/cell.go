// Package ring implements the CRQ: a single fixed-capacity, lock-free
// ring buffer. Producers and consumers claim monotonically increasing
// tickets via fetch-and-add on head/tail and race through the cell at
// ticket mod N. A CRQ can be closed; once closed it never accepts another
// enqueue. The LCRQ (package lcrq) chains rings together so a closed ring
// is replaced rather than blocking producers.
//
// This package is internal: the spec's external interface lives one level
// up, at the LCRQ. A bare CRQ is not meant to be used standalone.
package ring

import "code.hybscloud.com/atomix"

// emptyVal is the in-cell EMPTY sentinel: all bits set. It must never be a
// legitimate enqueued value.
const emptyVal = ^uint64(0)

// unsafeBit marks a cell "unsafe": a consumer observed it empty at this
// logical position, and producers below that position must not claim it.
// closedBit, on a ring's tail counter, marks the ring terminally closed.
// Both occupy the same bit position (63) on their respective words.
const (
	unsafeBit = uint64(1) << 63
	closedBit = uint64(1) << 63
)

func isEmpty(val uint64) bool { return val == emptyVal }

// nodeIndex strips the unsafe bit, returning the logical position a cell
// last represented.
func nodeIndex(idx uint64) uint64 { return idx &^ unsafeBit }

// setUnsafe marks a logical position unsafe without disturbing it.
func setUnsafe(idx uint64) uint64 { return idx | unsafeBit }

// nodeUnsafe reports whether idx carries the unsafe marker.
func nodeUnsafe(idx uint64) bool { return idx&unsafeBit != 0 }

// tailIndex strips the closed bit, returning the enqueue ticket count.
func tailIndex(t uint64) uint64 { return t &^ closedBit }

// isClosed reports whether a tail value carries the closed marker.
func isClosed(t uint64) bool { return t&closedBit != 0 }

// cell is one slot of a ring. val and idx form a (value, index) pair that
// must transition atomically: a consumer that sees a fresh idx with a
// stale val (or the reverse) would lose or duplicate a value. Go has no
// native 128-bit compare-and-swap, so the pair is carried in a single
// atomix.Uint128 (lo=val, hi=idx), which packs both words into one
// hardware double-word CAS.
//
// Padded to a cache line so adjacent cells never false-share.
type cell struct {
	entry atomix.Uint128
	_     [64 - 16]byte
}

func (c *cell) load() (val, idx uint64) {
	return c.entry.LoadAcquire()
}

func (c *cell) cas(val, idx, newVal, newIdx uint64) bool {
	return c.entry.CompareAndSwapAcqRel(val, idx, newVal, newIdx)
}

func (c *cell) init(idx uint64) {
	c.entry.StoreRelaxed(emptyVal, idx)
}
