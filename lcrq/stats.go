package lcrq

import "github.com/rishav/lcrq/internal/ring"

// Stats exposes the RING_STATS counters (spec.md §6) when WithStats(true)
// is set. A Queue built without stats enabled returns a Stats whose
// methods report zero.
type Stats struct {
	s *ring.Stats
}

// Closes returns how many rings have been closed on this queue.
func (s Stats) Closes() int64 { return s.s.Closes() }

// UnsafeMarks returns how many cells have been marked unsafe by a
// consumer that found a value from an earlier epoch still in its cell.
func (s Stats) UnsafeMarks() int64 { return s.s.UnsafeMarks() }
