package ring

import "code.hybscloud.com/atomix"

// Stats counts ring closures and unsafe marks, gated behind the RING_STATS
// configuration option (spec.md §6). Counters are atomix.Int64 the same
// way the rest of the CRQ's control words are atomix types, so enabling
// stats never introduces a lock on the hot path.
type Stats struct {
	closes      atomix.Int64
	unsafeMarks atomix.Int64
}

// Closes returns the number of times a ring on this queue was closed.
func (s *Stats) Closes() int64 {
	if s == nil {
		return 0
	}
	return s.closes.LoadRelaxed()
}

// UnsafeMarks returns the number of cells marked unsafe by a consumer.
func (s *Stats) UnsafeMarks() int64 {
	if s == nil {
		return 0
	}
	return s.unsafeMarks.LoadRelaxed()
}

func (s *Stats) countClose() {
	if s != nil {
		s.closes.AddAcqRel(1)
	}
}

func (s *Stats) countUnsafe() {
	if s != nil {
		s.unsafeMarks.AddAcqRel(1)
	}
}
