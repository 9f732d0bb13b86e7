package lcrq

import (
	"testing"

	"github.com/rishav/lcrq/internal/ring"
)

// BenchmarkQueue_SingleProducerSingleConsumer exercises the common case:
// one goroutine enqueueing, one draining, no ring closures expected.
func BenchmarkQueue_SingleProducerSingleConsumer(b *testing.B) {
	q, err := New(WithRingPow(12))
	if err != nil {
		b.Fatalf("New: %v", err)
	}

	b.ResetTimer()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < b.N; i++ {
			for {
				if _, ok := q.Dequeue(); ok {
					break
				}
			}
		}
	}()

	for i := 0; i < b.N; i++ {
		q.Enqueue(uint64(i + 1))
	}
	<-done
}

// BenchmarkQueue_MultiProducer benchmarks concurrent Enqueue throughput,
// matching the teacher's BenchmarkSequencer_MultiProducer shape.
func BenchmarkQueue_MultiProducer(b *testing.B) {
	q, err := New(WithRingPow(14))
	if err != nil {
		b.Fatalf("New: %v", err)
	}

	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		i := uint64(1)
		for pb.Next() {
			q.Enqueue(i)
			i++
		}
	})
}

// BenchmarkQueue_MultiProducerMultiConsumer drives both sides concurrently
// under RunParallel, letting producers and consumers interleave freely.
func BenchmarkQueue_MultiProducerMultiConsumer(b *testing.B) {
	q, err := New(WithRingPow(14))
	if err != nil {
		b.Fatalf("New: %v", err)
	}

	b.ResetTimer()

	var n int
	b.RunParallel(func(pb *testing.PB) {
		n++
		producer := n%2 == 1
		for pb.Next() {
			if producer {
				q.Enqueue(1)
			} else {
				q.Dequeue()
			}
		}
	})
}

// BenchmarkQueue_PrimedHalfFull exercises the FULL pre-fill supplemented
// feature (ring.Config.PrimeHalfFull): a ring constructed with its first
// half already marked occupied-by-a-placeholder. The untimed setup drains
// every primed value, checking that all of them are there; the timed part
// then runs Enqueue/Dequeue pairs on that ring, whose head and tail both
// start at the half mark instead of at zero.
func BenchmarkQueue_PrimedHalfFull(b *testing.B) {
	q, err := newQueue(Config{RingPow: 14}, ring.Config{RingPow: 14, PrimeHalfFull: true})
	if err != nil {
		b.Fatalf("newQueue: %v", err)
	}

	half := q.RingCap() / 2
	for i := uint64(0); i < half; i++ {
		if _, ok := q.Dequeue(); !ok {
			b.Fatalf("expected %d primed values, drained after %d", half, i)
		}
	}

	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		i := uint64(1)
		for pb.Next() {
			q.Enqueue(i)
			q.Dequeue()
			i++
		}
	})
}
