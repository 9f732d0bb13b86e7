package lcrq

import (
	"errors"

	"github.com/rishav/lcrq/internal/ring"
)

// DefaultRingPow is the reference implementation's default: rings of
// 2^17 = 131072 cells.
const DefaultRingPow = 17

// ErrRingPowInvalid is returned by New when Config.RingPow would produce
// a degenerate or unreasonably large ring.
var ErrRingPowInvalid = errors.New("lcrq: RingPow must be between 1 and 62")

// Config configures a Queue. The zero value is not usable directly; use
// DefaultConfig or New's functional options.
type Config struct {
	// RingPow is the base-2 logarithm of each ring's capacity (spec.md's
	// RING_POW). Default 17 (131072 cells per ring).
	RingPow uint

	// HazardPointers enables the per-call hazard-pointer publication hook
	// described in spec.md §4.4 (spec.md's HAVE_HPTRS). Off by default:
	// this module runs on Go's garbage collector, so a retired ring
	// simply becomes unreachable rather than requiring manual
	// reclamation (spec.md §9, "managed-memory implementation"). The hook
	// exists for parity with the spec and for callers who want to audit
	// hazard coverage; it is not required for memory safety here.
	HazardPointers bool

	// Stats enables ring-close and unsafe-mark counters (spec.md's
	// RING_STATS). Off by default.
	Stats bool
}

// DefaultConfig returns the reference implementation's defaults.
func DefaultConfig() Config {
	return Config{RingPow: DefaultRingPow}
}

// Option mutates a Config.
type Option func(*Config)

// WithRingPow sets the base-2 logarithm of each ring's cell count.
func WithRingPow(p uint) Option {
	return func(c *Config) { c.RingPow = p }
}

// WithHazardPointers toggles the hazard-pointer publication hook.
func WithHazardPointers(enabled bool) Option {
	return func(c *Config) { c.HazardPointers = enabled }
}

// WithStats toggles ring-close and unsafe-mark counters.
func WithStats(enabled bool) Option {
	return func(c *Config) { c.Stats = enabled }
}

func (c Config) ringConfig() ring.Config {
	return ring.Config{RingPow: c.RingPow}
}

func (c Config) validate() error {
	if c.RingPow == 0 || c.RingPow > 62 {
		return ErrRingPowInvalid
	}
	return nil
}
