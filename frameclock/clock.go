// Package frameclock provides the frame counter shared by all outputs.
//
// Each output composites on its own schedule, but buffer consumers must see
// one consistent notion of "the current frame": a surface shown on two
// monitors should have its queue advanced once per frame, not once per
// monitor. Every output keeps a local [Counter]; advancing it moves the
// shared [Clock] forward only when that output is not behind the others.
//
// Frame numbers wrap around. Ordering uses the half-range comparison in
// [WrappedGreaterOrEqual], so the clock stays monotonic across the wrap.
package frameclock

import (
	"math"
	"sync"
)

// halfRange is the comparison window for wrapped ordering.
const halfRange = math.MaxUint64 / 2

// WrappedGreaterOrEqual reports whether a is at or after b, treating the
// counters as wrapping modulo 2^64.
func WrappedGreaterOrEqual(a, b uint64) bool {
	return a-b < halfRange
}

// Clock is the global frame clock.
//
// Clock is safe for concurrent use. Its mutex is held only for the
// compare-and-advance step.
type Clock struct {
	mu    sync.Mutex
	frame uint64
}

// New returns a clock starting at frame 0.
func New() *Clock {
	return &Clock{}
}

// NewAt returns a clock starting at frame start.
func NewAt(start uint64) *Clock {
	return &Clock{frame: start}
}

// Now returns the current global frame.
func (c *Clock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Tick unconditionally advances the clock and returns the new frame.
// It is used when frames are consumed without any output compositing them.
func (c *Clock) Tick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame++
	return c.frame
}

// advance moves the clock forward if local has caught up with it and
// returns the frame local should adopt.
func (c *Clock) advance(local uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if WrappedGreaterOrEqual(local, c.frame) {
		c.frame++
	}
	return c.frame
}

// Counter is one output's view of the clock.
// A Counter is used by a single goroutine.
type Counter struct {
	clock *Clock
	local uint64
}

// NewCounter captures the clock's current frame.
func NewCounter(c *Clock) *Counter {
	return &Counter{clock: c, local: c.Now()}
}

// Next returns the frame number for the next composite.
//
// The fastest output drives the clock. A slower output that falls behind
// jumps to the current global frame instead of pulling it back.
func (n *Counter) Next() uint64 {
	n.local = n.clock.advance(n.local)
	return n.local
}

// Frame returns the frame number of the last composite.
func (n *Counter) Frame() uint64 {
	return n.local
}
