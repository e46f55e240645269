package frameclock

import (
	"math"
	"sync"
	"testing"
)

func TestWrappedGreaterOrEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want bool
	}{
		{"equal", 5, 5, true},
		{"greater", 6, 5, true},
		{"less", 5, 6, false},
		{"wrapped ahead", 1, math.MaxUint64, true},
		{"wrapped behind", math.MaxUint64, 1, false},
		{"zero after max", 0, math.MaxUint64, true},
		{"max before zero", math.MaxUint64, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrappedGreaterOrEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("WrappedGreaterOrEqual(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCounterSingleOutputAdvances(t *testing.T) {
	c := New()
	n := NewCounter(c)

	for want := uint64(1); want <= 5; want++ {
		if got := n.Next(); got != want {
			t.Fatalf("Next() = %d, want %d", got, want)
		}
	}
	if c.Now() != 5 {
		t.Errorf("Now() = %d, want 5", c.Now())
	}
}

func TestCounterTwoOutputsShareFrames(t *testing.T) {
	c := New()
	a := NewCounter(c)
	b := NewCounter(c)

	// Both outputs compositing in lockstep see the same frame numbers and
	// move the clock once per round.
	for round := uint64(1); round <= 3; round++ {
		fa := a.Next()
		fb := b.Next()
		if fa != round || fb != round {
			t.Fatalf("round %d: frames = %d, %d; want %d, %d", round, fa, fb, round, round)
		}
	}
	if c.Now() != 3 {
		t.Errorf("Now() = %d, want 3", c.Now())
	}
}

func TestCounterSlowOutputDoesNotRegress(t *testing.T) {
	c := New()
	fast := NewCounter(c)
	slow := NewCounter(c)

	for range 10 {
		fast.Next()
	}
	if got := slow.Next(); got != 10 {
		t.Errorf("slow Next() = %d, want 10", got)
	}
	if c.Now() != 10 {
		t.Errorf("Now() = %d, want 10 after slow output caught up", c.Now())
	}
	// Now in step again, the slow output drives the clock too.
	if got := slow.Next(); got != 11 {
		t.Errorf("slow Next() = %d, want 11", got)
	}
}

func TestClockMonotonicAcrossWrap(t *testing.T) {
	c := NewAt(math.MaxUint64 - 2)
	a := NewCounter(c)
	b := NewCounter(c)

	prev := c.Now()
	for i := range 8 {
		var f uint64
		if i%3 == 0 {
			f = b.Next()
		} else {
			f = a.Next()
		}
		now := c.Now()
		if !WrappedGreaterOrEqual(now, prev) {
			t.Fatalf("step %d: clock went back from %d to %d", i, prev, now)
		}
		if f != now {
			t.Fatalf("step %d: frame %d != clock %d", i, f, now)
		}
		prev = now
	}
	if c.Now() >= math.MaxUint64-2 {
		t.Errorf("clock should have wrapped, got %d", c.Now())
	}
}

func TestClockTick(t *testing.T) {
	c := NewAt(41)
	if got := c.Tick(); got != 42 {
		t.Errorf("Tick() = %d, want 42", got)
	}
}

func TestClockConcurrentCounters(t *testing.T) {
	c := New()
	const outputs, frames = 4, 500

	var wg sync.WaitGroup
	for range outputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := NewCounter(c)
			prev := n.Frame()
			for range frames {
				f := n.Next()
				if !WrappedGreaterOrEqual(f, prev) {
					t.Errorf("counter went back from %d to %d", prev, f)
					return
				}
				prev = f
			}
		}()
	}
	wg.Wait()

	if now := c.Now(); now < frames || now > outputs*frames {
		t.Errorf("Now() = %d, want within [%d, %d]", now, frames, outputs*frames)
	}
}
