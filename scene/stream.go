package scene

import (
	"sync"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/frameclock"
	"github.com/gogpu/compositor/graphics"
)

// DefaultQueueDepth is the number of buffers a client may queue ahead of
// the compositor.
const DefaultQueueDepth = 3

// BufferStream queues the buffers submitted for one surface.
//
// The stream advances at most once per global frame: every output
// compositing frame N sees the same buffer, and the queue moves only when
// a later frame is acquired.
//
// BufferStream is safe for concurrent use.
type BufferStream struct {
	mu      sync.Mutex
	depth   int
	pending []graphics.Buffer
	current graphics.Buffer

	// frame is the last acquired frame, valid once acquired is set.
	frame    uint64
	acquired bool

	dropped int
}

// NewBufferStream creates a stream holding at most depth queued buffers.
// A depth below 1 selects DefaultQueueDepth.
func NewBufferStream(depth int) *BufferStream {
	if depth < 1 {
		depth = DefaultQueueDepth
	}
	return &BufferStream{depth: depth}
}

// Submit queues b and returns the number of buffers now waiting.
// When the queue is full the oldest waiting buffer is dropped.
func (s *BufferStream) Submit(b graphics.Buffer) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == s.depth {
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.dropped++
		compositor.Logger().Warn("scene: buffer queue full, dropped oldest",
			"depth", s.depth, "dropped", s.dropped)
	}
	s.pending = append(s.pending, b)
	return len(s.pending)
}

// Acquire returns the buffer to show for frame.
//
// The first acquisition for a frame after the previous one pops the next
// queued buffer, if any. Acquiring an older or the same frame again
// returns the buffer already chosen for it.
func (s *BufferStream) Acquire(frame uint64) graphics.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acquired || (frame != s.frame && frameclock.WrappedGreaterOrEqual(frame, s.frame)) {
		s.acquired = true
		s.frame = frame
		if len(s.pending) > 0 {
			s.current = s.pending[0]
			s.pending[0] = nil
			s.pending = s.pending[1:]
		}
	}
	return s.current
}

// Current returns the buffer last handed out, or nil.
func (s *BufferStream) Current() graphics.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Queued returns the number of buffers waiting to be shown.
func (s *BufferStream) Queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Dropped returns how many buffers were discarded because the queue was full.
func (s *BufferStream) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Depth returns the queue capacity.
func (s *BufferStream) Depth() int {
	return s.depth
}
