package scene

import (
	"image"
	"sync/atomic"

	"github.com/gogpu/compositor/graphics"
	"golang.org/x/image/math/f64"
)

// SurfaceParams describes a new surface.
type SurfaceParams struct {
	// Position is the initial screen rectangle.
	Position image.Rectangle

	// Alpha is the initial opacity. Zero selects 1 (opaque).
	Alpha float64

	// Shaped marks surfaces with per-pixel transparency.
	Shaped bool

	// QueueDepth bounds the buffer queue. Zero selects DefaultQueueDepth.
	QueueDepth int

	// Hidden creates the surface invisible.
	Hidden bool
}

// Surface is one client surface in a Stack.
//
// Setters may be called from any goroutine. While the surface is part of a
// stack every change notifies the stack's change callback.
type Surface struct {
	id     graphics.ID
	stream *BufferStream
	stack  atomic.Pointer[Stack]

	// The fields below are guarded by the owning stack's lock once the
	// surface is added. A detached surface must not be used concurrently.
	position  image.Rectangle
	transform f64.Mat4
	alpha     float64
	shaped    bool
	visible   bool
}

// NewSurface creates a detached surface.
func NewSurface(p SurfaceParams) *Surface {
	alpha := p.Alpha
	if alpha == 0 {
		alpha = 1
	}
	return &Surface{
		id:        graphics.ID(nextSurfaceID.Add(1)),
		stream:    NewBufferStream(p.QueueDepth),
		position:  p.Position.Canon(),
		transform: graphics.Identity,
		alpha:     alpha,
		shaped:    p.Shaped,
		visible:   !p.Hidden,
	}
}

// ID returns the surface identity.
func (s *Surface) ID() graphics.ID {
	return s.id
}

// Stream returns the surface's buffer stream.
func (s *Surface) Stream() *BufferStream {
	return s.stream
}

// Position returns the current screen rectangle.
func (s *Surface) Position() image.Rectangle {
	var r image.Rectangle
	s.read(func() { r = s.position })
	return r
}

// Move places the surface's top-left corner at to.
func (s *Surface) Move(to image.Point) {
	s.update(func() {
		s.position = s.position.Add(to.Sub(s.position.Min))
	})
}

// Resize changes the surface size, keeping its top-left corner.
func (s *Surface) Resize(size image.Point) {
	s.update(func() {
		s.position.Max = s.position.Min.Add(size)
		s.position = s.position.Canon()
	})
}

// SetPosition replaces the screen rectangle.
func (s *Surface) SetPosition(r image.Rectangle) {
	s.update(func() { s.position = r.Canon() })
}

// SetAlpha sets the surface opacity, clamped to [0, 1].
func (s *Surface) SetAlpha(alpha float64) {
	alpha = min(max(alpha, 0), 1)
	s.update(func() { s.alpha = alpha })
}

// SetTransformation sets the transformation applied about the surface centre.
func (s *Surface) SetTransformation(m f64.Mat4) {
	s.update(func() { s.transform = m })
}

// SetShaped marks the surface as having per-pixel transparency.
func (s *Surface) SetShaped(shaped bool) {
	s.update(func() { s.shaped = shaped })
}

// SetVisible shows or hides the surface.
func (s *Surface) SetVisible(visible bool) {
	s.update(func() { s.visible = visible })
}

// Visible reports whether the surface is shown.
func (s *Surface) Visible() bool {
	var v bool
	s.read(func() { v = s.visible })
	return v
}

// Submit queues a new buffer for the surface. The stack's change callback
// receives the number of queued buffers, so the compositor schedules enough
// frames to catch up.
func (s *Surface) Submit(b graphics.Buffer) {
	queued := s.stream.Submit(b)

	st := s.owner()
	if st == nil {
		return
	}
	st.notify(queued)
}

// renderable builds the snapshot for frame. Callers hold the stack lock.
func (s *Surface) renderable(frame uint64) graphics.Renderable {
	return graphics.Renderable{
		ID:             s.id,
		ScreenPosition: s.position,
		Transformation: s.transform,
		Alpha:          s.alpha,
		Shaped:         s.shaped,
		Buffer:         s.stream.Acquire(frame),
	}
}

func (s *Surface) owner() *Stack {
	return s.stack.Load()
}

func (s *Surface) update(fn func()) {
	st := s.owner()
	if st == nil {
		fn()
		return
	}
	st.mutate(func() error {
		fn()
		return nil
	}, 1)
}

func (s *Surface) read(fn func()) {
	st := s.owner()
	if st == nil {
		fn()
		return
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	fn()
}
