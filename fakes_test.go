package compositor

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/compositor/graphics"
	"github.com/gogpu/gputypes"
)

// waitFor polls cond until it holds or two seconds pass.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// fakeScene is a graphics.Scene serving a fixed list.
type fakeScene struct {
	lock   sync.Mutex
	locked atomic.Bool

	mu          sync.Mutex
	list        graphics.RenderableList
	frames      []uint64
	lockedSnaps int
	callback    graphics.ChangeFunc
	registerErr error
}

func (s *fakeScene) Lock() {
	s.lock.Lock()
	s.locked.Store(true)
}

func (s *fakeScene) Unlock() {
	s.locked.Store(false)
	s.lock.Unlock()
}

func (s *fakeScene) Snapshot(frame uint64) graphics.RenderableList {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
	if s.locked.Load() {
		s.lockedSnaps++
	}
	return append(graphics.RenderableList(nil), s.list...)
}

func (s *fakeScene) SetChangeCallback(fn graphics.ChangeFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil && s.registerErr != nil {
		return s.registerErr
	}
	s.callback = fn
	return nil
}

func (s *fakeScene) setList(list graphics.RenderableList) {
	s.mu.Lock()
	s.list = list
	s.mu.Unlock()
}

func (s *fakeScene) registered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callback != nil
}

// change fires the registered callback like a scene mutation would.
func (s *fakeScene) change(frames int) {
	s.mu.Lock()
	cb := s.callback
	s.mu.Unlock()
	if cb != nil {
		cb(frames)
	}
}

func (s *fakeScene) snapshotFrames() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.frames...)
}

// fakeBuffer is a graphics.Buffer handle.
type fakeBuffer struct {
	id       graphics.BufferID
	size     image.Point
	format   gputypes.TextureFormat
	bypasses bool
}

func (b *fakeBuffer) ID() graphics.BufferID          { return b.id }
func (b *fakeBuffer) Size() image.Point              { return b.size }
func (b *fakeBuffer) Format() gputypes.TextureFormat { return b.format }
func (b *fakeBuffer) CanBypass() bool                { return b.bypasses }

// fakeOutput is a graphics.DisplayBuffer recording calls.
type fakeOutput struct {
	area        image.Rectangle
	orientation graphics.Orientation
	format      gputypes.TextureFormat
	canBypass   bool
	accept      bool

	makeCurrentErr error
	postErr        error

	mu     sync.Mutex
	calls  []string
	posted []graphics.RenderableList

	makeCurrents atomic.Int32
	releases     atomic.Int32
	updates      atomic.Int32
}

func (o *fakeOutput) record(call string) {
	o.mu.Lock()
	o.calls = append(o.calls, call)
	o.mu.Unlock()
}

func (o *fakeOutput) callLog() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.calls...)
}

func (o *fakeOutput) ViewArea() image.Rectangle         { return o.area }
func (o *fakeOutput) Orientation() graphics.Orientation { return o.orientation }
func (o *fakeOutput) Format() gputypes.TextureFormat    { return o.format }
func (o *fakeOutput) CanBypass() bool                   { return o.canBypass }

func (o *fakeOutput) MakeCurrent() error {
	o.makeCurrents.Add(1)
	o.record("MakeCurrent")
	return o.makeCurrentErr
}

func (o *fakeOutput) ReleaseCurrent() error {
	o.releases.Add(1)
	o.record("ReleaseCurrent")
	return nil
}

func (o *fakeOutput) PostRenderablesIfOptimizable(list graphics.RenderableList) (bool, error) {
	o.record("PostRenderables")
	if o.postErr != nil {
		return false, o.postErr
	}
	if !o.accept {
		return false, nil
	}
	o.mu.Lock()
	o.posted = append(o.posted, list)
	o.mu.Unlock()
	return true, nil
}

func (o *fakeOutput) PostUpdate() error {
	o.updates.Add(1)
	o.record("PostUpdate")
	return o.postErr
}

// fakeDisplay enumerates fakeOutputs.
type fakeDisplay struct {
	outputs []*fakeOutput
}

func newFakeDisplay(n int) *fakeDisplay {
	d := &fakeDisplay{}
	for i := range n {
		d.outputs = append(d.outputs, &fakeOutput{area: image.Rect(i*100, 0, i*100+100, 100)})
	}
	return d
}

func (d *fakeDisplay) ForEachDisplayBuffer(fn func(graphics.DisplayBuffer) error) error {
	for _, o := range d.outputs {
		if err := fn(o); err != nil {
			return err
		}
	}
	return nil
}

// fakeRenderer is a graphics.Renderer recording calls into its output's log.
type fakeRenderer struct {
	out *fakeOutput

	beginErr  error
	renderErr error

	viewport image.Rectangle
	rotation float64
	rendered []graphics.ID
	suspends int
}

func (r *fakeRenderer) SetViewport(area image.Rectangle) {
	r.viewport = area
	r.out.record("SetViewport")
}

func (r *fakeRenderer) SetRotation(degrees float64) {
	r.rotation = degrees
	r.out.record("SetRotation")
}

func (r *fakeRenderer) Begin() error {
	r.out.record("Begin")
	return r.beginErr
}

func (r *fakeRenderer) Render(rend graphics.Renderable) error {
	r.rendered = append(r.rendered, rend.ID)
	r.out.record(fmt.Sprintf("Render(%d)", rend.ID))
	return r.renderErr
}

func (r *fakeRenderer) End() error {
	r.out.record("End")
	return nil
}

func (r *fakeRenderer) Suspend() {
	r.suspends++
	r.out.record("Suspend")
}

// fakeReport counts report events.
type fakeReport struct {
	started, stopped, scheduled atomic.Int32
	added, began, finished      atomic.Int32
	bypassed                    atomic.Int32
}

func (r *fakeReport) Started()   { r.started.Add(1) }
func (r *fakeReport) Stopped()   { r.stopped.Add(1) }
func (r *fakeReport) Scheduled() { r.scheduled.Add(1) }

func (r *fakeReport) AddedDisplay(int, int, int, int, CompositorID) { r.added.Add(1) }
func (r *fakeReport) BeganFrame(CompositorID)                       { r.began.Add(1) }

func (r *fakeReport) FinishedFrame(bypassed bool, _ CompositorID) {
	r.finished.Add(1)
	if bypassed {
		r.bypassed.Add(1)
	}
}

var errInjected = errors.New("injected failure")

// countingFactory creates countingCompositors, one per output, in order.
type countingFactory struct {
	mu       sync.Mutex
	created  []*countingCompositor
	failAt   int // 1-based output to fail creation for; 0 never fails
	panicAt  int // 1-based output whose creation panics, once
	gateAt   int // 1-based output whose composites wait on gate
	gate     chan struct{}
	err      error
	panicMsg string
}

func (f *countingFactory) CreateCompositorFor(db graphics.DisplayBuffer, b Binding) (DisplayBufferCompositor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.created) + 1
	if n == f.failAt {
		return nil, errInjected
	}
	if n == f.panicAt {
		f.panicAt = 0
		panic("factory exploded")
	}
	c := &countingCompositor{binding: b, err: f.err, panicMsg: f.panicMsg}
	if n == f.gateAt {
		c.gate = f.gate
	}
	f.created = append(f.created, c)
	return c, nil
}

func (f *countingFactory) compositors() []*countingCompositor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*countingCompositor(nil), f.created...)
}

// countingCompositor counts Composite calls.
type countingCompositor struct {
	binding  Binding
	gate     chan struct{}
	err      error
	panicMsg string

	composites atomic.Int32
	inside     atomic.Bool
}

func (c *countingCompositor) Composite() error {
	c.inside.Store(true)
	defer c.inside.Store(false)
	if c.gate != nil {
		<-c.gate
	}
	c.composites.Add(1)
	if c.panicMsg != "" {
		panic(c.panicMsg)
	}
	return c.err
}
