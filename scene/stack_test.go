package scene

import (
	"errors"
	"image"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/compositor/graphics"
	"github.com/gogpu/gputypes"
)

type fakeBuffer struct {
	id graphics.BufferID
}

func (b fakeBuffer) ID() graphics.BufferID          { return b.id }
func (b fakeBuffer) Size() image.Point              { return image.Pt(10, 10) }
func (b fakeBuffer) Format() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (b fakeBuffer) CanBypass() bool                { return true }

// recorder collects change notifications.
type recorder struct {
	mu     sync.Mutex
	frames []int
}

func (r *recorder) callback(frames int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frames)
}

func (r *recorder) calls() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.frames)
}

func newRecordedStack(t *testing.T) (*Stack, *recorder) {
	t.Helper()
	st := NewStack()
	rec := &recorder{}
	if err := st.SetChangeCallback(rec.callback); err != nil {
		t.Fatalf("SetChangeCallback() error = %v", err)
	}
	return st, rec
}

func TestStackSnapshotOrder(t *testing.T) {
	st := NewStack()
	a := NewSurface(SurfaceParams{Position: image.Rect(0, 0, 10, 10)})
	b := NewSurface(SurfaceParams{Position: image.Rect(5, 5, 20, 20)})
	c := NewSurface(SurfaceParams{Position: image.Rect(0, 0, 5, 5)})
	for _, s := range []*Surface{a, b, c} {
		if err := st.Add(s); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	got := st.Snapshot(1).IDs()
	want := []graphics.ID{a.ID(), b.ID(), c.ID()}
	if !slices.Equal(got, want) {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}

	if err := st.Raise(a); err != nil {
		t.Fatalf("Raise() error = %v", err)
	}
	want = []graphics.ID{b.ID(), c.ID(), a.ID()}
	if got := st.Snapshot(2).IDs(); !slices.Equal(got, want) {
		t.Errorf("after Raise Snapshot() = %v, want %v", got, want)
	}

	if err := st.Lower(c); err != nil {
		t.Fatalf("Lower() error = %v", err)
	}
	want = []graphics.ID{c.ID(), b.ID(), a.ID()}
	if got := st.Snapshot(3).IDs(); !slices.Equal(got, want) {
		t.Errorf("after Lower Snapshot() = %v, want %v", got, want)
	}
}

func TestStackSnapshotState(t *testing.T) {
	st := NewStack()
	s := NewSurface(SurfaceParams{Position: image.Rect(0, 0, 10, 10), Shaped: true})
	_ = st.Add(s)

	s.Move(image.Pt(50, 60))
	s.Resize(image.Pt(30, 40))
	s.SetAlpha(2)

	list := st.Snapshot(1)
	if len(list) != 1 {
		t.Fatalf("Snapshot() length = %d, want 1", len(list))
	}
	r := list[0]
	if want := image.Rect(50, 60, 80, 100); r.ScreenPosition != want {
		t.Errorf("ScreenPosition = %v, want %v", r.ScreenPosition, want)
	}
	if r.Alpha != 1 {
		t.Errorf("Alpha = %v, want clamped 1", r.Alpha)
	}
	if !r.Shaped {
		t.Error("Shaped = false, want true")
	}
	if r.Transformation != graphics.Identity {
		t.Error("new surface should have identity transformation")
	}
	if r.Buffer != nil {
		t.Error("Buffer should be nil before the first submit")
	}
}

func TestStackHiddenSurfacesSkipped(t *testing.T) {
	st := NewStack()
	s := NewSurface(SurfaceParams{Position: image.Rect(0, 0, 10, 10), Hidden: true})
	_ = st.Add(s)

	if n := len(st.Snapshot(1)); n != 0 {
		t.Errorf("Snapshot() length = %d, want 0 for hidden surface", n)
	}
	s.SetVisible(true)
	if n := len(st.Snapshot(2)); n != 1 {
		t.Errorf("Snapshot() length = %d, want 1 after SetVisible", n)
	}
}

func TestStackErrors(t *testing.T) {
	st := NewStack()
	s := NewSurface(SurfaceParams{})

	if err := st.Remove(s); !errors.Is(err, ErrSurfaceNotFound) {
		t.Errorf("Remove() error = %v, want ErrSurfaceNotFound", err)
	}
	if err := st.Raise(s); !errors.Is(err, ErrSurfaceNotFound) {
		t.Errorf("Raise() error = %v, want ErrSurfaceNotFound", err)
	}
	_ = st.Add(s)
	if err := st.Add(s); !errors.Is(err, ErrSurfaceAttached) {
		t.Errorf("second Add() error = %v, want ErrSurfaceAttached", err)
	}
	if err := NewStack().Add(s); !errors.Is(err, ErrSurfaceAttached) {
		t.Errorf("Add() to other stack error = %v, want ErrSurfaceAttached", err)
	}
	if err := st.Remove(s); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
	if err := NewStack().Add(s); err != nil {
		t.Errorf("Add() after Remove error = %v", err)
	}
}

func TestStackSingleCallback(t *testing.T) {
	st, _ := newRecordedStack(t)

	if err := st.SetChangeCallback(func(int) {}); !errors.Is(err, ErrCallbackRegistered) {
		t.Errorf("second SetChangeCallback() error = %v, want ErrCallbackRegistered", err)
	}
	if err := st.SetChangeCallback(nil); err != nil {
		t.Errorf("SetChangeCallback(nil) error = %v", err)
	}
	if err := st.SetChangeCallback(func(int) {}); err != nil {
		t.Errorf("SetChangeCallback() after removal error = %v", err)
	}
}

func TestStackNotifiesEachMutation(t *testing.T) {
	st, rec := newRecordedStack(t)
	s := NewSurface(SurfaceParams{Position: image.Rect(0, 0, 10, 10)})

	_ = st.Add(s)
	s.Move(image.Pt(1, 1))
	s.SetAlpha(0.5)
	_ = st.Remove(s)

	if got := rec.calls(); !slices.Equal(got, []int{1, 1, 1, 1}) {
		t.Errorf("notifications = %v, want [1 1 1 1]", got)
	}

	// Detached surfaces do not notify.
	s.Move(image.Pt(2, 2))
	if got := len(rec.calls()); got != 4 {
		t.Errorf("notifications after detach = %d, want 4", got)
	}
}

func TestStackSubmitReportsQueuedFrames(t *testing.T) {
	st, rec := newRecordedStack(t)
	s := NewSurface(SurfaceParams{Position: image.Rect(0, 0, 10, 10)})
	_ = st.Add(s)

	s.Submit(fakeBuffer{1})
	s.Submit(fakeBuffer{2})

	if got := rec.calls(); !slices.Equal(got, []int{1, 1, 2}) {
		t.Errorf("notifications = %v, want [1 1 2]", got)
	}
}

func TestStackBatchCoalesces(t *testing.T) {
	st, rec := newRecordedStack(t)
	s := NewSurface(SurfaceParams{Position: image.Rect(0, 0, 10, 10)})
	_ = st.Add(s)

	st.Batch(func() {
		s.Move(image.Pt(5, 5))
		st.Batch(func() {
			s.Submit(fakeBuffer{1})
			s.Submit(fakeBuffer{2})
			s.Submit(fakeBuffer{3})
		})
		s.SetAlpha(0.3)
	})

	if got := rec.calls(); !slices.Equal(got, []int{1, 3}) {
		t.Errorf("notifications = %v, want [1 3]", got)
	}
}

func TestStackBatchWithoutChangesIsSilent(t *testing.T) {
	st, rec := newRecordedStack(t)
	st.Batch(func() {})

	if got := rec.calls(); len(got) != 0 {
		t.Errorf("notifications = %v, want none", got)
	}
}

func TestStackChangeVisibleBeforeNotification(t *testing.T) {
	st := NewStack()
	s := NewSurface(SurfaceParams{Position: image.Rect(0, 0, 10, 10)})
	_ = st.Add(s)

	var seen image.Rectangle
	_ = st.SetChangeCallback(func(int) {
		// The callback runs without the stack lock and sees the new state.
		seen = st.Snapshot(1)[0].ScreenPosition
	})
	s.Move(image.Pt(40, 40))

	if want := image.Rect(40, 40, 50, 50); seen != want {
		t.Errorf("callback saw %v, want %v", seen, want)
	}
}

func TestStackLockFreezesMutations(t *testing.T) {
	st := NewStack()
	s := NewSurface(SurfaceParams{Position: image.Rect(0, 0, 10, 10)})
	_ = st.Add(s)

	st.Lock()
	moved := make(chan struct{})
	go func() {
		s.Move(image.Pt(20, 20))
		close(moved)
	}()

	select {
	case <-moved:
		t.Fatal("Move() completed while stack was locked")
	case <-time.After(20 * time.Millisecond):
	}

	// Readers still work while locked.
	if got := st.Snapshot(1)[0].ScreenPosition.Min; got != image.Pt(0, 0) {
		t.Errorf("Snapshot() while locked = %v, want origin", got)
	}

	st.Unlock()
	<-moved
	if got := s.Position().Min; got != image.Pt(20, 20) {
		t.Errorf("Position() = %v, want (20,20)", got)
	}
}
