package scene

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/compositor/graphics"
)

var nextSurfaceID atomic.Uint64

// Stack is an ordered collection of surfaces, bottom first.
//
// Stack implements graphics.Scene and is safe for concurrent use.
type Stack struct {
	// guard is the lock exposed through Lock and Unlock. Mutations take it
	// before mu, so holding it freezes the stack without blocking readers.
	guard sync.Mutex

	mu       sync.RWMutex
	surfaces []*Surface
	callback graphics.ChangeFunc

	// batch counts nested Batch calls; pending is the largest frame count
	// requested while notifications were held back.
	batch   int
	pending int
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Lock freezes the stack. Mutations block until Unlock; Snapshot does not.
func (st *Stack) Lock() {
	st.guard.Lock()
}

// Unlock releases a Lock.
func (st *Stack) Unlock() {
	st.guard.Unlock()
}

// Snapshot returns the visible surfaces as renderables, back-to-front.
func (st *Stack) Snapshot(frame uint64) graphics.RenderableList {
	st.mu.RLock()
	defer st.mu.RUnlock()

	list := make(graphics.RenderableList, 0, len(st.surfaces))
	for _, s := range st.surfaces {
		if !s.visible {
			continue
		}
		list = append(list, s.renderable(frame))
	}
	return list
}

// SetChangeCallback installs fn as the change callback. A nil fn removes
// the current callback.
func (st *Stack) SetChangeCallback(fn graphics.ChangeFunc) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if fn != nil && st.callback != nil {
		return ErrCallbackRegistered
	}
	st.callback = fn
	return nil
}

// Add places s on top of the stack.
func (st *Stack) Add(s *Surface) error {
	if !s.stack.CompareAndSwap(nil, st) {
		return ErrSurfaceAttached
	}
	return st.mutate(func() error {
		st.surfaces = append(st.surfaces, s)
		return nil
	}, 1)
}

// Remove takes s out of the stack.
func (st *Stack) Remove(s *Surface) error {
	err := st.mutate(func() error {
		i := slices.Index(st.surfaces, s)
		if i < 0 {
			return ErrSurfaceNotFound
		}
		st.surfaces = slices.Delete(st.surfaces, i, i+1)
		return nil
	}, 1)
	if err == nil {
		s.stack.Store(nil)
	}
	return err
}

// Raise moves s to the top of the stack.
func (st *Stack) Raise(s *Surface) error {
	return st.mutate(func() error {
		i := slices.Index(st.surfaces, s)
		if i < 0 {
			return ErrSurfaceNotFound
		}
		st.surfaces = append(slices.Delete(st.surfaces, i, i+1), s)
		return nil
	}, 1)
}

// Lower moves s to the bottom of the stack.
func (st *Stack) Lower(s *Surface) error {
	return st.mutate(func() error {
		i := slices.Index(st.surfaces, s)
		if i < 0 {
			return ErrSurfaceNotFound
		}
		st.surfaces = slices.Insert(slices.Delete(st.surfaces, i, i+1), 0, s)
		return nil
	}, 1)
}

// Surfaces returns the surfaces in stacking order, bottom first.
func (st *Stack) Surfaces() []*Surface {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return slices.Clone(st.surfaces)
}

// Len returns the number of surfaces in the stack.
func (st *Stack) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.surfaces)
}

// Batch runs fn and delivers a single notification for all changes made
// inside it. Batches may nest; the notification is sent when the
// outermost batch returns.
func (st *Stack) Batch(fn func()) {
	st.mu.Lock()
	st.batch++
	st.mu.Unlock()

	defer func() {
		st.mu.Lock()
		st.batch--
		var cb graphics.ChangeFunc
		n := 0
		if st.batch == 0 && st.pending > 0 {
			n, cb = st.pending, st.callback
			st.pending = 0
		}
		st.mu.Unlock()

		if cb != nil {
			cb(n)
		}
	}()
	fn()
}

// mutate applies fn under both locks and then notifies.
func (st *Stack) mutate(fn func() error, frames int) error {
	st.guard.Lock()
	st.mu.Lock()
	err := fn()
	var cb graphics.ChangeFunc
	n := 0
	if err == nil {
		n, cb = st.queueLocked(frames)
	}
	st.mu.Unlock()
	st.guard.Unlock()

	if cb != nil {
		cb(n)
	}
	return err
}

// notify reports a change that did not touch stack state.
func (st *Stack) notify(frames int) {
	st.mu.Lock()
	n, cb := st.queueLocked(frames)
	st.mu.Unlock()

	if cb != nil {
		cb(n)
	}
}

// queueLocked records a request for frames and returns the callback to run
// with its argument, or nil while a batch is open.
func (st *Stack) queueLocked(frames int) (int, graphics.ChangeFunc) {
	st.pending = max(st.pending, frames)
	if st.batch > 0 {
		return 0, nil
	}
	n := st.pending
	st.pending = 0
	return n, st.callback
}

// Ensure Stack implements graphics.Scene.
var _ graphics.Scene = (*Stack)(nil)
