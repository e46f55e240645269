package compositor

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/gogpu/compositor/graphics"
)

// functor drives the compositing of one output on its own goroutine.
//
// The goroutine is locked to an OS thread for its whole life, since the
// rendering context of an output is bound to the thread that made it
// current. A functor is bound to exactly one display buffer.
type functor struct {
	id      CompositorID
	db      graphics.DisplayBuffer
	factory DisplayBufferCompositorFactory
	binding Binding
	opts    *options

	// mu guards the schedule below. It is never held while compositing and
	// never taken by another output.
	mu       sync.Mutex
	running  bool
	owed     int
	snooze   int
	snoozeAt time.Time

	// wake is a one-slot notification channel; together with mu it plays
	// the role of a condition variable with a timed wait.
	wake chan struct{}
	done chan struct{}
}

func newFunctor(id CompositorID, db graphics.DisplayBuffer, factory DisplayBufferCompositorFactory, b Binding, opts *options) *functor {
	return &functor{
		id:      id,
		db:      db,
		factory: factory,
		binding: b,
		opts:    opts,
		running: true,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// start launches the goroutine and waits until the output's compositor is
// set up. On error the goroutine has already exited.
func (f *functor) start() error {
	ready := make(chan error, 1)
	go f.run(ready)

	if err := <-ready; err != nil {
		<-f.done
		return err
	}
	return nil
}

// stop asks the goroutine to exit and waits for it. An in-flight composite
// always completes first.
func (f *functor) stop() {
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
	f.signal()

	<-f.done
}

// schedule requests frames.
//
// A positive n raises the owed frame count to at least n. A negative n
// snoozes: if nothing is owed, wait the snooze delay for a client-driven
// frame and then force -n frames. Snoozing never lowers work already owed.
func (f *functor) schedule(n int) {
	f.mu.Lock()
	switch {
	case n > 0:
		f.owed = max(f.owed, n)
		f.snooze = 0
	case n < 0 && f.owed == 0:
		if f.snooze == 0 {
			f.snoozeAt = time.Now().Add(f.opts.snoozeDelay)
		}
		f.snooze = max(f.snooze, -n)
	}
	f.mu.Unlock()
	f.signal()
}

// pending returns the owed frame count and the armed snooze count.
func (f *functor) pending() (owed, snooze int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owed, f.snooze
}

func (f *functor) signal() {
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

func (f *functor) run(ready chan<- error) {
	defer close(f.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	dbc, err := f.setup()
	ready <- err
	if err != nil {
		return
	}

	if err := f.loop(dbc); err != nil {
		f.opts.fatal(err)
	}
}

// setup creates the output's compositor with the display buffer current,
// then releases it until the first frame.
//
// A failed or panicking setup leaves the display buffer released, so Start
// can be retried.
func (f *functor) setup() (dbc DisplayBufferCompositor, err error) {
	current := false
	defer func() {
		if r := recover(); r != nil {
			dbc = nil
			err = fmt.Errorf("%w: output %d setup: %v", ErrOutputPanicked, f.id, r)
		}
		if err != nil && current {
			_ = f.db.ReleaseCurrent()
		}
	}()

	if err := f.db.MakeCurrent(); err != nil {
		return nil, fmt.Errorf("compositor: output %d make current: %w", f.id, err)
	}
	current = true

	dbc, err = f.factory.CreateCompositorFor(f.db, f.binding)
	if err != nil {
		return nil, fmt.Errorf("compositor: output %d: %w", f.id, err)
	}

	area := f.db.ViewArea()
	f.binding.Report.AddedDisplay(area.Dx(), area.Dy(), area.Min.X, area.Min.Y, f.id)

	current = false
	if err := f.db.ReleaseCurrent(); err != nil {
		return nil, fmt.Errorf("compositor: output %d release current: %w", f.id, err)
	}
	return dbc, nil
}

// loop composites owed frames until stopped. Errors and panics escaping a
// composite end the loop and are returned.
func (f *functor) loop(dbc DisplayBufferCompositor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: output %d: %v", ErrOutputPanicked, f.id, r)
		}
	}()

	for f.next() {
		if err := dbc.Composite(); err != nil {
			return fmt.Errorf("compositor: output %d: %w", f.id, err)
		}
	}

	if err := f.db.ReleaseCurrent(); err != nil {
		Logger().Warn("compositor: release current on stop",
			slog.Uint64("id", uint64(f.id)), slog.Any("err", err))
	}
	return nil
}

// next blocks until a frame is owed and claims it. It returns false once
// the functor is stopped.
func (f *functor) next() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for f.running && f.owed == 0 {
		timeout := f.opts.heartbeat
		if f.snooze > 0 {
			timeout = time.Until(f.snoozeAt)
			if timeout <= 0 {
				f.owed, f.snooze = f.snooze, 0
				break
			}
		}

		f.mu.Unlock()
		timer := time.NewTimer(timeout)
		timedOut := false
		select {
		case <-f.wake:
		case <-timer.C:
			timedOut = true
		}
		timer.Stop()
		f.mu.Lock()

		// An idle timeout owes a heartbeat frame; an expired snooze is
		// handled at the top of the loop.
		if timedOut && f.running && f.owed == 0 && f.snooze == 0 {
			f.owed = 1
		}
	}

	if !f.running {
		return false
	}
	f.owed--
	return true
}
