package compositor

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/compositor/frameclock"
	"github.com/gogpu/compositor/graphics"
)

// MultiThreadedCompositor runs one compositing goroutine per output and
// schedules frames on all of them when the scene changes.
//
// All methods are safe for concurrent use. State transitions are
// serialized by a single mutex; scheduling takes the same mutex and then
// each output's own lock, never blocking on another output's work.
type MultiThreadedCompositor struct {
	scene   graphics.Scene
	display graphics.Display
	factory DisplayBufferCompositorFactory
	opts    options
	clock   *frameclock.Clock

	mu             sync.Mutex
	state          State
	functors       []*functor
	nextID         CompositorID
	composeOnStart bool

	// restarted is set once the compositor has been stopped; the next
	// Start drains stale frames before composing.
	restarted bool
}

// New creates a stopped compositor for the outputs of display.
func New(scene graphics.Scene, display graphics.Display, factory DisplayBufferCompositorFactory, opts ...Option) (*MultiThreadedCompositor, error) {
	if scene == nil {
		return nil, ErrNilScene
	}
	if display == nil {
		return nil, ErrNilDisplay
	}
	if factory == nil {
		return nil, ErrNilFactory
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	clock := o.clock
	if clock == nil {
		clock = frameclock.New()
	}

	return &MultiThreadedCompositor{
		scene:          scene,
		display:        display,
		factory:        factory,
		opts:           o,
		clock:          clock,
		composeOnStart: o.composeOnStart,
	}, nil
}

// Clock returns the global frame clock shared by all outputs.
func (c *MultiThreadedCompositor) Clock() *frameclock.Clock {
	return c.clock
}

// State returns the lifecycle state.
func (c *MultiThreadedCompositor) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Outputs returns the number of running output goroutines.
func (c *MultiThreadedCompositor) Outputs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.functors)
}

// Start registers for scene changes and launches one goroutine per output.
//
// Start is a no-op unless the compositor is stopped. If any step fails,
// everything done so far is undone, the compositor is stopped again and
// the error is returned; Start may then be retried.
func (c *MultiThreadedCompositor) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateStopped {
		return nil
	}
	c.state = StateStarting

	var rb rollback
	defer rb.run()
	rb.add(func() { c.state = StateStopped })

	if err := c.scene.SetChangeCallback(c.ScheduleCompositing); err != nil {
		return fmt.Errorf("compositor: register scene callback: %w", err)
	}
	rb.add(func() {
		if err := c.scene.SetChangeCallback(nil); err != nil {
			Logger().Warn("compositor: unregister scene callback", slog.Any("err", err))
		}
	})

	rb.add(c.destroyFunctors)
	if err := c.createFunctors(); err != nil {
		return err
	}

	c.state = StateStarted
	rb.dismiss()

	c.opts.report.Started()
	Logger().Info("compositor: started", slog.Int("outputs", len(c.functors)))

	if c.composeOnStart {
		if c.restarted {
			c.drain()
		}
		c.scheduleLocked(1)
	}
	return nil
}

// Stop stops and joins every output goroutine and unregisters from the
// scene. It is a no-op unless the compositor is started. A composite in
// progress finishes first.
func (c *MultiThreadedCompositor) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateStarted {
		return
	}
	c.state = StateStopping

	if err := c.scene.SetChangeCallback(nil); err != nil {
		Logger().Warn("compositor: unregister scene callback", slog.Any("err", err))
	}
	c.destroyFunctors()

	c.state = StateStopped

	// Clients may be blocked waiting for a frame to be consumed, so the
	// next start composes immediately.
	c.composeOnStart = true
	c.restarted = true

	c.opts.report.Stopped()
	Logger().Info("compositor: stopped")
}

// Close stops the compositor. It implements io.Closer.
func (c *MultiThreadedCompositor) Close() error {
	c.Stop()
	return nil
}

// ScheduleCompositing requests frames on every output.
//
// n > 0 raises each output's owed frames to at least n. n < 0 snoozes each
// idle output: it waits the snooze delay for a client frame and then forces
// -n frames. Calls while not started are ignored.
func (c *MultiThreadedCompositor) ScheduleCompositing(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateStarted {
		return
	}
	c.scheduleLocked(n)
}

func (c *MultiThreadedCompositor) scheduleLocked(n int) {
	c.opts.report.Scheduled()
	for _, f := range c.functors {
		f.schedule(n)
	}
}

func (c *MultiThreadedCompositor) createFunctors() error {
	return c.display.ForEachDisplayBuffer(func(db graphics.DisplayBuffer) error {
		c.nextID++
		b := Binding{ID: c.nextID, Clock: c.clock, Report: c.opts.report}
		f := newFunctor(c.nextID, db, c.factory, b, &c.opts)
		if err := f.start(); err != nil {
			return err
		}
		c.functors = append(c.functors, f)
		return nil
	})
}

func (c *MultiThreadedCompositor) destroyFunctors() {
	for _, f := range c.functors {
		f.stop()
	}
	c.functors = nil
}

// drain consumes frames that were queued while stopped so that content a
// client already replaced does not reappear after the restart.
//
// It runs once for all outputs, since buffer streams advance once per
// global frame. The outputs' frame counters were captured before the
// drain, so each output's first composite joins the last drained frame
// instead of advancing the clock: it shows the newest buffer, which the
// drain acquired but never displayed.
func (c *MultiThreadedCompositor) drain() {
	c.scene.Lock()
	defer c.scene.Unlock()

	frames := 2 * c.opts.maxQueueDepth
	for range frames {
		c.scene.Snapshot(c.clock.Tick())
	}
	Logger().Debug("compositor: drained stale frames", slog.Int("frames", frames))
}
