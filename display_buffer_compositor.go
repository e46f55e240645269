package compositor

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/compositor/bypass"
	"github.com/gogpu/compositor/frameclock"
	"github.com/gogpu/compositor/graphics"
	"github.com/gogpu/compositor/occlusion"
)

// DisplayBufferCompositor produces frames for one output.
//
// Composite is called only from the goroutine owning the output. An error
// means the output is in an unknown state and is treated as fatal.
type DisplayBufferCompositor interface {
	Composite() error
}

// Binding carries what an output's compositor shares with the rest of the
// MultiThreadedCompositor.
type Binding struct {
	// ID identifies the output in reports.
	ID CompositorID

	// Clock is the global frame clock.
	Clock *frameclock.Clock

	// Report receives per-frame events.
	Report Report
}

// DisplayBufferCompositorFactory creates the compositor of one output.
//
// CreateCompositorFor is called on the output goroutine with db current.
type DisplayBufferCompositorFactory interface {
	CreateCompositorFor(db graphics.DisplayBuffer, b Binding) (DisplayBufferCompositor, error)
}

// DefaultFactory creates DefaultDisplayBufferCompositors drawing scene with
// renderers from a graphics.RendererFactory.
type DefaultFactory struct {
	scene     graphics.Scene
	renderers graphics.RendererFactory
}

// NewDefaultFactory returns a factory compositing scene with renderers.
func NewDefaultFactory(scene graphics.Scene, renderers graphics.RendererFactory) (*DefaultFactory, error) {
	if scene == nil {
		return nil, ErrNilScene
	}
	if renderers == nil {
		return nil, ErrNilFactory
	}
	return &DefaultFactory{scene: scene, renderers: renderers}, nil
}

// CreateCompositorFor creates a renderer for db and wraps it.
func (f *DefaultFactory) CreateCompositorFor(db graphics.DisplayBuffer, b Binding) (DisplayBufferCompositor, error) {
	r, err := f.renderers.CreateRenderer(db)
	if err != nil {
		return nil, fmt.Errorf("compositor: create renderer: %w", err)
	}
	return NewDisplayBufferCompositor(db, r, f.scene, b), nil
}

// DefaultDisplayBufferCompositor composites one output per Composite call,
// handing the topmost client buffer straight to the display when it alone
// fills the output, and otherwise rendering the occlusion-filtered scene.
type DefaultDisplayBufferCompositor struct {
	db       graphics.DisplayBuffer
	renderer graphics.Renderer
	scene    graphics.Scene
	id       CompositorID
	report   Report
	frames   *frameclock.Counter

	// lastReason is the previous frame's bypass outcome, kept so that path
	// changes are logged once rather than every frame.
	lastReason bypass.Reason

	// declined is set while the display refuses the buffers it was offered.
	declined bool
}

// NewDisplayBufferCompositor binds renderer and scene to db.
// The local frame counter starts at the clock's current frame.
func NewDisplayBufferCompositor(db graphics.DisplayBuffer, renderer graphics.Renderer, scene graphics.Scene, b Binding) *DefaultDisplayBufferCompositor {
	clock := b.Clock
	if clock == nil {
		clock = frameclock.New()
	}
	report := b.Report
	if report == nil {
		report = NullReport{}
	}
	return &DefaultDisplayBufferCompositor{
		db:         db,
		renderer:   renderer,
		scene:      scene,
		id:         b.ID,
		report:     report,
		frames:     frameclock.NewCounter(clock),
		lastReason: bypass.ReasonNone,
	}
}

// Frame returns the global frame number of the last composite.
func (c *DefaultDisplayBufferCompositor) Frame() uint64 {
	return c.frames.Frame()
}

// Composite produces one frame.
//
// Exactly one BeganFrame/FinishedFrame pair is reported per call, whichever
// path is taken and even if the call fails.
func (c *DefaultDisplayBufferCompositor) Composite() error {
	c.report.BeganFrame(c.id)
	bypassed := false
	defer func() { c.report.FinishedFrame(bypassed, c.id) }()

	frame := c.frames.Next()
	list := c.scene.Snapshot(frame)

	if c.db.CanBypass() {
		ok, err := c.tryBypass(list)
		if err != nil {
			return err
		}
		if ok {
			bypassed = true
			return nil
		}
	}
	return c.render(list)
}

// tryBypass posts the topmost buffer directly when it fills the output.
func (c *DefaultDisplayBufferCompositor) tryBypass(list graphics.RenderableList) (bool, error) {
	top, reason := bypass.Check(list, c.db.ViewArea(), c.db.Format())
	if reason != c.lastReason {
		Logger().Debug("compositor: bypass state changed",
			slog.Uint64("id", uint64(c.id)),
			slog.Bool("bypass", reason == bypass.ReasonNone),
			slog.String("reason", reason.String()))
		c.lastReason = reason
	}
	if reason != bypass.ReasonNone {
		return false, nil
	}

	ok, err := c.db.PostRenderablesIfOptimizable(graphics.RenderableList{top})
	if err != nil {
		return false, fmt.Errorf("compositor: post bypass buffer: %w", err)
	}
	if ok == c.declined {
		Logger().Debug("compositor: display bypass outcome changed",
			slog.Uint64("id", uint64(c.id)),
			slog.Uint64("surface", uint64(top.ID)),
			slog.Bool("accepted", ok))
		c.declined = !ok
	}
	if !ok {
		// The render path runs instead; its renderer state stays valid.
		return false, nil
	}
	c.renderer.Suspend()
	return true, nil
}

// render draws the scene with the renderer and posts the result.
func (c *DefaultDisplayBufferCompositor) render(list graphics.RenderableList) (err error) {
	if err := c.db.MakeCurrent(); err != nil {
		return fmt.Errorf("compositor: make current: %w", err)
	}
	defer func() {
		if rerr := c.db.ReleaseCurrent(); rerr != nil && err == nil {
			err = fmt.Errorf("compositor: release current: %w", rerr)
		}
	}()

	view := c.db.ViewArea()
	c.renderer.SetRotation(c.db.Orientation().Degrees())
	c.renderer.SetViewport(view)

	if err := c.renderer.Begin(); err != nil {
		return fmt.Errorf("compositor: begin frame: %w", err)
	}
	visible, stats := occlusion.FilterWithStats(list, view)
	for _, r := range visible {
		if err := c.renderer.Render(r); err != nil {
			return fmt.Errorf("compositor: render surface %d: %w", r.ID, err)
		}
	}
	if err := c.renderer.End(); err != nil {
		return fmt.Errorf("compositor: end frame: %w", err)
	}
	if stats.Culled() > 0 {
		Logger().Debug("compositor: culled renderables",
			slog.Uint64("id", uint64(c.id)),
			slog.Int("clipped", stats.Clipped),
			slog.Int("occluded", stats.Occluded))
	}

	if err := c.db.PostUpdate(); err != nil {
		return fmt.Errorf("compositor: post update: %w", err)
	}
	return nil
}

// Ensure DefaultDisplayBufferCompositor implements DisplayBufferCompositor.
var _ DisplayBufferCompositor = (*DefaultDisplayBufferCompositor)(nil)
