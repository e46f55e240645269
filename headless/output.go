// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package headless

import (
	"errors"
	"image"
	"image/draw"
	"sync"
	"sync/atomic"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/graphics"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/gputypes"
)

var (
	// ErrBusy is returned by MakeCurrent while the output is already current.
	ErrBusy = errors.New("headless: output already current")

	// ErrNotCurrent is returned by PostUpdate outside MakeCurrent/ReleaseCurrent.
	ErrNotCurrent = errors.New("headless: output not current")
)

// OutputConfig describes one headless output.
type OutputConfig struct {
	// Area is the output rectangle in display coordinates.
	Area image.Rectangle

	// Orientation rotates the output. Left and Right swap the width and
	// height of the back buffer.
	Orientation graphics.Orientation

	// Format is the scan-out format. The zero value accepts any format.
	Format gputypes.TextureFormat

	// Bypass allows client buffers to be scanned out directly.
	Bypass bool

	// Device is the GPU device the output is attached to. Nil means none.
	Device graphics.DeviceHandle
}

// Output is an in-memory graphics.DisplayBuffer.
type Output struct {
	id     int
	config OutputConfig

	current atomic.Bool
	back    *render.PixmapTarget

	mu      sync.Mutex
	front   *image.RGBA
	scanout graphics.Buffer

	posts    atomic.Uint64
	bypasses atomic.Uint64
}

func newOutput(id int, cfg OutputConfig) *Output {
	w, h := cfg.Area.Dx(), cfg.Area.Dy()
	if cfg.Orientation == graphics.OrientationLeft || cfg.Orientation == graphics.OrientationRight {
		w, h = h, w
	}
	return &Output{
		id:     id,
		config: cfg,
		back:   render.NewPixmapTarget(w, h),
		front:  image.NewRGBA(image.Rect(0, 0, w, h)),
	}
}

// ID returns the output index within its display.
func (o *Output) ID() int {
	return o.id
}

// ViewArea returns the output rectangle in display coordinates.
func (o *Output) ViewArea() image.Rectangle {
	return o.config.Area
}

// Orientation returns the output rotation.
func (o *Output) Orientation() graphics.Orientation {
	return o.config.Orientation
}

// Format returns the scan-out format.
func (o *Output) Format() gputypes.TextureFormat {
	return o.config.Format
}

// CanBypass reports whether the output scans out client buffers.
func (o *Output) CanBypass() bool {
	return o.config.Bypass
}

// DeviceHandle returns the configured device, or the null device.
func (o *Output) DeviceHandle() graphics.DeviceHandle {
	if o.config.Device == nil {
		return graphics.NullDeviceHandle{}
	}
	return o.config.Device
}

// Target returns the back buffer renderers draw into.
func (o *Output) Target() *render.PixmapTarget {
	return o.back
}

// MakeCurrent claims the back buffer for the calling goroutine.
func (o *Output) MakeCurrent() error {
	if !o.current.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

// ReleaseCurrent releases the back buffer. Releasing an output that is
// not current does nothing.
func (o *Output) ReleaseCurrent() error {
	o.current.Store(false)
	return nil
}

// PostUpdate copies the back buffer to the front buffer.
func (o *Output) PostUpdate() error {
	if !o.current.Load() {
		return ErrNotCurrent
	}
	o.mu.Lock()
	copy(o.front.Pix, o.back.Pixels())
	o.scanout = nil
	o.mu.Unlock()

	o.posts.Add(1)
	return nil
}

// PostRenderablesIfOptimizable scans out the buffer of a single renderable
// covering the output. It declines rotated outputs, buffers the CPU cannot
// read and buffers whose size differs from the output.
func (o *Output) PostRenderablesIfOptimizable(list graphics.RenderableList) (bool, error) {
	if !o.config.Bypass || len(list) != 1 || o.config.Orientation != graphics.OrientationNormal {
		return false, nil
	}
	buf := list[0].Buffer
	src, ok := buf.(render.ImageSource)
	if !ok || buf.Size() != o.config.Area.Size() {
		return false, nil
	}

	img := src.Image()
	o.mu.Lock()
	draw.Draw(o.front, o.front.Bounds(), img, img.Bounds().Min, draw.Src)
	o.scanout = buf
	o.mu.Unlock()

	n := o.bypasses.Add(1)
	if n == 1 {
		compositor.Logger().Debug("headless: first bypass", "output", o.id, "buffer", buf.ID())
	}
	return true, nil
}

// Snapshot returns a copy of the front buffer.
func (o *Output) Snapshot() *image.RGBA {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := image.NewRGBA(o.front.Bounds())
	copy(out.Pix, o.front.Pix)
	return out
}

// ScanOut returns the buffer being scanned out, or nil when the front
// buffer holds a composited frame.
func (o *Output) ScanOut() graphics.Buffer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.scanout
}

// Posts returns the number of composited frames posted.
func (o *Output) Posts() uint64 {
	return o.posts.Load()
}

// Bypasses returns the number of frames shown by scanning out a buffer.
func (o *Output) Bypasses() uint64 {
	return o.bypasses.Load()
}

// Frames returns the total number of frames shown.
func (o *Output) Frames() uint64 {
	return o.Posts() + o.Bypasses()
}

// Ensure Output implements the display buffer contracts.
var (
	_ graphics.DisplayBuffer = (*Output)(nil)
	_ graphics.DeviceBacked  = (*Output)(nil)
	_ render.Targeter        = (*Output)(nil)
)
