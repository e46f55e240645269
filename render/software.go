// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/compositor/graphics"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

var (
	// ErrNotInFrame is returned by Render and End outside Begin/End.
	ErrNotInFrame = errors.New("render: not in frame")

	// ErrFrameInProgress is returned by Begin when a frame is already open.
	ErrFrameInProgress = errors.New("render: frame already in progress")

	// ErrUnsupportedBuffer is returned for buffers whose pixels the CPU
	// cannot read.
	ErrUnsupportedBuffer = errors.New("render: buffer is not CPU readable")
)

// DefaultBackground is the color a frame is cleared to.
var DefaultBackground = color.RGBA{A: 0xff}

// SoftwareRenderer is a CPU-based graphics.Renderer.
//
// Each renderable's buffer is scaled onto its screen rectangle, transformed
// about the rectangle's centre, offset by the viewport and rotated with the
// output. Opaque renderables replace what is below them; translucent and
// shaped ones are blended with Over and their alpha.
type SoftwareRenderer struct {
	target     *PixmapTarget
	background color.Color

	viewport image.Rectangle
	rotation float64
	inFrame  bool

	// textures maps surfaces to the last buffer copied for them.
	textures map[graphics.ID]*texture
	uploads  int
}

type texture struct {
	buffer graphics.BufferID
	img    *image.RGBA
	used   bool
}

// NewSoftwareRenderer creates a renderer drawing into target.
// The viewport defaults to the target bounds.
func NewSoftwareRenderer(target *PixmapTarget) *SoftwareRenderer {
	return &SoftwareRenderer{
		target:     target,
		background: DefaultBackground,
		viewport:   target.Image().Bounds(),
		textures:   make(map[graphics.ID]*texture),
	}
}

// SetBackground sets the color a frame is cleared to.
func (r *SoftwareRenderer) SetBackground(c color.Color) {
	r.background = c
}

// SetViewport sets the display-space rectangle mapped onto the target.
func (r *SoftwareRenderer) SetViewport(area image.Rectangle) {
	r.viewport = area
}

// SetRotation sets the output rotation in degrees.
func (r *SoftwareRenderer) SetRotation(degrees float64) {
	r.rotation = degrees
}

// Viewport returns the current viewport.
func (r *SoftwareRenderer) Viewport() image.Rectangle {
	return r.viewport
}

// Rotation returns the current rotation in degrees.
func (r *SoftwareRenderer) Rotation() float64 {
	return r.rotation
}

// Target returns the render target.
func (r *SoftwareRenderer) Target() *PixmapTarget {
	return r.target
}

// Uploads returns how many times a buffer was copied into the texture cache.
func (r *SoftwareRenderer) Uploads() int {
	return r.uploads
}

// Cached returns the number of surfaces with a cached texture.
func (r *SoftwareRenderer) Cached() int {
	return len(r.textures)
}

// Begin starts a frame by clearing the target.
func (r *SoftwareRenderer) Begin() error {
	if r.inFrame {
		return ErrFrameInProgress
	}
	r.inFrame = true
	r.target.Clear(r.background)
	return nil
}

// Render draws one renderable. Renderables without a buffer, or fully
// transparent ones, draw nothing.
func (r *SoftwareRenderer) Render(rend graphics.Renderable) error {
	if !r.inFrame {
		return ErrNotInFrame
	}
	if rend.Buffer == nil {
		return nil
	}
	src, err := r.upload(rend)
	if err != nil {
		return err
	}
	if rend.Alpha <= 0 || rend.ScreenPosition.Empty() || src.Bounds().Empty() {
		return nil
	}

	op := draw.Over
	var mask image.Image
	if rend.Opaque() {
		op = draw.Src
	} else if rend.Alpha < 1 {
		mask = image.NewUniform(color.Alpha{A: uint8(math.Round(rend.Alpha * 0xff))})
	}

	dst := r.target.Image()
	s2d := r.sourceToTarget(rend, src.Bounds().Size())
	if off, ok := integerTranslation(s2d); ok {
		dr := src.Bounds().Add(off).Intersect(dst.Bounds())
		sp := dr.Min.Sub(off)
		draw.DrawMask(dst, dr, src, sp, mask, sp, op)
		return nil
	}
	draw.ApproxBiLinear.Transform(dst, s2d, src, src.Bounds(), op, &draw.Options{SrcMask: mask})
	return nil
}

// End finishes the frame and evicts textures of surfaces not drawn in it.
func (r *SoftwareRenderer) End() error {
	if !r.inFrame {
		return ErrNotInFrame
	}
	r.inFrame = false
	for id, tex := range r.textures {
		if !tex.used {
			delete(r.textures, id)
			continue
		}
		tex.used = false
	}
	return nil
}

// Suspend drops every cached texture.
func (r *SoftwareRenderer) Suspend() {
	clear(r.textures)
}

// upload returns the cached copy of the renderable's buffer, copying it if
// the surface shows a new buffer.
func (r *SoftwareRenderer) upload(rend graphics.Renderable) (*image.RGBA, error) {
	tex := r.textures[rend.ID]
	if tex != nil && tex.buffer == rend.Buffer.ID() {
		tex.used = true
		return tex.img, nil
	}

	is, ok := rend.Buffer.(ImageSource)
	if !ok {
		return nil, fmt.Errorf("render: surface %d: %w", rend.ID, ErrUnsupportedBuffer)
	}
	img := is.Image()
	b := img.Bounds()
	cp := image.NewRGBA(image.Rectangle{Max: b.Size()})
	draw.Draw(cp, cp.Bounds(), img, b.Min, draw.Src)

	if tex == nil {
		tex = &texture{}
		r.textures[rend.ID] = tex
	}
	tex.buffer = rend.Buffer.ID()
	tex.img = cp
	tex.used = true
	r.uploads++
	return cp, nil
}

// sourceToTarget returns the affine map from buffer pixels to target pixels.
func (r *SoftwareRenderer) sourceToTarget(rend graphics.Renderable, size image.Point) f64.Aff3 {
	pos := rend.ScreenPosition

	m := scale(float64(pos.Dx())/float64(size.X), float64(pos.Dy())/float64(size.Y))
	m = mul(translate(float64(pos.Min.X), float64(pos.Min.Y)), m)

	if rend.Transformed() {
		cx := float64(pos.Min.X+pos.Max.X) / 2
		cy := float64(pos.Min.Y+pos.Max.Y) / 2
		m = mul(translate(-cx, -cy), m)
		m = mul(planar(rend.Transformation), m)
		m = mul(translate(cx, cy), m)
	}

	m = mul(translate(-float64(r.viewport.Min.X), -float64(r.viewport.Min.Y)), m)
	return mul(r.outputTransform(), m)
}

// outputTransform rotates viewport-local coordinates clockwise about the
// viewport centre onto the target centre.
func (r *SoftwareRenderer) outputTransform() f64.Aff3 {
	if r.rotation == 0 {
		return identity
	}
	rad := r.rotation * math.Pi / 180
	sin, cos := snap(math.Sin(rad)), snap(math.Cos(rad))

	vw, vh := float64(r.viewport.Dx()), float64(r.viewport.Dy())
	tw, th := float64(r.target.Width()), float64(r.target.Height())

	m := translate(-vw/2, -vh/2)
	m = mul(f64.Aff3{cos, -sin, 0, sin, cos, 0}, m)
	return mul(translate(tw/2, th/2), m)
}

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

func translate(x, y float64) f64.Aff3 {
	return f64.Aff3{1, 0, x, 0, 1, y}
}

func scale(x, y float64) f64.Aff3 {
	return f64.Aff3{x, 0, 0, 0, y, 0}
}

// planar extracts the x/y part of a row-major 4x4 transformation.
func planar(m f64.Mat4) f64.Aff3 {
	return f64.Aff3{m[0], m[1], m[3], m[4], m[5], m[7]}
}

// mul returns a*b, the map applying b first.
func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}

// integerTranslation reports whether m only moves pixels by whole amounts.
func integerTranslation(m f64.Aff3) (image.Point, bool) {
	if m[0] != 1 || m[1] != 0 || m[3] != 0 || m[4] != 1 {
		return image.Point{}, false
	}
	if m[2] != math.Trunc(m[2]) || m[5] != math.Trunc(m[5]) {
		return image.Point{}, false
	}
	return image.Pt(int(m[2]), int(m[5])), true
}

func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < 1e-9 {
		return r
	}
	return v
}

// Ensure SoftwareRenderer implements graphics.Renderer.
var _ graphics.Renderer = (*SoftwareRenderer)(nil)
