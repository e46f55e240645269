// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package graphics

import (
	"image"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f64"
)

// ID identifies a surface across frames.
type ID uint64

// BufferID identifies a client buffer.
type BufferID uint64

// Identity is the 4x4 identity transformation (row-major).
var Identity = f64.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Buffer is a client-submitted pixel buffer.
//
// The compositor treats buffers as opaque handles. It only needs to know
// whether a buffer may be handed directly to the display hardware.
type Buffer interface {
	// ID returns the buffer identity.
	ID() BufferID

	// Size returns the buffer dimensions in pixels.
	Size() image.Point

	// Format returns the pixel format of the buffer contents.
	Format() gputypes.TextureFormat

	// CanBypass reports whether the buffer may be scanned out directly.
	CanBypass() bool
}

// Renderable is one frame's immutable snapshot of a surface.
type Renderable struct {
	// ID is stable for the lifetime of the surface.
	ID ID

	// ScreenPosition is the surface rectangle in display coordinates.
	ScreenPosition image.Rectangle

	// Transformation is applied about the centre of ScreenPosition.
	Transformation f64.Mat4

	// Alpha is the surface opacity in [0, 1].
	Alpha float64

	// Shaped marks surfaces with non-rectangular or per-pixel alpha content.
	Shaped bool

	// Buffer is the content to draw. Nil until the client submits one.
	Buffer Buffer
}

// Opaque reports whether every pixel of the renderable is fully opaque.
func (r Renderable) Opaque() bool {
	return !r.Shaped && r.Alpha >= 1
}

// Transformed reports whether the renderable has a non-identity transformation.
// The zero matrix is treated as identity so that literal Renderables
// without a transformation behave as expected.
func (r Renderable) Transformed() bool {
	return r.Transformation != Identity && r.Transformation != (f64.Mat4{})
}

// RenderableList is an ordered back-to-front sequence of renderables.
type RenderableList []Renderable

// Top returns the topmost renderable.
// The second result is false for an empty list.
func (l RenderableList) Top() (Renderable, bool) {
	if len(l) == 0 {
		return Renderable{}, false
	}
	return l[len(l)-1], true
}

// IDs returns the identities of the renderables in order.
func (l RenderableList) IDs() []ID {
	ids := make([]ID, len(l))
	for i, r := range l {
		ids[i] = r.ID
	}
	return ids
}
