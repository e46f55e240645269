// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package graphics

import "image"

// Renderer paints renderables onto the output it is bound to.
//
// A Renderer holds backend state (a GL context, cached textures) and is
// used only from the goroutine compositing its output.
type Renderer interface {
	// SetViewport sets the display-space rectangle mapped onto the output.
	SetViewport(area image.Rectangle)

	// SetRotation sets the output rotation in degrees (0, 90, 180, 270).
	SetRotation(degrees float64)

	// Begin starts a frame.
	Begin() error

	// Render draws one renderable.
	Render(r Renderable) error

	// End finishes the frame.
	End() error

	// Suspend drops or pauses cached backend state while the output is
	// showing a bypassed buffer.
	Suspend()
}

// RendererFactory creates a renderer bound to one display buffer.
// It is called on the goroutine that will use the renderer, with the
// display buffer current.
type RendererFactory interface {
	CreateRenderer(db DisplayBuffer) (Renderer, error)
}

// RendererFactoryFunc adapts a function to RendererFactory.
type RendererFactoryFunc func(db DisplayBuffer) (Renderer, error)

// CreateRenderer calls f(db).
func (f RendererFactoryFunc) CreateRenderer(db DisplayBuffer) (Renderer, error) {
	return f(db)
}
