// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package graphics defines the boundary between the compositor core and the
// collaborators it drives.
//
// The compositor never implements these contracts itself. A display backend
// provides [Display] and [DisplayBuffer], a renderer backend provides
// [Renderer] through a [RendererFactory], and the window manager provides a
// [Scene]. Reference implementations live in the scene, render and headless
// packages.
//
// # Renderables
//
// A [Renderable] is the per-frame snapshot of one surface. Renderables are
// plain values: once a [Scene] hands out a [RenderableList] nothing in it
// changes, so lists may be filtered and passed between goroutines freely.
//
// Lists are ordered back-to-front. Index 0 is the bottom of the stack and the
// last element is the topmost surface.
//
// # Thread Safety
//
// A Scene must be safe for concurrent use. Renderers and DisplayBuffers are
// used from the single goroutine that composites their output.
package graphics
