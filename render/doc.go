// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render provides a CPU implementation of graphics.Renderer.
//
// The software renderer composites client buffers into a [PixmapTarget]
// with golang.org/x/image/draw. It is used by headless outputs, by tests and
// as the fallback when no GPU renderer is available.
//
// # Core Types
//
//   - PixmapTarget: CPU-backed *image.RGBA an output renders into
//   - ImageBuffer: client buffer backed by an image
//   - SoftwareRenderer: graphics.Renderer drawing into a PixmapTarget
//   - SoftwareRendererFactory: creates renderers for outputs exposing a
//     PixmapTarget
//
// # Usage
//
//	target := render.NewPixmapTarget(800, 600)
//	r := render.NewSoftwareRenderer(target)
//
//	r.SetViewport(image.Rect(0, 0, 800, 600))
//	_ = r.Begin()
//	for _, rend := range list {
//	    _ = r.Render(rend)
//	}
//	_ = r.End()
//
// # Texture Cache
//
// Like a GPU renderer uploading textures, the software renderer copies a
// buffer's pixels the first time it draws it and reuses the copy until the
// surface shows a different buffer. Copies of surfaces not drawn in a frame
// are evicted at End; Suspend drops them all.
//
// # Thread Safety
//
// Renderers are NOT thread-safe. Each renderer is used from the goroutine
// compositing its output.
package render
