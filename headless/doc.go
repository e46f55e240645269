// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package headless provides a display backend whose outputs live in memory.
//
// Each Output renders into a render.PixmapTarget (the back buffer) and
// PostUpdate copies it to the front buffer, which Snapshot reads. Outputs
// that allow bypass scan out a posted client buffer directly instead.
//
// Headless outputs are used by tests, by the demo command and for
// off-screen compositing.
//
//	display := headless.NewDisplay(
//	    headless.OutputConfig{Area: image.Rect(0, 0, 1920, 1080), Bypass: true},
//	    headless.OutputConfig{Area: image.Rect(1920, 0, 3200, 1024)},
//	)
package headless
