// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package graphics

import "sync"

// ChangeFunc is called by a Scene after its contents changed.
//
// frames is the number of frames the compositor should produce to catch up:
// 1 for a geometry or stacking change, or the number of queued buffers when
// a client submits content faster than it is consumed.
type ChangeFunc func(frames int)

// Scene is the live, mutable collection of visible surfaces.
//
// The compositor only reads from a Scene. Snapshot takes the scene lock
// internally; Lock and Unlock are exposed so callers can make several
// reads (or a read and a registration) atomic with respect to mutations.
type Scene interface {
	sync.Locker

	// Snapshot returns the current renderables, back-to-front.
	//
	// frame is the global frame number being composited. Buffer streams use
	// it so that a surface's queue advances at most once per frame no matter
	// how many outputs composite it.
	Snapshot(frame uint64) RenderableList

	// SetChangeCallback installs the single change callback.
	// Passing nil removes it. Installing a second callback while one is
	// registered fails.
	SetChangeCallback(fn ChangeFunc) error
}
