// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package graphics

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
)

// Orientation is the rotation of an output relative to its native scan-out.
type Orientation uint8

const (
	OrientationNormal Orientation = iota
	OrientationLeft
	OrientationInverted
	OrientationRight
)

// Degrees returns the clockwise rotation in degrees.
func (o Orientation) Degrees() float64 {
	switch o {
	case OrientationLeft:
		return 90
	case OrientationInverted:
		return 180
	case OrientationRight:
		return 270
	default:
		return 0
	}
}

// String returns the orientation name.
func (o Orientation) String() string {
	switch o {
	case OrientationNormal:
		return "normal"
	case OrientationLeft:
		return "left"
	case OrientationInverted:
		return "inverted"
	case OrientationRight:
		return "right"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts the names
// returned by String and the rotation in degrees.
func (o *Orientation) UnmarshalText(text []byte) error {
	switch string(text) {
	case "normal", "0":
		*o = OrientationNormal
	case "left", "90":
		*o = OrientationLeft
	case "inverted", "180":
		*o = OrientationInverted
	case "right", "270":
		*o = OrientationRight
	default:
		return fmt.Errorf("graphics: unknown orientation %q", text)
	}
	return nil
}

// DisplayBuffer is the software handle of one physical output.
type DisplayBuffer interface {
	// ViewArea returns the output rectangle in display coordinates.
	ViewArea() image.Rectangle

	// Orientation returns the output rotation.
	Orientation() Orientation

	// Format returns the scan-out pixel format, or
	// gputypes.TextureFormatUndefined if the output accepts any.
	Format() gputypes.TextureFormat

	// MakeCurrent makes the output the rendering target of the calling
	// goroutine's context.
	MakeCurrent() error

	// ReleaseCurrent releases the rendering target.
	ReleaseCurrent() error

	// CanBypass reports whether the output supports scanning out a client
	// buffer directly.
	CanBypass() bool

	// PostRenderablesIfOptimizable shows the renderables without compositing
	// when the hardware can. It returns false if it declined, in which case
	// nothing was posted.
	PostRenderablesIfOptimizable(list RenderableList) (bool, error)

	// PostUpdate shows the image rendered since MakeCurrent.
	PostUpdate() error
}

// Display enumerates the outputs of a display backend.
type Display interface {
	// ForEachDisplayBuffer calls fn for every output. Iteration stops at
	// the first error, which is returned.
	ForEachDisplayBuffer(fn func(db DisplayBuffer) error) error
}
