// Package bypass decides whether an output can show a client buffer directly
// instead of compositing a frame.
//
// Bypass is possible when the topmost renderable on an output alone
// determines every pixel of it: it exactly covers the output, is fully
// opaque, is not transformed, and its buffer can be scanned out by the
// display hardware.
package bypass

import (
	"image"

	"github.com/gogpu/compositor/graphics"
	"github.com/gogpu/gputypes"
)

// Reason explains why a bypass attempt failed.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonNoRenderables
	ReasonGeometry
	ReasonTranslucent
	ReasonTransformed
	ReasonNoBuffer
	ReasonBufferNotBypassable
	ReasonFormatMismatch
)

var reasonNames = [...]string{
	ReasonNone:                "none",
	ReasonNoRenderables:       "no renderables on output",
	ReasonGeometry:            "topmost does not match output",
	ReasonTranslucent:         "topmost is not opaque",
	ReasonTransformed:         "topmost is transformed",
	ReasonNoBuffer:            "topmost has no buffer",
	ReasonBufferNotBypassable: "buffer cannot be scanned out",
	ReasonFormatMismatch:      "buffer format does not match output",
}

// String returns a human readable description.
func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "unknown"
}

// Match returns the renderable whose buffer can be shown directly on an
// output covering viewArea with scan-out format format.
//
// list must be the unfiltered scene snapshot. Only the topmost renderable
// intersecting viewArea is considered: anything stacked above it lies on
// other outputs, anything below it is hidden if it matches.
func Match(list graphics.RenderableList, viewArea image.Rectangle, format gputypes.TextureFormat) (graphics.Renderable, bool) {
	r, reason := Check(list, viewArea, format)
	return r, reason == ReasonNone
}

// Check is like Match but reports why bypass is not possible.
// The returned renderable is the topmost one on the output, if any.
func Check(list graphics.RenderableList, viewArea image.Rectangle, format gputypes.TextureFormat) (graphics.Renderable, Reason) {
	viewArea = viewArea.Canon()
	for i := len(list) - 1; i >= 0; i-- {
		r := list[i]
		if !r.ScreenPosition.Canon().Overlaps(viewArea) {
			continue
		}
		return r, check(r, viewArea, format)
	}
	return graphics.Renderable{}, ReasonNoRenderables
}

func check(r graphics.Renderable, viewArea image.Rectangle, format gputypes.TextureFormat) Reason {
	switch {
	case r.ScreenPosition.Canon() != viewArea:
		return ReasonGeometry
	case !r.Opaque():
		return ReasonTranslucent
	case r.Transformed():
		return ReasonTransformed
	case r.Buffer == nil:
		return ReasonNoBuffer
	case !r.Buffer.CanBypass():
		return ReasonBufferNotBypassable
	case !graphics.FormatsCompatible(r.Buffer.Format(), format):
		return ReasonFormatMismatch
	}
	return ReasonNone
}
