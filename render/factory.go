// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/gogpu/compositor/graphics"
	"github.com/gogpu/gputypes"
)

var (
	// ErrNoPixmapTarget is returned for outputs that do not render into
	// CPU memory.
	ErrNoPixmapTarget = errors.New("render: display buffer has no pixmap target")

	// ErrUnsupportedFormat is returned for outputs whose surface format the
	// software renderer cannot produce.
	ErrUnsupportedFormat = errors.New("render: unsupported surface format")
)

// Targeter is implemented by display buffers backed by a PixmapTarget.
type Targeter interface {
	Target() *PixmapTarget
}

// SoftwareRendererFactory creates SoftwareRenderers for outputs that expose
// a PixmapTarget.
type SoftwareRendererFactory struct {
	// Background is the clear color. Nil means DefaultBackground.
	Background color.Color
}

// CreateRenderer returns a renderer drawing into db's target.
func (f SoftwareRendererFactory) CreateRenderer(db graphics.DisplayBuffer) (graphics.Renderer, error) {
	t, ok := db.(Targeter)
	if !ok || t.Target() == nil {
		return nil, ErrNoPixmapTarget
	}
	if format := graphics.DeviceOf(db).SurfaceFormat(); !cpuFormat(format) {
		return nil, fmt.Errorf("%w: device surface %v", ErrUnsupportedFormat, format)
	}
	if format := db.Format(); !cpuFormat(format) {
		return nil, fmt.Errorf("%w: output %v", ErrUnsupportedFormat, format)
	}

	r := NewSoftwareRenderer(t.Target())
	if f.Background != nil {
		r.SetBackground(f.Background)
	}
	return r, nil
}

func cpuFormat(f gputypes.TextureFormat) bool {
	switch f {
	case gputypes.TextureFormatUndefined,
		gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureFormatBGRA8Unorm:
		return true
	default:
		return false
	}
}

// Ensure SoftwareRendererFactory implements graphics.RendererFactory.
var _ graphics.RendererFactory = SoftwareRendererFactory{}
