// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/color"
	"image/draw"
	"sync/atomic"

	"github.com/gogpu/compositor/graphics"
	"github.com/gogpu/gputypes"
)

var nextBufferID atomic.Uint64

// ImageSource is implemented by buffers whose pixels the CPU can read.
type ImageSource interface {
	Image() image.Image
}

// ImageBuffer is a client buffer backed by an *image.RGBA.
//
// A client must not modify the image after submitting the buffer.
type ImageBuffer struct {
	id      graphics.BufferID
	img     *image.RGBA
	scanout bool
}

// NewImageBuffer wraps img. scanout marks the buffer as allocated in memory
// the display hardware can scan out, which makes it eligible for bypass.
func NewImageBuffer(img *image.RGBA, scanout bool) *ImageBuffer {
	return &ImageBuffer{
		id:      graphics.BufferID(nextBufferID.Add(1)),
		img:     img,
		scanout: scanout,
	}
}

// NewBufferFromImage wraps img, converting it to RGBA when it is of another
// type. An *image.RGBA not anchored at the origin is converted too.
func NewBufferFromImage(img image.Image, scanout bool) *ImageBuffer {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return NewImageBuffer(rgba, scanout)
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rectangle{Max: b.Size()})
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return NewImageBuffer(rgba, scanout)
}

// NewSolidBuffer returns a size-sized buffer filled with c.
func NewSolidBuffer(size image.Point, c color.Color, scanout bool) *ImageBuffer {
	img := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return NewImageBuffer(img, scanout)
}

// ID returns the buffer identity.
func (b *ImageBuffer) ID() graphics.BufferID {
	return b.id
}

// Size returns the image dimensions.
func (b *ImageBuffer) Size() image.Point {
	return b.img.Bounds().Size()
}

// Format returns RGBA8.
func (b *ImageBuffer) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// CanBypass reports whether the buffer is scan-out capable.
func (b *ImageBuffer) CanBypass() bool {
	return b.scanout
}

// Image returns the buffer contents.
func (b *ImageBuffer) Image() image.Image {
	return b.img
}

// Ensure ImageBuffer implements graphics.Buffer and ImageSource.
var (
	_ graphics.Buffer = (*ImageBuffer)(nil)
	_ ImageSource     = (*ImageBuffer)(nil)
)
