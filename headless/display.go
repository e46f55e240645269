// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package headless

import (
	"image"

	"github.com/gogpu/compositor/graphics"
)

// Display is a set of headless outputs.
type Display struct {
	outputs []*Output
}

// NewDisplay creates a display with one output per config, in order.
func NewDisplay(configs ...OutputConfig) *Display {
	d := &Display{outputs: make([]*Output, len(configs))}
	for i, cfg := range configs {
		d.outputs[i] = newOutput(i, cfg)
	}
	return d
}

// ForEachDisplayBuffer calls fn for every output in order.
func (d *Display) ForEachDisplayBuffer(fn func(graphics.DisplayBuffer) error) error {
	for _, o := range d.outputs {
		if err := fn(o); err != nil {
			return err
		}
	}
	return nil
}

// Outputs returns the outputs in order.
func (d *Display) Outputs() []*Output {
	return d.outputs
}

// Bounds returns the union of all output areas.
func (d *Display) Bounds() image.Rectangle {
	var r image.Rectangle
	for _, o := range d.outputs {
		r = r.Union(o.ViewArea())
	}
	return r
}

// Ensure Display implements graphics.Display.
var _ graphics.Display = (*Display)(nil)
