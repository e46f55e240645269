// Package occlusion removes renderables that cannot affect any pixel of an
// output.
//
// Renderables are composited with the painter's algorithm, back-to-front.
// A renderable whose visible part lies entirely under opaque renderables
// stacked above it contributes nothing to the frame and need not be drawn.
//
// The filter is a pure function: it never reorders its input, it only
// removes elements, so its result is always a subsequence of the input.
package occlusion

import (
	"image"

	"github.com/gogpu/compositor/graphics"
	"github.com/gogpu/compositor/internal/region"
)

// Filter returns the renderables of list that can affect pixels within area.
//
// A renderable is dropped when its screen rectangle does not intersect area,
// or when its clipped rectangle is fully covered by the union of the clipped
// rectangles of opaque, untransformed renderables above it. Shaped or
// translucent renderables never occlude anything.
func Filter(list graphics.RenderableList, area image.Rectangle) graphics.RenderableList {
	out, _ := FilterWithStats(list, area)
	return out
}

// Stats describes the work done by one filter pass.
type Stats struct {
	// Clipped counts renderables entirely outside the output.
	Clipped int

	// Occluded counts renderables hidden behind opaque renderables.
	Occluded int
}

// Culled returns the total number of renderables removed.
func (s Stats) Culled() int {
	return s.Clipped + s.Occluded
}

// FilterWithStats is like Filter and also reports what was removed.
func FilterWithStats(list graphics.RenderableList, area image.Rectangle) (graphics.RenderableList, Stats) {
	var stats Stats

	area = area.Canon()
	if area.Empty() || len(list) == 0 {
		stats.Clipped = len(list)
		return graphics.RenderableList{}, stats
	}

	// Sweep front-to-back so the covered region always holds exactly the
	// opaque area stacked above the element under test.
	keep := make([]bool, len(list))
	kept := 0
	var covered region.Region
	for i := len(list) - 1; i >= 0; i-- {
		r := list[i]

		clipped := r.ScreenPosition.Canon().Intersect(area)
		if clipped.Empty() {
			stats.Clipped++
			continue
		}
		if covered.Covers(clipped) {
			stats.Occluded++
			continue
		}

		keep[i] = true
		kept++
		if occludes(r) {
			covered.Add(clipped)
		}
	}

	out := make(graphics.RenderableList, 0, kept)
	for i, r := range list {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out, stats
}

// occludes reports whether r hides everything beneath its screen rectangle.
func occludes(r graphics.Renderable) bool {
	return r.Opaque() && !r.Transformed()
}
