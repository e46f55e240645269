// Package region implements a set of pixels described as a union of
// axis-aligned rectangles.
package region

import "image"

// Region is a union of axis-aligned rectangles.
//
// Internally the region is stored as disjoint rectangles, so area queries
// never double count overlaps. The zero value is an empty region.
//
// Region is not safe for concurrent use.
type Region struct {
	rects []image.Rectangle
}

// Add unions r into the region.
func (g *Region) Add(r image.Rectangle) {
	r = r.Canon()
	if r.Empty() {
		return
	}

	// Only the parts of r not already covered are stored.
	pieces := []image.Rectangle{r}
	for _, have := range g.rects {
		pieces = subtractAll(pieces, have)
		if len(pieces) == 0 {
			return
		}
	}
	g.rects = append(g.rects, pieces...)
}

// Covers reports whether every pixel of r lies inside the region.
// An empty rectangle is covered by any region.
func (g *Region) Covers(r image.Rectangle) bool {
	r = r.Canon()
	if r.Empty() {
		return true
	}

	rest := []image.Rectangle{r}
	for _, have := range g.rects {
		rest = subtractAll(rest, have)
		if len(rest) == 0 {
			return true
		}
	}
	return false
}

// Empty reports whether the region contains no pixels.
func (g *Region) Empty() bool {
	return len(g.rects) == 0
}

// Area returns the number of pixels in the region.
func (g *Region) Area() int {
	area := 0
	for _, r := range g.rects {
		area += r.Dx() * r.Dy()
	}
	return area
}

// Bounds returns the smallest rectangle containing the region.
func (g *Region) Bounds() image.Rectangle {
	var b image.Rectangle
	for _, r := range g.rects {
		b = b.Union(r)
	}
	return b
}

// Rects returns a copy of the disjoint rectangles making up the region.
func (g *Region) Rects() []image.Rectangle {
	return append([]image.Rectangle(nil), g.rects...)
}

// Reset empties the region, keeping its storage.
func (g *Region) Reset() {
	g.rects = g.rects[:0]
}

// subtractAll removes cut from every rectangle in rs.
func subtractAll(rs []image.Rectangle, cut image.Rectangle) []image.Rectangle {
	out := rs[:0:0]
	for _, r := range rs {
		out = append(out, subtract(r, cut)...)
	}
	return out
}

// subtract returns r minus cut as up to four disjoint rectangles:
// full-width bands above and below the overlap, then the left and right
// remainders beside it.
func subtract(r, cut image.Rectangle) []image.Rectangle {
	in := r.Intersect(cut)
	if in.Empty() {
		return []image.Rectangle{r}
	}

	var out []image.Rectangle
	if in.Min.Y > r.Min.Y {
		out = append(out, image.Rect(r.Min.X, r.Min.Y, r.Max.X, in.Min.Y))
	}
	if in.Max.Y < r.Max.Y {
		out = append(out, image.Rect(r.Min.X, in.Max.Y, r.Max.X, r.Max.Y))
	}
	if in.Min.X > r.Min.X {
		out = append(out, image.Rect(r.Min.X, in.Min.Y, in.Min.X, in.Max.Y))
	}
	if in.Max.X < r.Max.X {
		out = append(out, image.Rect(in.Max.X, in.Min.Y, r.Max.X, in.Max.Y))
	}
	return out
}
