// Package layout reconstructs reading order from positioned page text.
//
// All coordinates are top-down: y grows toward the bottom of the page.
package layout

import "math"

// Rect is an axis-aligned box.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Overlaps reports whether r and o intersect after growing both by tol.
func (r Rect) Overlaps(o Rect, tol float64) bool {
	return !(r.X1 < o.X0-tol || o.X1 < r.X0-tol || r.Y1 < o.Y0-tol || o.Y1 < r.Y0-tol)
}

// Union returns the smallest rect containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Contains reports whether the point lies inside r (edges inclusive).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

// Span is a run of text sharing a baseline. X,Y is the origin (left edge,
// baseline); H is the font size.
type Span struct {
	X, Y float64
	W, H float64
	Text string
}

func (s Span) Rect() Rect {
	return Rect{X0: s.X, Y0: s.Y - s.H, X1: s.X + s.W, Y1: s.Y}
}

// Block is a paragraph-like group of lines.
type Block struct {
	Rect
	Text string
}

// Table is a bordered grid serialized to rows of cell strings.
type Table struct {
	Rect
	Rows [][]string
}

// Page is one document page as positioned fragments. Rules are the ruling
// strokes and boxes drawn on the page. Blocks may be supplied by the source;
// when nil they are derived from Spans.
type Page struct {
	Number int
	Spans  []Span
	Rules  []Rect
	Blocks []Block
}
