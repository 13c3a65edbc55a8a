// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: geom/geom.go
// Summary: Integer geometry primitives used throughout the damage tracker.
// Usage: Used by the damage, element, render and output packages for all
//        rectangle arithmetic in output-physical pixel space.

package geom

import "fmt"

// Point is a location in output-physical pixel space.
type Point struct {
	X, Y int
}

// Add returns p translated by o.
func (p Point) Add(o Point) Point {
	return Point{p.X + o.X, p.Y + o.Y}
}

// Sub returns p translated by the negation of o.
func (p Point) Sub(o Point) Point {
	return Point{p.X - o.X, p.Y - o.Y}
}

// Size is a width/height pair in output-physical pixels.
type Size struct {
	W, H int
}

// Empty reports whether the size covers no pixels.
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// Scale is a per-axis floating point scale factor.
type Scale struct {
	X, Y float64
}

// NewScale builds a uniform scale.
func NewScale(v float64) Scale {
	return Scale{X: v, Y: v}
}

// Rect is an axis-aligned integer rectangle: origin plus size.
// Rects are immutable values; all derived operations produce new values.
type Rect struct {
	X, Y, W, H int
}

// FromSize returns the rectangle at the origin with the given size.
func FromSize(s Size) Rect {
	return Rect{0, 0, s.W, s.H}
}

// Origin returns the rectangle's top-left corner.
func (r Rect) Origin() Point {
	return Point{r.X, r.Y}
}

// Size returns the rectangle's extent.
func (r Rect) Size() Size {
	return Size{r.W, r.H}
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Area returns the number of pixels the rectangle covers.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.W * r.H
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{r.X + dx, r.Y + dy, r.W, r.H}
}

// Overlaps reports whether the two rectangles share at least one pixel.
func (r Rect) Overlaps(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// ContainsRect reports whether o lies fully inside r.
func (r Rect) ContainsRect(o Rect) bool {
	if o.Empty() {
		return true
	}
	return o.X >= r.X && o.Y >= r.Y &&
		o.X+o.W <= r.X+r.W && o.Y+o.H <= r.Y+r.H
}

// Intersection returns the overlap between the two rectangles. The second
// return value is false when they do not overlap.
func (r Rect) Intersection(o Rect) (Rect, bool) {
	if !r.Overlaps(o) {
		return Rect{}, false
	}
	x := max(r.X, o.X)
	y := max(r.Y, o.Y)
	return Rect{
		X: x,
		Y: y,
		W: min(r.X+r.W, o.X+o.W) - x,
		H: min(r.Y+r.H, o.Y+o.H) - y,
	}, true
}

// Merge returns the smallest rectangle containing both r and o.
func (r Rect) Merge(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x := min(r.X, o.X)
	y := min(r.Y, o.Y)
	return Rect{
		X: x,
		Y: y,
		W: max(r.X+r.W, o.X+o.W) - x,
		H: max(r.Y+r.H, o.Y+o.H) - y,
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d%+d%+d", r.W, r.H, r.X, r.Y)
}

// RectF is a float64 rectangle, used for source sample coordinates.
type RectF struct {
	X, Y, W, H float64
}

// FromRect converts an integer rectangle to a float one.
func FromRect(r Rect) RectF {
	return RectF{float64(r.X), float64(r.Y), float64(r.W), float64(r.H)}
}

// Empty reports whether the rectangle covers no area.
func (r RectF) Empty() bool {
	return r.W <= 0 || r.H <= 0
}
