// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: geom/region.go
// Summary: Region algebra over rectangle lists, mainly guillotine subtraction.
// Usage: The damage tracker uses SubtractRects to carve opaque coverage out
//        of damage and visibility regions.

package geom

// SubtractRects removes every rectangle in holes from the region described
// by rects. The input slice is consumed and its backing array reused; the
// returned slice holds the remaining, non-overlapping region. Pieces are
// produced by guillotine splits (top, left, right, bottom of each
// intersection), so the result never covers more area than the input.
func SubtractRects(rects []Rect, holes []Rect) []Rect {
	for _, hole := range holes {
		if len(rects) == 0 {
			return rects
		}

		items := len(rects)
		checked := 0
		index := 0

		for checked != items {
			checked++

			overlap, ok := rects[index].Intersection(hole)
			if !ok {
				index++
				continue
			}

			item := rects[index]
			rects = append(rects[:index], rects[index+1:]...)

			if hole.ContainsRect(item) {
				continue
			}

			top := Rect{
				X: item.X,
				Y: item.Y,
				W: item.W,
				H: overlap.Y - item.Y,
			}
			left := Rect{
				X: item.X,
				Y: overlap.Y,
				W: overlap.X - item.X,
				H: overlap.H,
			}
			right := Rect{
				X: overlap.X + overlap.W,
				Y: overlap.Y,
				W: item.X + item.W - (overlap.X + overlap.W),
				H: overlap.H,
			}
			bottom := Rect{
				X: item.X,
				Y: overlap.Y + overlap.H,
				W: item.W,
				H: item.Y + item.H - (overlap.Y + overlap.H),
			}

			if !top.Empty() {
				rects = append(rects, top)
			}
			if !left.Empty() {
				rects = append(rects, left)
			}
			if !right.Empty() {
				rects = append(rects, right)
			}
			if !bottom.Empty() {
				rects = append(rects, bottom)
			}
		}
	}

	return rects
}

// SubtractRect is SubtractRects for a single region rectangle.
func SubtractRect(rect Rect, holes []Rect) []Rect {
	return SubtractRects([]Rect{rect}, holes)
}

// TotalArea sums the area of all rectangles in the list. The rectangles are
// assumed not to overlap.
func TotalArea(rects []Rect) int {
	area := 0
	for _, r := range rects {
		area += r.Area()
	}
	return area
}
