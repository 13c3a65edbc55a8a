// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: damage/shaper.go
// Summary: Damage optimizer bounding the rectangle count before rendering.
// Usage: The tracker shapes the final damage list once per frame; the
//        result covers at least the input area and never grows past the
//        input's bounding box.

package damage

import (
	"sort"

	"github.com/framegrace/redraw/geom"
)

// minTileSide is the smallest tile side used by the tiled fallback.
const minTileSide = 16

// maxDamageToBBoxRatio collapses a rectangle set to its bounding box when a
// single rectangle already covers most of it.
const maxDamageToBBoxRatio = 0.9

// tileDamageGapFraction is the fraction of a tile side below which damage
// in adjacent tiles is merged into one rectangle.
const tileDamageGapFraction = 4

type splitAxis int

const (
	axisNone splitAxis = iota
	axisX
	axisY
)

func (a splitAxis) invert() splitAxis {
	switch a {
	case axisX:
		return axisY
	case axisY:
		return axisX
	default:
		return axisNone
	}
}

// shaperTile is one cell of the tiled fallback with its accumulated damage.
type shaperTile struct {
	bbox      geom.Rect
	damage    geom.Rect
	hasDamage bool
}

// damageShaper reduces a damage rectangle list using a divide and conquer
// split on the dominating axis, falling back to a tile grid when damage
// overlaps across the whole span in both directions.
type damageShaper struct {
	tiles []shaperTile
	out   []geom.Rect
}

// shape rewrites the damage list in a form with fewer, larger rectangles.
// The input slice is consumed; its backing array is recycled as the next
// call's scratch space.
func (s *damageShaper) shape(in []geom.Rect) []geom.Rect {
	s.out = s.out[:0]
	s.tiles = s.tiles[:0]

	s.shapeImpl(in, axisNone, false)

	out := s.out
	s.out = in[:0]
	return out
}

// shapeImpl splits in by non-overlapping segments on the dominating axis of
// the damage bounding box and recurses into each segment. A segment that
// spans the whole box in both directions is handed to the tiled shaper.
func (s *damageShaper) shapeImpl(in []geom.Rect, lastDirection splitAxis, invertDirection bool) {
	if len(in) == 0 {
		return
	}
	if len(in) == 1 {
		s.out = append(s.out, in[0])
		return
	}

	xMin, yMin := in[0].X, in[0].Y
	xMax, yMax := in[0].X+in[0].W, in[0].Y+in[0].H
	maxDamageArea := in[0].Area()
	for _, r := range in[1:] {
		xMin = min(xMin, r.X)
		yMin = min(yMin, r.Y)
		xMax = max(xMax, r.X+r.W)
		yMax = max(yMax, r.Y+r.H)
		maxDamageArea = max(maxDamageArea, r.Area())
	}
	bbox := geom.Rect{X: xMin, Y: yMin, W: xMax - xMin, H: yMax - yMin}

	// A rectangle covering near all of the box makes further splitting
	// pointless.
	if float64(maxDamageArea)/float64(bbox.Area()) > maxDamageToBBoxRatio {
		s.out = append(s.out, bbox)
		return
	}

	direction := axisX
	if bbox.H > bbox.W {
		direction = axisY
	}
	if invertDirection {
		direction = direction.invert()
	}

	// Sort ascending on the split axis, then descending by extent, so the
	// first rectangle of a run overlaps the most. Already sorted when the
	// direction did not change.
	var overlapEnd int
	switch direction {
	case axisX:
		if direction != lastDirection {
			sort.Slice(in, func(i, j int) bool {
				if in[i].X != in[j].X {
					return in[i].X < in[j].X
				}
				return in[i].W > in[j].W
			})
		}
		overlapEnd = in[0].X + in[0].W
	case axisY:
		if direction != lastDirection {
			sort.Slice(in, func(i, j int) bool {
				if in[i].Y != in[j].Y {
					return in[i].Y < in[j].Y
				}
				return in[i].H > in[j].H
			})
		}
		overlapEnd = in[0].Y + in[0].H
	}

	overlapStart := 0
	for idx := 1; idx < len(in); idx++ {
		var rectStart, rectEnd int
		switch direction {
		case axisX:
			rectStart, rectEnd = in[idx].X, in[idx].X+in[idx].W
		case axisY:
			rectStart, rectEnd = in[idx].Y, in[idx].Y+in[idx].H
		}

		// Touching rectangles are split apart: the renderer excludes
		// borders.
		if rectStart >= overlapEnd {
			s.shapeImpl(in[overlapStart:idx], direction, false)
			overlapStart = idx
			overlapEnd = rectEnd
		} else {
			overlapEnd = max(overlapEnd, rectEnd)
		}
	}

	if overlapStart == 0 && invertDirection {
		// Overlap across the whole span in both directions; fall back
		// to the tile grid. More tiles along the axis without full
		// overlap.
		const numTiles = 4
		var tileW, tileH int
		switch direction.invert() {
		case axisX:
			tileW, tileH = bbox.W/numTiles, bbox.H/(numTiles*2)
		case axisY:
			tileW, tileH = bbox.W/(numTiles*2), bbox.H/numTiles
		}
		s.shapeTiled(in, bbox, max(tileW, minTileSide), max(tileH, minTileSide))
	} else {
		s.shapeImpl(in[overlapStart:], direction, overlapStart == 0)
	}
}

// shapeTiled splits bbox into a tile grid, accumulates per-tile damage and
// merges damage across adjacent tiles in a column when the gap is small.
func (s *damageShaper) shapeTiled(in []geom.Rect, bbox geom.Rect, tileW, tileH int) {
	s.tiles = s.tiles[:0]
	gapW := tileW / tileDamageGapFraction
	gapH := tileH / tileDamageGapFraction

	for x := bbox.X; x < bbox.X+bbox.W; x += tileW {
		tilesInColumn := 0
		for y := bbox.Y; y < bbox.Y+bbox.H; y += tileH {
			// Input damage is constrained to bbox, so per-tile damage
			// cannot escape the tile even when the tile overhangs.
			tile := shaperTile{bbox: geom.Rect{X: x, Y: y, W: tileW, H: tileH}}
			for _, r := range in {
				if overlap, ok := tile.bbox.Intersection(r); ok {
					if tile.hasDamage {
						tile.damage = tile.damage.Merge(overlap)
					} else {
						tile.damage = overlap
						tile.hasDamage = true
					}
				}
			}
			tilesInColumn++
			s.tiles = append(s.tiles, tile)
		}

		numTiles := len(s.tiles)
		for idx := numTiles - tilesInColumn; idx < numTiles-1; idx++ {
			if !s.tiles[idx].hasDamage || !s.tiles[idx+1].hasDamage {
				continue
			}
			damage := s.tiles[idx].damage
			adjacent := s.tiles[idx+1].damage

			if damage.Y+damage.H+gapH >= adjacent.Y && abs(damage.W-adjacent.W) < gapW {
				s.tiles[idx].hasDamage = false
				s.tiles[idx+1].damage = damage.Merge(adjacent)
			}
		}
	}

	for _, tile := range s.tiles {
		if tile.hasDamage {
			s.out = append(s.out, tile.damage)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
