// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: damage/scan.go
// Summary: Occlusion analysis, damage diffing and buffer-age history mixing.
// Usage: Shared scan pipeline behind Tracker.Damage and Tracker.Render.

package damage

import (
	"github.com/framegrace/redraw/element"
	"github.com/framegrace/redraw/geom"
	"github.com/framegrace/redraw/render"
)

// scan runs the per-frame analysis over elements (front-to-back, index 0 is
// topmost) and leaves the final damage in t.damage, clamped to outputGeo and
// shaped. It returns the per-ID render states and the input indices of the
// elements that are actually visible this frame, in front-to-back order;
// the position in that slice is the element's z-index.
//
// On a frame with damage the retained state is committed; on an empty frame
// nothing changed, so nothing is stored.
func (t *Tracker) scan(
	age int,
	elems []element.Element,
	scale geom.Scale,
	transform geom.Transform,
	outputGeo geom.Rect,
	clearColor *render.Color,
) (element.States, []int) {
	t.damage = t.damage[:0]
	t.opaqueRegions = t.opaqueRegions[:0]
	t.opaqueRegionsIndex = t.opaqueRegionsIndex[:0]
	t.visible = t.visible[:0]

	states := make(element.States, len(elems))

	for i, e := range elems {
		id := e.ID()
		geometry := e.Geometry(scale)
		loc := geometry.Origin()

		// Elements outside the output contribute nothing and are not
		// assigned a z-index.
		onOutput, ok := geometry.Intersection(outputGeo)
		if !ok {
			continue
		}

		// Visible area is what remains after subtracting the opaque
		// coverage of everything already processed, i.e. everything
		// strictly in front.
		t.visibleScratch = append(t.visibleScratch[:0], onOutput)
		t.visibleScratch = geom.SubtractRects(t.visibleScratch, t.opaqueRegions)
		visibleArea := geom.TotalArea(t.visibleScratch)

		if visibleArea == 0 {
			// Fully occluded. An earlier instance of the same ID may
			// already have been rendered; never downgrade that.
			if _, seen := states[id]; !seen {
				states[id] = element.SkippedState()
			}
			continue
		}

		var lastCommit *element.CommitCounter
		if st := t.last.elements[id]; st != nil {
			c := st.lastCommit
			lastCommit = &c
		}
		for _, d := range e.DamageSince(scale, lastCommit) {
			if clipped, ok := d.Translate(loc.X, loc.Y).Intersection(outputGeo); ok {
				t.damage = append(t.damage, clipped)
			}
		}

		opaqueStart := len(t.opaqueRegions)
		for _, r := range e.OpaqueRegions(scale) {
			if clipped, ok := r.Translate(loc.X, loc.Y).Intersection(outputGeo); ok {
				t.opaqueRegions = append(t.opaqueRegions, clipped)
			}
		}
		t.opaqueRegionsIndex = append(t.opaqueRegionsIndex, [2]int{opaqueStart, len(t.opaqueRegions)})
		t.visible = append(t.visible, i)

		if st, seen := states[id]; seen {
			if st.Presentation == element.Skipped {
				states[id] = element.RenderedState(visibleArea)
			} else {
				st.VisibleArea += visibleArea
				states[id] = st
			}
		} else {
			states[id] = element.RenderedState(visibleArea)
		}
	}

	// Damage the last known geometry of elements gone since the previous
	// frame (or demoted to fully occluded). Parts still hidden behind the
	// opaque coverage of elements that remain in front contribute nothing.
	for id, st := range t.last.elements {
		if s, seen := states[id]; seen && s.Presentation != element.Skipped {
			continue
		}
		for _, inst := range st.lastInstances {
			t.appendUnoccludedDamage(inst.lastGeometry, inst.lastZIndex, outputGeo)
		}
	}

	// Damage elements whose placement changed: moved, resized, re-ordered
	// or with a new alpha or source rectangle. Both the new geometry and
	// every retained old geometry are damaged.
	for zIndex, idx := range t.visible {
		e := elems[idx]
		src := e.Src()
		geometry := e.Geometry(scale)
		alpha := e.Alpha()
		lastState := t.last.elements[e.ID()]

		if lastState != nil && lastState.instanceMatches(src, geometry, alpha, zIndex) {
			continue
		}
		t.appendUnoccludedDamage(geometry, zIndex, outputGeo)
		if lastState != nil {
			for _, inst := range lastState.lastInstances {
				t.appendUnoccludedDamage(inst.lastGeometry, inst.lastZIndex, outputGeo)
			}
		}
	}

	// Damage regions that used to be hidden behind opaque content and no
	// longer are.
	t.elementDamage = append(t.elementDamage[:0], t.last.opaqueRegions...)
	t.elementDamage = geom.SubtractRects(t.elementDamage, t.opaqueRegions)
	t.damage = append(t.damage, t.elementDamage...)

	if !t.last.valid ||
		t.last.size != outputGeo.Size() ||
		t.last.transform != transform ||
		!colorsEqual(t.last.clearColor, clearColor) {
		// Output geometry, transform or clear color changed; no
		// differential assumption holds, damage the whole output.
		t.damage = append(t.damage[:0], outputGeo)
	}

	// The damage computed so far is this frame's fresh damage, which
	// future frames will need for age reconstruction.
	fresh := append([]geom.Rect(nil), t.damage...)

	if age > 0 && len(t.last.oldDamage) >= age {
		// The target buffer is age frames stale: it misses the fresh
		// damage plus the fresh damage of the age-1 frames after its
		// last update. Older history is no longer needed.
		t.last.oldDamage = t.last.oldDamage[:age]
		for _, old := range t.last.oldDamage[:age-1] {
			t.damage = append(t.damage, old...)
		}
	} else {
		// Unknown or too-old buffer content cannot be reconstructed.
		// Keep the history bounded even while it goes unused.
		if len(t.last.oldDamage) > maxAge {
			t.last.oldDamage = t.last.oldDamage[:maxAge]
		}
		t.damage = append(t.damage[:0], outputGeo)
	}

	// Clamp to the output and drop what falls outside.
	kept := t.damage[:0]
	for _, r := range t.damage {
		if clipped, ok := r.Intersection(outputGeo); ok {
			kept = append(kept, clipped)
		}
	}
	t.damage = kept

	t.damage = t.shaper.shape(t.damage)

	if len(t.damage) == 0 {
		return states, t.visible
	}

	newElements := make(map[element.ID]*elementState, len(t.visible))
	for zIndex, idx := range t.visible {
		e := elems[idx]
		id := e.ID()
		inst := instanceState{
			lastSrc:      e.Src(),
			lastGeometry: e.Geometry(scale),
			lastAlpha:    e.Alpha(),
			lastZIndex:   zIndex,
		}
		if st := newElements[id]; st != nil {
			st.lastInstances = append(st.lastInstances, inst)
		} else {
			newElements[id] = &elementState{
				lastCommit:    e.CurrentCommit(),
				lastInstances: []instanceState{inst},
			}
		}
	}

	t.last.valid = true
	t.last.size = outputGeo.Size()
	t.last.transform = transform
	t.last.clearColor = clearColor
	t.last.elements = newElements
	t.last.oldDamage = append([][]geom.Rect{fresh}, t.last.oldDamage...)
	if len(t.last.oldDamage) > maxAge {
		t.last.oldDamage = t.last.oldDamage[:maxAge]
	}
	t.last.opaqueRegions = append([]geom.Rect(nil), t.opaqueRegions...)

	return states, t.visible
}

// appendUnoccludedDamage clips geometry to the output, removes the parts
// covered by the opaque regions of elements with a z-index strictly below
// zIndex (in front and staying in front) and appends the rest to the
// frame's damage.
func (t *Tracker) appendUnoccludedDamage(geometry geom.Rect, zIndex int, outputGeo geom.Rect) {
	clipped, ok := geometry.Intersection(outputGeo)
	if !ok {
		return
	}

	cut := len(t.opaqueRegions)
	if zIndex < len(t.opaqueRegionsIndex) {
		cut = t.opaqueRegionsIndex[zIndex][0]
	}
	if cut == 0 {
		t.damage = append(t.damage, clipped)
		return
	}

	t.visibleScratch = append(t.visibleScratch[:0], clipped)
	t.visibleScratch = geom.SubtractRects(t.visibleScratch, t.opaqueRegions[:cut])
	t.damage = append(t.damage, t.visibleScratch...)
}
