// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: damage/render.go
// Summary: Render orchestration: clear and redraw exactly the damaged,
//          non-occluded regions, back-to-front.
// Usage: Compositors call Tracker.Render once per output per frame, or
//        Tracker.Damage to obtain the damage without drawing.

package damage

import (
	"github.com/framegrace/redraw/element"
	"github.com/framegrace/redraw/geom"
	"github.com/framegrace/redraw/output"
	"github.com/framegrace/redraw/render"
)

// RenderResult is the outcome of a successful Render call.
type RenderResult struct {
	// Sync completes when the frame's effects are visible in the target.
	// Already signaled when there was nothing to draw.
	Sync *render.SyncPoint
	// Damage holds the redrawn regions, or nil when the frame was
	// skipped because nothing changed. Valid until the next tracker
	// call.
	Damage []geom.Rect
	// States reports per element what the tracker did.
	States element.States
}

// Damage computes this frame's damage for a buffer that is age frames
// stale, without rendering anything. Elements are given front-to-back. The
// returned damage is nil when nothing changed; it stays valid until the
// next tracker call.
func (t *Tracker) Damage(age int, elems []element.Element) ([]geom.Rect, element.States, error) {
	mode, renderTransform, outputGeo, err := t.resolveMode()
	if err != nil {
		return nil, nil, err
	}

	states, _ := t.scan(age, elems, mode.Scale, renderTransform, outputGeo, t.last.clearColor)

	if len(t.damage) == 0 {
		return nil, states, nil
	}
	return t.damage, states, nil
}

// Render runs the full pipeline against the renderer: resolve the mode,
// analyze damage for a buffer that is age frames stale, and clear and
// redraw exactly the damaged regions. Elements are given front-to-back;
// drawing happens back-to-front. clearColor fills damaged areas not
// guaranteed to be overwritten by opaque content.
//
// On any renderer or element failure all retained state is discarded
// before the error is returned, so the next frame redraws the whole
// output instead of trusting a partially written target.
func (t *Tracker) Render(
	r render.Renderer,
	fb render.Framebuffer,
	age int,
	elems []element.RenderElement,
	clearColor render.Color,
) (*RenderResult, error) {
	mode, renderTransform, outputGeo, err := t.resolveMode()
	if err != nil {
		return nil, err
	}

	scanElems := make([]element.Element, len(elems))
	for i, e := range elems {
		scanElems[i] = e
	}

	states, visible := t.scan(age, scanElems, mode.Scale, renderTransform, outputGeo, &clearColor)

	if len(t.damage) == 0 {
		// Nothing to draw: no bind, no clear, no frame.
		return &RenderResult{Sync: render.Signaled(), States: states}, nil
	}

	sync, err := t.draw(r, fb, mode, renderTransform, elems, visible, clearColor)
	if err != nil {
		t.reset()
		return nil, &RenderError{Err: err}
	}

	return &RenderResult{Sync: sync, Damage: t.damage, States: states}, nil
}

// draw issues the actual clear and element draw calls for the damage left
// in t.damage by the scan.
func (t *Tracker) draw(
	r render.Renderer,
	fb render.Framebuffer,
	mode output.Mode,
	renderTransform geom.Transform,
	elems []element.RenderElement,
	visible []int,
	clearColor render.Color,
) (*render.SyncPoint, error) {
	if binder, ok := r.(render.Binder); ok && fb != nil {
		if err := binder.Bind(fb); err != nil {
			return nil, err
		}
	}

	frame, err := r.Render(fb, mode.Size, renderTransform)
	if err != nil {
		return nil, err
	}

	// Regions guaranteed to be fully overwritten by opaque content need
	// no clearing.
	t.elementDamage = append(t.elementDamage[:0], t.damage...)
	t.elementDamage = geom.SubtractRects(t.elementDamage, t.opaqueRegions)
	if err := frame.Clear(clearColor, t.elementDamage); err != nil {
		return nil, err
	}

	// Back-to-front over the visible elements; the slice position is the
	// element's front-to-back z-index.
	for zIndex := len(visible) - 1; zIndex >= 0; zIndex-- {
		e := elems[visible[zIndex]]
		geometry := e.Geometry(mode.Scale)

		t.elementDamage = t.elementDamage[:0]
		for _, d := range t.damage {
			if clipped, ok := d.Intersection(geometry); ok {
				t.elementDamage = append(t.elementDamage, clipped)
			}
		}

		// Occluded parts of the element need no drawing: subtract the
		// opaque coverage of everything with a lower z-index.
		opaqueRange := t.opaqueRegionsIndex[zIndex]
		t.elementDamage = geom.SubtractRects(t.elementDamage, t.opaqueRegions[:opaqueRange[0]])
		if len(t.elementDamage) == 0 {
			continue
		}

		// Element draw operates in element-local coordinates.
		for i := range t.elementDamage {
			t.elementDamage[i] = t.elementDamage[i].Translate(-geometry.X, -geometry.Y)
		}

		if err := e.Draw(frame, e.Src(), geometry, t.elementDamage); err != nil {
			return nil, err
		}
	}

	return frame.Finish()
}
