// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: damage/tracker.go
// Summary: Per-output damage tracker state and construction.
// Usage: Compositors keep one Tracker per output and feed it the frame's
//        element list through Damage or Render.

package damage

import (
	"fmt"

	"github.com/framegrace/redraw/element"
	"github.com/framegrace/redraw/geom"
	"github.com/framegrace/redraw/output"
	"github.com/framegrace/redraw/render"
)

// maxAge bounds the retained damage history and therefore the highest
// buffer age that can be reconstructed incrementally.
const maxAge = 4

// instanceState is the retained state of one rendered occurrence of an
// element. The same logical element may be drawn more than once per frame
// (e.g. mirrored), yielding several instances.
type instanceState struct {
	lastSrc      geom.RectF
	lastGeometry geom.Rect
	lastAlpha    float64
	lastZIndex   int
}

func (s instanceState) matches(src geom.RectF, geometry geom.Rect, alpha float64, zIndex int) bool {
	return s.lastSrc == src &&
		s.lastGeometry == geometry &&
		s.lastAlpha == alpha &&
		s.lastZIndex == zIndex
}

// elementState is the retained per-ID state from the last successful frame.
type elementState struct {
	lastCommit    element.CommitCounter
	lastInstances []instanceState
}

func (s *elementState) instanceMatches(src geom.RectF, geometry geom.Rect, alpha float64, zIndex int) bool {
	for _, inst := range s.lastInstances {
		if inst.matches(src, geometry, alpha, zIndex) {
			return true
		}
	}
	return false
}

// trackerState is everything retained between frames. It is replaced
// wholesale on every successful frame and reset to the zero value on any
// rendering failure, forcing a full redraw next frame.
type trackerState struct {
	valid      bool
	size       geom.Size
	transform  geom.Transform
	clearColor *render.Color
	elements   map[element.ID]*elementState
	// oldDamage holds the fresh damage of recent frames, newest first,
	// never more than maxAge entries.
	oldDamage [][]geom.Rect
	// opaqueRegions is the flattened opaque coverage of the last frame.
	opaqueRegions []geom.Rect
}

// Tracker computes, per frame, the minimal set of output regions that must
// be redrawn, and can orchestrate redrawing exactly those regions.
//
// A Tracker belongs to exactly one output and must not be used
// concurrently: all retained state is mutated in place without locking.
type Tracker struct {
	mode   output.ModeSource
	last   trackerState
	shaper damageShaper

	// Scratch buffers reused across frames to avoid per-frame
	// allocations on the hot path.
	damage             []geom.Rect
	elementDamage      []geom.Rect
	opaqueRegions      []geom.Rect
	opaqueRegionsIndex [][2]int
	visible            []int
	visibleScratch     []geom.Rect
}

// New creates a tracker for a fixed output configuration.
func New(size geom.Size, scale geom.Scale, transform geom.Transform) *Tracker {
	return FromModeSource(output.NewStaticMode(size, scale, transform))
}

// FromOutput creates a tracker that follows a live output handle, picking
// up size, scale and transform changes on the next frame.
func FromOutput(out *output.Output) *Tracker {
	return FromModeSource(out)
}

// FromModeSource creates a tracker from an arbitrary mode source. Prefer
// New or FromOutput when the kind of source is known.
func FromModeSource(src output.ModeSource) *Tracker {
	return &Tracker{mode: src}
}

// ModeSource returns the tracker's mode source.
func (t *Tracker) ModeSource() output.ModeSource {
	return t.mode
}

// reset discards all retained state. Called after a rendering failure:
// the target may have been partially written, so every differential
// assumption about its content is unsafe and the next frame must redraw
// the whole output.
func (t *Tracker) reset() {
	t.last = trackerState{}
}

// resolveMode resolves the current output geometry. The output's nominal
// transform describes how content is rotated for presentation; its inverse
// maps content into the tracker's analysis space.
func (t *Tracker) resolveMode() (output.Mode, geom.Transform, geom.Rect, error) {
	mode, err := t.mode.CurrentMode()
	if err != nil {
		return output.Mode{}, 0, geom.Rect{}, err
	}
	renderTransform := mode.Transform.Invert()
	outputGeo := geom.FromSize(renderTransform.TransformSize(mode.Size))
	return mode, renderTransform, outputGeo, nil
}

// RenderError wraps an error propagated verbatim from the renderer, frame
// or a render element. It is always fatal to the frame's render attempt.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering failed: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func colorsEqual(a, b *render.Color) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
