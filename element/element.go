// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: element/element.go
// Summary: Render element capability consumed by the damage tracker.
// Usage: The windowing layer implements Element/RenderElement for every
//        drawable item it hands to a damage.Tracker.

package element

import (
	"sync/atomic"

	"github.com/framegrace/redraw/geom"
	"github.com/framegrace/redraw/render"
)

// ID is a stable identity for a logical render element. It ties an element
// seen this frame to the state retained from the last frame, independent of
// where or how many times the element is drawn. IDs are comparable and
// usable as map keys.
type ID uint64

var idCounter atomic.Uint64

// NewID allocates a process-unique element identity.
func NewID() ID {
	return ID(idCounter.Add(1))
}

// CommitCounter is a monotonically non-decreasing content version marker
// owned by an element. It is advanced by the element whenever its visible
// content changes; the tracker only compares counters and never mutates
// them.
type CommitCounter uint64

// Increment advances the counter, wrapping on overflow.
func (c *CommitCounter) Increment() {
	*c++
}

// Distance returns the number of commits between prev and c. It reports
// false when prev is nil or ahead of c (wrap-around); callers must then
// treat the element as fully damaged. A spurious full damage every 2^64
// commits is acceptable.
func (c CommitCounter) Distance(prev *CommitCounter) (uint64, bool) {
	if prev == nil || *prev > c {
		return 0, false
	}
	return uint64(c - *prev), true
}

// Element describes a drawable item from the tracker's point of view. All
// geometry is in output-physical pixel space unless stated otherwise.
type Element interface {
	// ID returns the element's stable identity.
	ID() ID
	// Geometry returns the output-space bounding geometry at the given
	// scale.
	Geometry(scale geom.Scale) geom.Rect
	// Src returns the source sample rectangle, passed verbatim to Draw.
	Src() geom.RectF
	// OpaqueRegions returns element-local sub-areas guaranteed to fully
	// occlude anything behind them. Empty if the element has none.
	OpaqueRegions(scale geom.Scale) []geom.Rect
	// DamageSince returns element-local regions changed since prev, or
	// the whole element when prev is nil or no longer recognized.
	DamageSince(scale geom.Scale, prev *CommitCounter) []geom.Rect
	// CurrentCommit returns the element's current content version.
	CurrentCommit() CommitCounter
	// Alpha returns the element's opacity in [0, 1].
	Alpha() float64
}

// RenderElement is an Element that can draw itself into a backend frame.
type RenderElement interface {
	Element

	// Draw renders the element-local damage rectangles into the frame.
	// src and dst are the element's sample rectangle and output-space
	// geometry. Backend-specific drawing surfaces are reached by type
	// asserting the frame.
	Draw(frame render.Frame, src geom.RectF, dst geom.Rect, damage []geom.Rect) error
}
