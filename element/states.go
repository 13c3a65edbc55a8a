// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: element/states.go
// Summary: Per-element render outcome reported back by the damage tracker.

package element

// PresentationState describes what the damage tracker did with an element
// during a frame.
type PresentationState int

const (
	// Skipped means the element was fully occluded or off-screen and was
	// not drawn.
	Skipped PresentationState = iota
	// Rendered means the element contributed visible pixels this frame.
	Rendered
)

func (p PresentationState) String() string {
	switch p {
	case Skipped:
		return "skipped"
	case Rendered:
		return "rendered"
	default:
		return "unknown"
	}
}

// State is the per-ID render outcome for one frame. VisibleArea accumulates
// the visible pixel count across all instances of the same ID.
type State struct {
	Presentation PresentationState
	VisibleArea  int
}

// SkippedState marks an element as not drawn.
func SkippedState() State {
	return State{Presentation: Skipped}
}

// RenderedState marks an element as drawn with the given visible pixel area.
func RenderedState(visibleArea int) State {
	return State{Presentation: Rendered, VisibleArea: visibleArea}
}

// States maps element identities to their render outcome for one frame.
type States map[ID]State

// Presented reports whether the element contributed visible pixels.
func (s States) Presented(id ID) bool {
	st, ok := s[id]
	return ok && st.Presentation == Rendered
}
