// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: geom/transform.go
// Summary: Output rotation/flip transforms.
// Usage: Outputs advertise a presentation transform; the damage tracker
//        inverts it to obtain the render transform for its analysis space.

package geom

// Transform describes how content has to be rotated and/or flipped before
// it matches an output's presentation orientation.
type Transform int

const (
	// TransformNormal leaves the plane unaltered.
	TransformNormal Transform = iota
	// Transform90 rotates the plane by 90 degrees counter-clockwise.
	Transform90
	// Transform180 rotates the plane by 180 degrees.
	Transform180
	// Transform270 rotates the plane by 270 degrees counter-clockwise.
	Transform270
	// TransformFlipped flips the plane around the vertical axis.
	TransformFlipped
	// TransformFlipped90 flips and rotates by 90 degrees.
	TransformFlipped90
	// TransformFlipped180 flips and rotates by 180 degrees.
	TransformFlipped180
	// TransformFlipped270 flips and rotates by 270 degrees.
	TransformFlipped270
)

// Invert returns the transform that undoes t.
func (t Transform) Invert() Transform {
	switch t {
	case Transform90:
		return Transform270
	case Transform270:
		return Transform90
	case TransformFlipped90:
		return TransformFlipped270
	case TransformFlipped270:
		return TransformFlipped90
	default:
		// Normal, 180 and the flipped variants are their own inverse.
		return t
	}
}

// Swapped reports whether the transform exchanges width and height.
func (t Transform) Swapped() bool {
	switch t {
	case Transform90, Transform270, TransformFlipped90, TransformFlipped270:
		return true
	default:
		return false
	}
}

// TransformSize returns the size after applying the transform.
func (t Transform) TransformSize(s Size) Size {
	if t.Swapped() {
		return Size{W: s.H, H: s.W}
	}
	return s
}

func (t Transform) String() string {
	switch t {
	case TransformNormal:
		return "normal"
	case Transform90:
		return "90"
	case Transform180:
		return "180"
	case Transform270:
		return "270"
	case TransformFlipped:
		return "flipped"
	case TransformFlipped90:
		return "flipped-90"
	case TransformFlipped180:
		return "flipped-180"
	case TransformFlipped270:
		return "flipped-270"
	default:
		return "unknown"
	}
}
