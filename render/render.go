// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/render.go
// Summary: Renderer and frame capabilities consumed by the damage tracker.
// Usage: Backends (software pixels, terminal cells, GPU) implement these
//        interfaces; the tracker treats every call as opaque and fallible.

package render

import "github.com/framegrace/redraw/geom"

// Framebuffer is an opaque render target owned by a backend. The damage
// tracker only passes it through.
type Framebuffer interface{}

// Renderer starts frames against a framebuffer. All blocking work (GPU
// submission, buffer mapping) happens behind this interface; the tracker
// itself never blocks.
type Renderer interface {
	// Render begins a frame targeting fb with the given output size and
	// render transform.
	Render(fb Framebuffer, size geom.Size, transform geom.Transform) (Frame, error)
}

// Binder is implemented by renderers that need an explicit bind step before
// a frame can target a framebuffer.
type Binder interface {
	Bind(fb Framebuffer) error
}

// Frame is an in-progress rendering pass.
type Frame interface {
	// Clear fills the given output-space rectangles with the color.
	Clear(color Color, rects []geom.Rect) error
	// Finish submits the frame and returns its completion token.
	Finish() (*SyncPoint, error)
}

// Color is a premultiplied RGBA color with float32 components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// ColorTransparent is fully transparent black.
var ColorTransparent = Color{}

// ColorBlack is opaque black.
var ColorBlack = Color{A: 1}
