// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: output/output.go
// Summary: Output mode sources feeding the damage tracker's mode resolver.
// Usage: Trackers resolve size/scale/transform from either a fixed mode or
//        a live output handle whose mode can change between frames.

package output

import (
	"errors"
	"sync"

	"github.com/framegrace/redraw/geom"
)

// ErrNoActiveMode is returned when a live output currently has no mode set.
// The condition is non-fatal; callers should retry once a mode is known.
var ErrNoActiveMode = errors.New("output has no active mode")

// Mode is an output's current pixel size, scale and presentation transform.
type Mode struct {
	Size      geom.Size
	Scale     geom.Scale
	Transform geom.Transform
}

// ModeSource yields the output mode to render against. Implemented by
// StaticMode for fixed configurations and by *Output for live handles.
type ModeSource interface {
	CurrentMode() (Mode, error)
}

// StaticMode is a fixed ModeSource.
type StaticMode Mode

// NewStaticMode builds a fixed mode source.
func NewStaticMode(size geom.Size, scale geom.Scale, transform geom.Transform) StaticMode {
	return StaticMode{Size: size, Scale: scale, Transform: transform}
}

// CurrentMode implements ModeSource.
func (m StaticMode) CurrentMode() (Mode, error) {
	return Mode(m), nil
}

// Output is a live display output handle. Its mode may change between
// frames (hotplug, modeset); a tracker created from it picks up changes on
// the next call. Safe for concurrent use.
type Output struct {
	mu   sync.Mutex
	name string
	mode *Mode
}

// New creates an output handle with no active mode.
func New(name string) *Output {
	return &Output{name: name}
}

// Name returns the output's identifier.
func (o *Output) Name() string {
	return o.name
}

// SetMode replaces the output's current mode.
func (o *Output) SetMode(mode Mode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m := mode
	o.mode = &m
}

// ClearMode removes the active mode, e.g. on disconnect.
func (o *Output) ClearMode() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mode = nil
}

// CurrentMode implements ModeSource, failing with ErrNoActiveMode while the
// output has no mode.
func (o *Output) CurrentMode() (Mode, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode == nil {
		return Mode{}, ErrNoActiveMode
	}
	return *o.mode, nil
}
