// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/cells/cells.go
// Summary: Terminal cell-grid renderer backend.
// Usage: Compositors targeting terminals render into a cell Buffer; one
//        output pixel is one character cell. A presenter pushes damaged
//        cells to the terminal afterwards.

package cells

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/redraw/geom"
	"github.com/framegrace/redraw/render"
)

// Cell is one character cell of the grid.
type Cell struct {
	Ch    rune
	Style tcell.Style
}

// Buffer is a cell-grid framebuffer.
type Buffer struct {
	size  geom.Size
	cells []Cell
}

// NewBuffer creates a blank buffer of the given size in cells.
func NewBuffer(size geom.Size) *Buffer {
	b := &Buffer{}
	b.Resize(size)
	return b
}

// Resize reallocates the grid. Content is discarded; the next frame has to
// redraw everything, which the damage tracker forces on size changes
// anyway.
func (b *Buffer) Resize(size geom.Size) {
	if size.W < 0 || size.H < 0 {
		size = geom.Size{}
	}
	b.size = size
	b.cells = make([]Cell, size.W*size.H)
	for i := range b.cells {
		b.cells[i] = Cell{Ch: ' ', Style: tcell.StyleDefault}
	}
}

// Size returns the grid size in cells.
func (b *Buffer) Size() geom.Size {
	return b.size
}

// At returns the cell at (x, y); out-of-range positions yield a blank.
func (b *Buffer) At(x, y int) Cell {
	if x < 0 || y < 0 || x >= b.size.W || y >= b.size.H {
		return Cell{Ch: ' ', Style: tcell.StyleDefault}
	}
	return b.cells[y*b.size.W+x]
}

// Walk calls fn for every cell inside the given output rects, clipped to
// the grid. Presenters use it with the tracker's reported damage to push
// only changed cells to the terminal.
func (b *Buffer) Walk(rects []geom.Rect, fn func(x, y int, c Cell)) {
	for _, r := range rects {
		clipped, ok := r.Intersection(geom.FromSize(b.size))
		if !ok {
			continue
		}
		for y := clipped.Y; y < clipped.Y+clipped.H; y++ {
			for x := clipped.X; x < clipped.X+clipped.W; x++ {
				fn(x, y, b.cells[y*b.size.W+x])
			}
		}
	}
}

func (b *Buffer) set(x, y int, c Cell) {
	if x < 0 || y < 0 || x >= b.size.W || y >= b.size.H {
		return
	}
	b.cells[y*b.size.W+x] = c
}

// Renderer draws into cell Buffers. Purely synchronous; sync points are
// signaled on Finish.
type Renderer struct{}

// New creates a cell renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render implements render.Renderer.
func (r *Renderer) Render(fb render.Framebuffer, size geom.Size, transform geom.Transform) (render.Frame, error) {
	buf, ok := fb.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("cells: unsupported framebuffer %T, want *cells.Buffer", fb)
	}
	if transform != geom.TransformNormal {
		return nil, fmt.Errorf("cells: unsupported output transform %s", transform)
	}
	if buf.Size() != size {
		return nil, fmt.Errorf("cells: framebuffer %v does not match output size %v", buf.Size(), size)
	}
	return &Frame{buf: buf}, nil
}

// Frame is an in-progress cell rendering pass. Elements assert this type
// in their Draw to reach SetCell.
type Frame struct {
	buf *Buffer
}

// Clear implements render.Frame, blanking the cells in the given rects
// with the color as background.
func (f *Frame) Clear(c render.Color, rects []geom.Rect) error {
	style := tcell.StyleDefault.Background(ToTcellColor(c))
	for _, r := range rects {
		clipped, ok := r.Intersection(geom.FromSize(f.buf.size))
		if !ok {
			continue
		}
		for y := clipped.Y; y < clipped.Y+clipped.H; y++ {
			for x := clipped.X; x < clipped.X+clipped.W; x++ {
				f.buf.set(x, y, Cell{Ch: ' ', Style: style})
			}
		}
	}
	return nil
}

// SetCell writes one cell in output coordinates.
func (f *Frame) SetCell(x, y int, c Cell) {
	f.buf.set(x, y, c)
}

// Finish implements render.Frame.
func (f *Frame) Finish() (*render.SyncPoint, error) {
	return render.Signaled(), nil
}

// ToTcellColor converts a renderer clear color to a tcell RGB color.
func ToTcellColor(c render.Color) tcell.Color {
	clamp := func(v float32) int32 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return int32(v*255 + 0.5)
	}
	return tcell.NewRGBColor(clamp(c.R), clamp(c.G), clamp(c.B))
}
