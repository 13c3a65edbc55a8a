// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: element/membuf/membuf.go
// Summary: Memory-backed render element over an RGBA pixel buffer.
// Usage: Callers draw into the buffer through Update and hand the element
//        to a damage.Tracker; it renders through pixel-capable frames.

package membuf

import (
	"fmt"
	"image"
	"math"

	"github.com/framegrace/redraw/element"
	"github.com/framegrace/redraw/geom"
	"github.com/framegrace/redraw/render"
)

// imageFrame is the drawing surface membuf needs from a backend frame. The
// software backend implements it; other pixel backends can too.
type imageFrame interface {
	DrawImage(src *image.RGBA, srcRect geom.RectF, dst geom.Rect, damage []geom.Rect, alpha float64) error
}

// Buffer is a render element whose content lives in an RGBA image in main
// memory. Content changes are recorded per commit, so the damage tracker
// can redraw only what actually changed.
type Buffer struct {
	id     element.ID
	img    *image.RGBA
	bag    *element.DamageBag
	loc    geom.Point
	alpha  float64
	opaque bool
}

// New creates a buffer of the given size placed at loc, fully transparent
// until drawn into.
func New(loc geom.Point, size geom.Size) *Buffer {
	return &Buffer{
		id:    element.NewID(),
		img:   image.NewRGBA(image.Rect(0, 0, size.W, size.H)),
		bag:   element.NewDamageBag(element.DefaultDamageLimit),
		loc:   loc,
		alpha: 1,
	}
}

// Update gives the callback mutable access to the pixels. It must return
// the buffer-local rectangles it changed; returning none means the content
// is unchanged and no commit is recorded.
func (b *Buffer) Update(fn func(img *image.RGBA) []geom.Rect) {
	b.bag.Add(fn(b.img)...)
}

// MoveTo repositions the buffer on the output.
func (b *Buffer) MoveTo(loc geom.Point) {
	b.loc = loc
}

// SetAlpha changes the buffer's opacity, clamped to [0, 1].
func (b *Buffer) SetAlpha(alpha float64) {
	b.alpha = math.Max(0, math.Min(1, alpha))
}

// SetOpaque declares the whole buffer as fully opaque content.
func (b *Buffer) SetOpaque(opaque bool) {
	b.opaque = opaque
}

// Size returns the buffer's pixel size.
func (b *Buffer) Size() geom.Size {
	bounds := b.img.Bounds()
	return geom.Size{W: bounds.Dx(), H: bounds.Dy()}
}

// ID implements element.Element.
func (b *Buffer) ID() element.ID {
	return b.id
}

// Geometry implements element.Element.
func (b *Buffer) Geometry(scale geom.Scale) geom.Rect {
	size := b.Size()
	return geom.Rect{
		X: int(math.Round(float64(b.loc.X) * scale.X)),
		Y: int(math.Round(float64(b.loc.Y) * scale.Y)),
		W: int(math.Round(float64(size.W) * scale.X)),
		H: int(math.Round(float64(size.H) * scale.Y)),
	}
}

// Src implements element.Element.
func (b *Buffer) Src() geom.RectF {
	size := b.Size()
	return geom.RectF{W: float64(size.W), H: float64(size.H)}
}

// OpaqueRegions implements element.Element.
func (b *Buffer) OpaqueRegions(scale geom.Scale) []geom.Rect {
	if !b.opaque || b.alpha < 1 {
		return nil
	}
	g := b.Geometry(scale)
	return []geom.Rect{{X: 0, Y: 0, W: g.W, H: g.H}}
}

// DamageSince implements element.Element.
func (b *Buffer) DamageSince(scale geom.Scale, prev *element.CommitCounter) []geom.Rect {
	if dmg, ok := b.bag.DamageSince(prev); ok {
		return scaleRects(dmg, scale)
	}
	size := b.Size()
	return scaleRects([]geom.Rect{{X: 0, Y: 0, W: size.W, H: size.H}}, scale)
}

// CurrentCommit implements element.Element.
func (b *Buffer) CurrentCommit() element.CommitCounter {
	return b.bag.CurrentCommit()
}

// Alpha implements element.Element.
func (b *Buffer) Alpha() float64 {
	return b.alpha
}

// Draw implements element.RenderElement.
func (b *Buffer) Draw(frame render.Frame, src geom.RectF, dst geom.Rect, damage []geom.Rect) error {
	surface, ok := frame.(imageFrame)
	if !ok {
		return fmt.Errorf("membuf: frame %T cannot draw images", frame)
	}
	return surface.DrawImage(b.img, src, dst, damage, b.alpha)
}

func scaleRects(rects []geom.Rect, scale geom.Scale) []geom.Rect {
	if scale.X == 1 && scale.Y == 1 {
		return rects
	}
	out := make([]geom.Rect, 0, len(rects))
	for _, r := range rects {
		out = append(out, geom.Rect{
			X: int(math.Floor(float64(r.X) * scale.X)),
			Y: int(math.Floor(float64(r.Y) * scale.Y)),
			W: int(math.Ceil(float64(r.W) * scale.X)),
			H: int(math.Ceil(float64(r.H) * scale.Y)),
		})
	}
	return out
}
