// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/redraw-demo/elements.go
// Summary: Cell-grid render elements used by the demo compositor.

package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/framegrace/redraw/element"
	"github.com/framegrace/redraw/geom"
	"github.com/framegrace/redraw/render"
	"github.com/framegrace/redraw/render/cells"
)

// scaleRect maps a logical rect to physical coordinates, expanding to the
// enclosing integer rect. The demo runs at scale 1, but elements stay
// honest about the contract.
func scaleRect(r geom.Rect, s geom.Scale) geom.Rect {
	x0 := int(float64(r.X) * s.X)
	y0 := int(float64(r.Y) * s.Y)
	x1 := ceilScale(r.X+r.W, s.X)
	y1 := ceilScale(r.Y+r.H, s.Y)
	return geom.Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func ceilScale(v int, s float64) int {
	f := float64(v) * s
	i := int(f)
	if f > float64(i) {
		i++
	}
	return i
}

func scaleRects(rects []geom.Rect, s geom.Scale) []geom.Rect {
	if s == geom.NewScale(1) {
		return rects
	}
	out := make([]geom.Rect, len(rects))
	for i, r := range rects {
		out[i] = scaleRect(r, s)
	}
	return out
}

func pointInRects(x, y int, rects []geom.Rect) bool {
	for _, r := range rects {
		if x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H {
			return true
		}
	}
	return false
}

func cellFrame(frame render.Frame) (*cells.Frame, error) {
	f, ok := frame.(*cells.Frame)
	if !ok {
		return nil, fmt.Errorf("demo elements need a cell frame, got %T", frame)
	}
	return f, nil
}

// fillElement paints the whole output with one rune, acting as an opaque
// desktop background.
type fillElement struct {
	id    element.ID
	bag   *element.DamageBag
	size  geom.Size
	ch    rune
	style tcell.Style
}

func newFill(size geom.Size, ch rune, style tcell.Style) *fillElement {
	return &fillElement{
		id:    element.NewID(),
		bag:   element.NewDamageBag(element.DefaultDamageLimit),
		size:  size,
		ch:    ch,
		style: style,
	}
}

func (f *fillElement) Resize(size geom.Size) {
	f.size = size
	f.bag.Add(geom.FromSize(size))
}

func (f *fillElement) ID() element.ID { return f.id }

func (f *fillElement) Geometry(scale geom.Scale) geom.Rect {
	return scaleRect(geom.FromSize(f.size), scale)
}

func (f *fillElement) Src() geom.RectF {
	return geom.FromRect(geom.FromSize(f.size))
}

func (f *fillElement) OpaqueRegions(scale geom.Scale) []geom.Rect {
	return []geom.Rect{scaleRect(geom.FromSize(f.size), scale)}
}

func (f *fillElement) DamageSince(scale geom.Scale, prev *element.CommitCounter) []geom.Rect {
	damage, ok := f.bag.DamageSince(prev)
	if !ok {
		return []geom.Rect{scaleRect(geom.FromSize(f.size), scale)}
	}
	return scaleRects(damage, scale)
}

func (f *fillElement) CurrentCommit() element.CommitCounter { return f.bag.CurrentCommit() }

func (f *fillElement) Alpha() float64 { return 1 }

func (f *fillElement) Draw(frame render.Frame, _ geom.RectF, dst geom.Rect, damage []geom.Rect) error {
	cf, err := cellFrame(frame)
	if err != nil {
		return err
	}
	cell := cells.Cell{Ch: f.ch, Style: f.style}
	for _, d := range damage {
		for y := d.Y; y < d.Y+d.H; y++ {
			for x := d.X; x < d.X+d.W; x++ {
				cf.SetCell(dst.X+x, dst.Y+y, cell)
			}
		}
	}
	return nil
}

// boxElement is a movable opaque block, the demo's stand-in for a window.
type boxElement struct {
	id    element.ID
	bag   *element.DamageBag
	loc   geom.Point
	size  geom.Size
	ch    rune
	style tcell.Style
}

func newBox(loc geom.Point, size geom.Size, ch rune, style tcell.Style) *boxElement {
	return &boxElement{
		id:    element.NewID(),
		bag:   element.NewDamageBag(element.DefaultDamageLimit),
		loc:   loc,
		size:  size,
		ch:    ch,
		style: style,
	}
}

// MoveTo relocates the box. No buffer damage is recorded; the tracker
// detects the geometry change and damages both locations itself.
func (b *boxElement) MoveTo(loc geom.Point) {
	b.loc = loc
}

func (b *boxElement) ID() element.ID { return b.id }

func (b *boxElement) Geometry(scale geom.Scale) geom.Rect {
	return scaleRect(geom.Rect{X: b.loc.X, Y: b.loc.Y, W: b.size.W, H: b.size.H}, scale)
}

func (b *boxElement) Src() geom.RectF {
	return geom.FromRect(geom.FromSize(b.size))
}

func (b *boxElement) OpaqueRegions(scale geom.Scale) []geom.Rect {
	return []geom.Rect{scaleRect(geom.FromSize(b.size), scale)}
}

func (b *boxElement) DamageSince(scale geom.Scale, prev *element.CommitCounter) []geom.Rect {
	damage, ok := b.bag.DamageSince(prev)
	if !ok {
		return []geom.Rect{scaleRect(geom.FromSize(b.size), scale)}
	}
	return scaleRects(damage, scale)
}

func (b *boxElement) CurrentCommit() element.CommitCounter { return b.bag.CurrentCommit() }

func (b *boxElement) Alpha() float64 { return 1 }

func (b *boxElement) Draw(frame render.Frame, _ geom.RectF, dst geom.Rect, damage []geom.Rect) error {
	cf, err := cellFrame(frame)
	if err != nil {
		return err
	}
	for _, d := range damage {
		for y := d.Y; y < d.Y+d.H; y++ {
			for x := d.X; x < d.X+d.W; x++ {
				ch := b.ch
				onEdge := x == 0 || y == 0 || x == b.size.W-1 || y == b.size.H-1
				if onEdge {
					ch = borderRune(x, y, b.size)
				}
				cf.SetCell(dst.X+x, dst.Y+y, cells.Cell{Ch: ch, Style: b.style})
			}
		}
	}
	return nil
}

func borderRune(x, y int, size geom.Size) rune {
	switch {
	case x == 0 && y == 0:
		return '┌'
	case x == size.W-1 && y == 0:
		return '┐'
	case x == 0 && y == size.H-1:
		return '└'
	case x == size.W-1 && y == size.H-1:
		return '┘'
	case y == 0 || y == size.H-1:
		return '─'
	default:
		return '│'
	}
}

// labelElement shows a one-line text overlay. It is not opaque, so the
// tracker repaints what lies underneath whenever the text changes.
type labelElement struct {
	id    element.ID
	bag   *element.DamageBag
	loc   geom.Point
	text  string
	width int
	style tcell.Style
}

func newLabel(loc geom.Point, text string, style tcell.Style) *labelElement {
	l := &labelElement{
		id:    element.NewID(),
		bag:   element.NewDamageBag(element.DefaultDamageLimit),
		loc:   loc,
		style: style,
	}
	l.SetText(text)
	return l
}

func (l *labelElement) SetText(text string) {
	if text == l.text {
		return
	}
	l.text = text
	l.width = runewidth.StringWidth(text)
	l.bag.Add(geom.Rect{W: l.width, H: 1})
}

func (l *labelElement) ID() element.ID { return l.id }

func (l *labelElement) Geometry(scale geom.Scale) geom.Rect {
	w := l.width
	if w < 1 {
		w = 1
	}
	return scaleRect(geom.Rect{X: l.loc.X, Y: l.loc.Y, W: w, H: 1}, scale)
}

func (l *labelElement) Src() geom.RectF {
	return geom.FromRect(geom.Rect{W: l.width, H: 1})
}

func (l *labelElement) OpaqueRegions(geom.Scale) []geom.Rect { return nil }

func (l *labelElement) DamageSince(scale geom.Scale, prev *element.CommitCounter) []geom.Rect {
	damage, ok := l.bag.DamageSince(prev)
	if !ok {
		return []geom.Rect{scaleRect(geom.Rect{W: l.width, H: 1}, scale)}
	}
	return scaleRects(damage, scale)
}

func (l *labelElement) CurrentCommit() element.CommitCounter { return l.bag.CurrentCommit() }

func (l *labelElement) Alpha() float64 { return 1 }

func (l *labelElement) Draw(frame render.Frame, _ geom.RectF, dst geom.Rect, damage []geom.Rect) error {
	cf, err := cellFrame(frame)
	if err != nil {
		return err
	}
	x := 0
	for _, r := range l.text {
		w := runewidth.RuneWidth(r)
		if pointInRects(x, 0, damage) {
			cf.SetCell(dst.X+x, dst.Y, cells.Cell{Ch: r, Style: l.style})
			// Wide runes own the following column; blank it so stale
			// content cannot bleed through.
			for i := 1; i < w; i++ {
				cf.SetCell(dst.X+x+i, dst.Y, cells.Cell{Ch: ' ', Style: l.style})
			}
		}
		x += w
	}
	return nil
}
