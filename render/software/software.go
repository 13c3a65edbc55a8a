// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/software/software.go
// Summary: Pure-Go pixel renderer backend drawing into an image.RGBA.
// Usage: Headless rendering and tests; framebuffers are plain *image.RGBA
//        values handed to damage.Tracker.Render.

package software

import (
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/framegrace/redraw/geom"
	"github.com/framegrace/redraw/render"
)

// Renderer is a software rasterizer. It draws into *image.RGBA framebuffers
// and signals sync points immediately, since all work happens on the
// calling goroutine.
type Renderer struct {
	scaler xdraw.Interpolator
}

// New creates a software renderer using approximate bi-linear scaling for
// blits whose source and destination sizes differ.
func New() *Renderer {
	return &Renderer{scaler: xdraw.ApproxBiLinear}
}

// Render implements render.Renderer. Only the normal orientation is
// supported; rotated or flipped outputs need a transforming backend.
func (r *Renderer) Render(fb render.Framebuffer, size geom.Size, transform geom.Transform) (render.Frame, error) {
	img, ok := fb.(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("software: unsupported framebuffer %T, want *image.RGBA", fb)
	}
	if size.Empty() {
		return nil, fmt.Errorf("software: zero-sized render target")
	}
	if transform != geom.TransformNormal {
		return nil, fmt.Errorf("software: unsupported output transform %s", transform)
	}
	bounds := img.Bounds()
	if bounds.Dx() < size.W || bounds.Dy() < size.H {
		return nil, fmt.Errorf("software: framebuffer %dx%d smaller than output %dx%d",
			bounds.Dx(), bounds.Dy(), size.W, size.H)
	}
	return &Frame{img: img, size: size, scaler: r.scaler}, nil
}

// Frame is an in-progress software rendering pass.
type Frame struct {
	img    *image.RGBA
	size   geom.Size
	scaler xdraw.Interpolator
}

// Clear implements render.Frame, filling the given rectangles.
func (f *Frame) Clear(c render.Color, rects []geom.Rect) error {
	fill := image.NewUniform(toRGBA(c))
	for _, r := range rects {
		clipped, ok := r.Intersection(geom.FromSize(f.size))
		if !ok {
			continue
		}
		stddraw.Draw(f.img, imageRect(clipped), fill, image.Point{}, stddraw.Src)
	}
	return nil
}

// DrawImage blits src into the frame. dst is the element's output-space
// geometry, damage the element-local rectangles to update, srcRect the
// sample region of src mapped onto dst (scaled when sizes differ), alpha a
// global opacity in [0, 1]. Render elements call this after asserting the
// frame type.
func (f *Frame) DrawImage(src *image.RGBA, srcRect geom.RectF, dst geom.Rect, damage []geom.Rect, alpha float64) error {
	if srcRect.Empty() || dst.Empty() || alpha <= 0 {
		return nil
	}

	sx := srcRect.W / float64(dst.W)
	sy := srcRect.H / float64(dst.H)

	for _, d := range damage {
		local, ok := d.Intersection(geom.FromSize(dst.Size()))
		if !ok {
			continue
		}
		target, ok := local.Translate(dst.X, dst.Y).Intersection(geom.FromSize(f.size))
		if !ok {
			continue
		}
		local = target.Translate(-dst.X, -dst.Y)

		sample := image.Rect(
			int(srcRect.X+float64(local.X)*sx),
			int(srcRect.Y+float64(local.Y)*sy),
			int(srcRect.X+float64(local.X+local.W)*sx+0.5),
			int(srcRect.Y+float64(local.Y+local.H)*sy+0.5),
		).Intersect(src.Bounds())
		if sample.Empty() {
			continue
		}

		if alpha >= 1 && sample.Dx() == target.W && sample.Dy() == target.H {
			stddraw.Draw(f.img, imageRect(target), src, sample.Min, stddraw.Over)
			continue
		}

		scratch := image.NewRGBA(image.Rect(0, 0, target.W, target.H))
		f.scaler.Scale(scratch, scratch.Bounds(), src, sample, xdraw.Src, nil)
		if alpha < 1 {
			applyAlpha(scratch, alpha)
		}
		stddraw.Draw(f.img, imageRect(target), scratch, image.Point{}, stddraw.Over)
	}
	return nil
}

// Finish implements render.Frame. The software backend has no asynchronous
// work, so the sync point is signaled immediately.
func (f *Frame) Finish() (*render.SyncPoint, error) {
	return render.Signaled(), nil
}

// Size returns the frame's output size.
func (f *Frame) Size() geom.Size {
	return f.size
}

func imageRect(r geom.Rect) image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// applyAlpha multiplies all premultiplied components by alpha.
func applyAlpha(img *image.RGBA, alpha float64) {
	a := uint32(alpha * 0xffff)
	for i := 0; i < len(img.Pix); i++ {
		img.Pix[i] = uint8(uint32(img.Pix[i]) * a / 0xffff)
	}
}

func toRGBA(c render.Color) color.RGBA {
	clamp := func(v float32) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 0xff
		}
		return uint8(v*255 + 0.5)
	}
	return color.RGBA{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B), A: clamp(c.A)}
}
