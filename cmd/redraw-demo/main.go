// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/redraw-demo/main.go
// Summary: Terminal demo compositor driven by the damage tracker.
// Usage: redraw-demo [-fps N] [-stats]. A box bounces over a patterned
//        background; only the cells the tracker reports as damaged are
//        pushed to the terminal. Esc, q or Ctrl-C quits.

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/redraw/damage"
	"github.com/framegrace/redraw/element"
	"github.com/framegrace/redraw/geom"
	"github.com/framegrace/redraw/output"
	"github.com/framegrace/redraw/render"
	"github.com/framegrace/redraw/render/cells"
)

var clearColor = render.Color{R: 0.05, G: 0.05, B: 0.12, A: 1}

func main() {
	fps := flag.Int("fps", 30, "target frames per second")
	stats := flag.Bool("stats", true, "show the damage stats label")
	flag.Parse()
	if *fps <= 0 {
		log.Fatal("fps must be positive")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("screen init: %v", err)
	}
	screen.HideCursor()

	err = run(screen, *fps, *stats)
	screen.Fini()
	if err != nil {
		log.Fatalf("redraw-demo: %v", err)
	}
}

func run(screen tcell.Screen, fps int, stats bool) error {
	w, h := screen.Size()
	size := geom.Size{W: w, H: h}

	out := output.New("terminal")
	out.SetMode(output.Mode{Size: size, Scale: geom.NewScale(1), Transform: geom.TransformNormal})
	tracker := damage.FromOutput(out)
	renderer := cells.New()
	fb := cells.NewBuffer(size)

	fill := newFill(size, '·', tcell.StyleDefault.
		Foreground(tcell.ColorGray).Background(tcell.NewRGBColor(15, 15, 35)))
	box := newBox(geom.Point{X: 2, Y: 2}, geom.Size{W: 18, H: 6}, '▒', tcell.StyleDefault.
		Foreground(tcell.ColorTeal).Background(tcell.NewRGBColor(0, 40, 40)))
	label := newLabel(geom.Point{X: 1, Y: 0}, "", tcell.StyleDefault.
		Foreground(tcell.ColorYellow))

	quit := make(chan struct{})
	resized := make(chan geom.Size, 1)

	go func() {
		for {
			switch ev := screen.PollEvent().(type) {
			case *tcell.EventResize:
				w, h := screen.Size()
				select {
				case resized <- geom.Size{W: w, H: h}:
				default:
				}
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEsc || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					close(quit)
					return
				}
			}
		}
	}()

	elems := []element.RenderElement{label, box, fill}

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var (
		dx, dy      = 1, 1
		frames      int
		damagedArea int
		statTick    = time.Now()
	)

	for {
		select {
		case <-quit:
			return nil
		case size = <-resized:
			out.SetMode(output.Mode{Size: size, Scale: geom.NewScale(1), Transform: geom.TransformNormal})
			fb.Resize(size)
			fill.Resize(size)
			screen.Sync()
		case <-ticker.C:
			loc := box.loc
			loc.X += dx
			loc.Y += dy
			if loc.X <= 0 || loc.X+box.size.W >= size.W {
				dx = -dx
				loc.X += 2 * dx
			}
			if loc.Y <= 0 || loc.Y+box.size.H >= size.H {
				dy = -dy
				loc.Y += 2 * dy
			}
			box.MoveTo(loc)

			if stats && time.Since(statTick) >= time.Second {
				label.SetText(fmt.Sprintf(" %d fps · %d cells repainted ", frames, damagedArea))
				frames, damagedArea = 0, 0
				statTick = time.Now()
			}

			res, err := tracker.Render(renderer, fb, 1, elems, clearColor)
			if err != nil {
				if errors.Is(err, output.ErrNoActiveMode) {
					continue
				}
				var rerr *damage.RenderError
				if errors.As(err, &rerr) {
					// The tracker reset itself; the next frame is a full
					// redraw. Keep running but note the failure.
					fmt.Fprintf(os.Stderr, "frame failed: %v\n", err)
					continue
				}
				return err
			}
			frames++
			if res.Damage == nil {
				continue
			}
			for _, r := range res.Damage {
				damagedArea += r.Area()
			}
			fb.Walk(res.Damage, func(x, y int, c cells.Cell) {
				screen.SetContent(x, y, c.Ch, nil, c.Style)
			})
			screen.Show()
		}
	}
}
