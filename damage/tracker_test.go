// Copyright © 2026 Redraw contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: damage/tracker_test.go
// Summary: Exercises occlusion analysis, age reconstruction and render
//          orchestration of the output damage tracker.
// Usage: Executed during `go test` to guard against regressions.

package damage

import (
	"errors"
	"testing"

	"github.com/framegrace/redraw/element"
	"github.com/framegrace/redraw/geom"
	"github.com/framegrace/redraw/output"
	"github.com/framegrace/redraw/render"
)

// testElement is a RenderElement fake backed by a DamageBag, recording
// every draw it receives.
type testElement struct {
	id       element.ID
	geometry geom.Rect
	opaque   []geom.Rect
	alpha    float64
	src      geom.RectF
	bag      *element.DamageBag

	drawLog *[]element.ID
	drawn   [][]geom.Rect
	drawErr error
}

func newTestElement(geometry geom.Rect) *testElement {
	return &testElement{
		id:       element.NewID(),
		geometry: geometry,
		alpha:    1,
		src:      geom.RectF{W: float64(geometry.W), H: float64(geometry.H)},
		bag:      element.NewDamageBag(element.DefaultDamageLimit),
	}
}

// markOpaque declares the whole element as opaque.
func (e *testElement) markOpaque() {
	e.opaque = []geom.Rect{{X: 0, Y: 0, W: e.geometry.W, H: e.geometry.H}}
}

// mirror returns a second instance of the same logical element at another
// position.
func (e *testElement) mirror(dx, dy int) *testElement {
	m := *e
	m.geometry = e.geometry.Translate(dx, dy)
	return &m
}

func (e *testElement) ID() element.ID                       { return e.id }
func (e *testElement) Geometry(geom.Scale) geom.Rect        { return e.geometry }
func (e *testElement) Src() geom.RectF                      { return e.src }
func (e *testElement) Alpha() float64                       { return e.alpha }
func (e *testElement) OpaqueRegions(geom.Scale) []geom.Rect { return e.opaque }

func (e *testElement) CurrentCommit() element.CommitCounter { return e.bag.CurrentCommit() }

func (e *testElement) DamageSince(_ geom.Scale, prev *element.CommitCounter) []geom.Rect {
	if dmg, ok := e.bag.DamageSince(prev); ok {
		return dmg
	}
	return []geom.Rect{{X: 0, Y: 0, W: e.geometry.W, H: e.geometry.H}}
}

func (e *testElement) Draw(_ render.Frame, _ geom.RectF, _ geom.Rect, damage []geom.Rect) error {
	if e.drawErr != nil {
		return e.drawErr
	}
	e.drawn = append(e.drawn, append([]geom.Rect(nil), damage...))
	if e.drawLog != nil {
		*e.drawLog = append(*e.drawLog, e.id)
	}
	return nil
}

// testRenderer is a Renderer+Binder fake handing out recording frames.
type testRenderer struct {
	bound     []render.Framebuffer
	frames    []*testFrame
	bindErr   error
	renderErr error
	clearErr  error
	finishErr error
}

func (r *testRenderer) Bind(fb render.Framebuffer) error {
	if r.bindErr != nil {
		return r.bindErr
	}
	r.bound = append(r.bound, fb)
	return nil
}

func (r *testRenderer) Render(_ render.Framebuffer, size geom.Size, transform geom.Transform) (render.Frame, error) {
	if r.renderErr != nil {
		return nil, r.renderErr
	}
	f := &testFrame{size: size, transform: transform, clearErr: r.clearErr, finishErr: r.finishErr}
	r.frames = append(r.frames, f)
	return f, nil
}

type testFrame struct {
	size      geom.Size
	transform geom.Transform
	clears    [][]geom.Rect
	clearErr  error
	finishErr error
	finished  bool
}

func (f *testFrame) Clear(_ render.Color, rects []geom.Rect) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.clears = append(f.clears, append([]geom.Rect(nil), rects...))
	return nil
}

func (f *testFrame) Finish() (*render.SyncPoint, error) {
	if f.finishErr != nil {
		return nil, f.finishErr
	}
	f.finished = true
	return render.Signaled(), nil
}

// covers reports whether the union of rects covers all of want.
func covers(rects []geom.Rect, want geom.Rect) bool {
	return len(geom.SubtractRect(want, rects)) == 0
}

func intersectsAny(rects []geom.Rect, r geom.Rect) bool {
	for _, rect := range rects {
		if rect.Overlaps(r) {
			return true
		}
	}
	return false
}

func renderFrame(t *testing.T, tr *Tracker, age int, elems ...element.RenderElement) (*RenderResult, *testRenderer) {
	t.Helper()
	r := &testRenderer{}
	res, err := tr.Render(r, nil, age, elems, render.ColorBlack)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return res, r
}

func TestFirstFrameDamagesWholeOutput(t *testing.T) {
	tr := New(geom.Size{W: 800, H: 600}, geom.NewScale(1), geom.TransformNormal)
	el := newTestElement(geom.Rect{X: 100, Y: 100, W: 50, H: 50})

	res, _ := renderFrame(t, tr, 1, el)
	if res.Damage == nil {
		t.Fatalf("first frame must produce damage")
	}
	if !covers(res.Damage, geom.Rect{X: 0, Y: 0, W: 800, H: 600}) {
		t.Fatalf("first frame must damage the whole output, got %v", res.Damage)
	}
	if !res.States.Presented(el.id) {
		t.Fatalf("element must be rendered")
	}
}

func TestNoOpIdempotence(t *testing.T) {
	tr := New(geom.Size{W: 800, H: 600}, geom.NewScale(1), geom.TransformNormal)
	el := newTestElement(geom.Rect{X: 100, Y: 100, W: 50, H: 50})

	renderFrame(t, tr, 1, el)
	res, r := renderFrame(t, tr, 1, el)

	if res.Damage != nil {
		t.Fatalf("unchanged frame must yield no damage, got %v", res.Damage)
	}
	if !res.Sync.IsSignaled() {
		t.Fatalf("skipped frame must return a signaled sync point")
	}
	if len(r.frames) != 0 || len(r.bound) != 0 {
		t.Fatalf("skipped frame must not touch the renderer")
	}
	if !res.States.Presented(el.id) {
		t.Fatalf("unchanged element must still report rendered")
	}
}

func TestIncrementalElementDamage(t *testing.T) {
	tr := New(geom.Size{W: 800, H: 600}, geom.NewScale(1), geom.TransformNormal)
	el := newTestElement(geom.Rect{X: 100, Y: 100, W: 200, H: 200})

	renderFrame(t, tr, 1, el)

	el.bag.Add(geom.Rect{X: 10, Y: 10, W: 20, H: 20}) // element-local
	res, _ := renderFrame(t, tr, 1, el)

	want := geom.Rect{X: 110, Y: 110, W: 20, H: 20} // translated to output space
	if !covers(res.Damage, want) {
		t.Fatalf("damage %v must cover %v", res.Damage, want)
	}
	if intersectsAny(res.Damage, geom.Rect{X: 0, Y: 0, W: 100, H: 600}) {
		t.Fatalf("damage %v leaks outside the changed region", res.Damage)
	}

	// The element receives its damage in element-local coordinates.
	got := el.drawn[len(el.drawn)-1]
	if !covers(got, geom.Rect{X: 10, Y: 10, W: 20, H: 20}) {
		t.Fatalf("element-local draw damage %v must cover the change", got)
	}
}

func TestOcclusionSkipsCoveredElement(t *testing.T) {
	tr := New(geom.Size{W: 800, H: 600}, geom.NewScale(1), geom.TransformNormal)
	front := newTestElement(geom.Rect{X: 0, Y: 0, W: 800, H: 600})
	front.markOpaque()
	back := newTestElement(geom.Rect{X: 100, Y: 100, W: 50, H: 50})

	// Front-to-back: index 0 is topmost.
	res, _ := renderFrame(t, tr, 1, front, back)

	if st := res.States[back.id]; st.Presentation != element.Skipped {
		t.Fatalf("covered element must be skipped, got %v", st)
	}
	if !covers(res.Damage, geom.Rect{X: 0, Y: 0, W: 800, H: 600}) {
		t.Fatalf("first frame damage = %v, want full output", res.Damage)
	}
	if len(back.drawn) != 0 {
		t.Fatalf("covered element must not be drawn")
	}

	// Unchanged scene: no damage at all.
	res, _ = renderFrame(t, tr, 1, front, back)
	if res.Damage != nil {
		t.Fatalf("unchanged scene must yield no damage, got %v", res.Damage)
	}

	// Removing the occluder reveals the element completely.
	res, _ = renderFrame(t, tr, 1, back)
	st := res.States[back.id]
	if st.Presentation != element.Rendered || st.VisibleArea != 50*50 {
		t.Fatalf("revealed element state = %v, want rendered area %d", st, 50*50)
	}
}

func TestDisappearanceDamage(t *testing.T) {
	tr := New(geom.Size{W: 800, H: 600}, geom.NewScale(1), geom.TransformNormal)
	keep := newTestElement(geom.Rect{X: 500, Y: 400, W: 60, H: 60})
	gone := newTestElement(geom.Rect{X: 100, Y: 100, W: 80, H: 80})

	renderFrame(t, tr, 1, keep, gone)
	res, _ := renderFrame(t, tr, 1, keep)

	if !covers(res.Damage, geom.Rect{X: 100, Y: 100, W: 80, H: 80}) {
		t.Fatalf("damage %v must cover the removed element", res.Damage)
	}
	if intersectsAny(res.Damage, geom.Rect{X: 500, Y: 400, W: 60, H: 60}) {
		t.Fatalf("damage %v must not touch the unchanged element", res.Damage)
	}
	if _, seen := res.States[gone.id]; seen {
		t.Fatalf("removed element must not appear in states")
	}
}

func TestMoveDamagesOldAndNewGeometry(t *testing.T) {
	tr := New(geom.Size{W: 800, H: 600}, geom.NewScale(1), geom.TransformNormal)
	el := newTestElement(geom.Rect{X: 0, Y: 0, W: 50, H: 50})

	renderFrame(t, tr, 1, el)

	el.geometry = geom.Rect{X: 200, Y: 200, W: 50, H: 50}
	res, _ := renderFrame(t, tr, 1, el)

	if !covers(res.Damage, geom.Rect{X: 0, Y: 0, W: 50, H: 50}) {
		t.Fatalf("damage %v must cover the old geometry", res.Damage)
	}
	if !covers(res.Damage, geom.Rect{X: 200, Y: 200, W: 50, H: 50}) {
		t.Fatalf("damage %v must cover the new geometry", res.Damage)
	}
}

func TestAlphaChangeDamages(t *testing.T) {
	tr := New(geom.Size{W: 800, H: 600}, geom.NewScale(1), geom.TransformNormal)
	el := newTestElement(geom.Rect{X: 40, Y: 40, W: 50, H: 50})

	renderFrame(t, tr, 1, el)

	el.alpha = 0.5
	res, _ := renderFrame(t, tr, 1, el)
	if !covers(res.Damage, geom.Rect{X: 40, Y: 40, W: 50, H: 50}) {
		t.Fatalf("alpha change must damage the element, got %v", res.Damage)
	}
}

func TestZOrderChangeDamages(t *testing.T) {
	tr := New(geom.Size{W: 800, H: 600}, geom.NewScale(1), geom.TransformNormal)
	a := newTestElement(geom.Rect{X: 0, Y: 0, W: 50, H: 50})
	b := newTestElement(geom.Rect{X: 300, Y: 300, W: 50, H: 50})

	renderFrame(t, tr, 1, a, b)
	res, _ := renderFrame(t, tr, 1, b, a)

	if res.Damage == nil {
		t.Fatalf("restack must produce damage")
	}
	if !covers(res.Damage, geom.Rect{X: 0, Y: 0, W: 50, H: 50}) || !covers(res.Damage, geom.Rect{X: 300, Y: 300, W: 50, H: 50}) {
		t.Fatalf("restack damage %v must cover both elements", res.Damage)
	}
}

func TestMultipleInstancesAccumulateVisibleArea(t *testing.T) {
	tr := New(geom.Size{W: 800, H: 600}, geom.NewScale(1), geom.TransformNormal)
	el := newTestElement(geom.Rect{X: 0, Y: 0, W: 40, H: 40})
	mirrored := el.mirror(400, 0)

	res, _ := renderFrame(t, tr, 1, el, mirrored)

	st := res.States[el.id]
	if st.Presentation != element.Rendered || st.VisibleArea != 2*40*40 {
		t.Fatalf("state = %+v, want rendered with area %d", st, 2*40*40)
	}

	// Same two instances again: nothing changed.
	res, _ = renderFrame(t, tr, 1, el, mirrored)
	if res.Damage != nil {
		t.Fatalf("unchanged mirrored scene must yield no damage, got %v", res.Damage)
	}
}

func TestAgeReconstruction(t *testing.T) {
	tr := New(geom.Size{W: 100, H: 100}, geom.NewScale(1), geom.TransformNormal)
	el := newTestElement(geom.Rect{X: 0, Y: 0, W: 100, H: 100})

	var elems = []element.Element{el}
	if _, _, err := tr.Damage(1, elems); err != nil {
		t.Fatalf("damage failed: %v", err)
	}

	frames := []geom.Rect{
		{X: 0, Y: 20, W: 10, H: 10},  // D2
		{X: 20, Y: 20, W: 10, H: 10}, // D3
		{X: 40, Y: 20, W: 10, H: 10}, // D4
	}
	for _, d := range frames {
		el.bag.Add(d)
		dmg, _, err := tr.Damage(1, elems)
		if err != nil {
			t.Fatalf("damage failed: %v", err)
		}
		if !covers(dmg, d) {
			t.Fatalf("fresh damage %v must cover %v", dmg, d)
		}
	}

	// A 3-frame-stale buffer misses D5 plus the two frames before it.
	d5 := geom.Rect{X: 60, Y: 20, W: 10, H: 10}
	el.bag.Add(d5)
	dmg, _, err := tr.Damage(3, elems)
	if err != nil {
		t.Fatalf("damage failed: %v", err)
	}
	for _, want := range []geom.Rect{frames[1], frames[2], d5} {
		if !covers(dmg, want) {
			t.Fatalf("age-3 damage %v must cover %v", dmg, want)
		}
	}
	if intersectsAny(dmg, frames[0]) {
		t.Fatalf("age-3 damage %v must not reach back to %v", dmg, frames[0])
	}

	// Unknown buffer age forces a full redraw.
	el.bag.Add(geom.Rect{X: 80, Y: 20, W: 10, H: 10})
	dmg, _, err = tr.Damage(0, elems)
	if err != nil {
		t.Fatalf("damage failed: %v", err)
	}
	if !covers(dmg, geom.Rect{X: 0, Y: 0, W: 100, H: 100}) {
		t.Fatalf("age-0 damage %v must be the full output", dmg)
	}
}

func TestFullDamageOnModeChange(t *testing.T) {
	out := output.New("test-0")
	out.SetMode(output.Mode{Size: geom.Size{W: 800, H: 600}, Scale: geom.NewScale(1)})
	tr := FromOutput(out)
	el := newTestElement(geom.Rect{X: 10, Y: 10, W: 20, H: 20})

	renderFrame(t, tr, 1, el)
	res, _ := renderFrame(t, tr, 1, el)
	if res.Damage != nil {
		t.Fatalf("unchanged frame must yield no damage")
	}

	out.SetMode(output.Mode{Size: geom.Size{W: 1024, H: 768}, Scale: geom.NewScale(1)})
	res, _ = renderFrame(t, tr, 1, el)
	if !covers(res.Damage, geom.Rect{X: 0, Y: 0, W: 1024, H: 768}) {
		t.Fatalf("resize damage %v must cover the new output", res.Damage)
	}

	// A transform change swaps the analysis space and damages all of it.
	out.SetMode(output.Mode{Size: geom.Size{W: 1024, H: 768}, Scale: geom.NewScale(1), Transform: geom.Transform90})
	dmg, _, err := tr.Damage(1, []element.Element{el})
	if err != nil {
		t.Fatalf("damage failed: %v", err)
	}
	if !covers(dmg, geom.Rect{X: 0, Y: 0, W: 768, H: 1024}) {
		t.Fatalf("transform damage %v must cover the rotated output", dmg)
	}
}

func TestClipInvariant(t *testing.T) {
	tr := New(geom.Size{W: 800, H: 600}, geom.NewScale(1), geom.TransformNormal)
	el := newTestElement(geom.Rect{X: 600, Y: 500, W: 400, H: 300}) // overhangs the output

	res, _ := renderFrame(t, tr, 1, el)
	for _, r := range res.Damage {
		if !(geom.Rect{X: 0, Y: 0, W: 800, H: 600}).ContainsRect(r) {
			t.Fatalf("damage rect %v escapes the output", r)
		}
	}

	el.bag.Add(geom.Rect{X: 0, Y: 0, W: 400, H: 300}) // partially off-screen
	res, _ = renderFrame(t, tr, 1, el)
	for _, r := range res.Damage {
		if !(geom.Rect{X: 0, Y: 0, W: 800, H: 600}).ContainsRect(r) {
			t.Fatalf("damage rect %v escapes the output", r)
		}
	}
}

func TestNoActiveMode(t *testing.T) {
	out := output.New("unplugged")
	tr := FromOutput(out)
	el := newTestElement(geom.Rect{X: 0, Y: 0, W: 10, H: 10})

	if _, _, err := tr.Damage(1, []element.Element{el}); !errors.Is(err, output.ErrNoActiveMode) {
		t.Fatalf("expected ErrNoActiveMode, got %v", err)
	}

	r := &testRenderer{}
	_, err := tr.Render(r, nil, 1, []element.RenderElement{el}, render.ColorBlack)
	if !errors.Is(err, output.ErrNoActiveMode) {
		t.Fatalf("expected ErrNoActiveMode, got %v", err)
	}
	var re *RenderError
	if errors.As(err, &re) {
		t.Fatalf("mode errors are not rendering failures")
	}

	// Once a mode appears the tracker works and starts from scratch.
	out.SetMode(output.Mode{Size: geom.Size{W: 100, H: 100}, Scale: geom.NewScale(1)})
	res, _ := renderFrame(t, tr, 1, el)
	if !covers(res.Damage, geom.Rect{X: 0, Y: 0, W: 100, H: 100}) {
		t.Fatalf("first frame after hotplug must damage everything")
	}
}

func TestFailureResetsState(t *testing.T) {
	tr := New(geom.Size{W: 800, H: 600}, geom.NewScale(1), geom.TransformNormal)
	el := newTestElement(geom.Rect{X: 0, Y: 0, W: 100, H: 100})

	renderFrame(t, tr, 1, el)

	el.bag.Add(geom.Rect{X: 0, Y: 0, W: 5, H: 5})
	el.drawErr = errors.New("gpu hang")
	r := &testRenderer{}
	_, err := tr.Render(r, nil, 1, []element.RenderElement{el}, render.ColorBlack)
	if err == nil {
		t.Fatalf("expected draw failure to propagate")
	}
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("expected RenderError, got %T %v", err, err)
	}
	if !errors.Is(err, el.drawErr) {
		t.Fatalf("inner error must be preserved, got %v", err)
	}

	// The target is now in an unknown state: even an unchanged element
	// list must redraw the whole output.
	el.drawErr = nil
	res, _ := renderFrame(t, tr, 1, el)
	if !covers(res.Damage, geom.Rect{X: 0, Y: 0, W: 800, H: 600}) {
		t.Fatalf("post-failure damage %v must be the full output", res.Damage)
	}
}

func TestClearSkipsOpaqueCoverage(t *testing.T) {
	tr := New(geom.Size{W: 800, H: 600}, geom.NewScale(1), geom.TransformNormal)
	el := newTestElement(geom.Rect{X: 100, Y: 100, W: 200, H: 200})
	el.markOpaque()

	_, r := renderFrame(t, tr, 1, el)

	if len(r.frames) != 1 || len(r.frames[0].clears) != 1 {
		t.Fatalf("expected exactly one clear")
	}
	cleared := r.frames[0].clears[0]
	if intersectsAny(cleared, geom.Rect{X: 100, Y: 100, W: 200, H: 200}) {
		t.Fatalf("clear %v must not touch opaque coverage", cleared)
	}
	if geom.TotalArea(cleared) != 800*600-200*200 {
		t.Fatalf("clear area = %d, want %d", geom.TotalArea(cleared), 800*600-200*200)
	}
	if !r.frames[0].finished {
		t.Fatalf("frame must be finished")
	}
}

func TestDrawOrderIsBackToFront(t *testing.T) {
	tr := New(geom.Size{W: 800, H: 600}, geom.NewScale(1), geom.TransformNormal)
	var log []element.ID
	front := newTestElement(geom.Rect{X: 0, Y: 0, W: 100, H: 100})
	back := newTestElement(geom.Rect{X: 50, Y: 50, W: 100, H: 100})
	front.drawLog = &log
	back.drawLog = &log

	renderFrame(t, tr, 1, front, back)

	if len(log) != 2 || log[0] != back.id || log[1] != front.id {
		t.Fatalf("draw order %v, want back before front", log)
	}
}

func TestUntouchedElementNotDrawn(t *testing.T) {
	tr := New(geom.Size{W: 800, H: 600}, geom.NewScale(1), geom.TransformNormal)
	changed := newTestElement(geom.Rect{X: 0, Y: 0, W: 100, H: 100})
	idle := newTestElement(geom.Rect{X: 600, Y: 400, W: 100, H: 100})

	renderFrame(t, tr, 1, changed, idle)
	idleDraws := len(idle.drawn)

	changed.bag.Add(geom.Rect{X: 0, Y: 0, W: 10, H: 10})
	renderFrame(t, tr, 1, changed, idle)

	if len(idle.drawn) != idleDraws {
		t.Fatalf("element outside the damage must not be redrawn")
	}
	if len(changed.drawn) == 0 {
		t.Fatalf("changed element must be drawn")
	}
}

func TestConcreteScenario(t *testing.T) {
	// 800x600 output, opaque A over the whole output, B behind it.
	tr := New(geom.Size{W: 800, H: 600}, geom.NewScale(1), geom.TransformNormal)
	a := newTestElement(geom.Rect{X: 0, Y: 0, W: 800, H: 600})
	a.markOpaque()
	b := newTestElement(geom.Rect{X: 100, Y: 100, W: 50, H: 50})

	res, _ := renderFrame(t, tr, 1, a, b)
	if st := res.States[b.id]; st.Presentation != element.Skipped {
		t.Fatalf("B must be skipped, got %v", st)
	}
	if len(res.Damage) != 1 || res.Damage[0] != (geom.Rect{X: 0, Y: 0, W: 800, H: 600}) {
		t.Fatalf("first damage = %v, want [(0,0,800,600)]", res.Damage)
	}

	res, _ = renderFrame(t, tr, 1, a, b)
	if res.Damage != nil {
		t.Fatalf("second call must yield no damage, got %v", res.Damage)
	}
}

func TestBindTarget(t *testing.T) {
	tr := New(geom.Size{W: 100, H: 100}, geom.NewScale(1), geom.TransformNormal)
	el := newTestElement(geom.Rect{X: 0, Y: 0, W: 10, H: 10})

	type fb struct{ name string }
	target := &fb{name: "back"}
	r := &testRenderer{}
	if _, err := tr.Render(r, target, 1, []element.RenderElement{el}, render.ColorBlack); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if len(r.bound) != 1 || r.bound[0] != render.Framebuffer(target) {
		t.Fatalf("expected target to be bound once, got %v", r.bound)
	}

	r.bindErr = errors.New("bind refused")
	el.bag.Add(geom.Rect{X: 0, Y: 0, W: 1, H: 1})
	_, err := tr.Render(r, target, 1, []element.RenderElement{el}, render.ColorBlack)
	var re *RenderError
	if !errors.As(err, &re) || !errors.Is(err, r.bindErr) {
		t.Fatalf("bind failure must surface as RenderError, got %v", err)
	}
}
