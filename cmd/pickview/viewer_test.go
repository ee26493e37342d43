package main

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine"
	"github.com/Carmen-Shannon/oxy-pick/engine/loader"
	"github.com/Carmen-Shannon/oxy-pick/engine/objectid"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const testScene = `
camera: {eye: [0, 0, 3]}
picker: {rtt_size: 64}
objects:
  - {name: target, shape: quad, color: "#ffffff"}
`

func newTestViewer(t *testing.T) *viewer {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 25)

	w, h := framebufferSize(screen.Size())
	idx := objectid.NewIndex()
	l := loader.NewLoader(loader.BackendTypeYAML,
		loader.WithIndex(idx),
		loader.WithViewport(common.Viewport{Width: float32(w), Height: float32(h)}),
	)
	s, err := l.LoadReader("test", strings.NewReader(testScene))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, nil, renderer.WithIndex(idx), renderer.WithWorkers(1))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(r.Release)
	e, err := engine.NewEngine(engine.WithRenderer(r), engine.WithView(s.View))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	v := newViewer(screen, e, s, idx)
	if err := v.resize(); err != nil {
		t.Fatalf("resize: %v", err)
	}
	return v
}

func TestCellMapping(t *testing.T) {
	if w, h := framebufferSize(80, 25); w != 80 || h != 48 {
		t.Errorf("framebuffer = %dx%d, want 80x48", w, h)
	}
	if w, h := framebufferSize(0, 0); w != 1 || h != 2 {
		t.Errorf("framebuffer for an empty terminal = %dx%d", w, h)
	}
	if x, y := cellToPixel(3, 4); x != 3.5 || y != 9 {
		t.Errorf("cell (3, 4) -> (%v, %v)", x, y)
	}
}

func TestStatusLine(t *testing.T) {
	full := statusLine("box", "quad", false, 200)
	if !strings.Contains(full, "hover: box") || !strings.Contains(full, "selected: quad") {
		t.Errorf("status = %q", full)
	}
	short := statusLine("ラベル", "-", true, 20)
	if w := runewidth.StringWidth(short); w > 20 {
		t.Errorf("truncated status is %d cells wide", w)
	}
	if !strings.HasSuffix(short, "…") {
		t.Errorf("truncated status %q has no ellipsis", short)
	}
}

func TestHoverAndClick(t *testing.T) {
	v := newTestViewer(t)
	frame := func() {
		t.Helper()
		if err := v.engine.Frame(0); err != nil {
			t.Fatalf("Frame: %v", err)
		}
	}
	frame()

	center := func(buttons tcell.ButtonMask) *tcell.EventMouse {
		return tcell.NewEventMouse(40, 12, buttons, tcell.ModNone)
	}
	if done, err := v.handle(center(tcell.ButtonNone)); done || err != nil {
		t.Fatalf("handle move: done=%v err=%v", done, err)
	}
	frame()
	if v.hovered != "target" {
		t.Errorf("hovered = %q, want target", v.hovered)
	}

	v.handle(center(tcell.Button1))
	v.handle(center(tcell.ButtonNone))
	frame()
	if v.selected != "target" {
		t.Errorf("selected = %q, want target", v.selected)
	}

	v.handle(tcell.NewEventMouse(0, 0, tcell.ButtonNone, tcell.ModNone))
	frame()
	if v.hovered != "-" {
		t.Errorf("hovered = %q after leaving the object", v.hovered)
	}
}

func TestKeys(t *testing.T) {
	v := newTestViewer(t)
	if done, _ := v.handle(tcell.NewEventKey(tcell.KeyRune, 'd', tcell.ModNone)); done || !v.debug {
		t.Error("d did not toggle the identifier view")
	}
	v.engine.Frame(0)
	v.draw()
	if done, _ := v.handle(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)); !done {
		t.Error("q did not quit")
	}
	if done, _ := v.handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)); !done {
		t.Error("escape did not quit")
	}
}
