package main

import (
	"fmt"
	"image"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine"
	"github.com/Carmen-Shannon/oxy-pick/engine/loader"
	"github.com/Carmen-Shannon/oxy-pick/engine/objectid"
	"github.com/Carmen-Shannon/oxy-pick/engine/picker"
	"github.com/Carmen-Shannon/oxy-pick/engine/view"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// viewer draws a scene into the terminal with one half block per pair of vertically
// stacked pixels, so every cell shows two square-ish pixels. The bottom row is a status line.
type viewer struct {
	screen tcell.Screen
	engine engine.Engine
	scene  *loader.Scene
	index  objectid.Index

	hovered  string
	selected string
	debug    bool
	buttons  tcell.ButtonMask
}

func newViewer(screen tcell.Screen, e engine.Engine, s *loader.Scene, idx objectid.Index) *viewer {
	v := &viewer{
		screen:   screen,
		engine:   e,
		scene:    s,
		index:    idx,
		hovered:  "-",
		selected: "-",
	}
	if s.Picker != nil {
		s.Picker.OnPick(v.onPick)
	}
	return v
}

func (v *viewer) onPick(id objectid.ObjectID, action picker.ActionType) {
	name := "-"
	if n := v.index.Lookup(id); n != nil {
		name = n.Name()
	}
	switch action {
	case picker.ActionHover:
		v.hovered = name
	case picker.ActionClick:
		v.selected = name
	}
}

// cellToPixel maps a terminal cell to the framebuffer pixel at its center.
func cellToPixel(cx, cy int) (float32, float32) {
	return float32(cx) + 0.5, float32(cy*2) + 1
}

// framebufferSize returns the pixel size of the drawable area for a terminal size.
func framebufferSize(cols, rows int) (int, int) {
	return max(cols, 1), max(rows-1, 1) * 2
}

func (v *viewer) resize() error {
	w, h := framebufferSize(v.screen.Size())
	if err := v.engine.Renderer().Resize(w, h); err != nil {
		return fmt.Errorf("failed to resize renderer: %w", err)
	}
	v.scene.View.Resize(w, h)
	return nil
}

// run polls terminal input on its own goroutine and renders frames until quit.
func (v *viewer) run(fps int) error {
	if err := v.resize(); err != nil {
		return err
	}

	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()
	defer close(quit)

	ticker := time.NewTicker(time.Second / time.Duration(max(fps, 1)))
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case ev := <-events:
			done, err := v.handle(ev)
			if err != nil || done {
				return err
			}
		case now := <-ticker.C:
			if err := v.engine.Frame(float32(now.Sub(last).Seconds())); err != nil {
				common.Logger().Warn("frame failed", "error", err)
			}
			last = now
			v.draw()
		}
	}
}

// handle applies one terminal event. It reports true when the viewer should exit.
func (v *viewer) handle(ev tcell.Event) (bool, error) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
		return false, v.resize()
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return true, nil
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return true, nil
			case 'd':
				v.debug = !v.debug
			}
		}
	case *tcell.EventMouse:
		cx, cy := ev.Position()
		x, y := cellToPixel(cx, cy)
		v.engine.PostEvent(view.Event{Type: view.EventMove, X: x, Y: y})

		pressed := ev.Buttons() & tcell.Button1
		if pressed != v.buttons {
			t := view.EventRelease
			if pressed != 0 {
				t = view.EventPush
			}
			v.engine.PostEvent(view.Event{Type: t, Button: common.MouseButtonLeft, X: x, Y: y})
			v.buttons = pressed
		}
	}
	return false, nil
}

func (v *viewer) draw() {
	cols, rows := v.screen.Size()
	fb := v.engine.Renderer().Framebuffer()
	if fb == nil {
		return
	}
	ids := v.pickImage()

	pixel := func(x, y int) tcell.Color {
		if ids != nil {
			b := ids.Bounds()
			fbw, fbh := fb.Rect.Dx(), fb.Rect.Dy()
			c := falseColor(objectid.Decode(ids, b.Min.X+x*b.Dx()/fbw, b.Min.Y+y*b.Dy()/fbh))
			return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
		}
		c := fb.RGBAAt(x, y)
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	}

	for cy := 0; cy < rows-1; cy++ {
		for cx := 0; cx < cols; cx++ {
			style := tcell.StyleDefault.Foreground(pixel(cx, cy*2)).Background(pixel(cx, cy*2+1))
			v.screen.SetContent(cx, cy, '▀', nil, style)
		}
	}
	v.drawStatus(cols, rows-1)
	v.screen.Show()
}

// pickImage returns the identifier buffer when the debug view is on.
func (v *viewer) pickImage() *image.RGBA {
	if !v.debug || v.scene.Picker == nil {
		return nil
	}
	return v.scene.Picker.Image()
}

func (v *viewer) drawStatus(cols, row int) {
	status := statusLine(v.hovered, v.selected, v.debug, cols)
	style := tcell.StyleDefault.Reverse(true)
	x := 0
	for _, r := range status {
		v.screen.SetContent(x, row, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
	for ; x < cols; x++ {
		v.screen.SetContent(x, row, ' ', nil, style)
	}
}

// statusLine formats the status text and truncates it to the given display width.
func statusLine(hovered, selected string, debug bool, width int) string {
	mode := "color"
	if debug {
		mode = "ids"
	}
	s := fmt.Sprintf(" hover: %s  selected: %s  view: %s  [d] toggle view  [q] quit", hovered, selected, mode)
	return runewidth.Truncate(s, width, "…")
}
