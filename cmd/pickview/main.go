// Command pickview renders a scene in the terminal and reports the object under the mouse.
//
// Usage:
//
//	pickview [-scene file.yaml] [-fps n] [-log file]
//	pickview [-scene file.yaml] -dump ids.png [-size n] [-scale n]
//
// With -dump the identifier buffer of one frame is written as a false color PNG and the
// program exits without opening the terminal.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine"
	"github.com/Carmen-Shannon/oxy-pick/engine/loader"
	"github.com/Carmen-Shannon/oxy-pick/engine/objectid"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/gdamore/tcell/v2"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pickview:", err)
		os.Exit(1)
	}
}

func run() error {
	scenePath := flag.String("scene", "", "YAML scene document (default: built-in demo)")
	dump := flag.String("dump", "", "write the identifier buffer of one frame to this PNG and exit")
	size := flag.Int("size", 256, "framebuffer size in pixels for -dump")
	scale := flag.Int("scale", 2, "nearest neighbour upscale factor for -dump")
	fps := flag.Int("fps", 30, "terminal frame rate")
	logPath := flag.String("log", "", "write debug logs to this file")
	flag.Parse()

	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			return fmt.Errorf("failed to open log: %w", err)
		}
		defer f.Close()
		common.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if *dump != "" {
		return dumpIDs(*scenePath, *dump, *size, *scale)
	}
	return interactive(*scenePath, *fps)
}

func loadScene(l loader.Loader, path string) (*loader.Scene, error) {
	if path == "" {
		return l.LoadReader("demo", bytes.NewReader(loader.Demo))
	}
	return l.Load(path)
}

func dumpIDs(scenePath, out string, size, scale int) error {
	if size < 1 || scale < 1 {
		return errors.New("size and scale must be positive")
	}
	idx := objectid.NewIndex()
	l := loader.NewLoader(loader.BackendTypeYAML,
		loader.WithIndex(idx),
		loader.WithViewport(common.Viewport{Width: float32(size), Height: float32(size)}),
	)
	s, err := loadScene(l, scenePath)
	if err != nil {
		return err
	}
	if s.Picker == nil {
		return errors.New("scene has no picker section")
	}

	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, nil, renderer.WithIndex(idx))
	if err != nil {
		return err
	}
	defer r.Release()
	if err := r.Resize(size, size); err != nil {
		return err
	}
	if err := r.Frame(s.View); err != nil {
		return err
	}

	ids := s.Picker.Image()
	img := falseColorImage(ids)
	img = transform.Resize(img, ids.Rect.Dx()*scale, ids.Rect.Dy()*scale, transform.NearestNeighbor)
	if err := imgio.Save(out, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	return nil
}

func interactive(scenePath string, fps int) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	w, h := framebufferSize(screen.Size())
	idx := objectid.NewIndex()
	l := loader.NewLoader(loader.BackendTypeYAML,
		loader.WithIndex(idx),
		loader.WithViewport(common.Viewport{Width: float32(w), Height: float32(h)}),
	)
	s, err := loadScene(l, scenePath)
	if err != nil {
		return err
	}

	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, nil, renderer.WithIndex(idx))
	if err != nil {
		return err
	}
	defer r.Release()

	e, err := engine.NewEngine(engine.WithRenderer(r), engine.WithView(s.View))
	if err != nil {
		return err
	}
	return newViewer(screen, e, s, idx).run(fps)
}
