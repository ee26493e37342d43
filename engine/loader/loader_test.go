package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/objectid"
	"github.com/Carmen-Shannon/oxy-pick/engine/picker"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
	"github.com/Carmen-Shannon/oxy-pick/engine/text"
)

func newTestLoader() (Loader, objectid.Index) {
	idx := objectid.NewIndex()
	return NewLoader(BackendTypeYAML,
		WithIndex(idx),
		WithViewport(common.Viewport{Width: 256, Height: 256}),
	), idx
}

func TestLoadDemo(t *testing.T) {
	l, idx := newTestLoader()
	s, err := l.LoadReader("demo", bytes.NewReader(Demo))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if s.Name != "demo" || s.Picker == nil || s.View == nil {
		t.Fatalf("scene = %+v", s)
	}
	if s.Picker.RTTSize() != 256 {
		t.Errorf("rtt size = %d", s.Picker.RTTSize())
	}

	wantPickable := []string{"red box", "green quad", "glass pane", "left block", "right block", "title"}
	for _, name := range wantPickable {
		id, ok := s.IDs[name]
		if !ok {
			t.Errorf("%q not registered", name)
			continue
		}
		if got := idx.Lookup(id); got != s.Objects[name] {
			t.Errorf("%q: id %#x resolves to %v", name, id, got)
		}
	}
	if _, ok := s.IDs["shelf"]; ok {
		t.Error("group registered without pickable: true")
	}
	if idx.Len() != len(wantPickable) {
		t.Errorf("index holds %d objects, want %d", idx.Len(), len(wantPickable))
	}

	if scene.FindByName(s.Root, "left block") == nil {
		t.Error("nested child missing from the graph")
	}
	if s.Objects["glass pane"].StateSet().RenderingHint() != state.HintTransparent {
		t.Error("transparent object not in the transparent bin")
	}

	var title *text.Text
	s.Root.Accept(scene.NewNodeVisitor(scene.VisitorNone, func(n scene.Node) bool {
		if tx, ok := n.(*text.Text); ok {
			title = tx
		}
		return true
	}))
	if title == nil || title.Text() != "pick me" {
		t.Fatal("text object not built")
	}
	outline := false
	for _, d := range title.StyleStateSet().Defines() {
		outline = outline || d.Name == "OUTLINE"
	}
	if !outline {
		t.Error("outline backdrop not applied")
	}
}

func TestLoadCachesByName(t *testing.T) {
	l, idx := newTestLoader()
	a, err := l.LoadReader("demo", bytes.NewReader(Demo))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	n := idx.Len()
	b, err := l.LoadReader("demo", bytes.NewReader(Demo))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if a != b || l.Get("demo") != a {
		t.Error("second load did not return the cached scene")
	}
	if idx.Len() != n {
		t.Error("cached load registered objects again")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yml")
	if err := os.WriteFile(path, []byte("objects:\n  - name: a\n    shape: quad\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, _ := newTestLoader()
	s, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Picker != nil {
		t.Error("picker created without a picker section")
	}
	if _, ok := s.IDs["a"]; !ok {
		t.Error("quad not registered")
	}

	if _, err := l.Load(filepath.Join(dir, "scene.gltf")); err == nil {
		t.Error("unsupported extension accepted")
	}
	if _, err := l.Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "", "empty scene document"},
		{"unknown field", "objects:\n  - name: a\n    shape: quad\n    colour: red\n", "colour"},
		{"unknown shape", "objects:\n  - name: a\n    shape: cone\n", "unknown shape"},
		{"duplicate name", "objects:\n  - {name: a, shape: quad}\n  - {name: a, shape: box}\n", "duplicate object name"},
		{"bad hex color", "objects:\n  - {name: a, shape: quad, color: \"#zzzzzz\"}\n", "invalid color"},
		{"short color", "objects:\n  - {name: a, shape: quad, color: [1, 0]}\n", "3 or 4 components"},
		{"unknown backdrop", "objects:\n  - {name: a, text: hi, backdrop: glow}\n", "unknown backdrop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, idx := newTestLoader()
			_, err := l.LoadReader(tt.name, strings.NewReader(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
			if idx.Len() != 0 {
				t.Errorf("failed load left %d objects registered", idx.Len())
			}
		})
	}
}

func TestColorForms(t *testing.T) {
	tests := []struct {
		doc  string
		want [4]float32
	}{
		{`"#ff0000"`, [4]float32{1, 0, 0, 1}},
		{"[0, 1, 0]", [4]float32{0, 1, 0, 1}},
		{"[0, 0, 1, 0.5]", [4]float32{0, 0, 1, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			l, _ := newTestLoader()
			s, err := l.LoadReader(tt.doc, strings.NewReader("objects:\n  - {name: a, shape: quad, color: "+tt.doc+"}\n"))
			if err != nil {
				t.Fatalf("LoadReader: %v", err)
			}
			g := s.Objects["a"].(*scene.Geometry)
			if got := g.Color(); got != tt.want {
				t.Errorf("color = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadedScenePicks(t *testing.T) {
	l, idx := newTestLoader()
	s, err := l.LoadReader("one", strings.NewReader(`
camera: {eye: [0, 0, 3]}
picker: {rtt_size: 64}
objects:
  - {name: target, shape: quad, color: "#ffffff"}
`))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}

	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, nil, renderer.WithIndex(idx))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	defer r.Release()
	if err := r.Resize(256, 256); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if err := r.Frame(s.View); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	var got objectid.ObjectID
	s.Picker.OnPick(func(id objectid.ObjectID, _ picker.ActionType) {
		got = id
	})
	s.Picker.Pick(s.View, 128, 128, picker.ActionClick)
	if got != s.IDs["target"] {
		t.Errorf("picked %#x, want %#x", got, s.IDs["target"])
	}
}
