package engine

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/objectid"
	"github.com/Carmen-Shannon/oxy-pick/engine/picker"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
	"github.com/Carmen-Shannon/oxy-pick/engine/view"
)

func newView(name string, vp common.Viewport, root scene.Node) *view.View {
	cam := camera.NewCamera(
		camera.WithViewport(vp),
		camera.WithLookAt([3]float32{0, 0, 3}, [3]float32{0, 0, 0}),
	)
	return view.NewView(view.WithName(name), view.WithCamera(cam), view.WithSceneData(root))
}

func newHeadlessEngine(t *testing.T, options ...EngineBuilderOption) Engine {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, nil, renderer.WithWorkers(1))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	if err := r.Resize(256, 128); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	t.Cleanup(r.Release)
	e, err := NewEngine(append([]EngineBuilderOption{WithRenderer(r)}, options...)...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestNewEngineHeadlessDefaults(t *testing.T) {
	e, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Renderer().Release()
	if e.Window() != nil {
		t.Error("headless engine has a window")
	}
	if got := e.Renderer().Backend(); got != renderer.BackendTypeSoftware {
		t.Errorf("backend = %v, want software", got)
	}
}

func TestViews(t *testing.T) {
	a := newView("a", common.Viewport{Width: 128, Height: 128}, nil)
	b := newView("b", common.Viewport{X: 128, Width: 128, Height: 128}, nil)
	e := newHeadlessEngine(t, WithView(a))

	e.AddView(b)
	e.AddView(b)
	e.AddView(nil)
	if got := e.Views(); len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("views = %v", got)
	}
	e.RemoveView(a)
	if got := e.Views(); len(got) != 1 || got[0] != b {
		t.Fatalf("views after remove = %v", got)
	}
}

func TestFrameDeliversEventsBeforeRender(t *testing.T) {
	v := newView("main", common.Viewport{Width: 256, Height: 128}, scene.NewQuad("quad"))
	e := newHeadlessEngine(t, WithView(v))

	var order []string
	v.EventRouter().OnMove(func(*view.View, float32, float32) {
		order = append(order, "move")
	})
	e.SetRenderCallback(func(float32) {
		order = append(order, "render")
	})

	e.PostEvent(view.Event{Type: view.EventMove, X: 10, Y: 10})
	if len(order) != 0 {
		t.Fatal("event delivered before the frame")
	}
	if err := e.Frame(0.016); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(order) != 2 || order[0] != "move" || order[1] != "render" {
		t.Errorf("order = %v, want [move render]", order)
	}

	// the queue is drained
	order = nil
	if err := e.Frame(0.016); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(order) != 1 {
		t.Errorf("order = %v, want only render", order)
	}
}

func TestEventRoutingByViewport(t *testing.T) {
	left := newView("left", common.Viewport{Width: 128, Height: 128}, nil)
	right := newView("right", common.Viewport{X: 128, Width: 128, Height: 128}, nil)
	e := newHeadlessEngine(t, WithView(left), WithView(right))

	counts := map[string]int{}
	for _, v := range []*view.View{left, right} {
		v.EventRouter().OnMove(func(src *view.View, _, _ float32) {
			counts[src.Name()+" move"]++
		})
		v.EventRouter().OnClick(func(src *view.View, _, _ float32) {
			counts[src.Name()+" click"]++
		}, false)
	}

	tests := []struct {
		name   string
		events []view.Event
		want   map[string]int
	}{
		{
			name:   "move in left",
			events: []view.Event{{Type: view.EventMove, X: 20, Y: 20}},
			want:   map[string]int{"left move": 1},
		},
		{
			name:   "move in right",
			events: []view.Event{{Type: view.EventMove, X: 200, Y: 20}},
			want:   map[string]int{"right move": 1},
		},
		{
			name:   "outside every view",
			events: []view.Event{{Type: view.EventMove, X: 300, Y: 20}},
			want:   map[string]int{},
		},
		{
			name: "click in right",
			events: []view.Event{
				{Type: view.EventPush, Button: common.MouseButtonLeft, X: 200, Y: 20},
				{Type: view.EventRelease, Button: common.MouseButtonLeft, X: 201, Y: 21},
			},
			want: map[string]int{"right click": 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clear(counts)
			for _, ev := range tt.events {
				e.PostEvent(ev)
			}
			if err := e.Frame(0); err != nil {
				t.Fatalf("Frame: %v", err)
			}
			if len(counts) != len(tt.want) {
				t.Fatalf("counts = %v, want %v", counts, tt.want)
			}
			for k, n := range tt.want {
				if counts[k] != n {
					t.Errorf("%s = %d, want %d", k, counts[k], n)
				}
			}
		})
	}
}

func TestPostEventCollapsesMoves(t *testing.T) {
	v := newView("main", common.Viewport{Width: 256, Height: 128}, nil)
	e := newHeadlessEngine(t, WithView(v))

	var xs []float32
	v.EventRouter().OnMove(func(_ *view.View, x, _ float32) {
		xs = append(xs, x)
	})
	for _, x := range []float32{1, 2, 3} {
		e.PostEvent(view.Event{Type: view.EventMove, X: x, Y: 1})
	}
	if err := e.Frame(0); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(xs) != 1 || xs[0] != 3 {
		t.Errorf("moves = %v, want only the latest", xs)
	}
}

func TestFramePicksUnderPointer(t *testing.T) {
	idx := objectid.NewIndex()
	quad := scene.NewQuad("quad")
	id := idx.Insert(quad)
	p := picker.NewPicker(picker.WithRTTSize(32), picker.WithIndex(idx))
	v := newView("main", common.Viewport{Width: 256, Height: 128}, scene.NewGroup("root", quad, p))
	p.SetView(v)

	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, nil, renderer.WithIndex(idx))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	defer r.Release()
	if err := r.Resize(256, 128); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	e, err := NewEngine(WithRenderer(r), WithView(v))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	var hovered []objectid.ObjectID
	p.OnPick(func(id objectid.ObjectID, action picker.ActionType) {
		if action == picker.ActionHover {
			hovered = append(hovered, id)
		}
	})

	// first frame fills the pick buffer, the second delivers the hover against it
	if err := e.Frame(0); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	e.PostEvent(view.Event{Type: view.EventMove, X: 128, Y: 64})
	if err := e.Frame(0); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(hovered) != 1 || hovered[0] != id {
		t.Errorf("hovered %v, want [%#x]", hovered, id)
	}
}
