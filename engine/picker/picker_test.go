package picker

import (
	"runtime"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/objectid"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
	"github.com/Carmen-Shannon/oxy-pick/engine/view"
)

type pickResult struct {
	id     objectid.ObjectID
	action ActionType
}

// newBoundPicker returns a picker bound to a 256x256 view whose buffer holds id 42 at (128, 128).
func newBoundPicker(t *testing.T, options ...PickerBuilderOption) (Picker, *view.View, *[]pickResult) {
	t.Helper()
	root := scene.NewGroup("root", scene.NewQuad("quad"))
	cam := camera.NewCamera(camera.WithViewport(common.Viewport{Width: 256, Height: 256}))
	v := view.NewView(view.WithCamera(cam), view.WithSceneData(root))

	p := NewPicker(append([]PickerBuilderOption{WithRTTSize(256), WithBuffer(3)}, options...)...)
	p.SetView(v)
	if p.Image() == nil {
		t.Fatal("SetView did not create the identifier buffer")
	}
	objectid.Store(p.Image(), 128, 128, 42)

	var results []pickResult
	p.OnPick(func(id objectid.ObjectID, action ActionType) {
		results = append(results, pickResult{id, action})
	})
	return p, v, &results
}

func click(v *view.View, x, y float32) {
	v.EventRouter().Handle(view.Event{Type: view.EventPush, Button: common.MouseButtonLeft, X: x, Y: y})
	v.EventRouter().Handle(view.Event{Type: view.EventRelease, Button: common.MouseButtonLeft, X: x, Y: y})
}

func TestPickScenarios(t *testing.T) {
	tests := []struct {
		name   string
		x, y   float32
		action ActionType
		want   objectid.ObjectID
	}{
		{"click on the pixel", 128.5, 128.5, ActionClick, 42},
		{"click one pixel off", 129.5, 129.5, ActionClick, 42},
		{"click three pixels off", 131.2, 125.1, ActionClick, 42},
		{"click far away", 25.6, 25.6, ActionClick, objectid.Empty},
		{"click outside the viewport", -10, 300, ActionClick, objectid.Empty},
		{"hover on the pixel", 128, 128, ActionHover, 42},
		{"hover far away", 200, 10, ActionHover, objectid.Empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, v, results := newBoundPicker(t)
			if tt.action == ActionClick {
				click(v, tt.x, tt.y)
			} else {
				v.EventRouter().Handle(view.Event{Type: view.EventMove, X: tt.x, Y: tt.y})
			}
			if len(*results) != 1 {
				t.Fatalf("fired %d times, want 1", len(*results))
			}
			if got := (*results)[0]; got != (pickResult{tt.want, tt.action}) {
				t.Errorf("fired %v, want (%v, %v)", got, tt.want, tt.action)
			}
		})
	}
}

func TestPickClickDoesNotEatEvent(t *testing.T) {
	_, v, results := newBoundPicker(t)
	later := 0
	v.EventRouter().OnClick(func(*view.View, float32, float32) { later++ }, false)
	click(v, 128, 128)
	if len(*results) != 1 || later != 1 {
		t.Errorf("picker fired %d, later handler fired %d; want 1 and 1", len(*results), later)
	}
}

func TestPickZeroRTTSizeIsNoop(t *testing.T) {
	v := view.NewView(view.WithSceneData(scene.NewGroup("root")))
	p := NewPicker(WithRTTSize(0))
	p.SetView(v)

	if p.View() != nil || p.Camera() != nil || p.Image() != nil {
		t.Error("SetView with size 0 changed picker state")
	}
	if n := v.EventRouter().Len(); n != 0 {
		t.Errorf("SetView with size 0 registered %d handlers", n)
	}
}

func TestPickDegenerateViewportMisses(t *testing.T) {
	tests := []struct {
		name string
		vp   common.Viewport
	}{
		{"zero width", common.Viewport{Width: 0, Height: 256}},
		{"zero height", common.Viewport{Width: 256, Height: 0}},
		{"negative size", common.Viewport{Width: -1, Height: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, v, results := newBoundPicker(t)
			objectid.Store(p.Image(), 0, 0, 7)
			v.Camera().SetViewport(tt.vp)
			p.Pick(v, 0, 0, ActionClick)
			if len(*results) != 1 || (*results)[0] != (pickResult{objectid.Empty, ActionClick}) {
				t.Errorf("fired %v, want a single miss", *results)
			}
		})
	}
}

func TestPickWithSlaveCameraAborts(t *testing.T) {
	_, v, results := newBoundPicker(t)
	v.AddSlave(camera.NewCamera())
	click(v, 128, 128)
	v.EventRouter().Handle(view.Event{Type: view.EventMove, X: 128, Y: 128})
	if len(*results) != 0 {
		t.Errorf("fired %v with a slave camera, want nothing", *results)
	}
}

func TestPickDisabledByNodeMask(t *testing.T) {
	p, v, results := newBoundPicker(t)
	p.SetNodeMask(0)
	click(v, 128, 128)
	if len(*results) != 0 {
		t.Errorf("fired %v while disabled", *results)
	}
}

func TestPickIgnoresOtherViews(t *testing.T) {
	p, v, results := newBoundPicker(t)
	other := view.NewView(view.WithSceneData(scene.NewGroup("other")))
	p.SetView(other)
	click(v, 128, 128)
	if len(*results) != 0 {
		t.Errorf("old view still delivers picks: %v", *results)
	}
	if v.EventRouter().Len() != 0 {
		t.Errorf("old view keeps %d handlers", v.EventRouter().Len())
	}
}

func TestSetViewIdempotent(t *testing.T) {
	p, v, _ := newBoundPicker(t)
	img := p.Image()
	p.SetView(v)
	if p.Image() != img || v.EventRouter().Len() != 2 {
		t.Error("rebinding the same view rebuilt the render path")
	}
}

func TestReleaseRemovesHandlers(t *testing.T) {
	p, v, results := newBoundPicker(t)
	p.Release()
	click(v, 128, 128)
	if len(*results) != 0 || v.EventRouter().Len() != 0 {
		t.Errorf("released picker still registered: results=%v handlers=%d", *results, v.EventRouter().Len())
	}
}

func TestCollectedPickerUnregisters(t *testing.T) {
	v := view.NewView(view.WithSceneData(scene.NewGroup("root")))
	func() {
		p := NewPicker(WithRTTSize(4))
		p.SetView(v)
	}()
	for range 100 {
		runtime.GC()
		if v.EventRouter().Len() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("handlers left after the picker was collected: %d", v.EventRouter().Len())
}

func TestSetGraphSingleChild(t *testing.T) {
	p, _, _ := newBoundPicker(t)
	g := scene.NewGroup("replacement")
	p.SetGraph(g)
	children := p.Camera().Children()
	if len(children) != 1 || children[0] != scene.Node(g) {
		t.Errorf("rtt children = %v, want [replacement]", children)
	}
	if p.Graph() != scene.Node(g) {
		t.Error("Graph() not updated")
	}
}

func TestRTTConfiguration(t *testing.T) {
	p, _, _ := newBoundPicker(t)
	rtt := p.Camera()
	if rtt.Name() != CameraName || !rtt.IsPickCamera() {
		t.Errorf("rtt name=%q pick=%v", rtt.Name(), rtt.IsPickCamera())
	}
	if rtt.RenderOrder() != camera.RenderOrderPostRender ||
		rtt.RenderTarget() != camera.RenderTargetFrameBufferObject ||
		rtt.ReferenceFrame() != camera.ReferenceFrameAbsoluteInheritViewpoint {
		t.Error("rtt stage settings not applied")
	}
	if rtt.ClearColor() != [4]float32{} {
		t.Errorf("clear color = %v, want transparent black", rtt.ClearColor())
	}
	if vp := rtt.Viewport(); vp.Width != 256 || vp.Height != 256 {
		t.Errorf("viewport = %+v", vp)
	}
	if rtt.Attachment(camera.ColorBuffer0) != p.Image() {
		t.Error("identifier buffer is not the color attachment")
	}

	// A subgraph that turns blending and lighting back on, installs its own program and
	// tags an object must still render identifiers.
	st := state.NewStack(nil)
	st.Push(rtt.StateSet())
	child := state.NewStateSet("text")
	child.SetMode(state.ModeBlend, state.On)
	child.SetMode(state.ModeLighting, state.On|state.Override)
	child.SetBlendFunc(state.DefaultBlendFunc, state.On)
	child.SetProgram(shader.NewProgram("text"), state.Override)
	child.AddUniform(objectid.Get().ObjectIDUniformName(), uint32(9), state.Off)
	child.SetDefine("OE_LIGHTING", "", state.On)
	st.Push(child)

	top := st.Top()
	if top.Enabled(state.ModeLighting) {
		t.Error("lighting re-enabled below the pick camera")
	}
	if top.BlendFunc.SrcRGB != state.BlendOne || top.BlendFunc.DstRGB != state.BlendZero {
		t.Errorf("blend func = %+v, want ONE/ZERO", top.BlendFunc)
	}
	if top.Program == nil || !top.Program.Has(shader.RTTPickerFragmentKey) || !top.Program.Has(objectid.LibraryKey) {
		t.Error("picking program replaced below the pick camera")
	}
	if _, ok := top.Define("OE_LIGHTING"); ok {
		t.Error("OE_LIGHTING define re-enabled below the pick camera")
	}
	if got := top.UniformUint(objectid.Get().ObjectIDUniformName(), 0); got != 9 {
		t.Errorf("object id uniform = %d, want the drawable's 9", got)
	}
}

func TestTextureIsNearestFiltered(t *testing.T) {
	p, _, _ := newBoundPicker(t)
	tex, samp := p.Texture()
	if tex == nil || samp == nil {
		t.Fatal("Texture() = nil after setup")
	}
	if tex.Width != 256 || tex.Height != 256 || &tex.Pixels[0] != &p.Image().Pix[0] {
		t.Error("texture does not alias the identifier buffer")
	}
	if samp.MaxAnisotropy != 1 || samp.MinFilter != samp.MagFilter {
		t.Errorf("sampler = %+v", samp)
	}
	if t2, _ := p.Texture(); t2 != tex {
		t.Error("Texture() not cached")
	}
}

// cullCounter is a minimal cull visitor that counts how often the offscreen camera is entered.
type cullCounter struct {
	storage *scene.Storage
	rtt     int
}

func (c *cullCounter) Type() scene.VisitorType { return scene.VisitorCull }
func (c *cullCounter) TraversalMask() uint32   { return scene.NodeMaskAll }
func (c *cullCounter) Storage() *scene.Storage { return c.storage }
func (c *cullCounter) Apply(n scene.Node) {
	if n.Name() == CameraName {
		c.rtt++
	}
	n.Traverse(c)
}

func TestTraverseGuardsAgainstReentry(t *testing.T) {
	root := scene.NewGroup("root", scene.NewQuad("quad"))
	cam := camera.NewCamera(
		camera.WithViewport(common.Viewport{Width: 64, Height: 64}),
		camera.WithLookAt([3]float32{0, 0, 5}, [3]float32{0, 0, 0}),
	)
	v := view.NewView(view.WithCamera(cam), view.WithSceneData(root))
	p := NewPicker(WithRTTSize(8))
	root.AddChild(p)
	p.SetView(v)

	c := &cullCounter{storage: scene.NewStorage()}
	root.Accept(c)

	if c.rtt != 1 {
		t.Errorf("offscreen camera entered %d times, want 1", c.rtt)
	}
	if c.storage.Len() != 0 {
		t.Error("traversal marker left behind")
	}
	if p.Camera().ViewMatrix() != cam.ViewMatrix() || p.Camera().ProjectionMatrix() != cam.ProjectionMatrix() {
		t.Error("offscreen camera matrices not synchronized with the main camera")
	}
	if got := p.Camera().CullSettings().SmallFeatureCullingPixelSize; got >= 0 {
		t.Errorf("small feature culling pixel size after cull = %v, want disabled", got)
	}
	if got, want := p.Camera().CullSettings().CullMask, cam.CullSettings().CullMask; got != want {
		t.Errorf("cull mask = %#x, want the main camera's %#x", got, want)
	}

	other := scene.NewNodeVisitor(scene.VisitorUpdate, nil)
	before := c.rtt
	root.Accept(other)
	if c.rtt != before {
		t.Error("non-cull traversal rendered the offscreen pass")
	}
}
