package picker

import (
	"image"
	"runtime"
	"sync"
	"weak"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/objectid"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
	"github.com/Carmen-Shannon/oxy-pick/engine/view"
	"github.com/cogentcore/webgpu/wgpu"
)

// ActionType is the kind of input that triggered a pick.
type ActionType int

const (
	// ActionHover is reported for pointer motion.
	ActionHover ActionType = iota
	// ActionClick is reported for a click.
	ActionClick
)

func (a ActionType) String() string {
	if a == ActionClick {
		return "click"
	}
	return "hover"
}

// PickFunc receives pick results. id is objectid.Empty when nothing was under the pointer.
type PickFunc func(id objectid.ObjectID, action ActionType)

// CameraName is the node name of the picker's offscreen camera.
const CameraName = "oxy.ObjectIDPicker"

// Picker is a scene node that renders the graph below it into an offscreen object identifier
// buffer every frame and reports the object under the pointer on hover and click.
//
// Add the picker to the scene rendered by the view's main camera: it renders its offscreen pass
// when the cull traversal reaches it. Listeners are called synchronously on the goroutine that
// delivers input to the view and must not call back into the picker.
type Picker interface {
	scene.Node

	// SetView binds the picker to a view and registers hover and click handlers on its event router.
	// Handlers registered for a previously bound view are removed. If no graph was set the view's
	// scene data becomes the graph. Binding the already bound view is a no-op, as is any call when
	// the configured buffer size is below 1.
	//
	// Parameters:
	//   - v: the view, or nil to unbind
	SetView(v *view.View)

	// View returns the bound view, or nil if none is bound or it has been collected.
	//
	// Returns:
	//   - *view.View: the bound view
	View() *view.View

	// SetGraph replaces the subgraph rendered into the identifier buffer.
	// The offscreen camera renders exactly this node.
	//
	// Parameters:
	//   - n: the subgraph root, may be nil
	SetGraph(n scene.Node)

	// Graph returns the subgraph rendered into the identifier buffer.
	//
	// Returns:
	//   - scene.Node: the subgraph root, or nil
	Graph() scene.Node

	// Pick samples the identifier buffer around a window position and notifies listeners.
	// Views with slave cameras are not supported; the call is aborted with a warning.
	//
	// Parameters:
	//   - v: the view the position belongs to
	//   - x: the window column in pixels
	//   - y: the window row in pixels, 0 at the top
	//   - action: the kind of input being reported
	Pick(v *view.View, x, y float32, action ActionType)

	// OnPick registers a listener for pick results.
	//
	// Parameters:
	//   - fn: the listener
	//
	// Returns:
	//   - func(): removes the listener
	OnPick(fn PickFunc) func()

	// Camera returns the offscreen camera, or nil until the render path is set up.
	//
	// Returns:
	//   - camera.Camera: the offscreen camera
	Camera() camera.Camera

	// Image returns the identifier buffer, or nil until the render path is set up.
	//
	// Returns:
	//   - *image.RGBA: the most recently rendered identifier buffer
	Image() *image.RGBA

	// Texture describes the identifier buffer as a nearest-filtered texture for debug display.
	// The pixel slice aliases the buffer, so the texture follows every new frame.
	//
	// Returns:
	//   - *common.TextureStagingData: the texture data, or nil until the render path is set up
	//   - *common.SamplerStagingData: the sampler configuration
	Texture() (*common.TextureStagingData, *common.SamplerStagingData)

	// RTTSize returns the side length of the identifier buffer in pixels.
	RTTSize() int

	// Buffer returns the search radius, in rings of pixels, around the pointer.
	Buffer() int

	// Release unbinds the view and removes all handlers.
	Release()
}

type pickListener struct {
	id uint64
	fn PickFunc
}

// registrations holds the router handles of a picker. It never references the picker, so it
// can be handed to a cleanup that runs after the picker is collected.
type registrations struct {
	mu   *sync.Mutex
	regs []view.Registration
}

func (r *registrations) set(regs ...view.Registration) {
	r.mu.Lock()
	old := r.regs
	r.regs = regs
	r.mu.Unlock()
	for _, reg := range old {
		reg.Remove()
	}
}

type pickerImpl struct {
	scene.NodeBase

	mu *sync.Mutex

	rttSize int
	buffer  int

	view  weak.Pointer[view.View]
	graph scene.Node

	rtt       camera.Camera
	pickImage *image.RGBA
	program   *shader.Program
	debugTex  *common.TextureStagingData
	debugSamp *common.SamplerStagingData

	listeners  []pickListener
	nextListen uint64

	bindings *registrations
	index    objectid.Index
}

var _ Picker = &pickerImpl{}

// NewPicker creates a Picker. Handlers registered on a view do not keep the picker alive; they
// are removed when the picker is released or collected.
//
// Parameters:
//   - options: functional options to configure the picker
//
// Returns:
//   - Picker: the new picker
func NewPicker(options ...PickerBuilderOption) Picker {
	p := &pickerImpl{
		NodeBase: scene.NewNodeBase(CameraName + ".node"),
		mu:       &sync.Mutex{},
		rttSize:  256,
		buffer:   2,
		bindings: &registrations{mu: &sync.Mutex{}},
	}
	for _, option := range options {
		option(p)
	}
	if p.index == nil {
		p.index = objectid.Get()
	}
	runtime.AddCleanup(p, func(b *registrations) { b.set() }, p.bindings)
	return p
}

func (p *pickerImpl) Accept(v scene.Visitor) {
	v.Apply(p)
}

func (p *pickerImpl) SetView(v *view.View) {
	if !common.SoftAssert(p.rttSize >= 1, "picker buffer size must be at least 1", "rtt_size", p.rttSize) {
		return
	}

	p.mu.Lock()
	if v == p.view.Value() {
		p.mu.Unlock()
		return
	}
	if v == nil {
		p.view = weak.Pointer[view.View]{}
		p.mu.Unlock()
		p.bindings.set()
		return
	}
	p.view = weak.Make(v)
	if p.graph == nil {
		p.graph = v.SceneData()
	}
	graph := p.graph
	p.mu.Unlock()

	self := weak.Make(p)
	router := v.EventRouter()
	p.bindings.set(
		router.OnMove(func(src *view.View, x, y float32) {
			if safe := self.Value(); safe != nil {
				safe.handle(src, x, y, ActionHover)
			}
		}),
		router.OnClick(func(src *view.View, x, y float32) {
			if safe := self.Value(); safe != nil {
				safe.handle(src, x, y, ActionClick)
			}
		}, false),
	)

	if graph != nil {
		p.setupRTT(graph)
	}
}

func (p *pickerImpl) View() *view.View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view.Value()
}

func (p *pickerImpl) SetGraph(n scene.Node) {
	p.mu.Lock()
	p.graph = n
	rtt := p.rtt
	bound := p.view.Value() != nil
	p.mu.Unlock()

	if rtt == nil {
		if bound && n != nil {
			p.setupRTT(n)
		}
		return
	}
	rtt.RemoveChildren()
	if n != nil {
		rtt.AddChild(n)
	}
}

func (p *pickerImpl) Graph() scene.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.graph
}

// handle runs the liveness checks of an input handler before picking.
func (p *pickerImpl) handle(src *view.View, x, y float32, action ActionType) {
	if p.NodeMask() == 0 || src == nil || src != p.View() {
		return
	}
	p.Pick(src, x, y, action)
}

func (p *pickerImpl) Pick(v *view.View, x, y float32, action ActionType) {
	if v == nil {
		return
	}
	if !common.SoftAssert(v.NumSlaves() == 0, "object id picker does not support a slave camera configuration") {
		return
	}

	p.mu.Lock()
	img := p.pickImage
	radius := max(p.buffer, 1)
	p.mu.Unlock()

	id := objectid.Empty
	if img != nil {
		vp := v.Camera().Viewport()
		if vp.Width <= 0 || vp.Height <= 0 {
			p.fire(id, action)
			return
		}
		u, vv := vp.Normalize(x, y)
		b := img.Bounds()
		for s, t := range NewSpiralIterator(b.Dx(), b.Dy(), radius, u, vv).All() {
			if found := objectid.Decode(img, b.Min.X+s, b.Min.Y+t); found != objectid.Empty {
				id = found
				break
			}
		}
	}
	p.fire(id, action)
}

func (p *pickerImpl) fire(id objectid.ObjectID, action ActionType) {
	p.mu.Lock()
	listeners := make([]pickListener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, l := range listeners {
		l.fn(id, action)
	}
}

func (p *pickerImpl) OnPick(fn PickFunc) func() {
	if fn == nil {
		return func() {}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextListen++
	id := p.nextListen
	p.listeners = append(p.listeners, pickListener{id: id, fn: fn})
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, l := range p.listeners {
			if l.id == id {
				p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
				return
			}
		}
	}
}

// setupRTT allocates the identifier buffer and builds the offscreen camera with a render state
// that reduces every drawable to its object identifier.
func (p *pickerImpl) setupRTT(graph scene.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, p.rttSize, p.rttSize))

	rtt := camera.NewCamera(camera.WithName(CameraName))
	rtt.SetIsPickCamera(true)
	rtt.AddChild(graph)
	rtt.SetClearColor([4]float32{0, 0, 0, 0})
	rtt.SetClearMask(camera.ClearColor | camera.ClearDepth)
	rtt.SetViewport(common.Viewport{Width: float32(p.rttSize), Height: float32(p.rttSize)})
	rtt.SetRenderOrder(camera.RenderOrderPostRender)
	rtt.SetReferenceFrame(camera.ReferenceFrameAbsoluteInheritViewpoint)
	rtt.SetRenderTarget(camera.RenderTargetFrameBufferObject)
	rtt.Attach(camera.ColorBuffer0, img)
	cs := rtt.CullSettings()
	cs.SmallFeatureCullingPixelSize = -1
	rtt.SetCullSettings(cs)

	ss := rtt.GetOrCreateStateSet()
	disable := state.Off | state.Override | state.Protected
	for _, m := range []state.Mode{
		state.ModeLighting,
		state.ModeCullFace,
		state.ModeAlphaTest,
		state.ModePointSmooth,
		state.ModeLineSmooth,
	} {
		ss.SetMode(m, disable)
	}

	// Turning blending off is not enough: text enables it again unconditionally.
	ss.SetBlendFunc(state.BlendFunc{
		SrcRGB: state.BlendOne, DstRGB: state.BlendZero,
		SrcAlpha: state.BlendOne, DstAlpha: state.BlendZero,
	}, state.Override|state.Protected)

	prog := shader.NewProgram(CameraName)
	shader.Shaders.Load(prog, shader.Shaders.RTTPicker)
	p.index.LoadShaders(prog)
	ss.SetProgram(prog, state.Override|state.Protected)

	ss.SetDefine("OE_LIGHTING", "", state.Off|state.Override)
	ss.AddUniform(p.index.ObjectIDUniformName(), uint32(0), state.Off)

	p.pickImage = img
	p.rtt = rtt
	p.program = prog
	p.debugTex = nil
	common.Logger().Info("object id picker render target created", "size", p.rttSize, "buffer", p.buffer)
}

// Traverse renders the offscreen pass during cull traversals. The traversal storage guards
// against rendering the pass again when the picker is reached through its own graph.
func (p *pickerImpl) Traverse(v scene.Visitor) {
	if v.Type() != scene.VisitorCull {
		return
	}
	p.mu.Lock()
	rtt := p.rtt
	vw := p.view.Value()
	p.mu.Unlock()
	if rtt == nil || vw == nil {
		return
	}

	storage := v.Storage()
	if storage.Has(p) {
		return
	}
	storage.Set(p, true)
	defer storage.Remove(p)

	mainCam := vw.Camera()
	rtt.SetProjectionResizePolicy(mainCam.ProjectionResizePolicy())
	rtt.SetProjectionMatrix(mainCam.ProjectionMatrix())
	rtt.SetViewMatrix(mainCam.ViewMatrix())
	// small features stay pickable; the identifier buffer is coarser than the view
	rtt.InheritCullSettings(mainCam.CullSettings(), mainCam.InheritanceMask()&^camera.InheritSmallFeatureCullingPixelSize)

	rtt.Accept(v)
}

func (p *pickerImpl) Camera() camera.Camera {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rtt
}

func (p *pickerImpl) Image() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pickImage
}

func (p *pickerImpl) Texture() (*common.TextureStagingData, *common.SamplerStagingData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.debugTex == nil && p.pickImage != nil {
		b := p.pickImage.Bounds()
		p.debugTex = &common.TextureStagingData{
			Pixels: p.pickImage.Pix,
			Width:  uint32(b.Dx()),
			Height: uint32(b.Dy()),
		}
		p.debugSamp = &common.SamplerStagingData{
			AddressModeU:  wgpu.AddressModeClampToEdge,
			AddressModeV:  wgpu.AddressModeClampToEdge,
			AddressModeW:  wgpu.AddressModeClampToEdge,
			MagFilter:     wgpu.FilterModeNearest,
			MinFilter:     wgpu.FilterModeNearest,
			MipmapFilter:  wgpu.MipmapFilterModeNearest,
			LodMaxClamp:   32,
			MaxAnisotropy: 1,
		}
	}
	return p.debugTex, p.debugSamp
}

func (p *pickerImpl) RTTSize() int {
	return p.rttSize
}

func (p *pickerImpl) Buffer() int {
	return p.buffer
}

func (p *pickerImpl) Release() {
	p.mu.Lock()
	p.view = weak.Pointer[view.View]{}
	p.mu.Unlock()
	p.bindings.set()
}
