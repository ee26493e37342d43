package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
	"github.com/Carmen-Shannon/oxy-pick/engine/view"
	"github.com/chewxy/math32"
)

var (
	defaultStateOnce sync.Once
	defaultStateSet  *state.StateSet
)

// DefaultStateSet returns the state applied beneath every scene: the default program with
// lighting and depth testing switched on.
func DefaultStateSet() *state.StateSet {
	defaultStateOnce.Do(func() {
		prog := shader.NewProgram("oxy.Default")
		shader.Shaders.Load(prog, shader.Shaders.Default)
		ss := state.NewStateSet("oxy.Default")
		ss.SetProgram(prog, state.On)
		ss.SetMode(state.ModeDepthTest, state.On)
		ss.SetMode(state.ModeLighting, state.On)
		ss.SetDefine("OE_LIGHTING", "", state.On)
		defaultStateSet = ss
	})
	return defaultStateSet
}

// StyledDrawable is a drawable that shares a render state with other drawables of its kind.
// The shared state applies beneath the drawable's own StateSet, so per-object uniforms such
// as the object identifier stay on the drawable.
type StyledDrawable interface {
	scene.Drawable

	// StyleStateSet returns the shared state, or nil.
	StyleStateSet() *state.StateSet
}

// CullVisitor walks a view's scene and sorts what is visible into RenderStages, one per
// camera that renders on its own (pre-render, the main camera, post-render).
type CullVisitor struct {
	storage *scene.Storage

	states   *state.Stack
	matrices [][16]float32

	pre, post []*RenderStage
	current   *RenderStage
	cull      camera.CullSettings
	frustum   common.Frustum
}

var _ scene.Visitor = &CullVisitor{}

// NewCullVisitor creates a CullVisitor. A visitor may be reused across frames but not
// shared between goroutines.
func NewCullVisitor() *CullVisitor {
	return &CullVisitor{
		storage: scene.NewStorage(),
	}
}

// Cull traverses the view's scene from its main camera.
//
// Parameters:
//   - v: the view to cull
//
// Returns:
//   - []*RenderStage: the stages in execution order: pre-render, main, post-render
func (cv *CullVisitor) Cull(v *view.View) []*RenderStage {
	cv.pre, cv.post = nil, nil
	cv.states = state.NewStack(nil)
	cv.states.Push(DefaultStateSet())
	cv.matrices = [][16]float32{common.Mat4Identity}

	cam := v.Camera()
	mainStage := cv.beginStage(cam, cam.ViewMatrix())
	cv.states.Push(cam.StateSet())
	if root := v.SceneData(); root != nil {
		root.Accept(cv)
	}
	cv.states.Pop()

	stages := make([]*RenderStage, 0, len(cv.pre)+len(cv.post)+1)
	stages = append(stages, cv.pre...)
	stages = append(stages, mainStage)
	return append(stages, cv.post...)
}

func (cv *CullVisitor) Type() scene.VisitorType {
	return scene.VisitorCull
}

func (cv *CullVisitor) TraversalMask() uint32 {
	return cv.cull.CullMask
}

func (cv *CullVisitor) Storage() *scene.Storage {
	return cv.storage
}

func (cv *CullVisitor) Apply(n scene.Node) {
	if n.NodeMask()&cv.TraversalMask() == 0 {
		return
	}
	switch node := n.(type) {
	case camera.Camera:
		cv.applyCamera(node)
	case *scene.Transform:
		top := cv.matrices[len(cv.matrices)-1]
		local := node.Matrix()
		var m [16]float32
		common.Mul4(m[:], top[:], local[:])
		cv.matrices = append(cv.matrices, m)
		cv.states.Push(node.StateSet())
		node.Traverse(cv)
		cv.states.Pop()
		cv.matrices = cv.matrices[:len(cv.matrices)-1]
	case scene.Drawable:
		var style *state.StateSet
		if sd, ok := node.(StyledDrawable); ok {
			style = sd.StyleStateSet()
		}
		cv.states.Push(style)
		cv.states.Push(node.StateSet())
		cv.applyDrawable(node)
		cv.states.Pop()
		cv.states.Pop()
	default:
		cv.states.Push(n.StateSet())
		n.Traverse(cv)
		cv.states.Pop()
	}
}

// beginStage creates the stage for a camera and makes it current.
func (cv *CullVisitor) beginStage(c camera.Camera, viewMatrix [16]float32) *RenderStage {
	s := &RenderStage{
		Name:       c.Name(),
		Order:      c.RenderOrder(),
		Viewport:   c.Viewport(),
		View:       viewMatrix,
		Projection: c.ProjectionMatrix(),
		EyePoint:   c.EyePoint(),
		ClearColor: c.ClearColor(),
		ClearMask:  c.ClearMask(),
		Pick:       c.IsPickCamera(),
	}
	if c.RenderTarget() == camera.RenderTargetFrameBufferObject {
		s.Target = c.Attachment(camera.ColorBuffer0)
	}
	cv.current = s
	cv.cull = c.CullSettings()
	vp := s.ViewProjection()
	cv.frustum = common.ExtractFrustumFromMatrix(vp[:])
	return s
}

func (cv *CullVisitor) applyCamera(c camera.Camera) {
	if c.RenderOrder() == camera.RenderOrderNested {
		cv.states.Push(c.StateSet())
		c.Traverse(cv)
		cv.states.Pop()
		return
	}

	prevStage, prevCull, prevFrustum, prevMatrices := cv.current, cv.cull, cv.frustum, cv.matrices

	viewMatrix := c.ViewMatrix()
	if c.ReferenceFrame() == camera.ReferenceFrameRelative && prevStage != nil {
		common.Mul4(viewMatrix[:], viewMatrix[:], prevStage.View[:])
	} else {
		cv.matrices = [][16]float32{common.Mat4Identity}
	}
	s := cv.beginStage(c, viewMatrix)

	cv.states.Push(c.StateSet())
	c.Traverse(cv)
	cv.states.Pop()

	if c.RenderOrder() == camera.RenderOrderPreRender {
		cv.pre = append(cv.pre, s)
	} else {
		cv.post = append(cv.post, s)
	}
	cv.current, cv.cull, cv.frustum, cv.matrices = prevStage, prevCull, prevFrustum, prevMatrices
}

func (cv *CullVisitor) applyDrawable(d scene.Drawable) {
	model := cv.matrices[len(cv.matrices)-1]
	center, radius := d.Bound()
	wc := common.TransformPoint(model[:], center[0], center[1], center[2])
	world := [3]float32{wc[0], wc[1], wc[2]}
	radius *= maxScale(model)

	if cv.cull.Mode&camera.CullViewFrustum != 0 && !cv.frustum.IntersectsSphere(world, radius) {
		return
	}

	s := cv.current
	vc := common.TransformPoint(s.View[:], world[0], world[1], world[2])
	distance := -vc[2]

	if cv.cull.Mode&camera.CullSmallFeature != 0 && cv.cull.SmallFeatureCullingPixelSize > 0 && radius > 0 {
		if pixels := projectedDiameter(s, radius, distance); pixels >= 0 && pixels < cv.cull.SmallFeatureCullingPixelSize {
			return
		}
	}

	s.Items = append(s.Items, DrawItem{
		Drawable: d,
		Model:    model,
		State:    cv.states.Top(),
		Distance: distance,
	})
}

// projectedDiameter returns the on-screen diameter in pixels of a sphere at the given view
// distance, or -1 when the sphere straddles the eye.
func projectedDiameter(s *RenderStage, radius, distance float32) float32 {
	scale := s.Projection[5] * s.Viewport.Height / 2
	if s.Projection[15] == 1 {
		return 2 * radius * scale
	}
	if distance <= radius {
		return -1
	}
	return 2 * radius * scale / distance
}

// maxScale returns the largest axis scale of an affine matrix.
func maxScale(m [16]float32) float32 {
	sx := math32.Sqrt(m[0]*m[0] + m[1]*m[1] + m[2]*m[2])
	sy := math32.Sqrt(m[4]*m[4] + m[5]*m[5] + m[6]*m[6])
	sz := math32.Sqrt(m[8]*m[8] + m[9]*m[9] + m[10]*m[10])
	return max(sx, sy, sz)
}
