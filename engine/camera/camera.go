package camera

import (
	"image"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
)

type cameraImpl struct {
	scene.Group

	mu *sync.Mutex

	viewport common.Viewport

	up     [3]float32
	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix       [16]float32
	projectionMatrix [16]float32
	resizePolicy     ProjectionResizePolicy

	cullSettings    CullSettings
	inheritanceMask InheritanceMask

	clearColor [4]float32
	clearMask  ClearMask

	renderOrder    RenderOrder
	referenceFrame ReferenceFrame
	renderTarget   RenderTarget
	attachments    map[BufferComponent]*image.RGBA
	isPickCamera   bool

	controller CameraController
}

// Camera is a scene node that defines a view into the graph below it: viewport, matrices,
// clear behaviour and render target. A camera nested inside the graph renders its children
// as a separate stage ordered by its RenderOrder.
type Camera interface {
	scene.Node

	// AddChild appends a child node.
	//
	// Parameters:
	//   - n: the node to add
	AddChild(n scene.Node)

	// RemoveChild removes a child node.
	//
	// Parameters:
	//   - n: the node to remove
	//
	// Returns:
	//   - bool: true if the child was found
	RemoveChild(n scene.Node) bool

	// RemoveChildren removes every child.
	RemoveChildren()

	// Children returns a snapshot of the children.
	//
	// Returns:
	//   - []scene.Node: the children in order
	Children() []scene.Node

	// Viewport returns the viewport rectangle in window pixels (origin top-left).
	//
	// Returns:
	//   - common.Viewport: the viewport
	Viewport() common.Viewport

	// SetViewport sets the viewport rectangle.
	//
	// Parameters:
	//   - vp: the viewport in window pixels
	SetViewport(vp common.Viewport)

	// Resize changes the viewport size and adapts the projection according to the resize policy.
	//
	// Parameters:
	//   - width: the new viewport width in pixels
	//   - height: the new viewport height in pixels
	Resize(width, height float32)

	// ViewMatrix returns the 4x4 view matrix (column-major).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// SetViewMatrix replaces the view matrix.
	//
	// Parameters:
	//   - m: the view matrix (column-major)
	SetViewMatrix(m [16]float32)

	// ProjectionMatrix returns the 4x4 projection matrix (column-major).
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// SetProjectionMatrix replaces the projection matrix.
	//
	// Parameters:
	//   - m: the projection matrix (column-major)
	SetProjectionMatrix(m [16]float32)

	// ViewProjectionMatrix returns projection * view.
	//
	// Returns:
	//   - [16]float32: the combined matrix
	ViewProjectionMatrix() [16]float32

	// SetPerspective builds a perspective projection.
	//
	// Parameters:
	//   - fovY: vertical field of view in radians
	//   - aspect: width / height
	//   - near: near plane distance
	//   - far: far plane distance
	SetPerspective(fovY, aspect, near, far float32)

	// SetLookAt builds the view matrix from an eye point, a target and the camera's up vector.
	//
	// Parameters:
	//   - eye: the eye position
	//   - target: the point looked at
	SetLookAt(eye, target [3]float32)

	// EyePoint returns the world-space camera position derived from the view matrix.
	//
	// Returns:
	//   - [3]float32: the eye position
	EyePoint() [3]float32

	// ProjectionResizePolicy returns the resize policy.
	ProjectionResizePolicy() ProjectionResizePolicy

	// SetProjectionResizePolicy sets the resize policy.
	//
	// Parameters:
	//   - p: the policy
	SetProjectionResizePolicy(p ProjectionResizePolicy)

	// CullSettings returns the culling configuration.
	CullSettings() CullSettings

	// SetCullSettings replaces the culling configuration.
	//
	// Parameters:
	//   - cs: the settings
	SetCullSettings(cs CullSettings)

	// InheritanceMask returns which cull settings other cameras copy from this one.
	InheritanceMask() InheritanceMask

	// SetInheritanceMask sets the inheritance mask.
	//
	// Parameters:
	//   - mask: the fields to share
	SetInheritanceMask(mask InheritanceMask)

	// InheritCullSettings copies the fields selected by mask from another camera's settings.
	//
	// Parameters:
	//   - other: the settings to copy from
	//   - mask: the fields to copy
	InheritCullSettings(other CullSettings, mask InheritanceMask)

	// ClearColor returns the RGBA clear color.
	ClearColor() [4]float32

	// SetClearColor sets the RGBA clear color.
	//
	// Parameters:
	//   - c: color components in [0, 1]
	SetClearColor(c [4]float32)

	// ClearMask returns which buffers are cleared.
	ClearMask() ClearMask

	// SetClearMask sets which buffers are cleared.
	//
	// Parameters:
	//   - m: the clear mask
	SetClearMask(m ClearMask)

	// RenderOrder returns the stage ordering of a nested camera.
	RenderOrder() RenderOrder

	// SetRenderOrder sets the stage ordering.
	//
	// Parameters:
	//   - o: the order
	SetRenderOrder(o RenderOrder)

	// ReferenceFrame returns how the camera's matrices combine with its parent's.
	ReferenceFrame() ReferenceFrame

	// SetReferenceFrame sets the reference frame.
	//
	// Parameters:
	//   - rf: the reference frame
	SetReferenceFrame(rf ReferenceFrame)

	// RenderTarget returns the render target implementation.
	RenderTarget() RenderTarget

	// SetRenderTarget sets the render target implementation.
	//
	// Parameters:
	//   - rt: the target
	SetRenderTarget(rt RenderTarget)

	// Attach binds an image to an attachment point. Offscreen stages read their result back into it.
	//
	// Parameters:
	//   - comp: the attachment point
	//   - img: the image, or nil to detach
	Attach(comp BufferComponent, img *image.RGBA)

	// Attachment returns the image bound to an attachment point, or nil.
	//
	// Parameters:
	//   - comp: the attachment point
	//
	// Returns:
	//   - *image.RGBA: the attached image
	Attachment(comp BufferComponent) *image.RGBA

	// IsPickCamera reports whether the camera renders an object identifier pass.
	IsPickCamera() bool

	// SetIsPickCamera marks the camera as rendering an object identifier pass.
	//
	// Parameters:
	//   - pick: true for identifier passes
	SetIsPickCamera(pick bool)

	// Controller returns the attached CameraController, or nil.
	Controller() CameraController

	// SetController attaches a controller whose position and target drive the view matrix on Update.
	//
	// Parameters:
	//   - ctrl: the controller, may be nil
	SetController(ctrl CameraController)

	// Update recomputes the view matrix from the attached controller. No-op without a controller.
	Update()

	// Uniform returns the GPU camera uniform for the current matrices.
	//
	// Returns:
	//   - GPUCameraUniform: the uniform block
	Uniform() GPUCameraUniform
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with a 45 degree perspective, an identity view matrix and a
// 1x1 viewport.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		Group:           *scene.NewGroup("camera"),
		mu:              &sync.Mutex{},
		viewport:        common.Viewport{Width: 1, Height: 1},
		up:              [3]float32{0, 1, 0},
		fov:             45.0 * (math.Pi / 180.0),
		aspect:          1.0,
		near:            0.1,
		far:             100.0,
		viewMatrix:      common.Mat4Identity,
		cullSettings:    DefaultCullSettings,
		inheritanceMask: InheritAll,
		clearColor:      [4]float32{0, 0, 0, 1},
		clearMask:       ClearColor | ClearDepth,
		attachments:     make(map[BufferComponent]*image.RGBA),
	}
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	for _, option := range options {
		option(c)
	}
	if c.controller != nil {
		c.updateView()
	}
	return c
}

func (c *cameraImpl) Accept(v scene.Visitor) {
	v.Apply(c)
}

func (c *cameraImpl) Viewport() common.Viewport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewport
}

func (c *cameraImpl) SetViewport(vp common.Viewport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport = vp
}

func (c *cameraImpl) Resize(width, height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width <= 0 || height <= 0 {
		return
	}
	if c.viewport.Width > 0 && c.viewport.Height > 0 {
		prev := c.viewport.Width / c.viewport.Height
		next := width / height
		switch c.resizePolicy {
		case ResizeHorizontal:
			c.projectionMatrix[0] *= prev / next
		case ResizeVertical:
			c.projectionMatrix[5] *= next / prev
		}
		c.aspect = next
	}
	c.viewport.Width, c.viewport.Height = width, height
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) SetViewMatrix(m [16]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewMatrix = m
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) SetProjectionMatrix(m [16]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projectionMatrix = m
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var vp [16]float32
	common.Mul4(vp[:], c.projectionMatrix[:], c.viewMatrix[:])
	return vp
}

func (c *cameraImpl) SetPerspective(fovY, aspect, near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov, c.aspect, c.near, c.far = fovY, aspect, near, far
	common.Perspective(c.projectionMatrix[:], fovY, aspect, near, far)
}

func (c *cameraImpl) SetLookAt(eye, target [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	common.LookAt(c.viewMatrix[:],
		eye[0], eye[1], eye[2],
		target[0], target[1], target[2],
		c.up[0], c.up[1], c.up[2],
	)
}

func (c *cameraImpl) EyePoint() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var inv [16]float32
	if !common.Invert4(inv[:], c.viewMatrix[:]) {
		return [3]float32{}
	}
	return [3]float32{inv[12], inv[13], inv[14]}
}

func (c *cameraImpl) ProjectionResizePolicy() ProjectionResizePolicy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resizePolicy
}

func (c *cameraImpl) SetProjectionResizePolicy(p ProjectionResizePolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resizePolicy = p
}

func (c *cameraImpl) CullSettings() CullSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cullSettings
}

func (c *cameraImpl) SetCullSettings(cs CullSettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cullSettings = cs
}

func (c *cameraImpl) InheritanceMask() InheritanceMask {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inheritanceMask
}

func (c *cameraImpl) SetInheritanceMask(mask InheritanceMask) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inheritanceMask = mask
}

func (c *cameraImpl) InheritCullSettings(other CullSettings, mask InheritanceMask) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cullSettings = c.cullSettings.Inherit(other, mask)
}

func (c *cameraImpl) ClearColor() [4]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearColor
}

func (c *cameraImpl) SetClearColor(col [4]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearColor = col
}

func (c *cameraImpl) ClearMask() ClearMask {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearMask
}

func (c *cameraImpl) SetClearMask(m ClearMask) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearMask = m
}

func (c *cameraImpl) RenderOrder() RenderOrder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderOrder
}

func (c *cameraImpl) SetRenderOrder(o RenderOrder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderOrder = o
}

func (c *cameraImpl) ReferenceFrame() ReferenceFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.referenceFrame
}

func (c *cameraImpl) SetReferenceFrame(rf ReferenceFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.referenceFrame = rf
}

func (c *cameraImpl) RenderTarget() RenderTarget {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderTarget
}

func (c *cameraImpl) SetRenderTarget(rt RenderTarget) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderTarget = rt
}

func (c *cameraImpl) Attach(comp BufferComponent, img *image.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if img == nil {
		delete(c.attachments, comp)
		return
	}
	c.attachments[comp] = img
}

func (c *cameraImpl) Attachment(comp BufferComponent) *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attachments[comp]
}

func (c *cameraImpl) IsPickCamera() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isPickCamera
}

func (c *cameraImpl) SetIsPickCamera(pick bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isPickCamera = pick
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateView()
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	vp := c.ViewProjectionMatrix()
	return GPUCameraUniform{
		ViewProj:       vp,
		CameraPosition: c.EyePoint(),
	}
}

// updateView recomputes the view matrix from the controller. Caller must hold the mutex.
func (c *cameraImpl) updateView() {
	if c.controller == nil {
		return
	}
	px, py, pz := c.controller.Position()
	tx, ty, tz := c.controller.Target()
	common.LookAt(c.viewMatrix[:],
		px, py, pz,
		tx, ty, tz,
		c.up[0], c.up[1], c.up[2],
	)
}
