package renderer

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/objectid"
	"github.com/Carmen-Shannon/oxy-pick/engine/view"
	"github.com/Carmen-Shannon/oxy-pick/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend
	cull        *CullVisitor

	width, height int

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	workers              int
	index                objectid.Index
}

// Renderer defines the interface for the rendering system.
//
// A frame is a cull traversal of a view, which sorts the visible drawables into render stages
// (render-to-texture cameras before or after the main camera), followed by the backend
// executing those stages. Render-to-texture stages have their target images filled when
// the frame returns.
type Renderer interface {
	// Backend returns the type of the active backend.
	//
	// Returns:
	//   - RendererBackendType: the backend type
	Backend() RendererBackendType

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the backend could not resize its surface
	Resize(width, height int) error

	// Size returns the current surface size.
	//
	// Returns:
	//   - int: the width in pixels
	//   - int: the height in pixels
	Size() (int, int)

	// Cull traverses the view and returns its render stages without drawing them.
	//
	// Parameters:
	//   - v: the view to cull
	//
	// Returns:
	//   - []*RenderStage: the stages in execution order
	Cull(v *view.View) []*RenderStage

	// RenderStages draws previously culled stages.
	//
	// Parameters:
	//   - stages: the stages to draw
	//
	// Returns:
	//   - error: an error if the backend failed to draw a stage
	RenderStages(stages []*RenderStage) error

	// Frame culls and draws one frame of a view.
	//
	// Parameters:
	//   - v: the view to render
	//
	// Returns:
	//   - error: an error if the backend failed to draw a stage
	Frame(v *view.View) error

	// Framebuffer returns the in-memory surface of backends that keep one (the software
	// backend), or nil.
	//
	// Returns:
	//   - *image.RGBA: the framebuffer
	Framebuffer() *image.RGBA

	// Present displays the last drawn frame.
	Present()

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// Release frees the backend and every GPU resource it holds.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type. The window
// supplies the surface and its size; it may be nil, in which case the WGPU backend runs
// headless and only draws render-to-texture stages.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - win: the window to present into, or nil
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if the backend could not be created
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		cull:        NewCullVisitor(),
		workers:     runtime.NumCPU(),
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}
	if r.index == nil {
		r.index = objectid.Get()
	}

	msaa := MSAA4x // default
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	if win != nil {
		r.width, r.height = win.Width(), win.Height()
	}

	switch backendType {
	case BackendTypeSoftware:
		r.backend = newSoftwareRendererBackend(r.workers, r.index)
	case BackendTypeWGPU:
		fallthrough
	default:
		var surface *wgpu.SurfaceDescriptor
		if win != nil {
			surface = win.SurfaceDescriptor()
		}
		b, err := newWGPURendererBackend(surface, r.forceFallbackAdapter, msaa, r.index)
		if err != nil {
			return nil, fmt.Errorf("failed to create wgpu backend: %w", err)
		}
		r.backend = b
	}
	common.Logger().Info("renderer created", "backend", backendType, "msaa", msaa)

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	if err := r.backend.Configure(r.width, r.height); err != nil {
		r.backend.Release()
		return nil, err
	}
	return r, nil
}

func (r *renderer) Backend() RendererBackendType {
	return r.backendType
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	r.width, r.height = width, height
	r.mu.Unlock()
	return r.backend.Configure(width, height)
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) Cull(v *view.View) []*RenderStage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cull.Cull(v)
}

func (r *renderer) RenderStages(stages []*RenderStage) error {
	return r.backend.Render(stages)
}

func (r *renderer) Frame(v *view.View) error {
	return r.RenderStages(r.Cull(v))
}

func (r *renderer) Framebuffer() *image.RGBA {
	return r.backend.Framebuffer()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Release() {
	r.backend.Release()
}
