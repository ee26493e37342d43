package renderer

import "image"

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeSoftware selects the CPU rasterizer. It needs no GPU or window and renders
	// surface stages into an in-memory framebuffer.
	BackendTypeSoftware
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// Only specific power-of-two values are valid for GPU hardware. WebGPU guarantees support for
// 1 (off) and 4; higher values (8, 16) are adapter-dependent and may not be available.
//
// MSAA applies to surface stages only. Render-to-texture stages always use one sample, so
// pick images never contain resolved (averaged) identifier colors.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA8x MSAASampleCount = 8

	// MSAA16x enables 16× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA16x MSAASampleCount = 16
)

// RendererBackend executes culled render stages on one graphics API.
type RendererBackend interface {
	// Configure sizes the surface (or in-memory framebuffer) of the backend.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	//
	// Returns:
	//   - error: an error if surface resources could not be created
	Configure(width, height int) error

	// Render draws the stages in order. Stages with a target image are drawn into that image
	// and the image holds the result when Render returns.
	//
	// Parameters:
	//   - stages: the stages produced by a cull traversal
	//
	// Returns:
	//   - error: an error if any stage could not be drawn
	Render(stages []*RenderStage) error

	// Framebuffer returns the surface contents for backends that keep them in memory, or nil.
	//
	// Returns:
	//   - *image.RGBA: the framebuffer
	Framebuffer() *image.RGBA

	// Present displays the last rendered surface frame.
	Present()

	SetPresentMode(mode PresentMode)

	// Release frees every resource held by the backend.
	Release()
}
