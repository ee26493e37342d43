package camera

// RenderOrder places a nested camera's render stage relative to its parent's stage.
type RenderOrder int

const (
	// RenderOrderNested draws inline, inside the parent's stage.
	RenderOrderNested RenderOrder = iota
	// RenderOrderPreRender draws into its target before the parent's stage.
	RenderOrderPreRender
	// RenderOrderPostRender draws into its target after the parent's stage.
	RenderOrderPostRender
)

func (o RenderOrder) String() string {
	switch o {
	case RenderOrderPreRender:
		return "pre_render"
	case RenderOrderPostRender:
		return "post_render"
	default:
		return "nested_render"
	}
}

// ReferenceFrame controls whether a nested camera's matrices are combined with the parent's.
type ReferenceFrame int

const (
	// ReferenceFrameRelative multiplies the camera's view matrix onto the current model transform.
	ReferenceFrameRelative ReferenceFrame = iota
	// ReferenceFrameAbsolute uses the camera's matrices as-is.
	ReferenceFrameAbsolute
	// ReferenceFrameAbsoluteInheritViewpoint uses the camera's matrices as-is but keeps the
	// parent's eye point for distance-dependent decisions.
	ReferenceFrameAbsoluteInheritViewpoint
)

// RenderTarget selects where a camera's stage writes its pixels.
type RenderTarget int

const (
	// RenderTargetFramebuffer writes to the visible framebuffer.
	RenderTargetFramebuffer RenderTarget = iota
	// RenderTargetFrameBufferObject writes to an offscreen target whose color attachment is read back into an image.
	RenderTargetFrameBufferObject
)

// BufferComponent names an attachment point of an offscreen target.
type BufferComponent int

const (
	// ColorBuffer0 is the first color attachment.
	ColorBuffer0 BufferComponent = iota
	// DepthBuffer is the depth attachment.
	DepthBuffer
)

// ClearMask selects which buffers are cleared before a stage draws.
type ClearMask uint8

const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
)

// ProjectionResizePolicy controls how the projection adapts when the viewport aspect changes.
type ProjectionResizePolicy int

const (
	// ResizeHorizontal keeps the vertical field of view and adjusts the horizontal one.
	ResizeHorizontal ProjectionResizePolicy = iota
	// ResizeVertical keeps the horizontal field of view and adjusts the vertical one.
	ResizeVertical
	// ResizeFixed leaves the projection untouched.
	ResizeFixed
)

// CullingMode is a bit set of the culling tests applied to drawables.
type CullingMode uint8

const (
	// CullViewFrustum skips drawables whose bound lies outside the view frustum.
	CullViewFrustum CullingMode = 1 << iota
	// CullSmallFeature skips drawables whose projected bound is smaller than SmallFeatureCullingPixelSize.
	CullSmallFeature

	CullDefault = CullViewFrustum | CullSmallFeature
)

// InheritanceMask selects which CullSettings fields InheritCullSettings copies.
type InheritanceMask uint8

const (
	InheritCullMask InheritanceMask = 1 << iota
	InheritCullingMode
	InheritSmallFeatureCullingPixelSize

	InheritAll = InheritCullMask | InheritCullingMode | InheritSmallFeatureCullingPixelSize
)

// CullSettings is the per-camera culling configuration.
type CullSettings struct {
	// CullMask is the traversal mask applied to node masks.
	CullMask uint32
	// Mode is the set of enabled culling tests.
	Mode CullingMode
	// SmallFeatureCullingPixelSize is the minimum projected bound diameter in pixels.
	// Values below zero disable small feature culling regardless of Mode.
	SmallFeatureCullingPixelSize float32
}

// DefaultCullSettings are the settings a new camera starts with.
var DefaultCullSettings = CullSettings{
	CullMask:                     0xFFFFFFFF,
	Mode:                         CullDefault,
	SmallFeatureCullingPixelSize: 1,
}

// Inherit copies the fields selected by mask from other.
//
// Parameters:
//   - other: the settings to copy from
//   - mask: the fields to copy
//
// Returns:
//   - CullSettings: the merged settings
func (cs CullSettings) Inherit(other CullSettings, mask InheritanceMask) CullSettings {
	if mask&InheritCullMask != 0 {
		cs.CullMask = other.CullMask
	}
	if mask&InheritCullingMode != 0 {
		cs.Mode = other.Mode
	}
	if mask&InheritSmallFeatureCullingPixelSize != 0 {
		cs.SmallFeatureCullingPixelSize = other.SmallFeatureCullingPixelSize
	}
	return cs
}
