package renderer

import (
	"image"
	"slices"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
)

// DrawItem is one culled drawable with everything a backend needs to draw it.
type DrawItem struct {
	Drawable scene.Drawable
	// Model is the accumulated local-to-world matrix.
	Model [16]float32
	// State is the effective render state on the drawable's path. Read-only.
	State *state.Resolved
	// Distance is the view-space distance of the bound center, used to sort the transparent bin.
	Distance float32
}

// RenderStage is the output of culling one camera: where to draw, with which matrices, and what.
type RenderStage struct {
	Name       string
	Order      camera.RenderOrder
	Viewport   common.Viewport
	View       [16]float32
	Projection [16]float32
	EyePoint   [3]float32
	ClearColor [4]float32
	ClearMask  camera.ClearMask

	// Target receives the rendered pixels. Nil means the backend's framebuffer or surface.
	Target *image.RGBA

	// Pick marks an identifier pass. Backends never antialias pick stages, so every pixel
	// holds exactly one encoded identifier.
	Pick bool

	Items []DrawItem
}

// ViewProjection returns Projection * View.
func (s *RenderStage) ViewProjection() [16]float32 {
	var out [16]float32
	common.Mul4(out[:], s.Projection[:], s.View[:])
	return out
}

// CameraUniform returns the GPU camera block for the stage.
func (s *RenderStage) CameraUniform() camera.GPUCameraUniform {
	return camera.GPUCameraUniform{
		ViewProj:       s.ViewProjection(),
		CameraPosition: s.EyePoint,
	}
}

// Sorted returns the items in draw order: the opaque bin in traversal order, then the
// transparent bin back to front.
//
// Returns:
//   - []DrawItem: the ordered items
func (s *RenderStage) Sorted() []DrawItem {
	out := make([]DrawItem, 0, len(s.Items))
	var transparent []DrawItem
	for _, it := range s.Items {
		if it.State.Hint == state.HintTransparent {
			transparent = append(transparent, it)
			continue
		}
		out = append(out, it)
	}
	slices.SortStableFunc(transparent, func(a, b DrawItem) int {
		switch {
		case a.Distance > b.Distance:
			return -1
		case a.Distance < b.Distance:
			return 1
		}
		return 0
	})
	return append(out, transparent...)
}
