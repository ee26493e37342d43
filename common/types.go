// Package common contains plain shared types and helpers used throughout the engine. They are not interface-wrapped
// structs, just small value types that several packages agree on.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel, row-major from the top row.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp clamp the level of detail.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers.
	Compare wgpu.CompareFunction
	// MaxAnisotropy is the anisotropic filtering level. 1 disables anisotropy.
	MaxAnisotropy uint16
}

// Viewport is a rectangle in window pixels. The origin is the top-left corner of the window.
type Viewport struct {
	X, Y          float32
	Width, Height float32
}

// Contains reports whether the window point (x, y) lies inside the viewport.
//
// Parameters:
//   - x, y: window coordinates in pixels
//
// Returns:
//   - bool: true if the point is inside the viewport
func (vp Viewport) Contains(x, y float32) bool {
	return x >= vp.X && y >= vp.Y && x < vp.X+vp.Width && y < vp.Y+vp.Height
}

// Normalize maps the window point (x, y) into viewport-relative [0, 1) coordinates.
// Points outside the viewport map outside that range.
//
// Parameters:
//   - x, y: window coordinates in pixels
//
// Returns:
//   - u, v: normalized coordinates
func (vp Viewport) Normalize(x, y float32) (u, v float32) {
	return (x - vp.X) / vp.Width, (y - vp.Y) / vp.Height
}
