package shader

import (
	_ "embed"
)

const (
	// IncludeCamera is the include name of the CameraUniform struct.
	IncludeCamera = "camera"
	// IncludeDraw is the include name of the per-draw uniform (model matrix and color).
	IncludeDraw = "draw"
)

// Keys of the library shaders. Programs are inspected by key to find out which technique they implement.
const (
	DefaultVertexKey     = "oxy.Default.vertex"
	DefaultFragmentKey   = "oxy.Default.fragment"
	RTTPickerVertexKey   = "oxy.RTTPicker.vertex"
	RTTPickerFragmentKey = "oxy.RTTPicker.fragment"
	TextVertexKey        = "oxy.Text.vertex"
	TextFragmentKey      = "oxy.Text.fragment"
)

// cameraUniformSource is the canonical WGSL definition of the CameraUniform struct.
// Matches camera.GPUCameraUniform exactly (80 bytes).
//
//go:embed assets/camera_uniform.wgsl
var cameraUniformSource string

//go:embed assets/draw_uniform.wgsl
var drawUniformSource string

//go:embed assets/default.vert.wgsl
var defaultVertexSource string

//go:embed assets/default.frag.wgsl
var defaultFragmentSource string

//go:embed assets/rtt_picker.vert.wgsl
var rttPickerVertexSource string

//go:embed assets/rtt_picker.frag.wgsl
var rttPickerFragmentSource string

//go:embed assets/text.vert.wgsl
var textVertexSource string

//go:embed assets/text.frag.wgsl
var textFragmentSource string

// Library groups the engine's built-in shader function sets.
type Library struct {
	// Default renders drawables with their flat color and optional lighting (OE_LIGHTING).
	Default []Shader
	// RTTPicker renders drawables with their object identifier encoded as the output color.
	// It calls oxy_index_objectid(), which the object index supplies.
	RTTPicker []Shader
	// Text renders glyph quads; honors the text defines (BACKDROP_COLOR, OUTLINE, SHADOW,
	// GLYPH_DIMENSION, TEXTURE_DIMENSION, SIGNED_DISTANCE_FIELD).
	Text []Shader
}

// Shaders is the built-in shader library.
var Shaders = Library{
	Default: []Shader{
		NewShader(DefaultVertexKey, ShaderTypeVertex, defaultVertexSource),
		NewShader(DefaultFragmentKey, ShaderTypeFragment, defaultFragmentSource),
	},
	RTTPicker: []Shader{
		NewShader(RTTPickerVertexKey, ShaderTypeVertex, rttPickerVertexSource),
		NewShader(RTTPickerFragmentKey, ShaderTypeFragment, rttPickerFragmentSource),
	},
	Text: []Shader{
		NewShader(TextVertexKey, ShaderTypeVertex, textVertexSource),
		NewShader(TextFragmentKey, ShaderTypeFragment, textFragmentSource),
	},
}

// Load adds every shader of a function set to a Program.
//
// Parameters:
//   - p: the program to extend
//   - set: the function set, e.g. Shaders.RTTPicker
func (l Library) Load(p *Program, set []Shader) {
	for _, s := range set {
		p.SetFunction(s)
	}
}
