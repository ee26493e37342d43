package text

import (
	"fmt"
	"slices"
	"sync"
	"unicode"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// ProgramName is the name of the shader program installed on text render states.
const ProgramName = "oxy::Text"

// BackdropType selects the effect drawn behind the glyphs in the backdrop color.
type BackdropType int

const (
	BackdropNone BackdropType = iota
	DropShadowBottomRight
	DropShadowCenterRight
	DropShadowTopRight
	DropShadowBottomCenter
	DropShadowTopCenter
	DropShadowBottomLeft
	DropShadowCenterLeft
	DropShadowTopLeft
	Outline
)

// ShaderTechnique selects how the text shaders treat the glyph texture.
type ShaderTechnique int

const (
	// NoTextShader leaves text to the inherited program; no text shaders are installed.
	NoTextShader ShaderTechnique = iota
	// Greyscale samples glyph coverage directly.
	Greyscale
	// SignedDistanceField reconstructs glyph edges from a distance field.
	SignedDistanceField
	// AllFeatures enables every technique the shaders support.
	AllFeatures
)

// stateSetMu guards the render state caches of every Font. Texts may be created and
// restyled from several goroutines at once.
var stateSetMu sync.Mutex

// Text is a drawable line of text. Each glyph is drawn as a quad sized by the font's
// advance and line metrics, so text is pickable over its full extent.
//
// The render state that selects the text program is shared by every Text with the same
// font and style and is applied beneath the Text's own StateSet.
type Text struct {
	scene.Geometry

	tmu *sync.Mutex

	text          string
	font          *Font
	characterSize float32
	resolution    int
	backdropType  BackdropType
	backdropColor [4]float32
	backdropH     float32
	backdropV     float32
	technique     ShaderTechnique

	texCoords []float32
	style     *state.StateSet
	// layoutGen counts layouts started; only the newest may publish its geometry.
	layoutGen uint64
}

// NewText creates a Text using the default font.
//
// Parameters:
//   - str: the text to display
//   - options: variadic list of TextBuilderOption functions
//
// Returns:
//   - *Text: the new text drawable
func NewText(str string, options ...TextBuilderOption) *Text {
	t := &Text{
		Geometry:      *scene.NewGeometry("text", scene.PrimitiveTriangles, nil, nil),
		tmu:           &sync.Mutex{},
		text:          str,
		font:          DefaultFont(),
		characterSize: 1,
		resolution:    32,
		backdropColor: [4]float32{0, 0, 0, 1},
		backdropH:     0.07,
		backdropV:     0.07,
		technique:     AllFeatures,
	}
	for _, opt := range options {
		opt(t)
	}
	t.layout()
	return t
}

func (t *Text) Accept(v scene.Visitor) {
	v.Apply(t)
}

func (t *Text) Text() string {
	t.tmu.Lock()
	defer t.tmu.Unlock()
	return t.text
}

// SetText replaces the displayed string.
func (t *Text) SetText(str string) {
	t.tmu.Lock()
	t.text = str
	t.tmu.Unlock()
	t.layout()
}

func (t *Text) Font() *Font {
	t.tmu.Lock()
	defer t.tmu.Unlock()
	return t.font
}

// SetFont replaces the font. Setting the current font again does nothing.
//
// Parameters:
//   - f: the font, or nil for the default font
func (t *Text) SetFont(f *Font) {
	if f == nil {
		f = DefaultFont()
	}
	t.tmu.Lock()
	if t.font == f {
		t.tmu.Unlock()
		return
	}
	t.font = f
	t.style = nil
	t.tmu.Unlock()
	t.layout()
}

// SetCharacterSize sets the line height in object units.
func (t *Text) SetCharacterSize(size float32) {
	t.tmu.Lock()
	t.characterSize = size
	t.tmu.Unlock()
	t.layout()
}

// SetFontResolution sets the glyph resolution in texels.
func (t *Text) SetFontResolution(texels int) {
	t.tmu.Lock()
	defer t.tmu.Unlock()
	t.resolution = max(texels, 1)
	t.style = nil
}

// SetBackdropType selects the backdrop effect.
func (t *Text) SetBackdropType(bt BackdropType) {
	t.tmu.Lock()
	defer t.tmu.Unlock()
	t.backdropType = bt
	t.style = nil
}

// SetBackdropColor sets the color of the backdrop effect.
func (t *Text) SetBackdropColor(c [4]float32) {
	t.tmu.Lock()
	defer t.tmu.Unlock()
	t.backdropColor = c
	t.style = nil
}

// SetBackdropOffset sets the backdrop offsets as fractions of the character size. Outline
// uses only the horizontal offset.
func (t *Text) SetBackdropOffset(horizontal, vertical float32) {
	t.tmu.Lock()
	defer t.tmu.Unlock()
	t.backdropH, t.backdropV = horizontal, vertical
	t.style = nil
}

// SetShaderTechnique selects the glyph shading technique.
func (t *Text) SetShaderTechnique(st ShaderTechnique) {
	t.tmu.Lock()
	defer t.tmu.Unlock()
	t.technique = st
	t.style = nil
}

// TexCoords returns one uv pair per glyph quad corner.
func (t *Text) TexCoords() []float32 {
	t.tmu.Lock()
	defer t.tmu.Unlock()
	return t.texCoords
}

// Texture returns the glyph texture of the font.
func (t *Text) Texture() (*common.TextureStagingData, *common.SamplerStagingData) {
	return t.Font().Texture()
}

// StyleStateSet returns the shared text render state, creating it on first use.
//
// Returns:
//   - *state.StateSet: the state shared by texts of the same font and style
func (t *Text) StyleStateSet() *state.StateSet {
	t.tmu.Lock()
	defer t.tmu.Unlock()
	if t.style == nil {
		t.style = t.createStateSet()
	}
	return t.style
}

// defineList returns the shader defines describing the text style, sorted by name.
// Caller holds t.tmu.
func (t *Text) defineList() []state.Define {
	defines := map[string]state.Define{}
	set := func(name, value string, flags state.Value) {
		defines[name] = state.Define{Name: name, Value: value, Flags: flags}
	}

	if t.backdropType != BackdropNone {
		c := t.backdropColor
		set("BACKDROP_COLOR", fmt.Sprintf("vec4<f32>(%.3f, %.3f, %.3f, %.3f)", c[0], c[1], c[2], c[3]), state.On)

		if t.backdropType == Outline {
			set("OUTLINE", fmt.Sprintf("%.3f", t.backdropH), state.On)
		} else {
			x, y := shadowOffset(t.backdropType, t.backdropH, t.backdropV)
			set("SHADOW", fmt.Sprintf("vec2<f32>(%.3f, %.3f)", x, y), state.On)
		}
	}

	set("GLYPH_DIMENSION", fmt.Sprintf("%.1f", float32(t.resolution)), state.On)
	set("TEXTURE_DIMENSION", fmt.Sprintf("%.1f", float32(t.font.TextureWidthHint())), state.On)

	if t.technique > Greyscale {
		set("SIGNED_DISTANCE_FIELD", "1", state.On)
	}

	set("OE_LIGHTING", "", state.Off|state.Protected)
	// keeps the default program from recoloring the glyphs
	set("OE_DISABLE_DEFAULT_SHADER", "1", state.On)

	out := make([]state.Define, 0, len(defines))
	for _, d := range defines {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b state.Define) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}

func shadowOffset(bt BackdropType, h, v float32) (float32, float32) {
	switch bt {
	case DropShadowBottomRight:
		return h, -v
	case DropShadowCenterRight:
		return h, 0
	case DropShadowTopRight:
		return h, v
	case DropShadowBottomCenter:
		return 0, -v
	case DropShadowTopCenter:
		return 0, v
	case DropShadowBottomLeft:
		return -h, -v
	case DropShadowCenterLeft:
		return -h, 0
	case DropShadowTopLeft:
		return -h, v
	}
	return h, v
}

// createStateSet returns the font's cached render state for this text's define list,
// creating and caching it when no state with an equal list exists. Caller holds t.tmu.
func (t *Text) createStateSet() *state.StateSet {
	f := t.font
	if f == nil {
		return nil
	}
	defines := t.defineList()

	stateSetMu.Lock()
	defer stateSetMu.Unlock()

	for _, ss := range f.stateSets {
		if slices.Equal(ss.Defines(), defines) {
			return ss
		}
	}

	ss := state.NewStateSet(ProgramName)
	for _, d := range defines {
		ss.SetDefine(d.Name, d.Value, d.Flags)
	}
	f.stateSets = append(f.stateSets, ss)

	ss.SetRenderingHint(state.HintTransparent)
	ss.SetMode(state.ModeLighting, state.Off)
	ss.SetMode(state.ModeBlend, state.On)
	ss.SetBlendFunc(state.DefaultBlendFunc, state.On)

	if t.technique == NoTextShader {
		ss.SetMode(state.ModeTexture2D, state.On)
		return ss
	}

	ss.AddUniform("glyphTexture", int32(0), state.On)
	prog := shader.NewProgram(ProgramName)
	shader.Shaders.Load(prog, shader.Shaders.Text)
	ss.SetProgram(prog, state.On)
	return ss
}

// layout shapes the text and rebuilds one quad per visible glyph. Glyph quads span the
// glyph advance horizontally and the line's descent to ascent vertically, with the
// baseline at y = 0. A layout overtaken by a newer one drops its result.
func (t *Text) layout() {
	t.tmu.Lock()
	t.layoutGen++
	gen := t.layoutGen
	str, f, size, res := t.text, t.font, t.characterSize, t.resolution
	t.tmu.Unlock()

	runes := []rune(str)
	var vertices, uvs []float32
	var indices []uint32
	if len(runes) > 0 && f != nil {
		out := (&shaping.HarfbuzzShaper{}).Shape(shaping.Input{
			Text:      runes,
			RunStart:  0,
			RunEnd:    len(runes),
			Direction: di.DirectionLTR,
			Face:      font.NewFace(f.face),
			Size:      fixed.I(res),
			Script:    language.Latin,
			Language:  language.NewLanguage("en"),
		})

		scale := size / float32(res)
		top := fixedToFloat(out.LineBounds.Ascent) * scale
		bottom := fixedToFloat(out.LineBounds.Descent) * scale
		var pen float32
		for _, g := range out.Glyphs {
			adv := fixedToFloat(g.Advance) * scale
			x0 := pen + fixedToFloat(g.XOffset)*scale
			pen += adv
			if i := g.TextIndex(); i < len(runes) && unicode.IsSpace(runes[i]) || adv == 0 {
				continue
			}
			base := uint32(len(vertices) / 3)
			vertices = append(vertices,
				x0, bottom, 0,
				x0+adv, bottom, 0,
				x0+adv, top, 0,
				x0, top, 0,
			)
			uvs = append(uvs, 0, 1, 1, 1, 1, 0, 0, 0)
			indices = append(indices, base, base+1, base+2, base, base+2, base+3)
		}
	}

	t.tmu.Lock()
	defer t.tmu.Unlock()
	if gen != t.layoutGen {
		return
	}
	t.SetVertices(vertices, indices)
	t.texCoords = uvs
}

func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
