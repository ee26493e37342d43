package text

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/state"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Font is a parsed font plus the render states shared by every Text drawn with it.
// A Font is safe for concurrent use.
type Font struct {
	name string
	face *font.Font

	textureWidthHint int

	// guarded by stateSetMu
	stateSets []*state.StateSet
}

var (
	defaultFont     *Font
	defaultFontOnce sync.Once
)

// DefaultFont returns the Go Regular font, parsed on first use.
//
// Returns:
//   - *Font: the shared default font
func DefaultFont() *Font {
	defaultFontOnce.Do(func() {
		f, err := NewFont("goregular", goregular.TTF)
		if err != nil {
			panic(fmt.Sprintf("failed to parse the embedded default font: %v", err))
		}
		defaultFont = f
	})
	return defaultFont
}

// NewFont parses TrueType or OpenType font data.
//
// Parameters:
//   - name: a display name for the font
//   - data: the font file contents
//   - options: variadic list of FontBuilderOption functions
//
// Returns:
//   - *Font: the parsed font
//   - error: an error if the data is not a supported font
func NewFont(name string, data []byte, options ...FontBuilderOption) (*Font, error) {
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
	}
	f := &Font{
		name:             name,
		face:             face.Font,
		textureWidthHint: 1024,
	}
	for _, opt := range options {
		opt(f)
	}
	return f, nil
}

func (f *Font) Name() string {
	return f.name
}

// TextureWidthHint returns the width of the glyph texture the font's shaders are tuned for.
func (f *Font) TextureWidthHint() int {
	return f.textureWidthHint
}

// CachedStateSets returns the number of distinct text render states created for the font.
func (f *Font) CachedStateSets() int {
	stateSetMu.Lock()
	defer stateSetMu.Unlock()
	return len(f.stateSets)
}

// Texture describes the glyph texture bound to text drawables. Glyphs are not rasterized
// into an atlas; every glyph quad samples one opaque texel.
//
// Returns:
//   - *common.TextureStagingData: the texture pixels
//   - *common.SamplerStagingData: the sampler configuration
func (f *Font) Texture() (*common.TextureStagingData, *common.SamplerStagingData) {
	return &common.TextureStagingData{
			Pixels: []byte{255, 255, 255, 255},
			Width:  1,
			Height: 1,
		}, &common.SamplerStagingData{
			AddressModeU: wgpu.AddressModeClampToEdge,
			AddressModeV: wgpu.AddressModeClampToEdge,
			MagFilter:    wgpu.FilterModeLinear,
			MinFilter:    wgpu.FilterModeLinear,
		}
}
