package text

// TextBuilderOption is a functional option used to configure a Text during construction.
type TextBuilderOption func(*Text)

// WithName sets the node name of the text.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - TextBuilderOption: a function that sets the name
func WithName(name string) TextBuilderOption {
	return func(t *Text) {
		t.SetName(name)
	}
}

// WithFont sets the font. A nil font keeps the default font.
//
// Parameters:
//   - f: the font
//
// Returns:
//   - TextBuilderOption: a function that sets the font
func WithFont(f *Font) TextBuilderOption {
	return func(t *Text) {
		if f != nil {
			t.font = f
		}
	}
}

// WithCharacterSize sets the line height in object units.
//
// Parameters:
//   - size: the line height
//
// Returns:
//   - TextBuilderOption: a function that sets the character size
func WithCharacterSize(size float32) TextBuilderOption {
	return func(t *Text) {
		t.characterSize = size
	}
}

// WithFontResolution sets the glyph resolution in texels.
//
// Parameters:
//   - texels: the glyph resolution
//
// Returns:
//   - TextBuilderOption: a function that sets the font resolution
func WithFontResolution(texels int) TextBuilderOption {
	return func(t *Text) {
		t.resolution = max(texels, 1)
	}
}

// WithBackdrop sets the backdrop effect and its color.
//
// Parameters:
//   - bt: the backdrop type
//   - color: the backdrop color
//
// Returns:
//   - TextBuilderOption: a function that sets the backdrop
func WithBackdrop(bt BackdropType, color [4]float32) TextBuilderOption {
	return func(t *Text) {
		t.backdropType = bt
		t.backdropColor = color
	}
}

// WithShaderTechnique sets the glyph shading technique. Defaults to AllFeatures.
//
// Parameters:
//   - st: the technique
//
// Returns:
//   - TextBuilderOption: a function that sets the technique
func WithShaderTechnique(st ShaderTechnique) TextBuilderOption {
	return func(t *Text) {
		t.technique = st
	}
}

// WithColor sets the glyph color.
//
// Parameters:
//   - color: the RGBA color
//
// Returns:
//   - TextBuilderOption: a function that sets the color
func WithColor(color [4]float32) TextBuilderOption {
	return func(t *Text) {
		t.SetColor(color)
	}
}
