package text

// FontBuilderOption is a functional option used to configure a Font during construction.
type FontBuilderOption func(*Font)

// WithTextureWidthHint sets the glyph texture width reported to the text shaders.
//
// Parameters:
//   - width: the texture width in texels
//
// Returns:
//   - FontBuilderOption: a function that sets the texture width hint
func WithTextureWidthHint(width int) FontBuilderOption {
	return func(f *Font) {
		if width > 0 {
			f.textureWidthHint = width
		}
	}
}
