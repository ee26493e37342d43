package window

// WindowBuilderOption configures a window before it is created.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the title bar text.
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial client area size in screen coordinates. Non-positive values
// keep the default of 1280x720.
//
// Parameters:
//   - width: the client area width
//   - height: the client area height
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 && height > 0 {
			w.width, w.height = width, height
		}
	}
}

// WithSizeLimits bounds interactive resizing. A zero bound is left unconstrained.
//
// Parameters:
//   - minWidth, minHeight: the smallest client area
//   - maxWidth, maxHeight: the largest client area
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth, w.minHeight = max(minWidth, 0), max(minHeight, 0)
		w.maxWidth, w.maxHeight = max(maxWidth, 0), max(maxHeight, 0)
	}
}

// WithResizable sets whether the user can resize the window. Windows are resizable by default.
func WithResizable(resizable bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.resizable = resizable
	}
}
