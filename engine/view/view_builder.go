package view

import (
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
)

// ViewBuilderOption is a functional option for configuring a View.
type ViewBuilderOption func(*View)

// WithName sets the view name.
//
// Parameters:
//   - name: the name
//
// Returns:
//   - ViewBuilderOption: a function that sets the name
func WithName(name string) ViewBuilderOption {
	return func(v *View) {
		v.name = name
	}
}

// WithCamera sets the main camera.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - ViewBuilderOption: a function that sets the camera
func WithCamera(c camera.Camera) ViewBuilderOption {
	return func(v *View) {
		v.camera = c
	}
}

// WithSceneData sets the scene root.
//
// Parameters:
//   - n: the root node
//
// Returns:
//   - ViewBuilderOption: a function that sets the scene root
func WithSceneData(n scene.Node) ViewBuilderOption {
	return func(v *View) {
		v.sceneData = n
	}
}
