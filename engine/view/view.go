package view

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
)

// View pairs a main camera with the scene it looks at and routes pointer input for it.
// Slave cameras render the same scene with offsets (e.g. tiled displays); pickers refuse
// to work on views that have any.
type View struct {
	mu *sync.Mutex

	name      string
	camera    camera.Camera
	sceneData scene.Node
	slaves    []camera.Camera
	router    *EventRouter
}

// NewView creates a View with a default camera and no scene.
//
// Parameters:
//   - options: functional options to configure the view
//
// Returns:
//   - *View: the new view
func NewView(options ...ViewBuilderOption) *View {
	v := &View{
		mu: &sync.Mutex{},
	}
	v.router = newEventRouter(v)
	for _, option := range options {
		option(v)
	}
	if v.camera == nil {
		v.camera = camera.NewCamera(camera.WithName("main"))
	}
	return v
}

// Name returns the view name.
func (v *View) Name() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.name
}

// Camera returns the main camera.
//
// Returns:
//   - camera.Camera: the main camera, never nil
func (v *View) Camera() camera.Camera {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.camera
}

// SetCamera replaces the main camera. Nil is ignored.
//
// Parameters:
//   - c: the new main camera
func (v *View) SetCamera(c camera.Camera) {
	if c == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.camera = c
}

// SceneData returns the root of the scene rendered by the main camera.
//
// Returns:
//   - scene.Node: the root, or nil
func (v *View) SceneData() scene.Node {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sceneData
}

// SetSceneData sets the root of the scene rendered by the main camera.
//
// Parameters:
//   - n: the root node
func (v *View) SetSceneData(n scene.Node) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sceneData = n
}

// AddSlave attaches a slave camera.
//
// Parameters:
//   - c: the slave camera
func (v *View) AddSlave(c camera.Camera) {
	if c == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.slaves = append(v.slaves, c)
}

// RemoveSlave detaches a slave camera.
//
// Parameters:
//   - c: the slave camera
func (v *View) RemoveSlave(c camera.Camera) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.slaves = slices.DeleteFunc(v.slaves, func(s camera.Camera) bool { return s == c })
}

// NumSlaves returns the number of slave cameras.
func (v *View) NumSlaves() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.slaves)
}

// Slaves returns a snapshot of the slave cameras.
func (v *View) Slaves() []camera.Camera {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.slaves)
}

// EventRouter returns the view's pointer event router.
//
// Returns:
//   - *EventRouter: the router, never nil
func (v *View) EventRouter() *EventRouter {
	return v.router
}

// Resize forwards a window resize to the main camera viewport.
//
// Parameters:
//   - width: the new width in pixels
//   - height: the new height in pixels
func (v *View) Resize(width, height int) {
	v.Camera().Resize(float32(width), float32(height))
}
