package camera

import (
	"github.com/Carmen-Shannon/oxy-pick/common"
)

type CameraBuilderOption func(*cameraImpl)

// WithName sets the camera's node name.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - CameraBuilderOption: a function that sets the name
func WithName(name string) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.SetName(name)
	}
}

// WithUp sets the camera's up vector used by look-at and the controller.
//
// Parameters:
//   - x, y, z: up vector components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's up vector
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = [3]float32{x, y, z}
	}
}

// WithPerspective sets a perspective projection.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: width / height
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the projection
func WithPerspective(fovY, aspect, near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov, c.aspect, c.near, c.far = fovY, aspect, near, far
		common.Perspective(c.projectionMatrix[:], fovY, aspect, near, far)
	}
}

// WithOrtho sets an orthographic projection.
//
// Parameters:
//   - left, right, bottom, top: the view volume extents
//   - near, far: the depth range
//
// Returns:
//   - CameraBuilderOption: a function that sets the projection
func WithOrtho(left, right, bottom, top, near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		common.Ortho(c.projectionMatrix[:], left, right, bottom, top, near, far)
	}
}

// WithViewport sets the viewport rectangle in window pixels.
//
// Parameters:
//   - vp: the viewport
//
// Returns:
//   - CameraBuilderOption: a function that sets the viewport
func WithViewport(vp common.Viewport) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.viewport = vp
	}
}

// WithLookAt builds the view matrix from an eye point and a target.
//
// Parameters:
//   - eye: the eye position
//   - target: the point looked at
//
// Returns:
//   - CameraBuilderOption: a function that sets the view matrix
func WithLookAt(eye, target [3]float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		common.LookAt(c.viewMatrix[:],
			eye[0], eye[1], eye[2],
			target[0], target[1], target[2],
			c.up[0], c.up[1], c.up[2],
		)
	}
}

// WithClearColor sets the RGBA clear color.
//
// Parameters:
//   - col: the clear color
//
// Returns:
//   - CameraBuilderOption: a function that sets the clear color
func WithClearColor(col [4]float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.clearColor = col
	}
}

// WithController attaches a controller to the camera.
// After all options are applied, the camera recomputes its view matrix from the controller's state.
//
// Parameters:
//   - ctrl: the controller to attach
//
// Returns:
//   - CameraBuilderOption: functional option to set the controller
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}

// WithResizePolicy sets the projection resize policy.
//
// Parameters:
//   - p: the policy
//
// Returns:
//   - CameraBuilderOption: a function that sets the policy
func WithResizePolicy(p ProjectionResizePolicy) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.resizePolicy = p
	}
}
