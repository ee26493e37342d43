package scene

import (
	"github.com/Carmen-Shannon/oxy-pick/common"
)

// Transform is a Group that positions its children with a translate/rotate/scale matrix.
type Transform struct {
	Group

	position [3]float32
	rotation [3]float32
	scale    [3]float32
}

var _ Node = &Transform{}

// NewTransform creates an identity Transform.
//
// Parameters:
//   - name: the node name
//   - children: optional initial children
//
// Returns:
//   - *Transform: the new transform
func NewTransform(name string, children ...Node) *Transform {
	return &Transform{
		Group: *NewGroup(name, children...),
		scale: [3]float32{1, 1, 1},
	}
}

func (t *Transform) Accept(v Visitor) {
	v.Apply(t)
}

// Position returns the translation.
func (t *Transform) Position() (x, y, z float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position[0], t.position[1], t.position[2]
}

// SetPosition sets the translation.
func (t *Transform) SetPosition(x, y, z float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.position = [3]float32{x, y, z}
}

// Rotation returns the Euler rotation in radians.
func (t *Transform) Rotation() (rx, ry, rz float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rotation[0], t.rotation[1], t.rotation[2]
}

// SetRotation sets the Euler rotation in radians (applied Y, X, then Z).
func (t *Transform) SetRotation(rx, ry, rz float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rotation = [3]float32{rx, ry, rz}
}

// Scale returns the per-axis scale.
func (t *Transform) Scale() (sx, sy, sz float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scale[0], t.scale[1], t.scale[2]
}

// SetScale sets the per-axis scale.
func (t *Transform) SetScale(sx, sy, sz float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scale = [3]float32{sx, sy, sz}
}

// Matrix returns the local model matrix (column-major).
//
// Returns:
//   - [16]float32: the matrix mapping child space to parent space
func (t *Transform) Matrix() [16]float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var m [16]float32
	common.BuildModelMatrix(m[:],
		t.position[0], t.position[1], t.position[2],
		t.rotation[0], t.rotation[1], t.rotation[2],
		t.scale[0], t.scale[1], t.scale[2],
	)
	return m
}
