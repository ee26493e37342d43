package scene

import (
	"slices"

	"github.com/chewxy/math32"
)

// PrimitiveType is the topology of a drawable's index list.
type PrimitiveType int

const (
	// PrimitiveTriangles draws every three indices as a triangle.
	PrimitiveTriangles PrimitiveType = iota
	// PrimitiveLines draws every two indices as a line segment.
	PrimitiveLines
	// PrimitivePoints draws every index as a point.
	PrimitivePoints
)

// Drawable is a leaf node that produces geometry for the renderer.
type Drawable interface {
	Node

	// Vertices returns the vertex positions as packed xyz triples in local space.
	//
	// Returns:
	//   - []float32: positions, 3 floats per vertex
	Vertices() []float32

	// Indices returns the index list interpreted according to Primitive.
	//
	// Returns:
	//   - []uint32: vertex indices
	Indices() []uint32

	// Primitive returns the topology of the index list.
	//
	// Returns:
	//   - PrimitiveType: triangles, lines or points
	Primitive() PrimitiveType

	// Color returns the flat RGBA color used by the default program.
	//
	// Returns:
	//   - [4]float32: color components in [0, 1]
	Color() [4]float32

	// Size returns the point size or line width in pixels for point and line primitives.
	//
	// Returns:
	//   - float32: the size in pixels
	Size() float32

	// Bound returns a local-space bounding sphere.
	//
	// Returns:
	//   - center: the sphere center
	//   - radius: the sphere radius
	Bound() (center [3]float32, radius float32)
}

// Geometry is a plain Drawable built from explicit vertex and index arrays.
type Geometry struct {
	NodeBase

	vertices  []float32
	indices   []uint32
	primitive PrimitiveType
	color     [4]float32
	size      float32

	boundCenter [3]float32
	boundRadius float32
}

var _ Drawable = &Geometry{}

// NewGeometry creates a Geometry. The vertex and index slices are copied.
//
// Parameters:
//   - name: the node name
//   - primitive: the topology of indices
//   - vertices: packed xyz positions
//   - indices: vertex indices
//
// Returns:
//   - *Geometry: the new geometry with white color and size 1
func NewGeometry(name string, primitive PrimitiveType, vertices []float32, indices []uint32) *Geometry {
	g := &Geometry{
		NodeBase:  NewNodeBase(name),
		primitive: primitive,
		color:     [4]float32{1, 1, 1, 1},
		size:      1,
	}
	g.SetVertices(vertices, indices)
	return g
}

func (g *Geometry) Accept(v Visitor) {
	v.Apply(g)
}

// Traverse is a no-op; geometry has no children.
func (g *Geometry) Traverse(Visitor) {}

func (g *Geometry) Vertices() []float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.vertices
}

func (g *Geometry) Indices() []uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.indices
}

func (g *Geometry) Primitive() PrimitiveType {
	return g.primitive
}

func (g *Geometry) Color() [4]float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.color
}

func (g *Geometry) Size() float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.size
}

func (g *Geometry) Bound() ([3]float32, float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.boundCenter, g.boundRadius
}

// SetColor sets the flat color.
func (g *Geometry) SetColor(c [4]float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.color = c
}

// SetSize sets the point size or line width in pixels.
func (g *Geometry) SetSize(s float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.size = s
}

// SetVertices replaces the vertex and index arrays and recomputes the bound.
//
// Parameters:
//   - vertices: packed xyz positions
//   - indices: vertex indices
func (g *Geometry) SetVertices(vertices []float32, indices []uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vertices = slices.Clone(vertices)
	g.indices = slices.Clone(indices)
	g.boundCenter, g.boundRadius = ComputeBound(g.vertices)
}

// ComputeBound returns the bounding sphere of the axis-aligned box around packed xyz positions.
//
// Parameters:
//   - vertices: packed xyz positions
//
// Returns:
//   - center: sphere center
//   - radius: sphere radius, 0 for fewer than one vertex
func ComputeBound(vertices []float32) ([3]float32, float32) {
	if len(vertices) < 3 {
		return [3]float32{}, 0
	}
	lo := [3]float32{vertices[0], vertices[1], vertices[2]}
	hi := lo
	for i := 3; i+2 < len(vertices); i += 3 {
		for k := range 3 {
			lo[k] = min(lo[k], vertices[i+k])
			hi[k] = max(hi[k], vertices[i+k])
		}
	}
	c := [3]float32{(lo[0] + hi[0]) / 2, (lo[1] + hi[1]) / 2, (lo[2] + hi[2]) / 2}
	dx, dy, dz := hi[0]-c[0], hi[1]-c[1], hi[2]-c[2]
	return c, math32.Sqrt(dx*dx + dy*dy + dz*dz)
}

// NewQuad creates a 1x1 quad in the XY plane centered at the origin, facing +Z.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - *Geometry: the quad
func NewQuad(name string) *Geometry {
	return NewGeometry(name, PrimitiveTriangles,
		[]float32{-0.5, -0.5, 0, 0.5, -0.5, 0, 0.5, 0.5, 0, -0.5, 0.5, 0},
		[]uint32{0, 1, 2, 0, 2, 3},
	)
}

// NewBox creates a unit cube centered at the origin with counter-clockwise outward faces.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - *Geometry: the box
func NewBox(name string) *Geometry {
	v := []float32{
		-0.5, -0.5, 0.5, 0.5, -0.5, 0.5, 0.5, 0.5, 0.5, -0.5, 0.5, 0.5, // front
		-0.5, -0.5, -0.5, 0.5, -0.5, -0.5, 0.5, 0.5, -0.5, -0.5, 0.5, -0.5, // back
	}
	idx := []uint32{
		0, 1, 2, 0, 2, 3, // +z
		5, 4, 7, 5, 7, 6, // -z
		4, 0, 3, 4, 3, 7, // -x
		1, 5, 6, 1, 6, 2, // +x
		3, 2, 6, 3, 6, 7, // +y
		4, 5, 1, 4, 1, 0, // -y
	}
	return NewGeometry(name, PrimitiveTriangles, v, idx)
}
