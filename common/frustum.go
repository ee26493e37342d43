package common

import "github.com/chewxy/math32"

// Plane represents a plane ax + by + cz + d = 0 where (a, b, c) is the normal.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// Frustum represents the six planes of a view frustum. Positive half-spaces face inward.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// ExtractFrustumFromMatrix extracts normalized frustum planes from a column-major
// view-projection matrix using the Gribb/Hartmann method.
//
// Parameters:
//   - viewProj: 16 float32 values representing Projection * View
//
// Returns:
//   - Frustum: the extracted frustum
func ExtractFrustumFromMatrix(viewProj []float32) Frustum {
	// row i of a column-major matrix is (m[i], m[4+i], m[8+i], m[12+i])
	row := func(i int) [4]float32 {
		return [4]float32{viewProj[i], viewProj[4+i], viewProj[8+i], viewProj[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	var f Frustum
	set := func(idx int, sign float32, r [4]float32) {
		p := &f.Planes[idx]
		p.Normal = [3]float32{r3[0] + sign*r[0], r3[1] + sign*r[1], r3[2] + sign*r[2]}
		p.Distance = r3[3] + sign*r[3]
		l := math32.Sqrt(p.Normal[0]*p.Normal[0] + p.Normal[1]*p.Normal[1] + p.Normal[2]*p.Normal[2])
		if l > 0 {
			p.Normal[0] /= l
			p.Normal[1] /= l
			p.Normal[2] /= l
			p.Distance /= l
		}
	}
	set(FrustumLeft, 1, r0)
	set(FrustumRight, -1, r0)
	set(FrustumBottom, 1, r1)
	set(FrustumTop, -1, r1)
	// WebGPU depth range is [0, 1], so the near plane is row 2 alone.
	f.Planes[FrustumNear] = Plane{Normal: [3]float32{r2[0], r2[1], r2[2]}, Distance: r2[3]}
	if l := math32.Sqrt(r2[0]*r2[0] + r2[1]*r2[1] + r2[2]*r2[2]); l > 0 {
		p := &f.Planes[FrustumNear]
		p.Normal[0] /= l
		p.Normal[1] /= l
		p.Normal[2] /= l
		p.Distance /= l
	}
	set(FrustumFar, -1, r2)
	return f
}

// IntersectsSphere reports whether a bounding sphere is at least partially inside the frustum.
//
// Parameters:
//   - center: sphere center in the same space as the frustum
//   - radius: sphere radius
//
// Returns:
//   - bool: false only when the sphere is fully outside one of the planes
func (f *Frustum) IntersectsSphere(center [3]float32, radius float32) bool {
	for _, p := range f.Planes {
		d := p.Normal[0]*center[0] + p.Normal[1]*center[1] + p.Normal[2]*center[2] + p.Distance
		if d < -radius {
			return false
		}
	}
	return true
}
