package geometry

import (
	"math"

	"github.com/df07/go-adaptive-ibl/pkg/core"
)

// Quad is a parallelogram spanned by two edge vectors from a corner
type Quad struct {
	Corner   core.Vec3
	U        core.Vec3
	V        core.Vec3
	Normal   core.Vec3 // U × V, normalized
	Material core.Material
	d        float64   // Plane constant: Normal · p = d
	w        core.Vec3 // Cached for the planar coordinates of a hit
}

// NewQuad creates a new quad from a corner point and two edge vectors
func NewQuad(corner, u, v core.Vec3, material core.Material) *Quad {
	cross := u.Cross(v)
	normal := cross.Normalize()

	return &Quad{
		Corner:   corner,
		U:        u,
		V:        v,
		Normal:   normal,
		Material: material,
		d:        normal.Dot(corner),
		w:        cross.Multiply(1.0 / cross.Dot(cross)),
	}
}

// NewGroundQuad creates a horizontal square of the given half-size centered at center
func NewGroundQuad(center core.Vec3, halfSize float64, material core.Material) *Quad {
	corner := center.Subtract(core.NewVec3(halfSize, 0, halfSize))
	return NewQuad(corner, core.NewVec3(0, 0, 2*halfSize), core.NewVec3(2*halfSize, 0, 0), material)
}

// Hit tests if a ray intersects with the quad
func (q *Quad) Hit(ray core.Ray, tMin, tMax float64) (*core.SurfacePoint, bool) {
	denominator := ray.Direction.Dot(q.Normal)
	if math.Abs(denominator) < 1e-8 {
		return nil, false
	}

	t := (q.d - ray.Origin.Dot(q.Normal)) / denominator
	if t < tMin || t > tMax {
		return nil, false
	}

	point := ray.At(t)
	planar := point.Subtract(q.Corner)
	alpha := q.w.Dot(planar.Cross(q.V))
	beta := q.w.Dot(q.U.Cross(planar))
	if alpha < 0 || alpha > 1 || beta < 0 || beta > 1 {
		return nil, false
	}

	hit := &core.SurfacePoint{
		T:        t,
		Point:    point,
		Material: q.Material,
	}
	hit.SetFaceNormal(ray, q.Normal)

	return hit, true
}

// BoundingBox returns the box around all four corners, padded along flat axes
func (q *Quad) BoundingBox() core.AABB {
	box := core.NewAABBFromPoints(q.Corner, q.Corner.Add(q.U), q.Corner.Add(q.V), q.Corner.Add(q.U).Add(q.V))
	pad := core.NewVec3(1e-4, 1e-4, 1e-4)
	return core.NewAABB(box.Min.Subtract(pad), box.Max.Add(pad))
}
