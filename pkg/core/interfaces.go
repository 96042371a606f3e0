package core

// rayEpsilon offsets spawned rays from their surface to avoid self-intersection
const rayEpsilon = 1e-4

// SurfacePoint contains information about a ray-object intersection
type SurfacePoint struct {
	Point     Vec3     // Point of intersection
	Normal    Vec3     // Shading normal, facing the incoming ray
	T         float64  // Parameter t along the ray
	FrontFace bool     // Whether ray hit the front face
	Material  Material // Material of the hit object
}

// SetFaceNormal sets the normal vector and determines front/back face
func (s *SurfacePoint) SetFaceNormal(ray Ray, outwardNormal Vec3) {
	s.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if s.FrontFace {
		s.Normal = outwardNormal
	} else {
		s.Normal = outwardNormal.Multiply(-1)
	}
}

// SpawnRay creates a ray leaving the surface in the given direction,
// offset along the normal to the side the direction points to
func (s *SurfacePoint) SpawnRay(direction Vec3) Ray {
	offset := s.Normal.Multiply(rayEpsilon)
	if direction.Dot(s.Normal) < 0 {
		offset = offset.Negate()
	}
	return NewRay(s.Point.Add(offset), direction)
}

// Shape interface for objects that can be hit by rays
type Shape interface {
	Hit(ray Ray, tMin, tMax float64) (*SurfacePoint, bool)
	BoundingBox() AABB
}

// BSDFSample is the result of importance sampling a material
type BSDFSample struct {
	Direction Vec3    // Sampled incoming direction (pointing away from the surface)
	PDF       float64 // Solid angle density; 0 means no valid sample
	Weight    Vec3    // BSDF * cosine / PDF
}

// Material interface for surfaces that reflect light
// outgoing points from the surface toward the viewer, incoming toward the light
type Material interface {
	// Sample draws an incoming direction for the given outgoing direction
	Sample(hit *SurfacePoint, outgoing Vec3, primary Vec2) BSDFSample

	// EvaluateWithCosine returns BSDF * |cos(theta_incoming)|
	EvaluateWithCosine(hit *SurfacePoint, outgoing, incoming Vec3) Vec3

	// PDF returns the solid angle density Sample would produce for incoming
	PDF(hit *SurfacePoint, outgoing, incoming Vec3) float64
}
