// Package scene holds renderable scenes: geometry in a BVH, a pinhole camera
// and the environment map that lights everything.
package scene

import (
	"math"

	"github.com/df07/go-adaptive-ibl/pkg/core"
	"github.com/df07/go-adaptive-ibl/pkg/envmap"
	"github.com/df07/go-adaptive-ibl/pkg/geometry"
	"github.com/df07/go-adaptive-ibl/pkg/material"
	"github.com/df07/go-adaptive-ibl/pkg/renderer"
)

// traceEpsilon skips intersections at the ray origin
const traceEpsilon = 1e-6

// Scene contains all the elements needed for rendering
type Scene struct {
	Name        string
	Camera      *renderer.Camera
	Shapes      []core.Shape // Objects in the scene
	BVH         *core.BVH    // Acceleration structure for ray-object intersection
	Environment *envmap.EnvironmentMap
}

// Preprocess builds the acceleration structure. Call it after the last shape is added.
func (s *Scene) Preprocess() {
	s.BVH = core.NewBVH(s.Shapes)
}

// Trace returns the closest surface along the ray
func (s *Scene) Trace(ray core.Ray) (*core.SurfacePoint, bool) {
	return s.BVH.Hit(ray, traceEpsilon, math.Inf(1))
}

// LeavesScene reports whether a ray from hit towards direction escapes unoccluded
func (s *Scene) LeavesScene(hit *core.SurfacePoint, direction core.Vec3) bool {
	return !s.BVH.Occluded(hit.SpawnRay(direction), traceEpsilon, math.Inf(1))
}

// EmittedRadiance returns the environment radiance arriving from direction
func (s *Scene) EmittedRadiance(direction core.Vec3) core.Vec3 {
	return s.Environment.EmittedRadiance(direction)
}

// Background returns the environment map
func (s *Scene) Background() *envmap.EnvironmentMap {
	return s.Environment
}

// CameraPosition returns the eye point
func (s *Scene) CameraPosition() core.Vec3 {
	return s.Camera.Position()
}

// CameraRay returns the primary ray through a raster position
func (s *Scene) CameraRay(raster core.Vec2) core.Ray {
	return s.Camera.Ray(raster)
}

// FrameSize returns the raster resolution
func (s *Scene) FrameSize() (int, int) {
	return s.Camera.FrameSize()
}

// GetPrimitiveCount returns the number of shapes in the scene
func (s *Scene) GetPrimitiveCount() int {
	return len(s.Shapes)
}

// AddSphere adds a diffuse sphere
func (s *Scene) AddSphere(center core.Vec3, radius float64, albedo core.Vec3) {
	s.Shapes = append(s.Shapes, geometry.NewSphere(center, radius, material.NewLambertian(albedo)))
}

// AddQuad adds a diffuse parallelogram
func (s *Scene) AddQuad(corner, u, v core.Vec3, albedo core.Vec3) {
	s.Shapes = append(s.Shapes, geometry.NewQuad(corner, u, v, material.NewLambertian(albedo)))
}
