// Package integrator estimates incident radiance along camera rays for
// scenes lit only by an environment map.
package integrator

import (
	"github.com/df07/go-adaptive-ibl/pkg/core"
	"github.com/df07/go-adaptive-ibl/pkg/envmap"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor returns the radiance arriving along ray
	RayColor(ray core.Ray, sampler core.Sampler) core.Vec3
}

// Scene is the geometry and background an integrator traces against
type Scene interface {
	Trace(ray core.Ray) (*core.SurfacePoint, bool)
	LeavesScene(hit *core.SurfacePoint, direction core.Vec3) bool
	EmittedRadiance(direction core.Vec3) core.Vec3
}

// BackgroundSampler draws next-event directions towards the environment.
// Samplers may depend on the shading point; the learned sampler does.
type BackgroundSampler interface {
	Sample(shadingPoint core.Vec3, sampler core.Sampler) envmap.Sample
	PDF(shadingPoint, direction core.Vec3) float64
}

// DirectionSampler is an environment sampler that ignores the shading point
type DirectionSampler interface {
	SampleDirection(u core.Vec2) envmap.Sample
	DirectionPDF(direction core.Vec3) float64
}

// MapSampler adapts the environment map's own luminance sampling to
// BackgroundSampler. It is the baseline path tracer's light sampler.
type MapSampler struct {
	Map DirectionSampler
}

// NewMapSampler wraps a point-independent environment sampler
func NewMapSampler(m DirectionSampler) MapSampler {
	return MapSampler{Map: m}
}

// Sample draws a direction from the map's luminance distribution
func (m MapSampler) Sample(_ core.Vec3, sampler core.Sampler) envmap.Sample {
	return m.Map.SampleDirection(sampler.Get2D())
}

// PDF returns the map's solid angle density for direction
func (m MapSampler) PDF(_, direction core.Vec3) float64 {
	return m.Map.DirectionPDF(direction)
}
