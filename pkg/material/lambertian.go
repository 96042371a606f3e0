package material

import (
	"math"

	"github.com/df07/go-adaptive-ibl/pkg/core"
)

// Lambertian represents a perfectly diffuse material
type Lambertian struct {
	Albedo core.Vec3
}

// NewLambertian creates a new lambertian material
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

// Sample draws a cosine-weighted direction around the shading normal
func (l *Lambertian) Sample(hit *core.SurfacePoint, outgoing core.Vec3, primary core.Vec2) core.BSDFSample {
	incoming := core.SampleCosineHemisphere(hit.Normal, primary)
	pdf := l.PDF(hit, outgoing, incoming)
	if pdf == 0 {
		return core.BSDFSample{}
	}

	// (albedo/π · cosθ) / (cosθ/π)
	return core.BSDFSample{
		Direction: incoming,
		PDF:       pdf,
		Weight:    l.Albedo,
	}
}

// EvaluateWithCosine returns albedo/π · cosθ for directions above the surface
func (l *Lambertian) EvaluateWithCosine(hit *core.SurfacePoint, outgoing, incoming core.Vec3) core.Vec3 {
	cosTheta := incoming.Dot(hit.Normal)
	if cosTheta <= 0 || outgoing.Dot(hit.Normal) <= 0 {
		return core.Vec3{}
	}
	return l.Albedo.Multiply(cosTheta / math.Pi)
}

// PDF returns cosθ/π, the density of Sample
func (l *Lambertian) PDF(hit *core.SurfacePoint, outgoing, incoming core.Vec3) float64 {
	cosTheta := incoming.Dot(hit.Normal)
	if cosTheta <= 0 {
		return 0
	}
	return cosTheta / math.Pi
}
