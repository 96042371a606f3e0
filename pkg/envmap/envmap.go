package envmap

import (
	"math"

	"github.com/df07/go-adaptive-ibl/pkg/core"
	"github.com/df07/go-adaptive-ibl/pkg/distribution"
)

// Sample is a direction drawn towards the environment
type Sample struct {
	Direction core.Vec3
	PDF       float64   // Solid angle density; 0 means no valid sample
	Weight    core.Vec3 // Radiance / PDF
}

// EnvironmentMap is a distant light defined by an equirectangular image.
// Its default sampler draws directions proportional to luminance × sinθ.
type EnvironmentMap struct {
	image *Image
	dist  *distribution.Piecewise2D
}

// New builds the environment map and its sampling distribution
func New(img *Image) *EnvironmentMap {
	w, h := img.Width(), img.Height()
	dist := distribution.NewPiecewise2D(w, h)

	for y := 0; y < h; y++ {
		v := (float64(y) + 0.5) / float64(h)
		sinTheta := math.Sin(v * math.Pi)
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			dist.Accumulate(u, v, img.Luminance(x, y)*sinTheta)
		}
	}
	dist.Normalize()

	return &EnvironmentMap{image: img, dist: dist}
}

// Image returns the underlying radiance image
func (e *EnvironmentMap) Image() *Image {
	return e.image
}

// EmittedRadiance returns the radiance arriving from direction
func (e *EnvironmentMap) EmittedRadiance(direction core.Vec3) core.Vec3 {
	return e.image.Lookup(WorldToPixel(direction))
}

// SampleDirection draws a direction proportional to luminance
func (e *EnvironmentMap) SampleDirection(u core.Vec2) Sample {
	pixel, pdf := e.dist.Sample(u)
	spherical := PixelToSpherical(pixel)

	jacobian := Jacobian(spherical.Y)
	if jacobian == 0 || pdf == 0 {
		return Sample{}
	}
	pdf /= jacobian

	return Sample{
		Direction: SphericalToWorld(spherical),
		PDF:       pdf,
		Weight:    e.image.Lookup(pixel).Multiply(1 / pdf),
	}
}

// DirectionPDF returns the solid angle density SampleDirection has for direction
func (e *EnvironmentMap) DirectionPDF(direction core.Vec3) float64 {
	spherical := WorldToSpherical(direction)
	jacobian := Jacobian(spherical.Y)
	if jacobian == 0 {
		return 0
	}
	return e.dist.PDF(SphericalToPixel(spherical)) / jacobian
}
