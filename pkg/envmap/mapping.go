package envmap

import (
	"math"

	"github.com/df07/go-adaptive-ibl/pkg/core"
)

// Directions map to the equirectangular image as follows: phi is measured
// in the XZ plane from +X towards +Z and spans the image width, theta is
// measured from +Y and spans the image height.

// WorldToSpherical returns (phi, theta) with phi in [0, 2π) and theta in [0, π]
func WorldToSpherical(dir core.Vec3) core.Vec2 {
	dir = dir.Normalize()
	phi := math.Atan2(dir.Z, dir.X)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	theta := math.Atan2(math.Sqrt(dir.X*dir.X+dir.Z*dir.Z), dir.Y)
	return core.NewVec2(phi, theta)
}

// SphericalToWorld returns the unit direction for (phi, theta)
func SphericalToWorld(spherical core.Vec2) core.Vec3 {
	sinTheta, cosTheta := math.Sincos(spherical.Y)
	sinPhi, cosPhi := math.Sincos(spherical.X)
	return core.NewVec3(sinTheta*cosPhi, cosTheta, sinTheta*sinPhi)
}

// SphericalToPixel maps (phi, theta) to a normalized image position
func SphericalToPixel(spherical core.Vec2) core.Vec2 {
	return core.NewVec2(spherical.X/(2*math.Pi), spherical.Y/math.Pi)
}

// PixelToSpherical maps a normalized image position to (phi, theta)
func PixelToSpherical(pixel core.Vec2) core.Vec2 {
	return core.NewVec2(pixel.X*2*math.Pi, pixel.Y*math.Pi)
}

// PixelToWorld maps a normalized image position to a unit direction
func PixelToWorld(pixel core.Vec2) core.Vec3 {
	return SphericalToWorld(PixelToSpherical(pixel))
}

// WorldToPixel maps a direction to a normalized image position
func WorldToPixel(dir core.Vec3) core.Vec2 {
	return SphericalToPixel(WorldToSpherical(dir))
}

// Jacobian converts a density over normalized image space into a density
// over solid angle: p(ω) = p(u,v) / Jacobian(θ). It is 0 at the poles.
func Jacobian(theta float64) float64 {
	// sin(π) is not exactly zero in floating point
	if theta <= 0 || theta >= math.Pi {
		return 0
	}
	return math.Sin(theta) * 2 * math.Pi * math.Pi
}
