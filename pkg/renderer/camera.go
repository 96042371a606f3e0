package renderer

import (
	"math"

	"github.com/df07/go-adaptive-ibl/pkg/core"
)

// CameraConfig describes a pinhole camera
type CameraConfig struct {
	Center core.Vec3 // Eye position
	LookAt core.Vec3 // Point the camera looks at
	Up     core.Vec3 // Up direction
	Width  int       // Raster width in pixels
	Height int       // Raster height in pixels
	VFov   float64   // Vertical field of view in degrees
}

// Camera generates primary rays for raster positions
type Camera struct {
	config     CameraConfig
	upperLeft  core.Vec3 // Viewport corner at raster (0, 0)
	horizontal core.Vec3 // Viewport extent along raster x
	vertical   core.Vec3 // Viewport extent along raster y (pointing down)
}

// NewCamera creates a look-at pinhole camera
func NewCamera(config CameraConfig) *Camera {
	aspectRatio := float64(config.Width) / float64(config.Height)
	viewportHeight := 2.0 * math.Tan(config.VFov*math.Pi/360.0)
	viewportWidth := aspectRatio * viewportHeight

	// Orthonormal basis: w points backwards, u right, v up
	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	horizontal := u.Multiply(viewportWidth)
	vertical := v.Multiply(-viewportHeight)
	upperLeft := config.Center.
		Subtract(w).
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5))

	return &Camera{
		config:     config,
		upperLeft:  upperLeft,
		horizontal: horizontal,
		vertical:   vertical,
	}
}

// Ray returns the primary ray through raster, in pixels with y pointing down
func (c *Camera) Ray(raster core.Vec2) core.Ray {
	s := raster.X / float64(c.config.Width)
	t := raster.Y / float64(c.config.Height)
	target := c.upperLeft.Add(c.horizontal.Multiply(s)).Add(c.vertical.Multiply(t))
	return core.NewRay(c.config.Center, target.Subtract(c.config.Center).Normalize())
}

// Position returns the eye point
func (c *Camera) Position() core.Vec3 {
	return c.config.Center
}

// FrameSize returns the raster resolution
func (c *Camera) FrameSize() (int, int) {
	return c.config.Width, c.config.Height
}

// Forward returns the unit viewing direction
func (c *Camera) Forward() core.Vec3 {
	return c.config.LookAt.Subtract(c.config.Center).Normalize()
}
