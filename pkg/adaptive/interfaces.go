package adaptive

import (
	"github.com/df07/go-adaptive-ibl/pkg/core"
	"github.com/df07/go-adaptive-ibl/pkg/envmap"
)

// Scene is what the learning pass needs from the renderer
type Scene interface {
	// Trace returns the closest surface along the ray
	Trace(ray core.Ray) (*core.SurfacePoint, bool)

	// LeavesScene reports whether a ray from hit towards direction escapes unoccluded
	LeavesScene(hit *core.SurfacePoint, direction core.Vec3) bool

	// CameraPosition returns the eye point the light grid is centered on
	CameraPosition() core.Vec3

	// CameraRay returns the primary ray through a raster position
	CameraRay(raster core.Vec2) core.Ray

	// FrameSize returns the raster resolution
	FrameSize() (int, int)
}

// Background is the environment light with its default sampler
type Background interface {
	Image() *envmap.Image
	EmittedRadiance(direction core.Vec3) core.Vec3
	SampleDirection(u core.Vec2) envmap.Sample
	DirectionPDF(direction core.Vec3) float64
}
