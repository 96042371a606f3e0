package scene

import (
	"github.com/df07/go-adaptive-ibl/pkg/core"
	"github.com/df07/go-adaptive-ibl/pkg/envmap"
	"github.com/df07/go-adaptive-ibl/pkg/renderer"
)

const (
	courtyardHalfSize   = 4.0
	courtyardWallHeight = 6.0
)

// NewCourtyardScene creates a walled courtyard open only to the sky above.
// Surfaces inside see a small cap of the environment, which is where a
// learned, position-dependent sampler pays off.
func NewCourtyardScene(env *envmap.EnvironmentMap, width, height int) *Scene {
	camera := renderer.NewCamera(renderer.CameraConfig{
		Center: core.NewVec3(0, 1.6, 3.5),
		LookAt: core.NewVec3(0, 0.8, -1),
		Up:     core.NewVec3(0, 1, 0),
		Width:  width,
		Height: height,
		VFov:   60.0,
	})

	s := &Scene{
		Name:        "courtyard",
		Camera:      camera,
		Environment: env,
	}

	h := courtyardHalfSize
	wall := core.NewVec3(0.7, 0.7, 0.7)
	floor := core.NewVec3(0.5, 0.45, 0.4)
	up := core.NewVec3(0, courtyardWallHeight, 0)

	s.AddQuad(core.NewVec3(-h, 0, -h), core.NewVec3(2*h, 0, 0), core.NewVec3(0, 0, 2*h), floor)
	s.AddQuad(core.NewVec3(-h, 0, -h), core.NewVec3(2*h, 0, 0), up, wall) // back
	s.AddQuad(core.NewVec3(-h, 0, h), core.NewVec3(2*h, 0, 0), up, wall)  // front, behind the camera
	s.AddQuad(core.NewVec3(-h, 0, -h), core.NewVec3(0, 0, 2*h), up, wall) // left
	s.AddQuad(core.NewVec3(h, 0, -h), core.NewVec3(0, 0, 2*h), up, wall)  // right

	s.AddSphere(core.NewVec3(0, 0.8, -1), 0.8, core.NewVec3(0.8, 0.3, 0.3))
	s.AddSphere(core.NewVec3(-2, 0.5, 0.5), 0.5, core.NewVec3(0.3, 0.8, 0.3))
	s.AddSphere(core.NewVec3(2.2, 1.2, -2.2), 1.2, core.NewVec3(0.3, 0.3, 0.8))

	s.Preprocess()
	return s
}
