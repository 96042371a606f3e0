package scene

import (
	"github.com/df07/go-adaptive-ibl/pkg/core"
	"github.com/df07/go-adaptive-ibl/pkg/envmap"
	"github.com/df07/go-adaptive-ibl/pkg/geometry"
	"github.com/df07/go-adaptive-ibl/pkg/material"
	"github.com/df07/go-adaptive-ibl/pkg/renderer"
)

// NewDefaultScene creates three diffuse spheres on an open ground plane.
// Most of the environment is visible from every surface.
func NewDefaultScene(env *envmap.EnvironmentMap, width, height int) *Scene {
	camera := renderer.NewCamera(renderer.CameraConfig{
		Center: core.NewVec3(0, 0.75, 2),
		LookAt: core.NewVec3(0, 0.5, -1),
		Up:     core.NewVec3(0, 1, 0),
		Width:  width,
		Height: height,
		VFov:   40.0,
	})

	s := &Scene{
		Name:        "default",
		Camera:      camera,
		Environment: env,
	}

	// Large but finite ground keeps the BVH bounds meaningful
	ground := geometry.NewGroundQuad(core.NewVec3(0, 0, 0), 100.0, material.NewLambertian(core.NewVec3(0.48, 0.48, 0.0)))
	s.Shapes = append(s.Shapes, ground)

	s.AddSphere(core.NewVec3(0, 0.5, -1), 0.5, core.NewVec3(0.65, 0.25, 0.2))
	s.AddSphere(core.NewVec3(-1, 0.5, -1), 0.5, core.NewVec3(0.8, 0.8, 0.8))
	s.AddSphere(core.NewVec3(1, 0.5, -1), 0.5, core.NewVec3(0.1, 0.2, 0.5))

	s.Preprocess()
	return s
}
