package integrator

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-adaptive-ibl/pkg/adaptive"
	"github.com/df07/go-adaptive-ibl/pkg/core"
	"github.com/df07/go-adaptive-ibl/pkg/envmap"
	"github.com/df07/go-adaptive-ibl/pkg/material"
	"github.com/df07/go-adaptive-ibl/pkg/tiling"
)

const floorAlbedo = 0.5

// floorScene is an infinite lambertian plane at y=0 under an environment map
type floorScene struct {
	background *envmap.EnvironmentMap
	floor      core.Material
	empty      bool
}

func newFloorScene(radiance core.Vec3) *floorScene {
	img := envmap.NewImage(64, 32)
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			img.Set(x, y, radiance)
		}
	}
	return &floorScene{
		background: envmap.New(img),
		floor:      material.NewLambertian(core.NewVec3(floorAlbedo, floorAlbedo, floorAlbedo)),
	}
}

func (s *floorScene) Trace(ray core.Ray) (*core.SurfacePoint, bool) {
	if s.empty || ray.Direction.Y >= 0 || ray.Origin.Y <= 0 {
		return nil, false
	}
	t := ray.Origin.Y / -ray.Direction.Y
	hit := &core.SurfacePoint{Point: ray.At(t), T: t, Material: s.floor}
	hit.Point.Y = 0
	hit.SetFaceNormal(ray, core.NewVec3(0, 1, 0))
	return hit, true
}

func (s *floorScene) LeavesScene(hit *core.SurfacePoint, direction core.Vec3) bool {
	return s.empty || direction.Y > 0
}

func (s *floorScene) EmittedRadiance(direction core.Vec3) core.Vec3 {
	return s.background.EmittedRadiance(direction)
}

func (s *floorScene) CameraPosition() core.Vec3 { return core.NewVec3(0, 1, 0) }

func (s *floorScene) CameraRay(raster core.Vec2) core.Ray {
	x := raster.X/8 - 1
	z := raster.Y/8 - 1
	return core.NewRay(s.CameraPosition(), core.NewVec3(x*0.3, -1, z*0.3).Normalize())
}

func (s *floorScene) FrameSize() (int, int) { return 16, 16 }

var downRay = core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0))

// estimate averages n camera-ray estimates
func estimate(t *testing.T, pt *PathTracingIntegrator, n int) float64 {
	t.Helper()
	sum := 0.0
	for i := 0; i < n; i++ {
		sampler := core.NewSeededSampler(11, uint64(i))
		c := pt.RayColor(downRay, sampler)
		if !c.IsFinite() {
			t.Fatalf("Non-finite estimate %v at sample %d", c, i)
		}
		sum += c.Y
	}
	return sum / float64(n)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero max depth", func(c *Config) { c.MaxDepth = 0 }, true},
		{"min above max", func(c *Config) { c.MinDepth = 6 }, true},
		{"negative shadow rays", func(c *Config) { c.NumShadowRays = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestPathTracing_DirectBackground(t *testing.T) {
	scene := newFloorScene(core.NewVec3(0.25, 0.5, 1))
	scene.empty = true
	pt, err := NewPathTracingIntegrator(scene, NewMapSampler(scene.background), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	c := pt.RayColor(downRay, core.NewSeededSampler(1, 0))
	if c.Subtract(core.NewVec3(0.25, 0.5, 1)).Length() > 1e-9 {
		t.Errorf("Expected the background radiance for a primary miss, got %v", c)
	}
}

func TestPathTracing_DepthWindow(t *testing.T) {
	tests := []struct {
		name     string
		empty    bool
		minDepth int
		maxDepth int
		expected float64
	}{
		{"primary miss excluded by min depth", true, 2, 5, 0},
		{"surface excluded by max depth", false, 1, 1, 0},
		{"one bounce only", false, 2, 2, floorAlbedo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := newFloorScene(core.NewVec3(1, 1, 1))
			scene.empty = tt.empty
			cfg := DefaultConfig()
			cfg.MinDepth = tt.minDepth
			cfg.MaxDepth = tt.maxDepth
			pt, err := NewPathTracingIntegrator(scene, NewMapSampler(scene.background), cfg)
			if err != nil {
				t.Fatal(err)
			}

			got := estimate(t, pt, 4000)
			if math.Abs(got-tt.expected) > 0.05*math.Max(tt.expected, 0.1) {
				t.Errorf("Expected %f, got %f", tt.expected, got)
			}
		})
	}
}

// A white furnace floor reflects albedo × sky radiance whichever strategies run
func TestPathTracing_FloorConverges(t *testing.T) {
	tests := []struct {
		name             string
		enableBSDFDirect bool
		shadowRays       int
	}{
		{"MIS", true, 1},
		{"MIS two shadow rays", true, 2},
		{"next event only", false, 1},
		{"BSDF only", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := newFloorScene(core.NewVec3(1, 1, 1))
			cfg := DefaultConfig()
			cfg.EnableBSDFDirect = tt.enableBSDFDirect
			cfg.NumShadowRays = tt.shadowRays
			pt, err := NewPathTracingIntegrator(scene, NewMapSampler(scene.background), cfg)
			if err != nil {
				t.Fatal(err)
			}

			got := estimate(t, pt, 20000)
			if math.Abs(got-floorAlbedo) > 0.03 {
				t.Errorf("Expected %f, got %f", floorAlbedo, got)
			}
		})
	}
}

func TestPathTracing_LearnedSamplerConverges(t *testing.T) {
	for _, kind := range []tiling.Kind{tiling.EqualSize, tiling.EqualEnergy, tiling.Adaptive} {
		t.Run(kind.String(), func(t *testing.T) {
			scene := newFloorScene(core.NewVec3(1, 1, 1))
			cfg := adaptive.DefaultConfig()
			cfg.Tiler = kind
			cfg.EnvironmentX = 8
			cfg.EnvironmentY = 4
			cfg.GridX = 4
			cfg.GridY = 2
			cfg.LearningRays = 5000
			cfg.Seed = 3
			learned, err := adaptive.New(scene, scene.background, cfg)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := learned.Learn(); err != nil {
				t.Fatal(err)
			}

			pt, err := NewPathTracingIntegrator(scene, learned, DefaultConfig())
			if err != nil {
				t.Fatal(err)
			}
			got := estimate(t, pt, 20000)
			if math.Abs(got-floorAlbedo) > 0.03 {
				t.Errorf("Expected %f, got %f", floorAlbedo, got)
			}
		})
	}
}

func TestNewPathTracingIntegrator_InvalidConfig(t *testing.T) {
	scene := newFloorScene(core.NewVec3(1, 1, 1))
	cfg := DefaultConfig()
	cfg.MaxDepth = 0
	pt, err := NewPathTracingIntegrator(scene, NewMapSampler(scene.background), cfg)
	if err == nil || pt != nil {
		t.Errorf("Expected an error and no integrator, got %v, %v", pt, err)
	}
	if errors.Unwrap(err) != nil {
		t.Errorf("Expected a plain validation error, got wrapped %v", err)
	}
}

func TestMapSampler_IgnoresShadingPoint(t *testing.T) {
	scene := newFloorScene(core.NewVec3(1, 1, 1))
	sampler := NewMapSampler(scene.background)
	dir := core.NewVec3(0.3, 0.8, -0.2).Normalize()

	a := sampler.PDF(core.NewVec3(0, 0, 0), dir)
	b := sampler.PDF(core.NewVec3(10, -3, 7), dir)
	if a != b || a != scene.background.DirectionPDF(dir) {
		t.Errorf("Expected identical pdfs, got %f and %f", a, b)
	}
}
