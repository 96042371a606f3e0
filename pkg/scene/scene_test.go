package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-adaptive-ibl/pkg/adaptive"
	"github.com/df07/go-adaptive-ibl/pkg/core"
	"github.com/df07/go-adaptive-ibl/pkg/envmap"
	"github.com/df07/go-adaptive-ibl/pkg/integrator"
	"github.com/df07/go-adaptive-ibl/pkg/renderer"
	"github.com/df07/go-adaptive-ibl/pkg/tiling"
)

var (
	_ adaptive.Scene               = (*Scene)(nil)
	_ adaptive.Background          = (*envmap.EnvironmentMap)(nil)
	_ integrator.Scene             = (*Scene)(nil)
	_ renderer.RaySource           = (*Scene)(nil)
	_ integrator.BackgroundSampler = (*adaptive.Sampler)(nil)
)

func uniformEnvironment() *envmap.EnvironmentMap {
	img := envmap.NewImage(64, 32)
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			img.Set(x, y, core.NewVec3(1, 1, 1))
		}
	}
	return envmap.New(img)
}

func TestNew(t *testing.T) {
	env := uniformEnvironment()
	tests := []struct {
		name    string
		scene   string
		env     *envmap.EnvironmentMap
		width   int
		wantErr error
	}{
		{"default", "default", env, 32, nil},
		{"courtyard", "courtyard", env, 32, nil},
		{"unknown", "cornell", env, 32, ErrUnknownScene},
		{"missing environment", "default", nil, 32, errors.New("")},
		{"empty frame", "default", env, 0, errors.New("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.scene, tt.env, tt.width, 24)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				if s.Name != tt.scene || s.BVH == nil || s.GetPrimitiveCount() == 0 {
					t.Errorf("Incomplete scene %+v", s)
				}
				if w, h := s.FrameSize(); w != tt.width || h != 24 {
					t.Errorf("Expected %dx24 frame, got %dx%d", tt.width, w, h)
				}
				return
			}
			if err == nil || s != nil {
				t.Fatalf("Expected an error and no scene, got %v, %v", s, err)
			}
			if tt.wantErr == ErrUnknownScene && !errors.Is(err, ErrUnknownScene) {
				t.Errorf("Expected ErrUnknownScene, got %v", err)
			}
		})
	}
}

func TestDefaultScene_Trace(t *testing.T) {
	s := NewDefaultScene(uniformEnvironment(), 64, 36)

	// The camera looks straight at the center sphere
	hit, isHit := s.Trace(core.NewRay(s.CameraPosition(), core.NewVec3(0, 0.5, -1).Subtract(s.CameraPosition())))
	if !isHit {
		t.Fatal("Expected the camera to see the center sphere")
	}
	if math.Abs(hit.Point.Subtract(core.NewVec3(0, 0.5, -1)).Length()-0.5) > 1e-6 {
		t.Errorf("Expected a point on the center sphere, got %v", hit.Point)
	}
	if hit.Material == nil {
		t.Error("Expected the hit to carry a material")
	}

	if _, isHit := s.Trace(core.NewRay(s.CameraPosition(), core.NewVec3(0, 1, 0))); isHit {
		t.Error("Expected an upward ray to escape")
	}
}

func TestLeavesScene(t *testing.T) {
	tests := []struct {
		name      string
		build     func(*envmap.EnvironmentMap, int, int) *Scene
		point     core.Vec3
		direction core.Vec3
		expected  bool
	}{
		{"default ground towards sky", NewDefaultScene, core.NewVec3(3, 0, 3), core.NewVec3(0.2, 1, 0.1), true},
		{"default ground under sphere", NewDefaultScene, core.NewVec3(0, 0, -1), core.NewVec3(0, 1, 0), false},
		{"courtyard floor towards zenith", NewCourtyardScene, core.NewVec3(0, 0, 2), core.NewVec3(0, 1, 0), true},
		{"courtyard floor towards horizon", NewCourtyardScene, core.NewVec3(0, 0, 2), core.NewVec3(1, 0.1, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.build(uniformEnvironment(), 16, 16)
			hit := &core.SurfacePoint{Point: tt.point}
			hit.SetFaceNormal(core.NewRay(tt.point.Add(core.NewVec3(0, 1, 0)), core.NewVec3(0, -1, 0)), core.NewVec3(0, 1, 0))
			if got := s.LeavesScene(hit, tt.direction.Normalize()); got != tt.expected {
				t.Errorf("Expected LeavesScene %t, got %t", tt.expected, got)
			}
		})
	}
}

// Inside the courtyard only the sky above is visible, so the learned
// distributions put next to nothing below the horizon
func TestCourtyard_LearnsUpperHemisphere(t *testing.T) {
	s := NewCourtyardScene(uniformEnvironment(), 32, 24)

	cfg := adaptive.DefaultConfig()
	cfg.Tiler = tiling.EqualSize
	cfg.EnvironmentX = 8
	cfg.EnvironmentY = 4
	cfg.GridX = 4
	cfg.GridY = 2
	cfg.LearningRays = 20000
	cfg.Seed = 9
	sampler, err := adaptive.New(s, s.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := sampler.Learn()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Recorded == 0 {
		t.Fatal("Expected the courtyard to record observations")
	}

	i, j := sampler.Grid().Cell(core.NewVec3(0, 0, 0).Subtract(s.CameraPosition()))
	probabilities := sampler.Grid().Probabilities(i, j)
	below := 0.0
	for tile, p := range probabilities {
		// Equal-size tiles are numbered row by row; rows 2 and 3 lie below the horizon
		if tile/cfg.EnvironmentX >= 2 {
			below += p
		}
	}
	if below > 0.05 {
		t.Errorf("Expected under 5%% probability below the horizon, got %f", below)
	}
}
