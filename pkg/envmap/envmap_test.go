package envmap

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/df07/go-adaptive-ibl/pkg/core"
)

func testSky() *Image {
	return NewSkyImage(64, 32, Sky{
		Zenith:       core.NewVec3(0.2, 0.4, 0.9),
		Horizon:      core.NewVec3(0.8, 0.8, 0.9),
		Ground:       core.NewVec3(0.1, 0.1, 0.1),
		SunDirection: core.NewVec3(1, 1, 0.5),
		SunRadius:    6,
		SunEmission:  core.NewVec3(2000, 1800, 1500),
	})
}

func TestNewSkyImage_SunIsBright(t *testing.T) {
	img := testSky()
	env := New(img)

	sun := env.EmittedRadiance(core.NewVec3(1, 1, 0.5))
	if sun.X < 200 {
		t.Errorf("Expected sun radiance towards the sun direction, got %v", sun)
	}
	ground := env.EmittedRadiance(core.NewVec3(0, -1, 0.3))
	if ground != core.NewVec3(0.1, 0.1, 0.1) {
		t.Errorf("Expected ground color below the horizon, got %v", ground)
	}
}

func TestEnvironmentMap_SampleMatchesPDF(t *testing.T) {
	env := New(testSky())
	random := rand.New(rand.NewPCG(1, 1))

	sunHits := 0
	for i := 0; i < 2000; i++ {
		sample := env.SampleDirection(core.NewVec2(random.Float64(), random.Float64()))
		if sample.PDF == 0 {
			continue
		}
		if math.Abs(sample.Direction.Length()-1) > 1e-9 {
			t.Fatalf("Sampled direction not normalized: %v", sample.Direction)
		}
		if got := env.DirectionPDF(sample.Direction); math.Abs(got-sample.PDF) > 1e-6*sample.PDF {
			t.Fatalf("Sample pdf %g differs from DirectionPDF %g", sample.PDF, got)
		}
		expectedWeight := env.EmittedRadiance(sample.Direction).Multiply(1 / sample.PDF)
		if expectedWeight.Subtract(sample.Weight).Length() > 1e-6*expectedWeight.Length() {
			t.Fatalf("Weight %v, expected radiance/pdf %v", sample.Weight, expectedWeight)
		}
		if sample.Direction.Dot(core.NewVec3(1, 1, 0.5).Normalize()) > math.Cos(15*math.Pi/180) {
			sunHits++
		}
	}

	// The sun holds most of the energy, so most samples should land there
	if sunHits < 1500 {
		t.Errorf("Expected most samples near the sun, got %d of 2000", sunHits)
	}
}

func TestEnvironmentMap_PDFIntegratesToOne(t *testing.T) {
	env := New(testSky())
	w, h := 256, 128

	sum := 0.0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pixel := core.NewVec2((float64(x)+0.5)/float64(w), (float64(y)+0.5)/float64(h))
			dir := PixelToWorld(pixel)
			sum += env.DirectionPDF(dir) * Jacobian(PixelToSpherical(pixel).Y)
		}
	}
	if integral := sum / float64(w*h); math.Abs(integral-1) > 1e-6 {
		t.Errorf("Expected pdf to integrate to 1 over the sphere, got %f", integral)
	}
}

func TestEnvironmentMap_PolesHaveZeroPDF(t *testing.T) {
	env := New(testSky())
	for _, dir := range []core.Vec3{core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0)} {
		if pdf := env.DirectionPDF(dir); pdf != 0 {
			t.Errorf("Expected zero pdf at pole %v, got %g", dir, pdf)
		}
	}
}
