package material

import (
	"math"
	"testing"

	"github.com/df07/go-adaptive-ibl/pkg/core"
)

func upHit() *core.SurfacePoint {
	return &core.SurfacePoint{
		Point:  core.NewVec3(0, 0, 0),
		Normal: core.NewVec3(0, 0, 1),
	}
}

func TestLambertian_PDFCalculation(t *testing.T) {
	lambertian := NewLambertian(core.NewVec3(0.8, 0.8, 0.8))
	sampler := core.NewSeededSampler(42, 0)
	hit := upHit()
	outgoing := core.NewVec3(0, 0, 1)

	for i := 0; i < 100; i++ {
		sample := lambertian.Sample(hit, outgoing, sampler.Get2D())
		if sample.PDF == 0 {
			continue
		}

		expectedPDF := sample.Direction.Normalize().Dot(hit.Normal) / math.Pi
		if math.Abs(sample.PDF-expectedPDF) > 1e-10 {
			t.Errorf("PDF mismatch: got %f, expected %f", sample.PDF, expectedPDF)
		}
		if got := lambertian.PDF(hit, outgoing, sample.Direction); math.Abs(got-sample.PDF) > 1e-12 {
			t.Errorf("PDF() %f differs from sampled pdf %f", got, sample.PDF)
		}
	}
}

func TestLambertian_WeightMatchesEvaluation(t *testing.T) {
	albedo := core.NewVec3(0.5, 0.7, 0.9)
	lambertian := NewLambertian(albedo)
	sampler := core.NewSeededSampler(7, 0)
	hit := upHit()
	outgoing := core.NewVec3(0.3, 0, 1).Normalize()

	for i := 0; i < 50; i++ {
		sample := lambertian.Sample(hit, outgoing, sampler.Get2D())
		if sample.PDF == 0 {
			continue
		}
		expected := lambertian.EvaluateWithCosine(hit, outgoing, sample.Direction).Multiply(1 / sample.PDF)
		if expected.Subtract(sample.Weight).Length() > 1e-9 {
			t.Errorf("Weight %v differs from f·cos/pdf %v", sample.Weight, expected)
		}
	}
}

func TestLambertian_BelowSurface(t *testing.T) {
	lambertian := NewLambertian(core.NewVec3(1, 1, 1))
	hit := upHit()
	outgoing := core.NewVec3(0, 0, 1)
	below := core.NewVec3(0, 0.5, -1).Normalize()

	if pdf := lambertian.PDF(hit, outgoing, below); pdf != 0 {
		t.Errorf("Expected zero pdf below the surface, got %f", pdf)
	}
	if f := lambertian.EvaluateWithCosine(hit, outgoing, below); !f.IsZero() {
		t.Errorf("Expected zero BSDF below the surface, got %v", f)
	}
}

// Hemisphere integral of f·cos equals the albedo
func TestLambertian_EnergyConservation(t *testing.T) {
	albedo := core.NewVec3(0.5, 0.7, 0.9)
	lambertian := NewLambertian(albedo)
	hit := upHit()
	outgoing := core.NewVec3(0, 0, 1)

	const n = 200
	sum := core.Vec3{}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cosTheta := (float64(i) + 0.5) / n
			phi := 2 * math.Pi * (float64(j) + 0.5) / n
			sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
			incoming := core.NewVec3(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
			sum = sum.Add(lambertian.EvaluateWithCosine(hit, outgoing, incoming))
		}
	}
	// Uniform quadrature over cosθ ∈ [0,1], φ ∈ [0,2π)
	estimate := sum.Multiply(2 * math.Pi / (n * n))
	if estimate.Subtract(albedo).Length() > 1e-3 {
		t.Errorf("Expected reflected energy %v, got %v", albedo, estimate)
	}
}
