package integrator

import (
	"fmt"

	"github.com/df07/go-adaptive-ibl/pkg/core"
)

// Config controls path length and which strategies contribute
type Config struct {
	MinDepth         int  // Shortest path length (in edges) that contributes
	MaxDepth         int  // Longest path length that contributes
	NumShadowRays    int  // Next-event samples per surface vertex
	EnableBSDFDirect bool // Whether BSDF-sampled rays that escape add background radiance
}

// DefaultConfig returns the settings used by the experiments
func DefaultConfig() Config {
	return Config{
		MinDepth:         1,
		MaxDepth:         5,
		NumShadowRays:    1,
		EnableBSDFDirect: true,
	}
}

// Validate checks the path length window
func (c Config) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("max depth must be at least 1, got %d", c.MaxDepth)
	}
	if c.MinDepth > c.MaxDepth {
		return fmt.Errorf("min depth %d exceeds max depth %d", c.MinDepth, c.MaxDepth)
	}
	if c.NumShadowRays < 0 {
		return fmt.Errorf("shadow rays must not be negative, got %d", c.NumShadowRays)
	}
	return nil
}

// PathTracingIntegrator implements unidirectional path tracing with next-event
// estimation towards the environment, combined by the balance heuristic
type PathTracingIntegrator struct {
	config     Config
	scene      Scene
	background BackgroundSampler
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(scene Scene, background BackgroundSampler, config Config) (*PathTracingIntegrator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &PathTracingIntegrator{
		config:     config,
		scene:      scene,
		background: background,
	}, nil
}

// RayColor computes the color for a single camera ray
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, sampler core.Sampler) core.Vec3 {
	radiance := core.Vec3{}
	throughput := core.NewVec3(1, 1, 1)
	previousPDF := 0.0

	for depth := 1; ; depth++ {
		hit, isHit := pt.scene.Trace(ray)
		if !isHit {
			if depth >= pt.config.MinDepth {
				emission := pt.backgroundHit(ray, depth, previousPDF)
				radiance = radiance.Add(throughput.MultiplyVec(emission))
			}
			return radiance
		}

		// Paths through this vertex are all longer than depth
		if depth+1 > pt.config.MaxDepth || hit.Material == nil {
			return radiance
		}

		outgoing := ray.Direction.Negate()
		if depth+1 >= pt.config.MinDepth {
			direct := pt.backgroundNextEvent(hit, outgoing, sampler)
			radiance = radiance.Add(throughput.MultiplyVec(direct))
		}

		bsdf := hit.Material.Sample(hit, outgoing, sampler.Get2D())
		if bsdf.PDF == 0 {
			return radiance
		}
		throughput = throughput.MultiplyVec(bsdf.Weight)
		if throughput.IsZero() {
			return radiance
		}
		previousPDF = bsdf.PDF
		ray = hit.SpawnRay(bsdf.Direction)
	}
}

// backgroundHit returns the MIS-weighted radiance of an escaping ray
func (pt *PathTracingIntegrator) backgroundHit(ray core.Ray, depth int, previousPDF float64) core.Vec3 {
	emission := pt.scene.EmittedRadiance(ray.Direction)
	if depth == 1 {
		return emission
	}
	if !pt.config.EnableBSDFDirect {
		return core.Vec3{}
	}

	pdfNextEvent := pt.background.PDF(ray.Origin, ray.Direction)
	misWeight := core.BalanceHeuristic(1, previousPDF, pt.config.NumShadowRays, pdfNextEvent)
	return emission.Multiply(misWeight)
}

// backgroundNextEvent samples the environment from hit and returns the
// MIS-weighted, unshadowed contributions
func (pt *PathTracingIntegrator) backgroundNextEvent(hit *core.SurfacePoint, outgoing core.Vec3, sampler core.Sampler) core.Vec3 {
	n := pt.config.NumShadowRays
	total := core.Vec3{}

	for i := 0; i < n; i++ {
		sample := pt.background.Sample(hit.Point, sampler)
		if sample.PDF == 0 || !pt.scene.LeavesScene(hit, sample.Direction) {
			continue
		}

		bsdfCos := hit.Material.EvaluateWithCosine(hit, outgoing, sample.Direction)
		pdfBSDF := hit.Material.PDF(hit, outgoing, sample.Direction)
		if pdfBSDF == 0 {
			continue
		}
		if !pt.config.EnableBSDFDirect {
			pdfBSDF = 0
		}

		misWeight := core.BalanceHeuristic(n, sample.PDF, 1, pdfBSDF)
		contribution := sample.Weight.MultiplyVec(bsdfCos).Multiply(misWeight / float64(n))
		if contribution.IsFinite() {
			total = total.Add(contribution)
		}
	}
	return total
}
