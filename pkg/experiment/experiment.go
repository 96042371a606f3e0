// Package experiment renders one scene with every configured method under
// the same time budget and collects comparable results.
package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-adaptive-ibl/pkg/adaptive"
	"github.com/df07/go-adaptive-ibl/pkg/config"
	"github.com/df07/go-adaptive-ibl/pkg/core"
	"github.com/df07/go-adaptive-ibl/pkg/integrator"
	"github.com/df07/go-adaptive-ibl/pkg/renderer"
	"github.com/df07/go-adaptive-ibl/pkg/report"
	"github.com/df07/go-adaptive-ibl/pkg/scene"
)

// Result is the outcome of rendering with one method
type Result struct {
	Method        config.Method
	Stats         renderer.RenderStats
	Learn         adaptive.LearnStats // Zero for the baseline
	Tiles         int                 // Zero for the baseline
	Pixels        []core.Vec3
	MeanLuminance float64
	RelMSE        float64 // NaN without a reference
}

// Runner holds what every method of an experiment shares
type Runner struct {
	cfg    *config.Config
	scene  *scene.Scene
	output *report.OutputManager
	logger *slog.Logger
	onPass func(method string, result renderer.PassResult) error
}

// NewRunner loads the environment and builds the scene. A nil logger discards output.
func NewRunner(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	env, err := LoadEnvironment(cfg.Environment)
	if err != nil {
		return nil, err
	}
	s, err := scene.New(cfg.Scene.Name, env, cfg.Render.Width, cfg.Render.Height)
	if err != nil {
		return nil, err
	}
	logger.Info("scene ready",
		"scene", s.Name,
		"shapes", s.GetPrimitiveCount(),
		"environment", fmt.Sprintf("%dx%d", env.Image().Width(), env.Image().Height()))

	var output *report.OutputManager
	if cfg.Output.PNG || cfg.Output.CSV || cfg.Output.WriteConfig {
		if output, err = report.NewOutputManager(cfg.Output.Dir); err != nil {
			return nil, err
		}
	}

	return &Runner{cfg: cfg, scene: s, output: output, logger: logger}, nil
}

// Scene returns the scene being rendered
func (r *Runner) Scene() *scene.Scene {
	return r.scene
}

// SetProgress registers a callback run after every iteration of every method
func (r *Runner) SetProgress(fn func(method string, result renderer.PassResult) error) {
	r.onPass = fn
}

// Run renders the optional reference and then every method in order
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	methods, err := r.cfg.ParsedMethods()
	if err != nil {
		return nil, err
	}
	if r.cfg.Output.WriteConfig {
		if err := r.output.WriteConfig(r.cfg); err != nil {
			return nil, err
		}
	}

	var reference []core.Vec3
	if r.cfg.Render.ReferenceSpp > 0 {
		if reference, err = r.renderReference(ctx); err != nil {
			return nil, err
		}
	}

	results := make([]Result, 0, len(methods))
	for _, method := range methods {
		result, err := r.renderMethod(ctx, method)
		if err != nil {
			return results, fmt.Errorf("method %s: %w", method.Name, err)
		}

		result.RelMSE = math.NaN()
		if reference != nil {
			result.RelMSE = renderer.RelativeMSE(result.Pixels, reference)
		}
		r.logger.Info("method finished",
			"method", method.Name,
			"iterations", result.Stats.Iterations,
			"render_ms", result.Stats.RenderTimeMs,
			"learning_ms", result.Stats.LearningTimeMs,
			"rel_mse", result.RelMSE)
		results = append(results, result)
	}

	if r.cfg.Output.CSV {
		if err := r.output.WriteSummary(r.summary(results)); err != nil {
			return results, err
		}
	}
	return results, nil
}

// writePNG reports whether images go to disk; an empty output dir disables all files
func (r *Runner) writePNG() bool {
	return r.cfg.Output.PNG && r.output != nil
}

func (r *Runner) integratorConfig() integrator.Config {
	return integrator.Config{
		MinDepth:         r.cfg.Render.MinDepth,
		MaxDepth:         r.cfg.Render.MaxDepth,
		NumShadowRays:    r.cfg.Render.NumShadowRays,
		EnableBSDFDirect: r.cfg.Render.EnableBSDFDirect,
	}
}

func (r *Runner) progressiveConfig() renderer.ProgressiveConfig {
	return renderer.ProgressiveConfig{
		TotalSpp:          r.cfg.Render.TotalSpp,
		MaxRenderTime:     time.Duration(r.cfg.Render.MaxRenderTimeMs) * time.Millisecond,
		CountLearningTime: r.cfg.Render.CountLearningTime,
		NumWorkers:        r.cfg.Render.Workers,
		Seed:              r.cfg.Render.Seed,
		Logger:            r.logger,
	}
}

func (r *Runner) adaptiveConfig(method config.Method) adaptive.Config {
	return AdaptiveConfig(r.cfg, method, r.logger)
}

// AdaptiveConfig builds the learned sampler's settings for method
func AdaptiveConfig(cfg *config.Config, method config.Method, logger *slog.Logger) adaptive.Config {
	s := cfg.Sampler
	return adaptive.Config{
		Tiler:        method.Tiler,
		EnvironmentX: s.EnvironmentX,
		EnvironmentY: s.EnvironmentY,
		GridX:        s.GridX,
		GridY:        s.GridY,
		LearningRays: s.LearningRays,
		MinDepth:     cfg.Render.MinDepth,
		MaxDepth:     cfg.Render.MaxDepth,
		Sharpen:      s.Sharpen,
		CacheBSDF:    s.CacheBSDF,
		CacheNEE:     s.CacheNEE,
		Seed:         cfg.Render.Seed,
		NumWorkers:   cfg.Render.Workers,
		Logger:       logger,
	}
}

// renderReference renders the baseline without a time budget
func (r *Runner) renderReference(ctx context.Context) ([]core.Vec3, error) {
	r.logger.Info("rendering reference", "spp", r.cfg.Render.ReferenceSpp)

	pt, err := integrator.NewPathTracingIntegrator(r.scene, integrator.NewMapSampler(r.scene.Background()), r.integratorConfig())
	if err != nil {
		return nil, err
	}
	pc := r.progressiveConfig()
	pc.TotalSpp = r.cfg.Render.ReferenceSpp
	pc.MaxRenderTime = 0
	pc.Seed += math.MaxUint32 // Independent of the methods' streams

	pr, err := renderer.NewProgressiveRaytracer(r.scene, pt, pc)
	if err != nil {
		return nil, err
	}
	if _, err := pr.Render(ctx, nil); err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	if r.writePNG() {
		if err := pr.SavePNG(r.output.Path("reference.png")); err != nil {
			return nil, err
		}
	}
	return pr.Pixels(), nil
}

func (r *Runner) renderMethod(ctx context.Context, method config.Method) (Result, error) {
	result := Result{Method: method}

	var (
		background integrator.BackgroundSampler = integrator.NewMapSampler(r.scene.Background())
		learned    *adaptive.Sampler
		prepare    func() error
	)
	if method.Adaptive {
		var err error
		learned, err = adaptive.New(r.scene, r.scene.Background(), r.adaptiveConfig(method))
		if err != nil {
			return result, err
		}
		background = learned
		result.Tiles = learned.Tiler().TileCount()
		prepare = func() error {
			stats, err := learned.Learn()
			result.Learn = stats
			return err
		}
	}

	pt, err := integrator.NewPathTracingIntegrator(r.scene, background, r.integratorConfig())
	if err != nil {
		return result, err
	}
	pc := r.progressiveConfig()
	if r.onPass != nil {
		pc.OnPass = func(pass renderer.PassResult) error {
			return r.onPass(method.Name, pass)
		}
	}
	pr, err := renderer.NewProgressiveRaytracer(r.scene, pt, pc)
	if err != nil {
		return result, err
	}

	if result.Stats, err = pr.Render(ctx, prepare); err != nil {
		return result, err
	}
	result.Pixels = pr.Pixels()
	result.MeanLuminance = meanLuminance(result.Pixels)

	stem := report.FileName(method.Name)
	if r.writePNG() {
		if err := pr.SavePNG(r.output.Path(stem + ".png")); err != nil {
			return result, err
		}
	}
	if r.cfg.Output.CSV && learned != nil && learned.Grid().Built() {
		if err := r.output.WriteTiles(method.Name, learned.Tiler()); err != nil {
			return result, err
		}
		if err := r.output.WriteCells(method.Name, learned.Grid()); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (r *Runner) summary(results []Result) []report.SummaryRecord {
	records := make([]report.SummaryRecord, 0, len(results))
	for _, res := range results {
		records = append(records, report.SummaryRecord{
			Method:          res.Method.Name,
			Scene:           r.scene.Name,
			Tiles:           res.Tiles,
			Iterations:      res.Stats.Iterations,
			TotalSamples:    res.Stats.TotalSamples,
			RenderTimeMs:    res.Stats.RenderTimeMs,
			LearningTimeMs:  res.Stats.LearningTimeMs,
			Pilots:          res.Learn.Pilots,
			Recorded:        res.Learn.Recorded,
			BudgetExhausted: res.Stats.BudgetExhausted,
			MeanLuminance:   res.MeanLuminance,
			RelMSE:          res.RelMSE,
		})
	}
	return records
}

func meanLuminance(pixels []core.Vec3) float64 {
	if len(pixels) == 0 {
		return 0
	}
	values := make([]float64, len(pixels))
	for i, p := range pixels {
		values[i] = p.Luminance()
	}
	return stat.Mean(values, nil)
}
