// Package renderer runs progressive, time-budgeted renders: every iteration
// adds one sample to each pixel, rows are spread across a worker pool.
package renderer

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/df07/go-adaptive-ibl/pkg/core"
	"github.com/df07/go-adaptive-ibl/pkg/workers"
)

// Integrator estimates the radiance along a camera ray
type Integrator interface {
	RayColor(ray core.Ray, sampler core.Sampler) core.Vec3
}

// RaySource generates primary rays over a fixed raster
type RaySource interface {
	CameraRay(raster core.Vec2) core.Ray
	FrameSize() (int, int)
}

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	TotalSpp          int           // Iterations to run, one sample per pixel each
	MaxRenderTime     time.Duration // 0 disables the budget
	CountLearningTime bool          // Whether the prepare step counts against the budget
	NumWorkers        int           // Number of parallel workers (0 = use CPU count)
	Seed              uint64
	Logger            *slog.Logger // nil discards log output

	// OnPass, when set, is called after every iteration. Returning an error stops the render.
	OnPass func(PassResult) error
}

// PassResult is the state of a render after one iteration
type PassResult struct {
	PassNumber int // 1-based
	Image      *image.RGBA
	Stats      RenderStats // Totals so far; RenderTimeMs is not filled in yet
}

// DefaultProgressiveConfig returns the settings used by the experiments
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		TotalSpp:          100,
		MaxRenderTime:     30 * time.Second,
		CountLearningTime: true,
	}
}

// ProgressiveRaytracer accumulates pixel estimates over iterations
type ProgressiveRaytracer struct {
	source        RaySource
	integrator    Integrator
	width, height int
	config        ProgressiveConfig
	pixelStats    [][]PixelStats
	logger        *slog.Logger
}

// NewProgressiveRaytracer creates a new progressive raytracer
func NewProgressiveRaytracer(source RaySource, integrator Integrator, config ProgressiveConfig) (*ProgressiveRaytracer, error) {
	if config.TotalSpp <= 0 {
		return nil, fmt.Errorf("total spp must be positive, got %d", config.TotalSpp)
	}
	width, height := source.FrameSize()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frame size must be positive, got %dx%d", width, height)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	pixelStats := make([][]PixelStats, height)
	for y := range pixelStats {
		pixelStats[y] = make([]PixelStats, width)
	}

	return &ProgressiveRaytracer{
		source:     source,
		integrator: integrator,
		width:      width,
		height:     height,
		config:     config,
		pixelStats: pixelStats,
		logger:     logger,
	}, nil
}

// renderTimer tracks elapsed time and the average cost of an iteration
type renderTimer struct {
	start      time.Time
	iterations int
	iterTime   time.Duration
}

func (rt *renderTimer) elapsed() time.Duration {
	return time.Since(rt.start)
}

func (rt *renderTimer) perIteration() time.Duration {
	if rt.iterations == 0 {
		return 0
	}
	return rt.iterTime / time.Duration(rt.iterations)
}

// Render runs prepare (the learning pass, or nil) and then the iterations.
// The budget is checked before each iteration: one that is expected to end
// past MaxRenderTime is not started.
func (pr *ProgressiveRaytracer) Render(ctx context.Context, prepare func() error) (RenderStats, error) {
	stats := RenderStats{}

	if prepare != nil && !pr.config.CountLearningTime {
		learnStart := time.Now()
		if err := prepare(); err != nil {
			return stats, err
		}
		stats.LearningTimeMs = msSince(learnStart)
	}

	timer := renderTimer{start: time.Now()}
	if prepare != nil && pr.config.CountLearningTime {
		if err := prepare(); err != nil {
			return stats, err
		}
		stats.LearningTimeMs = msSince(timer.start)
	}

	for iteration := 0; iteration < pr.config.TotalSpp; iteration++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if pr.config.MaxRenderTime > 0 && timer.elapsed()+timer.perIteration() > pr.config.MaxRenderTime {
			pr.logger.Info("maximum render time exhausted",
				"iterations", iteration,
				"budget", pr.config.MaxRenderTime)
			stats.BudgetExhausted = true
			break
		}

		iterStart := time.Now()
		discarded, err := pr.renderIteration(uint64(iteration))
		if err != nil {
			return stats, err
		}
		timer.iterTime += time.Since(iterStart)
		timer.iterations++

		stats.Iterations++
		stats.TotalSamples += pr.width * pr.height
		stats.Discarded += discarded
		pr.logger.Debug("iteration finished", "iteration", iteration+1, "elapsed", timer.elapsed())

		if pr.config.OnPass != nil {
			if err := pr.config.OnPass(PassResult{PassNumber: iteration + 1, Image: pr.Image(), Stats: stats}); err != nil {
				return stats, err
			}
		}
	}

	stats.RenderTimeMs = msSince(timer.start)
	return stats, nil
}

// renderIteration adds one sample to every pixel. Each worker owns whole
// rows so pixel statistics need no locking.
func (pr *ProgressiveRaytracer) renderIteration(iteration uint64) (int, error) {
	discarded := make([]int, pr.height)
	err := workers.Run(pr.config.NumWorkers, pr.height, 1, func(_, start, end int) error {
		for row := start; row < end; row++ {
			for col := 0; col < pr.width; col++ {
				pixelIndex := uint64(row*pr.width + col)
				sampler := core.NewSeededSampler(pr.config.Seed+iteration, pixelIndex)

				offset := sampler.Get2D()
				raster := core.NewVec2(float64(col)+offset.X, float64(row)+offset.Y)
				color := pr.integrator.RayColor(pr.source.CameraRay(raster), sampler)
				if !color.IsFinite() {
					discarded[row]++
					continue
				}
				pr.pixelStats[row][col].AddSample(color)
			}
		}
		return nil
	})

	total := 0
	for _, d := range discarded {
		total += d
	}
	return total, err
}

// Pixels returns the current linear estimate in row-major order
func (pr *ProgressiveRaytracer) Pixels() []core.Vec3 {
	pixels := make([]core.Vec3, 0, pr.width*pr.height)
	for y := 0; y < pr.height; y++ {
		for x := 0; x < pr.width; x++ {
			pixels = append(pixels, pr.pixelStats[y][x].GetColor())
		}
	}
	return pixels
}

// PixelStats returns the accumulated statistics of one pixel
func (pr *ProgressiveRaytracer) PixelStats(x, y int) PixelStats {
	return pr.pixelStats[y][x]
}

// Image returns the tone-mapped 8-bit image of the current estimate
func (pr *ProgressiveRaytracer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, pr.width, pr.height))
	for y := 0; y < pr.height; y++ {
		for x := 0; x < pr.width; x++ {
			img.SetRGBA(x, y, toColor(pr.pixelStats[y][x].GetColor()))
		}
	}
	return img
}

// SavePNG writes the current image to filename
func (pr *ProgressiveRaytracer) SavePNG(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer file.Close()

	if err := png.Encode(file, pr.Image()); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	return nil
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
