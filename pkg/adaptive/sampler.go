// Package adaptive samples an environment light from distributions learned
// per light-grid cell, so next-event directions follow the radiance that is
// actually visible from each part of the scene.
package adaptive

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/df07/go-adaptive-ibl/pkg/core"
	"github.com/df07/go-adaptive-ibl/pkg/envmap"
	"github.com/df07/go-adaptive-ibl/pkg/lightgrid"
	"github.com/df07/go-adaptive-ibl/pkg/tiling"
	"github.com/df07/go-adaptive-ibl/pkg/workers"
)

// pilotChunk is the number of pilot paths handed to a worker at once
const pilotChunk = 4096

// ErrAlreadyLearned is returned when Learn runs a second time
var ErrAlreadyLearned = errors.New("learning pass already ran")

// LearnStats summarizes a learning pass
type LearnStats struct {
	Pilots   int
	Recorded int64 // Observations written to the light grid
	Duration time.Duration
}

// Sampler owns the tiling and the light grid for one render
type Sampler struct {
	config     Config
	scene      Scene
	background Background
	tiler      tiling.Tiler
	grid       *lightgrid.Cache
	camera     core.Vec3
	logger     *slog.Logger
}

// New tiles the background image and prepares an empty light grid
func New(scene Scene, background Background, config Config) (*Sampler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	tiler, err := tiling.New(config.Tiler, background.Image(), config.EnvironmentX, config.EnvironmentY)
	if err != nil {
		return nil, fmt.Errorf("failed to tile environment map: %w", err)
	}
	grid, err := lightgrid.New(config.GridX, config.GridY, tiler.TileCount())
	if err != nil {
		return nil, fmt.Errorf("failed to create light grid: %w", err)
	}

	logger.Debug("environment tiled",
		"tiler", config.Tiler.String(),
		"tiles", tiler.TileCount(),
		"grid", fmt.Sprintf("%dx%d", config.GridX, config.GridY))

	return &Sampler{
		config:     config,
		scene:      scene,
		background: background,
		tiler:      tiler,
		grid:       grid,
		camera:     scene.CameraPosition(),
		logger:     logger,
	}, nil
}

// Tiler returns the environment partition
func (s *Sampler) Tiler() tiling.Tiler {
	return s.tiler
}

// Grid returns the light grid cache
func (s *Sampler) Grid() *lightgrid.Cache {
	return s.grid
}

// PilotCount returns the number of pilot paths Learn traces
func (s *Sampler) PilotCount() int {
	if s.config.LearningRays > 0 {
		return s.config.LearningRays
	}
	return s.tiler.TileCount() * s.config.GridX * s.config.GridY * 10
}

// Learn traces pilot paths in parallel, then builds every cell's tile
// distribution. It runs once per sampler.
func (s *Sampler) Learn() (LearnStats, error) {
	if s.grid.Built() {
		return LearnStats{}, ErrAlreadyLearned
	}

	start := time.Now()
	pilots := s.PilotCount()
	width, height := s.scene.FrameSize()
	s.logger.Info("learning started", "pilots", pilots, "tiler", s.config.Tiler.String())

	var recorded atomic.Int64
	_ = workers.Run(s.config.NumWorkers, pilots, pilotChunk, func(_, first, end int) error {
		count := int64(0)
		for n := first; n < end; n++ {
			// Each pilot owns its stream so results do not depend on scheduling
			rng := core.NewSeededSampler(s.config.Seed, uint64(n))
			film := rng.Get2D()
			ray := s.scene.CameraRay(core.NewVec2(film.X*float64(width), film.Y*float64(height)))
			count += s.tracePilot(ray, rng)
		}
		recorded.Add(count)
		return nil
	})

	s.grid.Build(s.tiler.TileMagnitude, s.config.Sharpen, s.config.NumWorkers)

	stats := LearnStats{
		Pilots:   pilots,
		Recorded: recorded.Load(),
		Duration: time.Since(start),
	}
	s.logger.Info("learning finished",
		"pilots", stats.Pilots,
		"recorded", stats.Recorded,
		"duration", stats.Duration)
	return stats, nil
}

// tracePilot follows one path and records the environment tiles it sees.
// It returns the number of observations recorded.
func (s *Sampler) tracePilot(ray core.Ray, rng core.Sampler) int64 {
	var previous *core.SurfacePoint
	recorded := int64(0)

	for depth := 1; depth <= MaxLearningDepth; depth++ {
		hit, isHit := s.scene.Trace(ray)
		if !isHit {
			// Directly visible background says nothing about surfaces
			if previous != nil && s.config.CacheBSDF {
				s.record(previous.Point, ray.Direction)
				recorded++
			}
			return recorded
		}

		if s.config.CacheNEE && depth > s.config.MinDepth && depth < s.config.MaxDepth {
			sample := s.background.SampleDirection(rng.Get2D())
			if sample.PDF > 0 && s.scene.LeavesScene(hit, sample.Direction) {
				cosLight := hit.Normal.Dot(sample.Direction)
				cosView := hit.Normal.Dot(ray.Direction)
				if (cosLight > 0 && cosView < 0) || (cosLight < 0 && cosView > 0) {
					s.record(hit.Point, sample.Direction)
					recorded++
				}
			}
		}

		if hit.Material == nil {
			return recorded
		}
		bsdf := hit.Material.Sample(hit, ray.Direction.Negate(), rng.Get2D())
		if bsdf.PDF == 0 {
			return recorded
		}

		previous = hit
		ray = hit.SpawnRay(bsdf.Direction)
	}
	return recorded
}

// CellAt returns the light grid cell serving a shading point
func (s *Sampler) CellAt(point core.Vec3) (int, int) {
	return s.grid.Cell(point.Subtract(s.camera))
}

// record credits the luminance arriving from direction to the tile it falls
// in, for the cell of the camera-relative direction to point
func (s *Sampler) record(point, direction core.Vec3) {
	i, j := s.CellAt(point)
	tile := s.tiler.TileIndexAtPixel(envmap.WorldToPixel(direction))
	s.grid.Record(i, j, tile, s.background.EmittedRadiance(direction).Luminance())
}

// PDF returns the solid angle density with which Sample, called at
// shadingPoint, produces direction. It is 0 at the poles.
func (s *Sampler) PDF(shadingPoint, direction core.Vec3) float64 {
	spherical := envmap.WorldToSpherical(direction)
	jacobian := envmap.Jacobian(spherical.Y)
	if jacobian == 0 {
		return 0
	}

	i, j := s.CellAt(shadingPoint)
	pos := s.tiler.PixelToTilePos(envmap.SphericalToPixel(spherical))

	pdf := s.grid.PDF(i, j, pos.Tile) * s.tiler.PointPDF(pos) * float64(s.tiler.TileCount())
	return pdf / jacobian
}

// Sample draws a next-event direction for shadingPoint: a tile from the
// cell's learned distribution, then a position inside the tile
func (s *Sampler) Sample(shadingPoint core.Vec3, sampler core.Sampler) envmap.Sample {
	i, j := s.CellAt(shadingPoint)
	tile, tilePDF := s.grid.Sample(i, j, sampler.Get1D())
	inTile := s.tiler.SampleInTile(tile, sampler.Get2D())

	spherical := envmap.PixelToSpherical(inTile.Pixel)
	jacobian := envmap.Jacobian(spherical.Y)
	pdf := inTile.PDF * tilePDF * float64(s.tiler.TileCount())
	if jacobian == 0 || pdf == 0 {
		return envmap.Sample{}
	}
	pdf /= jacobian

	return envmap.Sample{
		Direction: envmap.SphericalToWorld(spherical),
		PDF:       pdf,
		Weight:    s.background.Image().Lookup(inTile.Pixel).Multiply(1 / pdf),
	}
}
