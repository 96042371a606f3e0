package adaptive

import (
	"fmt"
	"log/slog"

	"github.com/df07/go-adaptive-ibl/pkg/tiling"
)

// MaxLearningDepth caps pilot paths to bound learning time in occluded scenes
const MaxLearningDepth = 4

// Config controls tiling, the light grid and the learning pass
type Config struct {
	Tiler        tiling.Kind
	EnvironmentX int // Target tile grid across the map
	EnvironmentY int
	GridX        int // Light grid cells in phi
	GridY        int // Light grid cells in theta
	LearningRays int // Pilot paths; 0 means TileCount·GridX·GridY·10
	MinDepth     int // Background samples are recorded at depths in (MinDepth, MaxDepth)
	MaxDepth     int
	Sharpen      bool // Subtract the per-cell mean before building distributions
	CacheBSDF    bool // Record escaping continuation rays
	CacheNEE     bool // Record unoccluded background samples
	Seed         uint64
	NumWorkers   int          // 0 uses one worker per CPU
	Logger       *slog.Logger // nil discards log output
}

// DefaultConfig returns the settings used by the experiments
func DefaultConfig() Config {
	return Config{
		Tiler:        tiling.EqualSize,
		EnvironmentX: 32,
		EnvironmentY: 16,
		GridX:        100,
		GridY:        50,
		LearningRays: 1_000_000,
		MinDepth:     1,
		MaxDepth:     5,
		CacheBSDF:    true,
		CacheNEE:     true,
	}
}

// Validate checks the settings that cannot be fixed up silently
func (c Config) Validate() error {
	if c.EnvironmentX <= 0 || c.EnvironmentY <= 0 {
		return fmt.Errorf("environment tile grid must be positive, got %dx%d", c.EnvironmentX, c.EnvironmentY)
	}
	if c.GridX <= 0 || c.GridY <= 0 {
		return fmt.Errorf("light grid must be positive, got %dx%d", c.GridX, c.GridY)
	}
	if c.LearningRays < 0 {
		return fmt.Errorf("learning rays must not be negative, got %d", c.LearningRays)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("max depth must be at least 1, got %d", c.MaxDepth)
	}
	return nil
}
