// Package config loads experiment settings from YAML on top of embedded defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-adaptive-ibl/pkg/tiling"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Config holds all experiment parameters
type Config struct {
	Render      RenderConfig      `yaml:"render"`
	Sampler     SamplerConfig     `yaml:"sampler"`
	Environment EnvironmentConfig `yaml:"environment"`
	Scene       SceneConfig       `yaml:"scene"`
	Output      OutputConfig      `yaml:"output"`
	Methods     []string          `yaml:"methods"`
}

// RenderConfig controls the progressive renderer and the path tracer
type RenderConfig struct {
	Width             int    `yaml:"width"`
	Height            int    `yaml:"height"`
	TotalSpp          int    `yaml:"total_spp"`
	MaxRenderTimeMs   int    `yaml:"max_render_time_ms"`  // 0 disables the budget
	CountLearningTime bool   `yaml:"count_learning_time"` // Learning counts against the budget
	Workers           int    `yaml:"workers"`
	Seed              uint64 `yaml:"seed"`
	MinDepth          int    `yaml:"min_depth"`
	MaxDepth          int    `yaml:"max_depth"`
	NumShadowRays     int    `yaml:"num_shadow_rays"`
	EnableBSDFDirect  bool   `yaml:"enable_bsdf_direct"`
	ReferenceSpp      int    `yaml:"reference_spp"`
}

// SamplerConfig controls tiling, the light grid and learning
type SamplerConfig struct {
	EnvironmentX int  `yaml:"environment_x"`
	EnvironmentY int  `yaml:"environment_y"`
	GridX        int  `yaml:"grid_x"`
	GridY        int  `yaml:"grid_y"`
	LearningRays int  `yaml:"learning_rays"`
	Sharpen      bool `yaml:"sharpen"`
	CacheBSDF    bool `yaml:"cache_bsdf"`
	CacheNEE     bool `yaml:"cache_nee"`
}

// EnvironmentConfig selects an image file or a procedural sky
type EnvironmentConfig struct {
	File   string    `yaml:"file"`
	Scale  float64   `yaml:"scale"`
	Width  int       `yaml:"width"`
	Height int       `yaml:"height"`
	Sky    SkyConfig `yaml:"sky"`
}

// SkyConfig describes the procedural sky
type SkyConfig struct {
	Zenith       [3]float64 `yaml:"zenith,flow"`
	Horizon      [3]float64 `yaml:"horizon,flow"`
	Ground       [3]float64 `yaml:"ground,flow"`
	SunDirection [3]float64 `yaml:"sun_direction,flow"`
	SunRadius    float64    `yaml:"sun_radius"`
	SunEmission  [3]float64 `yaml:"sun_emission,flow"`
}

// SceneConfig picks the built-in scene
type SceneConfig struct {
	Name string `yaml:"name"`
}

// OutputConfig controls what gets written
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	PNG         bool   `yaml:"png"`
	CSV         bool   `yaml:"csv"`
	WriteConfig bool   `yaml:"write_config"`
}

// Method is one rendering strategy of the experiment
type Method struct {
	Name     string
	Adaptive bool        // false renders with the environment map's own sampler
	Tiler    tiling.Kind // Only meaningful when Adaptive is set
}

const adaptivePrefix = "AdaptiveSampler-"

// ParseMethod accepts "PT" and "AdaptiveSampler-<ES|EE|AD>"
func ParseMethod(name string) (Method, error) {
	if name == "PT" {
		return Method{Name: name}, nil
	}
	suffix, ok := strings.CutPrefix(name, adaptivePrefix)
	if !ok {
		return Method{}, fmt.Errorf("%w: unknown method %q", ErrInvalid, name)
	}
	kind, err := tiling.ParseKind(suffix)
	if err != nil {
		return Method{}, fmt.Errorf("%w: method %q: %v", ErrInvalid, name, err)
	}
	return Method{Name: name, Adaptive: true, Tiler: kind}, nil
}

// ParsedMethods returns the configured methods in order
func (c *Config) ParsedMethods() ([]Method, error) {
	methods := make([]Method, 0, len(c.Methods))
	for _, name := range c.Methods {
		m, err := ParseMethod(name)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

// Load reads the embedded defaults and overlays the file at path, if any
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file; a methods list replaces the default list
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks every setting the renderer cannot fix up
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	r := c.Render
	check(r.Width > 0 && r.Height > 0, "render size must be positive, got %dx%d", r.Width, r.Height)
	check(r.TotalSpp > 0, "total_spp must be positive, got %d", r.TotalSpp)
	check(r.MaxRenderTimeMs >= 0, "max_render_time_ms must not be negative, got %d", r.MaxRenderTimeMs)
	check(r.MaxDepth >= 1, "max_depth must be at least 1, got %d", r.MaxDepth)
	check(r.MinDepth <= r.MaxDepth, "min_depth %d exceeds max_depth %d", r.MinDepth, r.MaxDepth)
	check(r.NumShadowRays >= 0, "num_shadow_rays must not be negative, got %d", r.NumShadowRays)
	check(r.ReferenceSpp >= 0, "reference_spp must not be negative, got %d", r.ReferenceSpp)

	s := c.Sampler
	check(s.EnvironmentX > 0 && s.EnvironmentY > 0, "environment tile grid must be positive, got %dx%d", s.EnvironmentX, s.EnvironmentY)
	check(s.GridX > 0 && s.GridY > 0, "light grid must be positive, got %dx%d", s.GridX, s.GridY)
	check(s.LearningRays >= 0, "learning_rays must not be negative, got %d", s.LearningRays)

	e := c.Environment
	check(e.Scale > 0, "environment scale must be positive, got %g", e.Scale)
	check(e.File != "" || (e.Width > 0 && e.Height > 0), "procedural sky needs a positive size, got %dx%d", e.Width, e.Height)

	check(c.Scene.Name != "", "scene name must be set")
	check(len(c.Methods) > 0, "at least one method is required")
	for _, name := range c.Methods {
		if _, err := ParseMethod(name); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// WriteYAML saves the effective configuration next to the results
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
