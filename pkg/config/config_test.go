package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/df07/go-adaptive-ibl/pkg/tiling"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Embedded defaults should validate: %v", err)
	}

	if cfg.Sampler.GridX != 100 || cfg.Sampler.GridY != 50 {
		t.Errorf("Expected a 100x50 light grid, got %dx%d", cfg.Sampler.GridX, cfg.Sampler.GridY)
	}
	if cfg.Sampler.EnvironmentX != 32 || cfg.Sampler.EnvironmentY != 16 {
		t.Errorf("Expected a 32x16 tile grid, got %dx%d", cfg.Sampler.EnvironmentX, cfg.Sampler.EnvironmentY)
	}
	if cfg.Sampler.LearningRays != 1000000 || cfg.Render.TotalSpp != 100 || cfg.Render.MaxRenderTimeMs != 30000 {
		t.Errorf("Unexpected experiment defaults %+v %+v", cfg.Sampler, cfg.Render)
	}
	if cfg.Render.MinDepth != 1 || cfg.Render.MaxDepth != 5 || cfg.Render.NumShadowRays != 1 {
		t.Errorf("Unexpected path defaults %+v", cfg.Render)
	}
	if cfg.Environment.Sky.SunEmission != [3]float64{400, 380, 340} {
		t.Errorf("Unexpected sun emission %v", cfg.Environment.Sky.SunEmission)
	}
	expected := []string{"PT", "AdaptiveSampler-ES", "AdaptiveSampler-EE", "AdaptiveSampler-AD"}
	if !reflect.DeepEqual(cfg.Methods, expected) {
		t.Errorf("Expected methods %v, got %v", expected, cfg.Methods)
	}
}

func TestLoad_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.yaml")
	user := `
render:
  width: 64
  total_spp: 8
scene:
  name: default
methods: [AdaptiveSampler-EE]
`
	if err := os.WriteFile(path, []byte(user), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Render.Width != 64 || cfg.Render.TotalSpp != 8 {
		t.Errorf("Expected overridden render settings, got %+v", cfg.Render)
	}
	if cfg.Render.Height != 240 || cfg.Sampler.GridX != 100 {
		t.Errorf("Expected untouched fields to keep defaults, got %+v", cfg.Render)
	}
	if cfg.Scene.Name != "default" {
		t.Errorf("Expected scene default, got %q", cfg.Scene.Name)
	}
	if !reflect.DeepEqual(cfg.Methods, []string{"AdaptiveSampler-EE"}) {
		t.Errorf("Expected the user method list to replace the defaults, got %v", cfg.Methods)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(broken, []byte("render: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.yaml"), broken} {
		if cfg, err := Load(path); err == nil || cfg != nil {
			t.Errorf("Expected an error loading %s", path)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero width", func(c *Config) { c.Render.Width = 0 }},
		{"zero spp", func(c *Config) { c.Render.TotalSpp = 0 }},
		{"negative budget", func(c *Config) { c.Render.MaxRenderTimeMs = -1 }},
		{"min above max depth", func(c *Config) { c.Render.MinDepth = 9 }},
		{"empty tile grid", func(c *Config) { c.Sampler.EnvironmentY = 0 }},
		{"empty light grid", func(c *Config) { c.Sampler.GridX = 0 }},
		{"negative learning rays", func(c *Config) { c.Sampler.LearningRays = -5 }},
		{"zero scale", func(c *Config) { c.Environment.Scale = 0 }},
		{"sky without size", func(c *Config) { c.Environment.Width = 0 }},
		{"no scene", func(c *Config) { c.Scene.Name = "" }},
		{"no methods", func(c *Config) { c.Methods = nil }},
		{"unknown method", func(c *Config) { c.Methods = []string{"BDPT"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		name     string
		expected Method
		wantErr  bool
	}{
		{"PT", Method{Name: "PT"}, false},
		{"AdaptiveSampler-ES", Method{Name: "AdaptiveSampler-ES", Adaptive: true, Tiler: tiling.EqualSize}, false},
		{"AdaptiveSampler-EE", Method{Name: "AdaptiveSampler-EE", Adaptive: true, Tiler: tiling.EqualEnergy}, false},
		{"AdaptiveSampler-AD", Method{Name: "AdaptiveSampler-AD", Adaptive: true, Tiler: tiling.Adaptive}, false},
		{"AdaptiveSampler-XX", Method{}, true},
		{"pt", Method{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMethod(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMethod(%q) error = %v, wantErr %t", tt.name, err, tt.wantErr)
			}
			if m != tt.expected {
				t.Errorf("ParseMethod(%q) = %+v, want %+v", tt.name, m, tt.expected)
			}
		})
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Render.Width = 77
	path := filepath.Join(t.TempDir(), "effective.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, reloaded) {
		t.Errorf("Expected the written config to load back unchanged:\n%+v\n%+v", cfg, reloaded)
	}
}
