package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-adaptive-ibl/pkg/config"
)

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "no flags keep defaults",
			args: nil,
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Render.Width != 320 || cfg.Scene.Name != "courtyard" || len(cfg.Methods) != 4 {
					t.Errorf("Defaults changed: %+v", cfg.Render)
				}
			},
		},
		{
			name: "render settings",
			args: []string{"-width", "64", "-height", "48", "-spp", "8", "-time", "0", "-workers", "3", "-seed", "42"},
			check: func(t *testing.T, cfg *config.Config) {
				r := cfg.Render
				if r.Width != 64 || r.Height != 48 || r.TotalSpp != 8 || r.MaxRenderTimeMs != 0 || r.Workers != 3 || r.Seed != 42 {
					t.Errorf("Unexpected render config %+v", r)
				}
			},
		},
		{
			name: "methods list",
			args: []string{"-methods", " PT, AdaptiveSampler-AD ,"},
			check: func(t *testing.T, cfg *config.Config) {
				if len(cfg.Methods) != 2 || cfg.Methods[0] != "PT" || cfg.Methods[1] != "AdaptiveSampler-AD" {
					t.Errorf("Unexpected methods %q", cfg.Methods)
				}
			},
		},
		{
			name: "scene output and map",
			args: []string{"-scene", "default", "-output", "results", "-env", "sky.png"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Scene.Name != "default" || cfg.Output.Dir != "results" || cfg.Environment.File != "sky.png" {
					t.Errorf("Unexpected config %+v %+v %+v", cfg.Scene, cfg.Output, cfg.Environment)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, _, err := parseFlags(tt.args, &bytes.Buffer{})
			if err != nil {
				t.Fatal(err)
			}
			cfg, err := config.Load("")
			if err != nil {
				t.Fatal(err)
			}
			applyOverrides(cfg, opts)
			tt.check(t, cfg)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn", false)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "key", 1)
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") {
		t.Errorf("Unexpected text log output %q", out)
	}

	buf.Reset()
	logger, err = newLogger(&buf, "debug", true)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("event")
	if !strings.Contains(buf.String(), `"msg":"event"`) {
		t.Errorf("Expected JSON output, got %q", buf.String())
	}

	if _, err := newLogger(&buf, "loud", false); err == nil {
		t.Error("Expected an error for an unknown level")
	}
}

func TestRun_Flags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"help", []string{"-help"}, 0, "AdaptiveSampler-AD"},
		{"list", []string{"-list"}, 0, "courtyard"},
		{"unknown flag", []string{"-bogus"}, 2, ""},
		{"bad log level", []string{"-log-level", "loud"}, 2, ""},
		{"missing config", []string{"-config", "does-not-exist.yaml"}, 1, ""},
		{"unknown scene", []string{"-scene", "cathedral"}, 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			if code != tt.wantCode {
				t.Errorf("Expected exit code %d, got %d (stderr %q)", tt.wantCode, code, stderr.String())
			}
			if !strings.Contains(stdout.String(), tt.wantOut) {
				t.Errorf("Expected %q in output, got %q", tt.wantOut, stdout.String())
			}
		})
	}
}

func TestRun_Experiment(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "small.yaml")
	small := `render:
  reference_spp: 0
sampler:
  environment_x: 8
  environment_y: 4
  grid_x: 2
  grid_y: 2
  learning_rays: 500
environment:
  width: 64
  height: 32
`
	if err := os.WriteFile(configPath, []byte(small), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "out")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-config", configPath,
		"-scene", "default",
		"-width", "12", "-height", "8", "-spp", "1", "-time", "0",
		"-methods", "PT,AdaptiveSampler-AD",
		"-output", output,
		"-log-level", "error",
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("Expected success, got %d: %s", code, stderr.String())
	}

	for _, want := range []string{"PT", "AdaptiveSampler-AD", "Results saved to"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("Expected %q in output %q", want, stdout.String())
		}
	}
	for _, name := range []string{"pt.png", "adaptivesampler-ad.png", "summary.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(output, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}
}
