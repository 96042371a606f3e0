package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/df07/go-adaptive-ibl/pkg/config"
	"github.com/df07/go-adaptive-ibl/pkg/experiment"
	"github.com/df07/go-adaptive-ibl/pkg/scene"
)

// options holds the command line; zero values leave the config untouched
type options struct {
	configPath string
	scene      string
	width      int
	height     int
	spp        int
	timeMs     int
	methods    string
	output     string
	env        string
	workers    int
	seed       uint64
	logLevel   string
	logJSON    bool
	list       bool
	help       bool

	set map[string]bool // Flags given explicitly
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("adaptive-ibl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "YAML config file overlaid on the defaults")
	fs.StringVar(&opts.scene, "scene", "", "Scene name (see -list)")
	fs.IntVar(&opts.width, "width", 0, "Image width in pixels")
	fs.IntVar(&opts.height, "height", 0, "Image height in pixels")
	fs.IntVar(&opts.spp, "spp", 0, "Maximum samples per pixel")
	fs.IntVar(&opts.timeMs, "time", 0, "Render time budget in milliseconds, 0 disables it")
	fs.StringVar(&opts.methods, "methods", "", "Comma separated methods, e.g. PT,AdaptiveSampler-AD")
	fs.StringVar(&opts.output, "output", "", "Output directory")
	fs.StringVar(&opts.env, "env", "", "Environment map file (PNG, JPEG, TIFF or BMP)")
	fs.IntVar(&opts.workers, "workers", 0, "Worker goroutines, 0 uses all CPUs")
	fs.Uint64Var(&opts.seed, "seed", 0, "Random seed")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	fs.BoolVar(&opts.logJSON, "log-json", false, "Log as JSON")
	fs.BoolVar(&opts.list, "list", false, "List scenes and environment maps, then exit")
	fs.BoolVar(&opts.help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, fs, nil
}

// applyOverrides copies every explicitly given flag into cfg
func applyOverrides(cfg *config.Config, opts *options) {
	if opts.set["scene"] {
		cfg.Scene.Name = opts.scene
	}
	if opts.set["width"] {
		cfg.Render.Width = opts.width
	}
	if opts.set["height"] {
		cfg.Render.Height = opts.height
	}
	if opts.set["spp"] {
		cfg.Render.TotalSpp = opts.spp
	}
	if opts.set["time"] {
		cfg.Render.MaxRenderTimeMs = opts.timeMs
	}
	if opts.set["methods"] {
		cfg.Methods = nil
		for _, m := range strings.Split(opts.methods, ",") {
			if m = strings.TrimSpace(m); m != "" {
				cfg.Methods = append(cfg.Methods, m)
			}
		}
	}
	if opts.set["output"] {
		cfg.Output.Dir = opts.output
	}
	if opts.set["env"] {
		cfg.Environment.File = opts.env
	}
	if opts.set["workers"] {
		cfg.Render.Workers = opts.workers
	}
	if opts.set["seed"] {
		cfg.Render.Seed = opts.seed
	}
}

func newLogger(w io.Writer, level string, asJSON bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}

func printHelp(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Adaptive Environment Map Sampling")
	fmt.Fprintln(w, "Usage: adaptive-ibl [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Methods:")
	fmt.Fprintln(w, "  PT                  - path tracing with whole-map environment sampling")
	fmt.Fprintln(w, "  AdaptiveSampler-ES  - learned sampling over equal-size tiles")
	fmt.Fprintln(w, "  AdaptiveSampler-EE  - learned sampling over equal-energy tiles")
	fmt.Fprintln(w, "  AdaptiveSampler-AD  - learned sampling over adaptive tiles")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output is written to <output>/<method>.png with CSV statistics alongside.")
}

func printList(w io.Writer, envDir string) error {
	groups, err := scene.ListAll(envDir)
	if err != nil {
		return err
	}
	for _, group := range groups {
		fmt.Fprintf(w, "%s:\n", group.Name)
		if len(group.Entries) == 0 {
			fmt.Fprintln(w, "  (none)")
		}
		for _, entry := range group.Entries {
			fmt.Fprintf(w, "  %-20s %s\n", entry.ID, entry.Description)
		}
	}
	return nil
}

// run is main without the process exit, returning the exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.help {
		printHelp(stdout, fs)
		return 0
	}
	if opts.list {
		if err := printList(stdout, "assets"); err != nil {
			fmt.Fprintf(stderr, "Error listing scenes: %v\n", err)
			return 1
		}
		return 0
	}

	logger, err := newLogger(stderr, opts.logLevel, opts.logJSON)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logger.Error("loading config", "error", err)
		return 1
	}
	applyOverrides(cfg, opts)

	runner, err := experiment.NewRunner(cfg, logger)
	if err != nil {
		logger.Error("preparing experiment", "error", err)
		return 1
	}

	results, err := runner.Run(ctx)
	if err != nil {
		logger.Error("experiment failed", "error", err)
		return 1
	}

	for _, res := range results {
		fmt.Fprintf(stdout, "%-20s spp=%-5d render=%7.0fms learn=%7.0fms relMSE=%.5f\n",
			res.Method.Name, res.Stats.Iterations, res.Stats.RenderTimeMs, res.Stats.LearningTimeMs, res.RelMSE)
	}
	if cfg.Output.Dir != "" {
		fmt.Fprintf(stdout, "Results saved to %s\n", cfg.Output.Dir)
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
