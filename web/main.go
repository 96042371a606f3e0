package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/df07/go-adaptive-ibl/pkg/config"
	"github.com/df07/go-adaptive-ibl/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	configPath := flag.String("config", "", "YAML config file overlaid on the defaults")
	envDir := flag.String("env-dir", "assets", "Directory listed for environment maps")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}

	webServer := server.NewServer(*port, cfg, *envDir, logger)
	logger.Info("adaptive environment sampling web server", "port", *port)

	if err := webServer.Start(); err != nil {
		logger.Error("starting server", "error", err)
		os.Exit(1)
	}
}
