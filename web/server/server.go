// Package server exposes the renderer over HTTP: progressive renders streamed
// as server-sent events, scene listings and light grid inspection.
package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-adaptive-ibl/pkg/config"
	"github.com/df07/go-adaptive-ibl/pkg/scene"
)

// Server handles web requests for the renderer
type Server struct {
	port   int
	envDir string         // Directory searched for environment maps
	base   *config.Config // Settings requests start from
	logger *slog.Logger
}

// NewServer creates a new web server. Requests override base per render.
func NewServer(port int, base *config.Config, envDir string, logger *slog.Logger) *Server {
	return &Server{port: port, envDir: envDir, base: base, logger: logger}
}

// RenderRequest represents a render or inspect request from the client
type RenderRequest struct {
	Scene        string `json:"scene"`        // Scene name, e.g. "courtyard"
	Method       string `json:"method"`       // e.g. "AdaptiveSampler-AD"
	Environment  string `json:"environment"`  // Map file from the scene listing, empty for the sky
	Width        int    `json:"width"`        // Image width
	Height       int    `json:"height"`       // Image height
	Spp          int    `json:"spp"`          // Maximum samples per pixel
	TimeMs       int    `json:"timeMs"`       // Time budget, 0 disables it
	LearningRays int    `json:"learningRays"` // Pilot paths for learned methods
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting web server", "url", "http://localhost"+addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes and the environment maps on disk
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	groups, err := scene.ListAll(s.envDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// parseRequest reads the parameters shared by render and inspect
func (s *Server) parseRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{
		Scene:       query.Get("scene"),
		Method:      query.Get("method"),
		Environment: query.Get("environment"),
	}
	if req.Scene == "" {
		req.Scene = s.base.Scene.Name
	}
	if req.Method == "" {
		req.Method = "AdaptiveSampler-AD"
	}
	if _, err := config.ParseMethod(req.Method); err != nil {
		return nil, err
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", s.base.Render.Width, 8, 2000); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", s.base.Render.Height, 8, 2000); err != nil {
		return nil, err
	}
	if req.Spp, err = parseIntParam(query, "spp", s.base.Render.TotalSpp, 1, 10000); err != nil {
		return nil, err
	}
	if req.TimeMs, err = parseIntParam(query, "timeMs", s.base.Render.MaxRenderTimeMs, 0, 600000); err != nil {
		return nil, err
	}
	if req.LearningRays, err = parseIntParam(query, "learningRays", s.base.Sampler.LearningRays, 0, 100000000); err != nil {
		return nil, err
	}

	if req.Width*req.Height > 800*600 && req.Spp > 100 {
		s.logger.Warn("large image with high samples may render slowly", "width", req.Width, "height", req.Height, "spp", req.Spp)
	}
	return req, nil
}

// configFor copies the base settings and applies the request. Nothing is written to disk.
func (s *Server) configFor(req *RenderRequest) *config.Config {
	cfg := *s.base
	cfg.Scene.Name = req.Scene
	cfg.Methods = []string{req.Method}
	cfg.Render.Width = req.Width
	cfg.Render.Height = req.Height
	cfg.Render.TotalSpp = req.Spp
	cfg.Render.MaxRenderTimeMs = req.TimeMs
	cfg.Render.ReferenceSpp = 0
	cfg.Sampler.LearningRays = req.LearningRays
	if req.Environment != "" {
		cfg.Environment.File = req.Environment
	}
	cfg.Output = config.OutputConfig{}
	return &cfg
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
