package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/df07/go-adaptive-ibl/pkg/experiment"
	"github.com/df07/go-adaptive-ibl/pkg/renderer"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "progress", "result", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// ProgressUpdate represents a single progressive update sent via SSE
type ProgressUpdate struct {
	Method      string `json:"method"`
	PassNumber  int    `json:"passNumber"`
	TotalPasses int    `json:"totalPasses"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG
	Discarded   int    `json:"discarded"`
	ElapsedMs   int64  `json:"elapsedMs"`
}

// ResultUpdate is sent once the render has finished
type ResultUpdate struct {
	Method          string  `json:"method"`
	Iterations      int     `json:"iterations"`
	TotalSamples    int     `json:"totalSamples"`
	RenderTimeMs    float64 `json:"renderTimeMs"`
	LearningTimeMs  float64 `json:"learningTimeMs"`
	Pilots          int     `json:"pilots"`
	Recorded        int64   `json:"recorded"`
	Tiles           int     `json:"tiles"`
	BudgetExhausted bool    `json:"budgetExhausted"`
	MeanLuminance   float64 `json:"meanLuminance"`
	PrimitiveCount  int     `json:"primitiveCount"`
}

// handleRender runs one method and streams every iteration via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	ctx := r.Context()

	// Create unified SSE event channel for thread-safe writing
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(ctx, w, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := s.parseRequest(r)
	if err != nil {
		s.sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Console logging is streamed alongside the render
	consoleChan := make(chan ConsoleMessage, 50)
	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	logger := slog.New(NewConsoleHandler(renderID, slog.LevelInfo, consoleChan, s.logger.Handler()))

	err = s.runRender(ctx, req, logger, sseEventChan)
	close(consoleChan)
	<-streamDone

	if err != nil {
		s.sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Rendering failed: %v", err))
		return
	}
	s.sendEvent(ctx, sseEventChan, "complete", "Rendering completed")
}

func (s *Server) runRender(ctx context.Context, req *RenderRequest, logger *slog.Logger, sseEventChan chan<- SSEEvent) error {
	runner, err := experiment.NewRunner(s.configFor(req), logger)
	if err != nil {
		return err
	}

	startTime := time.Now()
	runner.SetProgress(func(method string, pass renderer.PassResult) error {
		imageData, err := imageToBase64PNG(pass.Image)
		if err != nil {
			return fmt.Errorf("failed to encode image: %w", err)
		}
		return s.sendJSON(ctx, sseEventChan, "progress", ProgressUpdate{
			Method:      method,
			PassNumber:  pass.PassNumber,
			TotalPasses: req.Spp,
			ImageData:   imageData,
			Discarded:   pass.Stats.Discarded,
			ElapsedMs:   time.Since(startTime).Milliseconds(),
		})
	})

	results, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	for _, res := range results {
		update := ResultUpdate{
			Method:          res.Method.Name,
			Iterations:      res.Stats.Iterations,
			TotalSamples:    res.Stats.TotalSamples,
			RenderTimeMs:    res.Stats.RenderTimeMs,
			LearningTimeMs:  res.Stats.LearningTimeMs,
			Pilots:          res.Learn.Pilots,
			Recorded:        res.Learn.Recorded,
			Tiles:           res.Tiles,
			BudgetExhausted: res.Stats.BudgetExhausted,
			MeanLuminance:   res.MeanLuminance,
			PrimitiveCount:  runner.Scene().GetPrimitiveCount(),
		}
		if err := s.sendJSON(ctx, sseEventChan, "result", update); err != nil {
			return err
		}
	}
	return nil
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents writes all SSE events from a single goroutine until the
// channel is closed. After a disconnect it keeps draining so senders never block.
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, sseEventChan <-chan SSEEvent) {
	connected := true
	for event := range sseEventChan {
		if !connected || ctx.Err() != nil {
			connected = false
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			connected = false
			continue
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

// streamConsoleMessages forwards console messages until consoleChan is closed
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for consoleMsg := range consoleChan {
		data, err := json.Marshal(consoleMsg)
		if err != nil {
			s.logger.Error("marshaling console message", "error", err)
			continue
		}
		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		default:
			// Channel full, skip message to avoid blocking
		}
	}
}

func (s *Server) sendJSON(ctx context.Context, sseEventChan chan<- SSEEvent, eventType string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.sendEvent(ctx, sseEventChan, eventType, string(data))
}

// sendEvent queues an event, giving up when the client has gone away
func (s *Server) sendEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType, data string) error {
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
