package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warn", "error"
}

// ConsoleHandler is a slog.Handler that forwards records to a console
// channel and to the server log
type ConsoleHandler struct {
	renderID    string
	level       slog.Leveler
	attrs       []slog.Attr
	consoleChan chan<- ConsoleMessage
	next        slog.Handler // Server log, may be nil
}

// NewConsoleHandler creates a handler for a specific render
func NewConsoleHandler(renderID string, level slog.Leveler, consoleChan chan<- ConsoleMessage, next slog.Handler) *ConsoleHandler {
	return &ConsoleHandler{
		renderID:    renderID,
		level:       level,
		consoleChan: consoleChan,
		next:        next,
	}
}

// Enabled implements slog.Handler
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler
func (h *ConsoleHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.next != nil && h.next.Enabled(ctx, record.Level) {
		forwarded := record.Clone()
		forwarded.AddAttrs(slog.String("render", h.renderID))
		forwarded.AddAttrs(h.attrs...)
		if err := h.next.Handle(ctx, forwarded); err != nil {
			return err
		}
	}

	var b strings.Builder
	b.WriteString(record.Message)
	writeAttr := func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	record.Attrs(writeAttr)

	// Non-blocking: a slow client loses messages rather than stalling the render
	select {
	case h.consoleChan <- ConsoleMessage{
		Message:   b.String(),
		Timestamp: record.Time,
		Level:     strings.ToLower(record.Level.String()),
	}:
	default:
	}
	return nil
}

// WithAttrs implements slog.Handler
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler; console lines are flat so groups are dropped
func (h *ConsoleHandler) WithGroup(string) slog.Handler {
	return h
}
