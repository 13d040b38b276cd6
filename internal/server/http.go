package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/melsuly/Audio-File-Tools-Bot/internal/metrics"
)

// StatsProvider supplies a snapshot of bot request counters
type StatsProvider interface {
	Statistics() Statistics
}

// Statistics is a point-in-time view of bot activity
type Statistics struct {
	UpdatesReceived   uint64 `json:"updates_received"`
	AudioRequests     uint64 `json:"audio_requests"`
	RequestsSucceeded uint64 `json:"requests_succeeded"`
	RequestsFailed    uint64 `json:"requests_failed"`
}

// HTTPServer provides HTTP endpoints for monitoring
type HTTPServer struct {
	server    *http.Server
	logger    *slog.Logger
	stats     StatsProvider
	metrics   *metrics.Metrics
	startTime time.Time
}

// HTTPServerConfig contains HTTP server configuration
type HTTPServerConfig struct {
	Port    int
	Address string
	Enabled bool
}

// NewHTTPServer creates a new monitoring HTTP server
func NewHTTPServer(cfg HTTPServerConfig, logger *slog.Logger, stats StatsProvider, m *metrics.Metrics) *HTTPServer {
	h := &HTTPServer{
		logger:    logger,
		stats:     stats,
		metrics:   m,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.withMetrics("/healthz", h.handleHealth))
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))
	mux.Handle("/metrics", promhttp.Handler())
}

// withMetrics wraps an HTTP handler with request counting
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(ww, r)
		h.metrics.RecordHTTPRequest(r.Method, endpoint, strconv.Itoa(ww.statusCode))
	}
}

// handleHealth reports process liveness and uptime
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleStats reports the bot's request counters
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.stats.Statistics())
}

// writeJSON serializes a response body with the proper content type
func (h *HTTPServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode HTTP response", slog.String("error", err.Error()))
	}
}

// Start begins serving in a background goroutine
func (h *HTTPServer) Start() error {
	h.logger.Info("Monitoring HTTP server starting", slog.String("address", h.server.Addr))

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("Monitoring HTTP server failed", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop shuts the server down gracefully within the context deadline
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Monitoring HTTP server stopping")
	return h.server.Shutdown(ctx)
}

// responseWriter captures the status code written by a handler
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
