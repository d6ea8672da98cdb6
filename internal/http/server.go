// Package http exposes the resolution API, health endpoints and Prometheus
// metrics.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tracksnag/internal/core"
)

// Resolver is the subset of the resolution coordinator the API needs.
type Resolver interface {
	ResolveLink(ctx context.Context, rawURL string) (*core.FetchResult, error)
}

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
}

type Metrics struct {
	registry        *prometheus.Registry
	ResolvesTotal   *prometheus.CounterVec
	FetchAttempts   prometheus.Histogram
	ResolveDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		ResolvesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracksnag_resolves_total",
				Help: "Total number of resolution requests by outcome",
			},
			[]string{"status"},
		),
		FetchAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tracksnag_fetch_attempts",
				Help:    "Number of fetch attempts per completed resolution",
				Buckets: []float64{1, 2, 3, 5, 8, 13},
			},
		),
		ResolveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tracksnag_resolve_duration_seconds",
				Help:    "Time spent resolving one link end to end",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	metrics.registry.MustRegister(
		metrics.ResolvesTotal,
		metrics.FetchAttempts,
		metrics.ResolveDuration,
	)

	return metrics
}

func NewServer(config *core.ServerConfig, resolver Resolver, history core.HistoryStore, logger *zap.Logger) *Server {
	metrics := newMetrics()
	mux := setupRoutes(resolver, history, metrics, logger)

	return &Server{
		config:  config,
		logger:  logger,
		server:  createHTTPServer(config, mux),
		metrics: metrics,
	}
}

func createHTTPServer(config *core.ServerConfig, mux http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func setupRoutes(resolver Resolver, history core.HistoryStore, metrics *Metrics, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "tracksnag"})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "service": "tracksnag"})
	})

	mux.Handle("/metrics", promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/resolve", &resolveHandler{
		resolver: resolver,
		metrics:  metrics,
		logger:   logger,
	})

	mux.Handle("/api/history", &historyHandler{
		history: history,
		logger:  logger,
	})

	return mux
}

type resolveRequest struct {
	URL string `json:"url"`
}

type resolveResponse struct {
	Status   string `json:"status"`
	Path     string `json:"path,omitempty"`
	Title    string `json:"title,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
	Error    string `json:"error,omitempty"`
	Kind     string `json:"kind,omitempty"`
}

type resolveHandler struct {
	resolver Resolver
	metrics  *Metrics
	logger   *zap.Logger
}

func (h *resolveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, resolveResponse{Status: "error", Error: "method not allowed"})
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, resolveResponse{Status: "error", Error: "body must be a JSON object with a non-empty url"})
		return
	}

	start := time.Now()
	result, err := h.resolver.ResolveLink(r.Context(), req.URL)
	h.metrics.ResolveDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		kind := core.FailureKind(err)
		h.metrics.ResolvesTotal.WithLabelValues(kind).Inc()
		h.logger.Warn("Resolution failed",
			zap.String("url", req.URL),
			zap.String("kind", kind),
			zap.Error(err))
		writeJSON(w, statusForError(err), resolveResponse{
			Status: "error",
			Error:  err.Error(),
			Kind:   kind,
		})
		return
	}

	h.metrics.ResolvesTotal.WithLabelValues(core.StatusCompleted).Inc()
	h.metrics.FetchAttempts.Observe(float64(result.Attempts))

	writeJSON(w, http.StatusOK, resolveResponse{
		Status:   core.StatusCompleted,
		Path:     result.Artifact.Path,
		Title:    result.Artifact.Title,
		Attempts: result.Attempts,
	})
}

// statusForError maps the failure taxonomy onto HTTP statuses. Bad input is
// the caller's fault; missing or unfetchable tracks are upstream conditions.
func statusForError(err error) int {
	var exhausted *core.ExhaustedError
	switch {
	case errors.Is(err, core.ErrInvalidMetadata), errors.Is(err, core.ErrUnsupportedLink):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNoCandidates):
		return http.StatusNotFound
	case errors.As(err, &exhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

type historyHandler struct {
	history core.HistoryStore
	logger  *zap.Logger
}

type historyEntryResponse struct {
	TrackID      string `json:"track_id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Status       string `json:"status"`
	ArtifactPath string `json:"artifact_path,omitempty"`
	FailureKind  string `json:"failure_kind,omitempty"`
	Attempts     int    `json:"attempts"`
	CreatedAt    int64  `json:"created_at"`
}

func (h *historyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	entries, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("History query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}

	response := make([]historyEntryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, historyEntryResponse{
			TrackID:      entry.TrackID,
			Title:        entry.Title,
			Artist:       entry.Artist,
			Status:       entry.Status,
			ArtifactPath: entry.ArtifactPath,
			FailureKind:  entry.FailureKind,
			Attempts:     entry.Attempts,
			CreatedAt:    entry.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) GetMetrics() *Metrics {
	return s.metrics
}
