// Package http exposes the catalog, resolver and playback operations over a
// JSON HTTP API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hamusic/internal/catalog"
	"hamusic/internal/core"
	"hamusic/internal/importer"
	"hamusic/internal/player"
	"hamusic/internal/youtube"
)

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
}

type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RecordsSkipped  prometheus.Counter
	ImportsSkipped  prometheus.Counter
}

func newMetrics() *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hamusic_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hamusic_request_duration_seconds",
				Help:    "Time spent handling HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RecordsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hamusic_records_skipped_total",
				Help: "Total number of artist records dropped from list and search responses",
			},
		),
		ImportsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hamusic_imports_skipped_total",
				Help: "Total number of bulk import entries skipped",
			},
		),
	}

	metrics.registry.MustRegister(
		metrics.RequestsTotal,
		metrics.RequestDuration,
		metrics.RecordsSkipped,
		metrics.ImportsSkipped,
	)
	return metrics
}

func NewServer(
	config *core.ServerConfig,
	repo *catalog.Repository,
	yt *youtube.Client,
	dispatcher *player.Dispatcher,
	imp *importer.Importer,
	logger *zap.Logger,
) *Server {
	metrics := newMetrics()

	h := &handlers{
		repo:       repo,
		youtube:    yt,
		dispatcher: dispatcher,
		importer:   imp,
		metrics:    metrics,
		logger:     logger,
	}
	mux := newMux(config.BasePath, h, metrics)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      cors(instrument(metrics, mux)),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return &Server{
		config:  config,
		logger:  logger,
		server:  server,
		metrics: metrics,
	}
}

func newMux(basePath string, h *handlers, metrics *Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+basePath+"/artists", h.listArtists)
	mux.HandleFunc("GET "+basePath+"/artists/search", h.searchArtists)
	mux.HandleFunc("POST "+basePath+"/artists", h.addArtist)
	mux.HandleFunc("PUT "+basePath+"/artists/{id}", h.editArtist)
	mux.HandleFunc("DELETE "+basePath+"/artists/{id}", h.deleteArtist)
	mux.HandleFunc("POST "+basePath+"/artists/{id}/play", h.playArtist)
	mux.HandleFunc("POST "+basePath+"/artists/bulk", h.bulkAddArtists)
	mux.HandleFunc("GET "+basePath+"/youtube/search", h.youtubeSearch)
	mux.HandleFunc("GET "+basePath+"/youtube/video", h.youtubeVideo)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"hamusic"}`))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready","service":"hamusic"}`))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{}))

	return mux
}

// cors allows the web UI (served from another origin during development) to
// call the API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func instrument(metrics *Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		metrics.RequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(recorder.status)).Inc()
		metrics.RequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
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

// Handler returns the fully wrapped handler. Tests serve it via httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
