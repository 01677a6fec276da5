// Package server exposes the comparison pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vidrank/vidrank/internal/acquire"
	"github.com/vidrank/vidrank/internal/pipeline"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Server wires the HTTP surface to the pipeline.
type Server struct {
	port           int
	scratchDir     string
	downloader     *acquire.Downloader
	orchestrator   *pipeline.Orchestrator
	requestTimeout time.Duration
	logger         *zerolog.Logger
}

// Config holds the server wiring.
type Config struct {
	Port           int
	ScratchDir     string
	RequestTimeout time.Duration
}

// New creates a Server.
func New(cfg Config, downloader *acquire.Downloader, orchestrator *pipeline.Orchestrator, logger *zerolog.Logger) *Server {
	return &Server{
		port:           cfg.Port,
		scratchDir:     cfg.ScratchDir,
		downloader:     downloader,
		orchestrator:   orchestrator,
		requestTimeout: cfg.RequestTimeout,
		logger:         logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /compare_videos/", s.handleCompareUploads)
	mux.HandleFunc("POST /compare_videos_urls", s.handleCompareURLs)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "OK")
	})

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)

		defer cancel()

		//nolint:errcheck,contextcheck // shutdown in signal handler is best-effort, non-inherited context intentional
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.port).Msg("server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// requestContext applies the optional whole-request bound. Zero preserves
// the unbounded behavior: a hung item stalls only its own request.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.requestTimeout > 0 {
		return context.WithTimeout(r.Context(), s.requestTimeout)
	}

	return r.Context(), func() {}
}
