// Package server exposes the latest pipeline run over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"churn-feature-lab/internal/observability"
	"churn-feature-lab/internal/orchestrator"
)

// ErrRunInProgress is returned when a run is requested while another is executing.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) (*orchestrator.RunResult, error)
}

// Options for creating Server.
type Options struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics

	// Gatherer backs /metrics; nil uses the default Prometheus gatherer.
	Gatherer prometheus.Gatherer
}

// Server serves churn tables and data quality warnings of the latest run.
type Server struct {
	runner  Runner
	logger  *slog.Logger
	metrics *observability.Metrics
	router  chi.Router

	runMu sync.Mutex // held for the duration of a run

	mu     sync.RWMutex
	latest *orchestrator.RunResult
}

// New creates a server. Call TriggerRun (or POST /api/v1/runs) to
// populate it before the data endpoints return results.
func New(runner Runner, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		runner:  runner,
		logger:  logger.With("component", "server"),
		metrics: opts.Metrics,
	}

	metricsHandler := observability.Handler()
	if opts.Gatherer != nil {
		metricsHandler = observability.HandlerFor(opts.Gatherer)
	}
	s.router = s.routes(metricsHandler)
	return s
}

func (s *Server) routes(metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" not allowed on "+r.URL.Path)
	})

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/churn", s.handleListTables)
		r.Get("/churn/{attribute}", s.handleGetTable)
		r.Get("/quality", s.handleQuality)
		r.Post("/runs", s.handleCreateRun)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// TriggerRun executes a pipeline run and makes it the latest on success.
// Returns ErrRunInProgress without waiting if a run is executing.
func (s *Server) TriggerRun(ctx context.Context) (*orchestrator.RunResult, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	result, err := s.runner.Run(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()
	return result, nil
}

// Latest returns the latest successful run, or nil.
func (s *Server) Latest() *orchestrator.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// instrument counts requests by route pattern and status.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordHTTPRequest(route, status)
		s.logger.Debug("http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
