// Package server exposes the conversion service over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/pspoerri/tra2kml/internal/config"
	"github.com/pspoerri/tra2kml/internal/convert"
	"github.com/pspoerri/tra2kml/internal/logging"
	"github.com/pspoerri/tra2kml/internal/metrics"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	svc           *convert.Service
	logger        *slog.Logger
	defaultSystem string
	maxBodyBytes  int64
}

// New creates a server. defaultSystem is used when a request names none.
func New(svc *convert.Service, logger *slog.Logger, defaultSystem string, maxBodyBytes int64) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 32 << 20
	}
	return &Server{svc: svc, logger: logger, defaultSystem: defaultSystem, maxBodyBytes: maxBodyBytes}
}

// Routes returns the request router.
func (s *Server) Routes() http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		s.logger.Error("handler panic", "path", r.URL.Path, "panic", v)
		s.writeError(w, r, http.StatusInternalServerError, "internal server error")
	}

	s.handle(router, http.MethodGet, "/healthz", s.healthHandler)
	s.handle(router, http.MethodGet, "/api/systems", s.systemsHandler)
	s.handle(router, http.MethodPost, "/api/transform", s.transformHandler)
	s.handle(router, http.MethodPost, "/api/tracks", s.tracksHandler)
	s.handle(router, http.MethodPost, "/api/export/single", s.exportSingleHandler)
	s.handle(router, http.MethodPost, "/api/export/batch", s.exportBatchHandler)
	s.handle(router, http.MethodPost, "/api/preview", s.previewHandler)
	router.Handler(http.MethodGet, "/metrics", metrics.Handler())

	return router
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handle(router *httprouter.Router, method, path string, h http.HandlerFunc) {
	router.Handler(method, path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r = r.WithContext(logging.WithLogger(r.Context(), s.logger))

		h(rec, r)

		elapsed := time.Since(start)
		metrics.ObserveHTTP(method, path, rec.status, elapsed)
		logging.LogHTTPRequest(s.logger, method, path, rec.status, float64(elapsed.Microseconds())/1000)
	}))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  cfg.ReadTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
