// Package server exposes the operational HTTP surface of the storage
// service: liveness and readiness probes. The auth API itself is served by
// the consuming service, not here.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MKhiriev/go-auth-storage/internal/config"
	"github.com/MKhiriev/go-auth-storage/internal/logger"
)

// HealthChecker is the slice of the storage contract the readiness probe
// needs. Any store.Storage satisfies it.
type HealthChecker interface {
	Validate(ctx context.Context) error
}

// Server wraps the health HTTP server.
type Server struct {
	http   *http.Server
	logger *logger.Logger
}

// New builds the health router and the listener around it.
//
// Routes:
//   - GET /health/live  — always 200 while the process runs.
//   - GET /health/ready — 200 when the storage schema validates, 503 with
//     the failure reason otherwise.
func New(cfg config.Server, checker HealthChecker, log *logger.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(withLogger(log))

	router.Get("/health/live", handleLive)
	router.Get("/health/ready", handleReady(checker))

	return &Server{
		http: &http.Server{
			Addr:              cfg.HTTPAddress,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log,
	}
}

// Run starts serving and blocks until Shutdown is called or the listener
// fails. A graceful shutdown is not reported as an error.
func (s *Server) Run() error {
	s.logger.Info().Str("addr", s.http.Addr).Msg("health server listening")

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests
// within the bounds of ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// withLogger attaches the base logger to every request context so handlers
// can recover it with logger.FromContext.
func withLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(log.WithContext(r.Context())))
		})
	}
}

func handleLive(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		if err := checker.Validate(r.Context()); err != nil {
			log.Err(err).Msg("readiness check failed")
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}
