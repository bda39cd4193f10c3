// Package server exposes the metrics and health endpoints of a running
// watcher.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ginjaninja78/csv-file-validator/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// StatusFunc reports the state shown by /healthz.
type StatusFunc func() map[string]any

// Server serves /metrics and /healthz.
type Server struct {
	addr   string
	router chi.Router
	server *http.Server
	logger zerolog.Logger
}

// New builds the router. status may be nil.
func New(addr string, g prometheus.Gatherer, status StatusFunc, logger zerolog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", metrics.Handler(g))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{"status": "ok"}
		if status != nil {
			for k, v := range status() {
				body[k] = v
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	})

	return &Server{
		addr:   addr,
		router: r,
		logger: logger.With().Str("component", "server").Logger(),
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens in the background. An empty address disables the server.
func (s *Server) Start() {
	if s.addr == "" {
		return
	}

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Str("addr", s.addr).Msg("metrics server error")
		}
	}()

	s.logger.Info().Str("addr", s.addr).Msg("metrics server started")
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
