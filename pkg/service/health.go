package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// HealthServer exposes a liveness probe while the pipeline runs.
type HealthServer struct {
	logger     zerolog.Logger
	port       string
	httpServer *http.Server
	actualAddr string
	mu         sync.RWMutex
}

// NewHealthServer creates the probe server listening on port.
func NewHealthServer(logger zerolog.Logger, port string) *HealthServer {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", HealthzHandler)

	return &HealthServer{
		logger: logger.With().Str("component", "HealthServer").Logger(),
		port:   port,
		httpServer: &http.Server{
			Addr:    port,
			Handler: mux,
		},
	}
}

// Start begins serving in a background goroutine.
func (s *HealthServer) Start() error {
	listener, err := net.Listen("tcp", s.port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", s.port, err)
	}

	s.mu.Lock()
	s.actualAddr = listener.Addr().String()
	s.mu.Unlock()

	s.logger.Info().Str("address", s.actualAddr).Msg("Health server listening.")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Health server failed.")
		}
	}()

	return nil
}

// Shutdown stops the server, respecting the context's deadline.
func (s *HealthServer) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Error during health server shutdown.")
		return err
	}
	s.logger.Info().Msg("Health server stopped.")
	return nil
}

// Addr returns the address the server is actually listening on, which is
// useful when the configured port is ":0".
func (s *HealthServer) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actualAddr
}

// HealthzHandler responds to liveness probes.
func HealthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
