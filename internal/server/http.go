package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/eventa-io/eventa-server/internal/logger"
	"github.com/eventa-io/eventa-server/internal/model"
)

// HTTP serves the route tree over a listener produced by a security
// layer and shuts down gracefully.
type HTTP struct {
	server  *http.Server
	address string
	logger  *logger.Logger
}

// NewHTTP creates a new HTTP server for the given address and handler.
func NewHTTP(address string, handler http.Handler, logger *logger.Logger) *HTTP {
	return &HTTP{
		server:  &http.Server{Handler: handler},
		address: address,
		logger:  logger,
	}
}

// Start listens through the security layer and serves until Stop is
// called. Blocks the calling goroutine.
func (s *HTTP) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	s.logger.Info("HTTP server: listening", "address", s.address)

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

// Stop drains in-flight requests and closes the listener. Returns the
// context error if draining outlives ctx.
func (s *HTTP) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server: shutting down", "address", s.address)
	return s.server.Shutdown(ctx)
}

// Address returns the address the server was configured to listen on.
func (s *HTTP) Address() string {
	return s.address
}

var _ model.Server = (*HTTP)(nil)
