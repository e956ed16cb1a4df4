package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

var _ model.Server = (*HTTPServer)(nil)

// HTTPServer serves a handler on a listener obtained from a security layer.
type HTTPServer struct {
	server *http.Server
	addr   string
	logger *logger.Logger

	mu    sync.Mutex
	bound net.Addr
	done  chan struct{}
}

// NewHTTPServer creates an HTTPServer for handler on addr. Port 0 picks a free port.
func NewHTTPServer(handler http.Handler, addr string, logger *logger.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		addr:   addr,
		logger: logger,
	}
}

// Start binds the listener and serves in the background.
func (s *HTTPServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.mu.Lock()
	s.bound = listener.Addr()
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", "addr", listener.Addr().String(), "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the server down and waits for Serve to return.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Address returns the bound address once started, the configured one before.
func (s *HTTPServer) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound != nil {
		return s.bound.String()
	}
	return s.addr
}
