package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bft-labs/keyframer/internal/app"
	"github.com/bft-labs/keyframer/internal/ports"
)

// Server runs the router on a listener until its context is cancelled.
type Server struct {
	addr      string
	handler   http.Handler
	logger    ports.Logger
	lifecycle *app.Lifecycle

	// ShutdownTimeout bounds graceful shutdown of open connections
	ShutdownTimeout time.Duration
}

// NewServer creates a server for handler on addr.
func NewServer(addr string, handler http.Handler, logger ports.Logger) *Server {
	return &Server{
		addr:            addr,
		handler:         handler,
		logger:          logger,
		lifecycle:       app.NewLifecycle("http", logger),
		ShutdownTimeout: 10 * time.Second,
	}
}

// State returns the server's lifecycle state.
func (s *Server) State() app.State { return s.lifecycle.State() }

// ListenAndServe binds addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, err := s.lifecycle.Start(ctx)
	if err != nil {
		ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	s.lifecycle.Go(func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	})
	_ = s.lifecycle.TransitionTo(app.StateRunning, "serving")
	s.logger.Info("http server listening", ports.Stringer("addr", ln.Addr()))

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown", ports.Err(err))
	}

	if err := s.lifecycle.Stop(s.ShutdownTimeout); err != nil {
		return err
	}
	if serveErr != nil {
		return fmt.Errorf("serve: %w", serveErr)
	}
	return nil
}
