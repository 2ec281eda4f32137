package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/multierr"
)

const shutdownTimeout = 10 * time.Second

// Start runs the HTTP server until ctx is done or the listener fails, then
// shuts everything down.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", s.Cfg.ServerAddr, "store", s.Cfg.StoreDriver)
		if err := s.E.Start(s.Cfg.ServerAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
	case runErr = <-errCh:
		s.logger.Error("Server stopped", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return multierr.Append(runErr, s.Shutdown(shutdownCtx))
}
