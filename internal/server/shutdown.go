package server

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Shutdown closes live sessions, stops the HTTP server, then releases the bus,
// the store and the tracer in that order. It tolerates a partially built
// Server and reports every failure.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.bridge != nil {
		err = multierr.Append(err, s.bridge.Close())
	}
	if s.E != nil {
		if e := s.E.Shutdown(ctx); e != nil {
			err = multierr.Append(err, fmt.Errorf("http shutdown: %w", e))
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.bus != nil {
		if e := s.bus.Close(); e != nil {
			err = multierr.Append(err, fmt.Errorf("close bus: %w", e))
		}
	}
	if s.stores != nil {
		if e := s.stores.Close(); e != nil {
			err = multierr.Append(err, fmt.Errorf("close store: %w", e))
		}
	}
	if s.tracing != nil {
		if e := s.tracing.shutdown(ctx); e != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown tracing: %w", e))
		}
	}
	if err == nil {
		s.logger.Info("Server stopped cleanly")
	}
	return err
}
