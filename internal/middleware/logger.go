package middleware

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
)

type loggerKey struct{}

// Logger stores a request-scoped logger in the request context, tagged with
// the request ID and, for identified callers, the identity. It must run after
// RequestID and Identity.
func Logger(base *slog.Logger) echo.MiddlewareFunc {
	if base == nil {
		base = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			attrs := []any{"request_id", c.Response().Header().Get(echo.HeaderXRequestID)}
			if id := IdentityFrom(c); id != "" {
				attrs = append(attrs, "identity", id)
			}
			req := c.Request()
			c.SetRequest(req.WithContext(WithLogger(req.Context(), base.With(attrs...))))
			return next(c)
		}
	}
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by Logger, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
