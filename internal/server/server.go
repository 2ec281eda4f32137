package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/samber/do/v2"

	"github.com/nfrund/gobychat/internal/config"
	"github.com/nfrund/gobychat/internal/handlers"
	"github.com/nfrund/gobychat/internal/metrics"
	"github.com/nfrund/gobychat/internal/middleware"
	"github.com/nfrund/gobychat/internal/presence"
	"github.com/nfrund/gobychat/internal/pubsub"
	"github.com/nfrund/gobychat/internal/router"
	"github.com/nfrund/gobychat/internal/websocket"
)

const sessionMaxAge = 7 * 24 * 60 * 60

// Server holds the dependencies for the HTTP server.
type Server struct {
	E   *echo.Echo
	Cfg *config.Config

	logger  *slog.Logger
	tracing *tracing
	metrics *metrics.Metrics
	bus     *pubsub.WatermillBridge
	stores  *Stores
	tracker *presence.Tracker
	router  *router.Router
	bridge  *websocket.Bridge

	// cancel stops the bus subscriptions.
	cancel context.CancelFunc
}

// New builds every service, subscribes the presence lifecycle and the
// WebSocket bridge to the bus, and registers the HTTP routes.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	i := newInjector(cfg, logger)
	s := &Server{Cfg: cfg, logger: logger}

	if err := s.resolve(i); err != nil {
		_ = s.Shutdown(context.Background())
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	lifecycle := do.MustInvoke[*presence.Lifecycle](i)
	if err := lifecycle.Listen(ctx, s.bus); err != nil {
		_ = s.Shutdown(context.Background())
		return nil, fmt.Errorf("start presence lifecycle: %w", err)
	}
	if err := s.bridge.Listen(ctx, s.bus); err != nil {
		_ = s.Shutdown(context.Background())
		return nil, fmt.Errorf("start websocket bridge: %w", err)
	}

	s.E = newEcho(cfg, logger)
	s.RegisterRoutes()
	return s, nil
}

// resolve pulls the services out of the injector. Services resolved before a
// failure stay on s so Shutdown can release them.
func (s *Server) resolve(i do.Injector) error {
	var err error
	if s.tracing, err = do.Invoke[*tracing](i); err != nil {
		return err
	}
	s.metrics = do.MustInvoke[*metrics.Metrics](i)
	s.bus = do.MustInvoke[*pubsub.WatermillBridge](i)
	if s.stores, err = do.Invoke[*Stores](i); err != nil {
		return fmt.Errorf("open %s store: %w", s.Cfg.StoreDriver, err)
	}
	s.tracker = do.MustInvoke[*presence.Tracker](i)
	s.router = do.MustInvoke[*router.Router](i)
	s.bridge = do.MustInvoke[*websocket.Bridge](i)
	return nil
}

func newEcho(cfg *config.Config, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler()

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			middleware.FromContext(c.Request().Context()).Log(c.Request().Context(), level, "request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	}))

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))
	e.Use(middleware.Identity)
	e.Use(middleware.Logger(logger))
	return e
}
