package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/gobychat/internal/broadcast"
	"github.com/nfrund/gobychat/internal/config"
	"github.com/nfrund/gobychat/internal/database"
	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/metrics"
	"github.com/nfrund/gobychat/internal/presence"
	"github.com/nfrund/gobychat/internal/pubsub"
	"github.com/nfrund/gobychat/internal/router"
	"github.com/nfrund/gobychat/internal/storage"
	"github.com/nfrund/gobychat/internal/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/trace"
)

// Stores is the selected persistence backend. Messages owns the underlying
// connection, so closing it releases Groups as well.
type Stores struct {
	Messages domain.MessageStore
	Groups   domain.GroupStore
}

// Close releases the backend.
func (s *Stores) Close() error {
	return s.Messages.Close()
}

type tracing struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// newInjector registers every service provider. Providers run lazily on the
// first Invoke and each service is built once.
func newInjector(cfg *config.Config, logger *slog.Logger) do.Injector {
	i := do.New()
	do.ProvideValue(i, cfg)
	do.ProvideValue(i, logger)

	do.Provide(i, provideTracing)
	do.Provide(i, provideMetrics)
	do.Provide(i, provideBus)
	do.Provide(i, provideStores)
	do.Provide(i, provideTracker)
	do.Provide(i, provideLifecycle)
	do.Provide(i, provideRouter)
	do.Provide(i, provideBridge)
	return i
}

func provideTracing(i do.Injector) (*tracing, error) {
	cfg := do.MustInvoke[*config.Config](i)
	tracer, shutdown, err := pubsub.SetupOTel(context.Background(), cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	return &tracing{tracer: tracer, shutdown: shutdown}, nil
}

func provideMetrics(i do.Injector) (*metrics.Metrics, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return metrics.New(prometheus.Labels{"store": cfg.StoreDriver}), nil
}

func provideBus(i do.Injector) (*pubsub.WatermillBridge, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*slog.Logger](i)
	t := do.MustInvoke[*tracing](i)
	return pubsub.NewWatermillBridge(logger,
		pubsub.WithTracer(t.tracer),
		pubsub.WithOutputBuffer(cfg.BusBuffer),
	), nil
}

func provideStores(i do.Injector) (*Stores, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*slog.Logger](i)

	switch cfg.StoreDriver {
	case config.DriverSurreal:
		db, err := database.NewDB(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Messages: database.NewMessageStore(db),
			Groups:   database.NewGroupStore(db),
		}, nil
	default:
		store, err := storage.Open(cfg.BadgerDir, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Opened badger store", "dir", cfg.BadgerDir)
		return &Stores{Messages: store, Groups: store}, nil
	}
}

func provideTracker(i do.Injector) (*presence.Tracker, error) {
	bus := do.MustInvoke[*pubsub.WatermillBridge](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	logger := do.MustInvoke[*slog.Logger](i)
	return presence.NewTracker(bus,
		presence.WithLogger(logger),
		presence.WithOnlineGauge(m.OnlineUsers),
	), nil
}

func provideLifecycle(i do.Injector) (*presence.Lifecycle, error) {
	tracker := do.MustInvoke[*presence.Tracker](i)
	logger := do.MustInvoke[*slog.Logger](i)
	return presence.NewLifecycle(tracker, logger), nil
}

func provideRouter(i do.Injector) (*router.Router, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*slog.Logger](i)
	bus := do.MustInvoke[*pubsub.WatermillBridge](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	stores, err := do.Invoke[*Stores](i)
	if err != nil {
		return nil, err
	}

	return router.New(stores.Messages, stores.Groups, broadcast.NewChannel(bus, logger),
		router.WithPublicDelay(cfg.PublicDelay),
		router.WithLogger(logger),
		router.WithMetrics(m),
	), nil
}

func provideBridge(i do.Injector) (*websocket.Bridge, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*slog.Logger](i)
	bus := do.MustInvoke[*pubsub.WatermillBridge](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	r, err := do.Invoke[*router.Router](i)
	if err != nil {
		return nil, err
	}
	stores := do.MustInvoke[*Stores](i)

	return websocket.NewBridge(bus, r, stores.Groups,
		websocket.WithLogger(logger),
		websocket.WithMetrics(m),
		websocket.WithSendBuffer(cfg.SendBuffer),
		websocket.WithOriginPatterns(cfg.AllowedOrigins...),
	), nil
}
