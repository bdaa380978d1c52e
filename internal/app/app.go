// Package app assembles the service from a Config: it opens the record
// store and builds both engines, the router and the metrics.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/studiodesk/internal/analytics"
	"github.com/roach88/studiodesk/internal/config"
	"github.com/roach88/studiodesk/internal/fulfillment"
	"github.com/roach88/studiodesk/internal/metrics"
	"github.com/roach88/studiodesk/internal/router"
	"github.com/roach88/studiodesk/internal/store"
	"github.com/roach88/studiodesk/internal/store/memstore"
	"github.com/roach88/studiodesk/internal/store/mongostore"
	"github.com/roach88/studiodesk/internal/support"
)

// App is an assembled service. Close releases the store.
type App struct {
	Store     store.Gateway
	Support   *support.Engine
	Dashboard *analytics.Engine
	Router    *router.Router
	Metrics   *metrics.Metrics
}

// Option configures assembly.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	now     func() time.Time
	gateway store.Gateway
	fulfill fulfillment.Client
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock sets the time source shared by the engines and the
// fulfillment client.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithGateway uses gw instead of opening the configured store.
func WithGateway(gw store.Gateway) Option {
	return func(o *options) { o.gateway = gw }
}

// WithFulfillment uses ff instead of an in-process client with UUIDv7
// identifiers.
func WithFulfillment(ff fulfillment.Client) Option {
	return func(o *options) { o.fulfill = ff }
}

// New opens the configured store and assembles the engines.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	policy, err := cfg.PaymentPolicy()
	if err != nil {
		return nil, err
	}

	gw := o.gateway
	if gw == nil {
		gw, err = OpenStore(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		o.logger.Debug("store opened", "driver", cfg.Store.Driver)
	}

	ff := o.fulfill
	if ff == nil {
		ff = fulfillment.NewLocal(
			fulfillment.WithClock(o.now),
			fulfillment.WithLogger(o.logger),
		)
	}
	a := &App{
		Store: gw,
		Support: support.New(gw, ff,
			support.WithLogger(o.logger),
			support.WithClock(o.now),
			support.WithPaymentPolicy(policy),
		),
		Dashboard: analytics.New(gw,
			analytics.WithLogger(o.logger),
			analytics.WithClock(o.now),
			analytics.WithPaymentPolicy(policy),
		),
		Metrics: metrics.New(),
	}
	a.Router = router.New(map[string]router.Engine{
		router.AgentSupport:   a.Support,
		router.AgentDashboard: a.Dashboard,
	}, router.WithMetrics(a.Metrics), router.WithLogger(o.logger))
	return a, nil
}

// Close closes the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// OpenStore opens the gateway selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (store.Gateway, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := store.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := store.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMongo:
		s, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("open store: %w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// ErrUnknownDriver is returned for an unsupported store driver.
var ErrUnknownDriver = errors.New("unknown store driver")
