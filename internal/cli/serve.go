package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/rill"
	"github.com/aretw0/rill/internal/config"
	httpadapter "github.com/aretw0/rill/pkg/adapters/http"
	"github.com/aretw0/rill/pkg/adapters/redis"
	"github.com/aretw0/rill/pkg/disposable"
	"github.com/aretw0/rill/pkg/observability"
	"github.com/aretw0/rill/pkg/signaling"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// NewRuntime creates the runtime described by cfg. Metrics are registered with reg
// when enabled.
func NewRuntime(cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*rill.Runtime, error) {
	opts := []rill.Option{
		rill.WithLogger(logger),
		rill.WithHooks(observability.LogHooks(logger)),
	}
	if cfg.Metrics.Enabled {
		m, err := observability.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, rill.WithMetrics(m))
	}
	return rill.New(opts...), nil
}

// NewServeHandler mounts the topic API and, when enabled, the metrics endpoint.
func NewServeHandler(cfg config.Config, rt *rill.Runtime, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Mount("/", httpadapter.NewHandler(rt,
		httpadapter.WithBuffer(cfg.HTTP.Buffer),
		httpadapter.WithLogger(logger),
	))
	return r
}

// Serve runs the HTTP server and the configured Redis relays until ctx is done or
// one of them fails.
func Serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	rt, err := NewRuntime(cfg, logger, reg)
	if err != nil {
		return err
	}
	defer rt.Close()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Redis.Addr != "" {
		relays, err := startRelays(gctx, cfg.Redis, rt, logger)
		if err != nil {
			return err
		}
		defer disposeRelays(relays, logger)
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: NewServeHandler(cfg, rt, reg, logger),
	}

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		logger.Info("Shutdown signal received, shutting down server...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func startRelays(ctx context.Context, cfg config.RedisConfig, rt *rill.Runtime, logger *slog.Logger) ([]disposable.Disposable, error) {
	bridge := redis.New(cfg.Addr, cfg.Password, cfg.DB, redis.WithPrefix(cfg.Prefix), redis.WithLogger(logger))
	if err := bridge.Ping(ctx); err != nil {
		_ = bridge.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", cfg.Addr, err)
	}

	relays := make([]disposable.Disposable, 0, len(cfg.Channels)+1)
	for _, channel := range cfg.Channels {
		if _, err := rt.Topic(channel); err != nil {
			disposeRelays(relays, logger)
			_ = bridge.Close()
			return nil, err
		}
		relays = append(relays, bridge.RelayTo(ctx, channel, func() (*signaling.Signaling[string], error) {
			return rt.Topic(channel)
		}))
		logger.Info("Relaying redis channel", "channel", channel)
	}
	relays = append(relays, disposable.Func(func() { _ = bridge.Close() }))
	return relays, nil
}

func disposeRelays(relays []disposable.Disposable, logger *slog.Logger) {
	if err := disposable.DisposeAll(relays...); err != nil {
		logger.Warn("Failed to stop redis relays", "err", err)
	}
}
