package signaling

import (
	"log/slog"

	"github.com/aretw0/rill/internal/logging"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/observer"
)

// Option configures a Signaling hub.
type Option func(*config)

type config struct {
	name   string
	hooks  domain.HubHooks
	logger *slog.Logger
	sink   observer.ErrorSink
}

func defaultConfig() config {
	return config{
		logger: logging.NewNop(),
	}
}

// WithName labels the hub in logs and hook events.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithHooks registers observability hooks. Repeated calls are merged.
func WithHooks(hooks domain.HubHooks) Option {
	return func(c *config) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSink sets the sink used by subscriptions created around plain observers.
func WithSink(sink observer.ErrorSink) Option {
	return func(c *config) {
		c.sink = sink
	}
}
