package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/rill/pkg/domain"
)

// LogHooks returns hub hooks that log subscription changes and terminal events at
// Debug level and uncaught errors at Error level. Values are not logged.
func LogHooks(logger *slog.Logger) domain.HubHooks {
	if logger == nil {
		logger = slog.Default()
	}
	return domain.HubHooks{
		OnSubscribe: func(ctx context.Context, e *domain.HubEvent) {
			logger.DebugContext(ctx, "hub_subscribe", "hub", e.Hub, "observers", e.Observers)
		},
		OnUnsubscribe: func(ctx context.Context, e *domain.HubEvent) {
			logger.DebugContext(ctx, "hub_unsubscribe", "hub", e.Hub, "observers", e.Observers)
		},
		OnEmit: func(ctx context.Context, e *domain.HubEvent) {
			if e.Kind.Terminal() {
				logger.DebugContext(ctx, "hub_terminal", "hub", e.Hub, "kind", e.Kind)
			}
		},
		OnUncaught: func(ctx context.Context, hub string, err error) {
			logger.ErrorContext(ctx, "hub_uncaught", "hub", hub, "err", err)
		},
	}
}
