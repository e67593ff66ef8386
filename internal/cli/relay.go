package cli

import (
	"context"
	"sync/atomic"

	"github.com/aretw0/rill/internal/config"
	"github.com/aretw0/rill/pkg/adapters/redis"
	"github.com/aretw0/rill/pkg/observer"
)

// RelayOptions configures Relay.
type RelayOptions struct {
	Channel string
	// Count stops the relay after that many values. Zero relays until ctx is done.
	Count int
}

// Relay prints the messages of a Redis channel until ctx is done, the channel
// subscription fails, or Count values were printed.
func Relay(ctx context.Context, cfg config.RedisConfig, opts RelayOptions, p *Printer) error {
	bridge := redis.New(cfg.Addr, cfg.Password, cfg.DB, redis.WithPrefix(cfg.Prefix))
	defer bridge.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var failure atomic.Pointer[error]
	var seen atomic.Int64
	out := p.Observer(opts.Channel)

	sub := bridge.Source(ctx, opts.Channel).To(&observer.Agent[string]{
		Next: func(v string) {
			out.OnNext(v)
			if opts.Count > 0 && seen.Add(1) >= int64(opts.Count) {
				cancel()
			}
		},
		Error: func(err error) {
			out.OnError(err)
			failure.Store(&err)
			cancel()
		},
		Complete: func() {
			out.OnComplete()
			cancel()
		},
	})
	defer sub.Dispose()

	if failure.Load() == nil {
		p.System("Relaying '%s'. Press Ctrl+C to stop.", opts.Channel)
	}
	<-ctx.Done()

	if err := failure.Load(); err != nil {
		return *err
	}
	return nil
}

// Publish sends message to channel and returns the number of receivers.
func Publish(ctx context.Context, cfg config.RedisConfig, channel, message string) (int64, error) {
	bridge := redis.New(cfg.Addr, cfg.Password, cfg.DB, redis.WithPrefix(cfg.Prefix))
	defer bridge.Close()
	return bridge.Publish(ctx, channel, message)
}
