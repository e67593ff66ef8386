package redis

import (
	"context"
	"log/slog"

	"github.com/aretw0/rill/internal/logging"
	"github.com/aretw0/rill/pkg/disposable"
	"github.com/aretw0/rill/pkg/observer"
	"github.com/aretw0/rill/pkg/signaling"
	backend "github.com/redis/go-redis/v9"
)

// Bridge connects streams to Redis Pub/Sub.
type Bridge struct {
	client backend.UniversalClient
	prefix string
	logger *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithPrefix prepends prefix to every channel name.
func WithPrefix(prefix string) Option {
	return func(b *Bridge) {
		b.prefix = prefix
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a bridge over a new client.
func New(address, password string, db int, opts ...Option) *Bridge {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a bridge over an existing client.
func NewFromClient(client backend.UniversalClient, opts ...Option) *Bridge {
	b := &Bridge{
		client: client,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bridge) channel(name string) string {
	return b.prefix + name
}

// Ping checks connectivity.
func (b *Bridge) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (b *Bridge) Close() error {
	return b.client.Close()
}

// Source returns a Signal emitting the payload of every message published on the
// given channels. Each subscription opens its own Redis subscription, confirmed
// before To returns, and closes it when disposed. A failed subscribe is delivered as
// an error.
func (b *Bridge) Source(ctx context.Context, channels ...string) signaling.Signal[string] {
	names := make([]string, len(channels))
	for i, c := range channels {
		names[i] = b.channel(c)
	}

	return signaling.New(func(o observer.Observer[string], d *disposable.Node) disposable.Disposable {
		ps := b.client.Subscribe(ctx, names...)
		if _, err := ps.Receive(ctx); err != nil {
			_ = ps.Close()
			o.OnError(err)
			return nil
		}
		b.logger.Debug("redis: subscribed", "channels", names)

		// The delivery goroutine ends when Close closes the message channel. o may be
		// disposed from inside OnNext, so disposal does not wait for it.
		messages := ps.Channel()
		go func() {
			for msg := range messages {
				o.OnNext(msg.Payload)
			}
		}()

		return disposable.Func(func() {
			if err := ps.Close(); err != nil {
				b.logger.Warn("redis: unsubscribe failed", "channels", names, "err", err)
			}
			b.logger.Debug("redis: unsubscribed", "channels", names)
		})
	})
}

// Relay feeds hub from channel until the returned Disposable is disposed.
func (b *Bridge) Relay(ctx context.Context, channel string, hub *signaling.Signaling[string]) disposable.Disposable {
	return b.Source(ctx, channel).To(hub)
}

// RelayTo feeds channel into the hub returned by resolve, looked up again for every
// message so a hub replaced after it terminated keeps receiving. A failed lookup drops
// the message; a failed subscription is logged and ends the relay.
func (b *Bridge) RelayTo(ctx context.Context, channel string, resolve func() (*signaling.Signaling[string], error)) disposable.Disposable {
	name := b.channel(channel)
	return b.Source(ctx, channel).To(&observer.Agent[string]{
		Next: func(v string) {
			hub, err := resolve()
			if err != nil {
				b.logger.Warn("redis: relay target unavailable", "channel", name, "err", err)
				return
			}
			hub.OnNext(v)
		},
		Error: func(err error) {
			b.logger.Warn("redis: relay stopped", "channel", name, "err", err)
		},
		Complete: func() {
			b.logger.Debug("redis: relay completed", "channel", name)
		},
	})
}

// Sink returns an Observer publishing every value to channel. Publish failures are
// logged; terminal events are not forwarded.
func (b *Bridge) Sink(ctx context.Context, channel string) observer.Observer[string] {
	name := b.channel(channel)
	return &observer.Agent[string]{
		Next: func(v string) {
			if err := b.client.Publish(ctx, name, v).Err(); err != nil {
				b.logger.Error("redis: publish failed", "channel", name, "err", err)
			}
		},
		Error: func(err error) {
			b.logger.Debug("redis: sink received error", "channel", name, "err", err)
		},
		Complete: func() {
			b.logger.Debug("redis: sink completed", "channel", name)
		},
	}
}

// Publish sends one value to channel and returns the number of receivers.
func (b *Bridge) Publish(ctx context.Context, channel, value string) (int64, error) {
	return b.client.Publish(ctx, b.channel(channel), value).Result()
}
