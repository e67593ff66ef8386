package rill

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/rill/internal/logging"
	"github.com/aretw0/rill/pkg/disposable"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/observability"
	"github.com/aretw0/rill/pkg/observer"
	"github.com/aretw0/rill/pkg/signaling"
)

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/aretw0/rill.Version=...".
var Version = "0.1.0-dev"

// Runtime owns a set of named string hubs (topics) sharing one logger, error sink and
// hook set.
type Runtime struct {
	logger  *slog.Logger
	sink    observer.ErrorSink
	hooks   domain.HubHooks
	metrics *observability.Metrics

	mu     sync.Mutex
	topics map[string]*signaling.Signaling[string]
	closed bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the structured logger used by the runtime and its hubs.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSink sets the error sink for observers without an error handler.
func WithSink(sink observer.ErrorSink) Option {
	return func(r *Runtime) {
		r.sink = sink
	}
}

// WithHooks registers observability hooks on every topic. Repeated calls are merged.
func WithHooks(hooks domain.HubHooks) Option {
	return func(r *Runtime) {
		r.hooks = r.hooks.Merge(hooks)
	}
}

// WithMetrics feeds m from every topic and drops a topic's series when it is removed.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runtime) {
		if m == nil {
			return
		}
		r.metrics = m
		r.hooks = r.hooks.Merge(m.Hooks())
	}
}

// New creates a Runtime with no topics.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		logger: logging.NewNop(),
		topics: make(map[string]*signaling.Signaling[string]),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sink == nil {
		r.sink = observer.LogSink(r.logger)
	}
	return r
}

// Topic returns the hub named name, creating it on first use. A hub that has
// terminated or been disposed is replaced by a fresh one.
func (r *Runtime) Topic(name string) (*signaling.Signaling[string], error) {
	if name == "" {
		return nil, domain.ErrTopicNameEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, domain.ErrDisposed
	}
	if hub, ok := r.topics[name]; ok && !hub.IsTerminated() && !hub.IsDisposed() {
		return hub, nil
	}

	hub := signaling.NewSignaling[string](
		signaling.WithName(name),
		signaling.WithHooks(r.hooks),
		signaling.WithLogger(r.logger),
		signaling.WithSink(r.sink),
	)
	r.topics[name] = hub
	r.logger.Debug("topic created", "topic", name)
	return hub, nil
}

// Lookup returns the hub named name without creating it.
func (r *Runtime) Lookup(name string) (*signaling.Signaling[string], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hub, ok := r.topics[name]
	return hub, ok
}

// Topics returns the names of the known topics in sorted order.
func (r *Runtime) Topics() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.topics))
	for name := range r.topics {
		names = append(names, name)
	}
	r.mu.Unlock()

	slices.Sort(names)
	return names
}

// Remove disposes the topic named name. It reports whether the topic existed.
func (r *Runtime) Remove(name string) bool {
	r.mu.Lock()
	hub, ok := r.topics[name]
	delete(r.topics, name)
	r.mu.Unlock()

	if !ok {
		return false
	}
	hub.Dispose()
	if r.metrics != nil {
		r.metrics.Forget(name)
	}
	r.logger.Debug("topic removed", "topic", name)
	return true
}

// Close disposes every topic. Topic returns domain.ErrDisposed afterwards.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	hubs := make([]disposable.Disposable, 0, len(r.topics))
	for _, hub := range r.topics {
		hubs = append(hubs, hub)
	}
	clear(r.topics)
	r.mu.Unlock()

	r.logger.Debug("runtime closed", "topics", len(hubs))
	return disposable.DisposeAll(hubs...)
}

// Logger returns the runtime's logger.
func (r *Runtime) Logger() *slog.Logger {
	return r.logger
}
