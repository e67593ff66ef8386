package signaling

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/rill/pkg/disposable"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/observer"
	"github.com/aretw0/rill/pkg/subscriber"
)

type entry[V any] struct {
	sub     *subscriber.Subscriber[V]
	removed atomic.Bool
}

type terminal struct {
	err error
}

// Signaling is a multicast hub. It is an Observer on its producer side and hands out
// subscriptions on its consumer side.
type Signaling[V any] struct {
	cfg  config
	node *disposable.Node

	// mu serializes writers of observers. Broadcasts never take it.
	mu        sync.Mutex
	observers atomic.Pointer[[]*entry[V]]

	term atomic.Pointer[terminal]
}

var (
	_ observer.Observer[int] = (*Signaling[int])(nil)
	_ disposable.Disposable  = (*Signaling[int])(nil)
)

// NewSignaling creates an empty hub.
func NewSignaling[V any](opts ...Option) *Signaling[V] {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Signaling[V]{
		cfg:  cfg,
		node: disposable.Empty(),
	}
}

// Name returns the label given with WithName.
func (h *Signaling[V]) Name() string {
	return h.cfg.name
}

// Subscribe attaches o and returns the subscription. Disposing the subscription
// detaches o. Subscribing to a disposed hub returns an already disposed subscription;
// subscribing to a terminated hub delivers the terminal event at once.
func (h *Signaling[V]) Subscribe(o observer.Observer[V]) disposable.Disposable {
	sub, ok := o.(*subscriber.Subscriber[V])
	if !ok {
		sub = subscriber.New(o, subscriber.WithSink(h.cfg.sink))
	}
	e := &entry[V]{sub: sub}

	h.mu.Lock()
	if h.node.IsDisposed() {
		h.mu.Unlock()
		sub.Dispose()
		return sub
	}
	var next []*entry[V]
	if cur := h.observers.Load(); cur != nil {
		next = make([]*entry[V], len(*cur), len(*cur)+1)
		copy(next, *cur)
	}
	next = append(next, e)
	h.observers.Store(&next)
	h.mu.Unlock()

	sub.Add(disposable.Func(func() { h.remove(e) }))
	h.node.Add(sub)

	h.fire(h.cfg.hooks.OnSubscribe, "")
	h.cfg.logger.Debug("observer attached", "hub", h.cfg.name, "observers", h.Len())

	if t := h.term.Load(); t != nil {
		h.deliver(e, func(s *subscriber.Subscriber[V]) { signal(t, s) })
	}
	return sub
}

func (h *Signaling[V]) remove(e *entry[V]) {
	if !e.removed.CompareAndSwap(false, true) {
		return
	}

	h.mu.Lock()
	cur := h.observers.Load()
	if cur != nil {
		next := make([]*entry[V], 0, len(*cur))
		for _, other := range *cur {
			if other != e {
				next = append(next, other)
			}
		}
		if len(next) == 0 {
			h.observers.Store(nil)
		} else {
			h.observers.Store(&next)
		}
	}
	h.mu.Unlock()

	h.node.Remove(e.sub)
	h.fire(h.cfg.hooks.OnUnsubscribe, "")
	h.cfg.logger.Debug("observer detached", "hub", h.cfg.name, "observers", h.Len())
}

// OnNext broadcasts value. Values after a terminal event are dropped.
func (h *Signaling[V]) OnNext(value V) {
	if h.term.Load() != nil {
		return
	}
	h.broadcast(func(s *subscriber.Subscriber[V]) { s.OnNext(value) })
	h.fire(h.cfg.hooks.OnEmit, domain.EventNext)
}

// OnComplete broadcasts completion. Only the first terminal event is broadcast.
func (h *Signaling[V]) OnComplete() {
	h.finish(&terminal{})
}

// OnError broadcasts err. Only the first terminal event is broadcast.
func (h *Signaling[V]) OnError(err error) {
	h.finish(&terminal{err: err})
}

func (h *Signaling[V]) finish(t *terminal) {
	if !h.term.CompareAndSwap(nil, t) {
		return
	}
	h.broadcast(func(s *subscriber.Subscriber[V]) { signal(t, s) })
	h.fire(h.cfg.hooks.OnEmit, t.kind())
}

func (t *terminal) kind() domain.EventKind {
	if t.err != nil {
		return domain.EventError
	}
	return domain.EventComplete
}

func signal[V any](t *terminal, o observer.Observer[V]) {
	if t.err != nil {
		o.OnError(t.err)
		return
	}
	o.OnComplete()
}

func (h *Signaling[V]) broadcast(fn func(*subscriber.Subscriber[V])) {
	cur := h.observers.Load()
	if cur == nil {
		return
	}
	for _, e := range *cur {
		if e.removed.Load() {
			continue
		}
		h.deliver(e, fn)
	}
}

// deliver isolates one subscription. A panic escaping it, such as an unhandled error
// being raised, is reported and the broadcast moves on.
func (h *Signaling[V]) deliver(e *entry[V], fn func(*subscriber.Subscriber[V])) {
	defer func() {
		if r := recover(); r != nil {
			err := domain.PanicError(r)
			h.cfg.logger.Warn("observer failed during broadcast", "hub", h.cfg.name, "err", err)
			if h.cfg.hooks.OnUncaught != nil {
				h.cfg.hooks.OnUncaught(context.Background(), h.cfg.name, err)
			}
		}
	}()
	fn(e.sub)
}

func (h *Signaling[V]) fire(hook func(context.Context, *domain.HubEvent), kind domain.EventKind) {
	if hook == nil {
		return
	}
	hook(context.Background(), &domain.HubEvent{
		Timestamp: time.Now(),
		Hub:       h.cfg.name,
		Kind:      kind,
		Observers: h.Len(),
	})
}

// Len returns the number of attached observers.
func (h *Signaling[V]) Len() int {
	if cur := h.observers.Load(); cur != nil {
		return len(*cur)
	}
	return 0
}

// IsTerminated reports whether the hub has broadcast a terminal event.
func (h *Signaling[V]) IsTerminated() bool {
	return h.term.Load() != nil
}

// Dispose detaches and disposes every subscription. Pending Next calls return
// domain.ErrDisposed.
func (h *Signaling[V]) Dispose() {
	if h.node.IsDisposed() {
		return
	}
	h.node.Dispose()
	h.cfg.logger.Debug("hub disposed", "hub", h.cfg.name)
}

// IsDisposed reports whether the hub has been disposed.
func (h *Signaling[V]) IsDisposed() bool {
	return h.node.IsDisposed()
}

// Signal returns the read-only handle of the hub.
func (h *Signaling[V]) Signal() Signal[V] {
	return New(func(o observer.Observer[V], _ *disposable.Node) disposable.Disposable {
		return h.Subscribe(o)
	})
}

// Next waits for the next value broadcast by the hub.
func (h *Signaling[V]) Next(ctx context.Context) (V, error) {
	return h.Signal().Next(ctx)
}
