package signaling

import (
	"context"

	"github.com/aretw0/rill/pkg/disposable"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/observer"
	"github.com/aretw0/rill/pkg/subscriber"
)

// Source attaches o to a producer. d is the disposal state of the subscription; the
// source ties its resources to it with d.Add. The returned Disposable, if any, is
// tied to the subscription as well.
type Source[V any] func(o observer.Observer[V], d *disposable.Node) disposable.Disposable

// Signal is a read-only stream handle. The zero value never emits.
type Signal[V any] struct {
	source Source[V]
}

// New creates a Signal from src.
func New[V any](src Source[V]) Signal[V] {
	return Signal[V]{source: src}
}

// Empty returns a Signal that completes on subscription.
func Empty[V any]() Signal[V] {
	return New(func(o observer.Observer[V], _ *disposable.Node) disposable.Disposable {
		o.OnComplete()
		return nil
	})
}

// Never returns a Signal that emits nothing.
func Never[V any]() Signal[V] {
	return Signal[V]{}
}

// Fail returns a Signal that fails with err on subscription.
func Fail[V any](err error) Signal[V] {
	return New(func(o observer.Observer[V], _ *disposable.Node) disposable.Disposable {
		o.OnError(err)
		return nil
	})
}

// To subscribes o and returns the subscription. A panic raised by the source while
// subscribing is delivered to o as an error.
func (s Signal[V]) To(o observer.Observer[V]) disposable.Disposable {
	sub := subscriber.Wrap(o)
	if s.source == nil {
		return sub
	}
	if d, err := s.attach(sub); err != nil {
		sub.OnError(err)
	} else {
		sub.Add(d)
	}
	return sub
}

func (s Signal[V]) attach(sub *subscriber.Subscriber[V]) (d disposable.Disposable, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.PanicError(r)
		}
	}()
	return s.source(sub, sub.Backing()), nil
}

// ToFuncs subscribes the given closures. Nil closures leave the slot empty; an error
// reaching an empty error slot is raised.
func (s Signal[V]) ToFuncs(next func(V), onError func(error), complete func()) disposable.Disposable {
	return s.To(observer.FromFuncs(next, onError, complete))
}

// Next waits for one value. It returns domain.ErrCompleted when the stream completes
// first, the stream's error when it fails first, domain.ErrDisposed when the
// subscription is disposed from the producer side, and ctx.Err() when ctx is done.
func (s Signal[V]) Next(ctx context.Context) (V, error) {
	var zero V
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	values := make(chan V, 1)
	failed := make(chan error, 1)
	released := make(chan struct{})

	sub := subscriber.New[V](&observer.Agent[V]{
		Next: func(v V) {
			select {
			case values <- v:
			default:
			}
		},
		Error:    func(err error) { failed <- err },
		Complete: func() { failed <- domain.ErrCompleted },
	})
	sub.Add(disposable.Func(func() { close(released) }))
	defer sub.Dispose()

	s.To(sub)

	select {
	case v := <-values:
		return v, nil
	case err := <-failed:
		// A value emitted before the terminal event wins.
		select {
		case v := <-values:
			return v, nil
		default:
			return zero, err
		}
	case <-released:
		select {
		case v := <-values:
			return v, nil
		default:
		}
		select {
		case err := <-failed:
			return zero, err
		default:
			return zero, domain.ErrDisposed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
