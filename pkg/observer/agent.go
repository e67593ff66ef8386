package observer

import (
	"errors"

	"github.com/aretw0/rill/pkg/domain"
)

// Agent implements Observer by delegation. For each event kind the specific closure
// wins, then the delegate observer. An unhandled OnNext or OnComplete is dropped; an
// unhandled OnError goes to Raise.
type Agent[V any] struct {
	Next     func(V)
	Error    func(error)
	Complete func()

	// Delegate receives the events whose closure is nil.
	Delegate Observer[V]

	// Sink receives unhandled errors. Nil means DefaultSink().
	Sink ErrorSink
}

var _ Observer[int] = (*Agent[int])(nil)

func (a *Agent[V]) OnNext(value V) {
	switch {
	case a.Next != nil:
		a.Next(value)
	case a.Delegate != nil:
		a.Delegate.OnNext(value)
	}
}

func (a *Agent[V]) OnComplete() {
	switch {
	case a.Complete != nil:
		a.Complete()
	case a.Delegate != nil:
		a.Delegate.OnComplete()
	}
}

func (a *Agent[V]) OnError(err error) {
	switch {
	case a.Error != nil:
		a.Error(err)
	case a.Delegate != nil:
		a.Delegate.OnError(err)
	default:
		Raise(a.Sink, err)
	}
}

// HandlesError reports whether OnError would reach a closure or a delegate.
func (a *Agent[V]) HandlesError() bool {
	return a.Error != nil || a.Delegate != nil
}

// Raise reports err to sink (or the default sink when nil) and panics with a
// *domain.UncaughtError. An error that is already uncaught is reported once only.
func Raise(sink ErrorSink, err error) {
	var uncaught *domain.UncaughtError
	if errors.As(err, &uncaught) {
		panic(uncaught)
	}
	if sink == nil {
		sink = DefaultSink()
	}
	sink.Uncaught(err)
	panic(&domain.UncaughtError{Err: err})
}
