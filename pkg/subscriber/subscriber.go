package subscriber

import (
	"sync"
	"sync/atomic"

	"github.com/aretw0/rill/pkg/disposable"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/observer"
)

// Subscriber adapts an observer into a disposable subscription with exactly-once
// termination.
type Subscriber[T any] struct {
	node      *disposable.Node
	agent     observer.Agent[T]
	companion disposable.Disposable

	// done closes the gate for every further delivery. It is set by the first
	// terminal event and by Dispose.
	done atomic.Bool

	// completed records that a terminal event went through the gate.
	completed atomic.Bool

	mu       sync.Mutex
	children atomic.Pointer[[]*Subscriber[T]]
}

var (
	_ observer.Observer[int] = (*Subscriber[int])(nil)
	_ disposable.Disposable  = (*Subscriber[int])(nil)
	_ disposable.Backed      = (*Subscriber[int])(nil)
)

// New creates a subscriber forwarding to o. When o is an *observer.Agent its closures
// are copied, so later changes to the agent are not observed.
func New[T any](o observer.Observer[T], opts ...Option) *Subscriber[T] {
	var cfg settings
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	s := &Subscriber[T]{
		node:      disposable.Empty(),
		companion: cfg.companion,
	}
	switch v := o.(type) {
	case *observer.Agent[T]:
		s.agent = *v
	case nil:
	default:
		s.agent.Delegate = o
	}
	if cfg.sink != nil {
		s.agent.Sink = cfg.sink
	}
	if cfg.companion != nil {
		s.node.Add(cfg.companion)
	}
	return s
}

// FromFuncs creates a subscriber from closures. Nil closures leave the slot empty.
func FromFuncs[T any](next func(T), onError func(error), complete func(), opts ...Option) *Subscriber[T] {
	return New[T](observer.FromFuncs(next, onError, complete), opts...)
}

// Wrap returns o itself when it already is a Subscriber and no options are given,
// otherwise a new Subscriber around o.
func Wrap[T any](o observer.Observer[T], opts ...Option) *Subscriber[T] {
	if s, ok := o.(*Subscriber[T]); ok && len(opts) == 0 {
		return s
	}
	return New(o, opts...)
}

// OnNext delivers value unless the subscriber has terminated or its companion has
// been disposed. A panic raised by the consumer becomes an OnError on this
// subscriber and does not reach the producer.
func (s *Subscriber[T]) OnNext(value T) {
	if s.suppressed() {
		return
	}
	if err := s.deliver(value); err != nil {
		s.OnError(err)
	}
}

func (s *Subscriber[T]) deliver(value T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.PanicError(r)
		}
	}()
	s.agent.OnNext(value)
	return nil
}

// OnComplete is a terminal event; see terminate.
func (s *Subscriber[T]) OnComplete() {
	s.terminate(s.agent.OnComplete)
}

// OnError is a terminal event; see terminate. With no error closure and no delegate
// the error goes to the sink and is raised with panic.
func (s *Subscriber[T]) OnError(err error) {
	s.terminate(func() { s.agent.OnError(err) })
}

// terminate lets the first terminal event through. Delivery is skipped when the
// companion was disposed beforehand. The subscriber is disposed afterwards even when
// delivery panics.
func (s *Subscriber[T]) terminate(deliver func()) {
	if !s.done.CompareAndSwap(false, true) {
		return
	}
	s.completed.Store(true)
	defer s.node.Dispose()

	if s.companion != nil && s.companion.IsDisposed() {
		return
	}
	deliver()
}

func (s *Subscriber[T]) suppressed() bool {
	if s.done.Load() {
		return true
	}
	return s.companion != nil && s.companion.IsDisposed()
}

// Dispose stops delivery and releases the companion, children and added resources.
func (s *Subscriber[T]) Dispose() {
	s.done.Store(true)
	s.node.Dispose()
}

// IsDisposed reports whether the subscriber was disposed or has terminated.
func (s *Subscriber[T]) IsDisposed() bool {
	return s.node.IsDisposed()
}

// IsTerminated reports whether the delivery gate is closed.
func (s *Subscriber[T]) IsTerminated() bool {
	return s.done.Load()
}

// Backing exposes the subscriber's disposal state to disposable.Of.
func (s *Subscriber[T]) Backing() *disposable.Node {
	return s.node
}

// Add ties d to the subscriber's lifetime.
func (s *Subscriber[T]) Add(d disposable.Disposable) {
	s.node.Add(d)
}

// Sub returns a disposable child that detaches itself when disposed.
func (s *Subscriber[T]) Sub() *disposable.Node {
	return s.node.Sub()
}

// Child creates a subscriber sharing this subscriber's handlers. The child is
// disposed with its parent and counts towards IsCompleted.
func (s *Subscriber[T]) Child() *Subscriber[T] {
	child := &Subscriber[T]{
		node:  disposable.Empty(),
		agent: s.agent,
	}

	s.mu.Lock()
	var next []*Subscriber[T]
	if cur := s.children.Load(); cur != nil {
		next = append(next, *cur...)
	}
	next = append(next, child)
	s.children.Store(&next)
	s.mu.Unlock()

	s.node.Add(child)
	return child
}

// IsCompleted reports whether this subscriber and every child received a terminal
// event.
func (s *Subscriber[T]) IsCompleted() bool {
	if !s.completed.Load() {
		return false
	}
	if cur := s.children.Load(); cur != nil {
		for _, child := range *cur {
			if !child.IsCompleted() {
				return false
			}
		}
	}
	return true
}
