package testutils

import (
	"sync"

	"github.com/aretw0/rill/pkg/domain"
)

// Recorder is an observer that records every notification it receives.
// It is safe under concurrent use.
type Recorder[V any] struct {
	mu          sync.Mutex
	events      []domain.Event[V]
	values      []V
	errs        []error
	completions int
	done        chan struct{}
	doneOnce    sync.Once
}

// NewRecorder creates an empty Recorder.
func NewRecorder[V any]() *Recorder[V] {
	return &Recorder[V]{done: make(chan struct{})}
}

func (r *Recorder[V]) OnNext(value V) {
	r.mu.Lock()
	r.values = append(r.values, value)
	r.events = append(r.events, domain.Event[V]{Kind: domain.EventNext, Value: value})
	r.mu.Unlock()
}

func (r *Recorder[V]) OnComplete() {
	r.mu.Lock()
	r.completions++
	r.events = append(r.events, domain.Event[V]{Kind: domain.EventComplete})
	r.mu.Unlock()
	r.doneOnce.Do(func() { close(r.done) })
}

func (r *Recorder[V]) OnError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.events = append(r.events, domain.Event[V]{Kind: domain.EventError, Err: err.Error()})
	r.mu.Unlock()
	r.doneOnce.Do(func() { close(r.done) })
}

// Values returns a snapshot copy of the received values.
func (r *Recorder[V]) Values() []V {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]V, len(r.values))
	copy(cp, r.values)
	return cp
}

// Errors returns a snapshot copy of the received errors.
func (r *Recorder[V]) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]error, len(r.errs))
	copy(cp, r.errs)
	return cp
}

// Completions returns how many times OnComplete was called.
func (r *Recorder[V]) Completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completions
}

// Terminations returns the number of terminal notifications received.
func (r *Recorder[V]) Terminations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completions + len(r.errs)
}

// Kinds returns the kinds of every notification in arrival order.
func (r *Recorder[V]) Kinds() []domain.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

// Done is closed on the first terminal notification.
func (r *Recorder[V]) Done() <-chan struct{} {
	return r.done
}
