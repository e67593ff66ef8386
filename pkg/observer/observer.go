package observer

// Observer receives push notifications from a stream.
type Observer[V any] interface {
	OnNext(value V)
	OnComplete()
	OnError(err error)
}

// FromFunc returns an Agent that forwards values to next and leaves the other slots
// empty.
func FromFunc[V any](next func(V)) *Agent[V] {
	return &Agent[V]{Next: next}
}

// FromFuncs returns an Agent with all three slots set. Nil closures leave the slot
// unconfigured.
func FromFuncs[V any](next func(V), onError func(error), complete func()) *Agent[V] {
	return &Agent[V]{
		Next:     next,
		Error:    onError,
		Complete: complete,
	}
}

// Delegate returns an Agent that forwards every event to o.
func Delegate[V any](o Observer[V]) *Agent[V] {
	return &Agent[V]{Delegate: o}
}
