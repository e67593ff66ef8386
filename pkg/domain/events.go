package domain

import (
	"context"
	"time"
)

// EventKind defines the category of a stream notification.
type EventKind string

const (
	EventNext     EventKind = "next"
	EventComplete EventKind = "complete"
	EventError    EventKind = "error"
)

// Terminal reports whether the kind ends a stream.
func (k EventKind) Terminal() bool {
	return k == EventComplete || k == EventError
}

// Event is a materialised notification. Adapters use it to carry stream traffic over
// transports that cannot call an Observer directly.
type Event[V any] struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      EventKind `json:"kind"`
	Value     V         `json:"value,omitempty"`
	Err       string    `json:"error,omitempty"`
}

// HubEvent describes a change or emission on a named hub.
type HubEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Hub       string    `json:"hub"`
	Kind      EventKind `json:"kind,omitempty"`
	Observers int       `json:"observers"`
}

// HubHooks defines callbacks for hub observability.
// Every field is optional. Hooks run on the calling goroutine and must not block.
type HubHooks struct {
	OnSubscribe   func(context.Context, *HubEvent)
	OnUnsubscribe func(context.Context, *HubEvent)
	OnEmit        func(context.Context, *HubEvent)
	OnUncaught    func(context.Context, string, error)
}

// Merge returns hooks that call h first and then other.
func (h HubHooks) Merge(other HubHooks) HubHooks {
	return HubHooks{
		OnSubscribe:   chainEvent(h.OnSubscribe, other.OnSubscribe),
		OnUnsubscribe: chainEvent(h.OnUnsubscribe, other.OnUnsubscribe),
		OnEmit:        chainEvent(h.OnEmit, other.OnEmit),
		OnUncaught:    chainUncaught(h.OnUncaught, other.OnUncaught),
	}
}

func chainEvent(a, b func(context.Context, *HubEvent)) func(context.Context, *HubEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *HubEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainUncaught(a, b func(context.Context, string, error)) func(context.Context, string, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, hub string, err error) {
		a(ctx, hub, err)
		b(ctx, hub, err)
	}
}
