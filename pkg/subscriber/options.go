package subscriber

import (
	"github.com/aretw0/rill/pkg/disposable"
	"github.com/aretw0/rill/pkg/observer"
)

// Option configures a Subscriber.
type Option func(*settings)

type settings struct {
	companion disposable.Disposable
	sink      observer.ErrorSink
}

// WithCompanion ties d to the subscriber: the first termination disposes d, and once
// d is disposed nothing more is delivered.
func WithCompanion(d disposable.Disposable) Option {
	return func(s *settings) {
		s.companion = d
	}
}

// WithSink sets the sink for errors that reach the subscriber with no handler.
func WithSink(sink observer.ErrorSink) Option {
	return func(s *settings) {
		s.sink = sink
	}
}
