package observer

import (
	"log/slog"
	"sync/atomic"
)

// ErrorSink receives errors that reached an observer with no error handler.
type ErrorSink interface {
	Uncaught(err error)
}

// SinkFunc adapts a function to the ErrorSink interface.
type SinkFunc func(error)

// Uncaught calls f(err).
func (f SinkFunc) Uncaught(err error) {
	f(err)
}

// NopSink discards every error.
var NopSink ErrorSink = SinkFunc(func(error) {})

// LogSink returns a sink that logs each error at Error level.
// A nil logger resolves slog.Default() on every call.
func LogSink(logger *slog.Logger) ErrorSink {
	return SinkFunc(func(err error) {
		l := logger
		if l == nil {
			l = slog.Default()
		}
		l.Error("uncaught stream error", "err", err)
	})
}

type sinkBox struct {
	sink ErrorSink
}

var defaultSink atomic.Pointer[sinkBox]

func init() {
	defaultSink.Store(&sinkBox{sink: LogSink(nil)})
}

// DefaultSink returns the process-wide sink used when no sink was injected.
func DefaultSink() ErrorSink {
	return defaultSink.Load().sink
}

// SetDefaultSink replaces the process-wide sink and returns a function restoring the
// previous one. A nil sink installs NopSink.
func SetDefaultSink(s ErrorSink) (restore func()) {
	if s == nil {
		s = NopSink
	}
	prev := defaultSink.Swap(&sinkBox{sink: s})
	return func() {
		defaultSink.Store(prev)
	}
}
