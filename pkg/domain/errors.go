package domain

import (
	"errors"
	"fmt"
)

// ErrDisposed is returned when an operation targets a hub or subscription that has
// already been disposed.
var ErrDisposed = errors.New("disposed")

// ErrCompleted is returned to waiters when a stream completes before emitting a value.
var ErrCompleted = errors.New("stream completed")

// ErrTopicNameEmpty is returned when a named hub is requested with an empty name.
var ErrTopicNameEmpty = errors.New("topic name must not be empty")

// UncaughtError wraps an error that reached an observer with no error handler and no
// delegate. It is reported to the error sink and then raised with panic.
type UncaughtError struct {
	Err error
}

func (e *UncaughtError) Error() string {
	return fmt.Sprintf("uncaught stream error: %v", e.Err)
}

func (e *UncaughtError) Unwrap() error {
	return e.Err
}

// PanicError converts a value recovered from a panicking consumer into an error.
// Errors are kept as-is so errors.Is keeps working across the conversion.
func PanicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
