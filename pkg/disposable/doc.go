/*
Package disposable implements idempotent, hierarchical resource release.

A Node owns an ordered list of child Disposables and an optional cleanup action.
Disposing a node disposes its children in attachment order and then runs the cleanup,
exactly once no matter how many goroutines call Dispose. A child attached to a node that
is already disposed is disposed immediately rather than silently dropped.

Values that need disposal state without embedding a Node can obtain one through Of,
which keeps a process-wide association keyed by weak pointer identity, so the registry
never keeps a handle alive.

# Failure

A panicking cleanup stops the cascade and propagates to the caller of Dispose; the
remaining children of that subtree stay undisposed. DisposeAll recovers per node and
keeps going.
*/
package disposable
