/*
Package observer defines the three-event push protocol and the adapters that turn
plain closures into observers.

An Observer receives zero or more OnNext calls followed by at most one terminal call,
either OnComplete or OnError. Producers in this module never deliver anything after a
terminal call.

Agent forwards each event kind independently to a closure or to a delegate Observer.
An error with neither is handed to an ErrorSink and then raised with panic, so callers
that want silence must install a handler.
*/
package observer
