/*
Package subscriber implements the runtime node that sits between a producer and a
consumer.

A Subscriber is at once an Observer and a Disposable. It forwards events to closures or
to a delegate observer, turns a panicking consumer into an error event, and lets exactly
one terminal event through no matter how many goroutines race to complete or fail it.
The first termination disposes the subscriber, and with it the companion Disposable
and every resource added to it.
*/
package subscriber
