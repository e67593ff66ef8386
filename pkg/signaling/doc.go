/*
Package signaling implements the multicast hub and the read-only stream handle through
which consumers subscribe.

# Hub

Signaling fans every event out to the observers attached at the time of the call, in
attachment order. The observer list is copy-on-write: broadcasts iterate an immutable
snapshot and never take the lock that Subscribe and unsubscribe use, so neither side
blocks the other. An observer removed while a broadcast is running may or may not
receive that event, but a broadcast that starts after its removal returned skips it.

Each attached observer is wrapped in a subscriber.Subscriber, so one failing consumer
terminates its own subscription without disturbing the others. The hub records its
first terminal event; observers that subscribe afterwards receive it immediately and
later values are dropped.

# Signal

Signal is the subscribe-only face of a stream. It is built from a Source function, in
the same way a hub exposes itself through Signaling.Signal. Signal.Next waits for one
value and is released by a value, a terminal event, disposal of the stream, or the
context.
*/
package signaling
