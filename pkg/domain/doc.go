/*
Package domain contains the shared vocabulary of the rill stream core.

It defines the sentinel errors returned by hubs and waiters, the event kinds of the
three-event push protocol, and the lifecycle hooks that observability adapters bind to.
This package is kept free of concurrency machinery and external dependencies so every
other package can import it.

# Key Entities

  - EventKind: Next, Complete or Error.
  - Event: a materialised notification, used by adapters that serialise streams.
  - HubHooks: callbacks fired by a Signaling hub as observers come and go.
  - UncaughtError: the value raised when an error reaches a node with no handler.
*/
package domain
