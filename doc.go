/*
Package rill is a push-based stream core: observers, composable disposal, exactly-once
subscribers and a copy-on-write multicast hub.

It separates the producer side of a stream (an Observer receiving OnNext, OnComplete
and OnError) from the consumer side (a read-only Signal handle) and ties every
subscription into a tree of Disposables, so tearing down a parent releases everything
attached below it.

# Packages

  - pkg/observer: the Observer contract, closure-based Agents and the error sink used
    when an error reaches an observer with no handler.
  - pkg/disposable: the disposal tree and the identity registry.
  - pkg/subscriber: the exactly-once subscription node.
  - pkg/signaling: the multicast hub and the Signal handle.
  - pkg/observability: Prometheus metrics and log hooks for hubs.
  - pkg/adapters/http and pkg/adapters/redis: SSE and Redis Pub/Sub bridges.

# Usage

A Runtime keeps named string topics for hosts that bridge streams to the outside
world:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/rill"
	)

	func main() {
		rt := rill.New()
		defer rt.Close()

		orders, err := rt.Topic("orders")
		if err != nil {
			log.Fatal(err)
		}

		sub := orders.Signal().ToFuncs(
			func(v string) { fmt.Println("order:", v) },
			func(err error) { log.Println("failed:", err) },
			func() { fmt.Println("done") },
		)
		defer sub.Dispose()

		orders.OnNext("A-1")
		orders.OnComplete()

		_, err = orders.Next(context.Background())
		fmt.Println(err) // stream completed
	}
*/
package rill
