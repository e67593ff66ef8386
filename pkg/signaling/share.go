package signaling

import (
	"sync"

	"github.com/aretw0/rill/pkg/disposable"
	"github.com/aretw0/rill/pkg/observer"
)

// Share multicasts src. The first subscriber connects a hub to src; later subscribers
// join the same hub. When the last subscriber leaves, the upstream subscription and
// the hub are disposed, and the next subscriber connects again.
func Share[V any](src Signal[V], opts ...Option) Signal[V] {
	var (
		mu   sync.Mutex
		hub  *Signaling[V]
		conn *disposable.Node
		refs int
	)

	return New(func(o observer.Observer[V], _ *disposable.Node) disposable.Disposable {
		mu.Lock()
		first := hub == nil
		if first {
			hub = NewSignaling[V](opts...)
			conn = disposable.New(hub.Dispose)
		}
		// The reference is taken before the hub is joined so a concurrent last
		// leaver cannot tear it down in between.
		refs++
		h, c := hub, conn
		mu.Unlock()

		sub := h.Subscribe(o)
		if first {
			// A connection torn down before src.To returns disposes the upstream
			// subscription on Add.
			c.Add(src.To(h))
		}

		return disposable.Func(func() {
			sub.Dispose()

			mu.Lock()
			refs--
			if hub != h || refs > 0 {
				mu.Unlock()
				return
			}
			hub, conn = nil, nil
			mu.Unlock()
			c.Dispose()
		})
	})
}
