package disposable

import (
	"runtime"
	"sync"
	"weak"
)

// Backed is implemented by types that carry their own disposal state.
type Backed interface {
	Backing() *Node
}

// registry associates pointer handles with disposal state they do not carry inline.
// Keys are weak.Pointer values boxed in interfaces, so an entry never keeps its
// handle alive; runtime.AddCleanup drops the entry once the handle is collected.
var registry = struct {
	mu      sync.Mutex
	entries map[any]*Node
}{
	entries: make(map[any]*Node),
}

// Of returns the disposal state backing p. A *Node is returned as-is and a Backed
// value returns its own state. Any other pointer gets a node created on first use
// and returned on every later call for the same pointer.
//
// Registry mutation is serialized under a single lock; the returned node is safe to
// use without it. Pointers to zero-sized values share one address and therefore one
// node.
func Of[T any](p *T) *Node {
	if p == nil {
		return nil
	}
	switch v := any(p).(type) {
	case *Node:
		return v
	case Backed:
		return v.Backing()
	}

	key := weak.Make(p)

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if n, ok := registry.entries[key]; ok {
		return n
	}
	n := Empty()
	registry.entries[key] = n
	runtime.AddCleanup(p, forget[T], key)
	return n
}

func forget[T any](key weak.Pointer[T]) {
	registry.mu.Lock()
	delete(registry.entries, key)
	registry.mu.Unlock()
}

func registrySize() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return len(registry.entries)
}
