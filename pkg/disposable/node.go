package disposable

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Disposable is a resource that can be released.
type Disposable interface {
	// Dispose releases the resource. Calls after the first have no effect.
	Dispose()

	// IsDisposed reports whether Dispose has been called.
	IsDisposed() bool
}

// State is the lifecycle state of a Node.
type State int32

const (
	Active State = iota
	Terminating
	Terminated
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Terminating:
		return "terminating"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Node is the composite disposal state: a one-way state flag, an ordered child list
// and an optional cleanup action.
//
// The child list is copy-on-write. Readers load a snapshot without locking; writers
// serialize on mu, which Dispose holds only long enough to detach the list.
type Node struct {
	state    atomic.Int32
	mu       sync.Mutex
	children atomic.Pointer[[]Disposable]
	cleanup  func()
}

var _ Disposable = (*Node)(nil)

// New creates a node that runs cleanup once, after its children, when disposed.
func New(cleanup func()) *Node {
	return &Node{cleanup: cleanup}
}

// Empty creates a node with no cleanup action and no children.
func Empty() *Node {
	return &Node{}
}

// Func adapts a function into a Disposable.
func Func(f func()) *Node {
	return New(f)
}

// Dispose transitions the node to Terminated. The goroutine that wins the transition
// disposes the children, in the order they were added, and then runs the cleanup.
// Every other call returns immediately.
func (n *Node) Dispose() {
	if !n.state.CompareAndSwap(int32(Active), int32(Terminating)) {
		return
	}

	n.mu.Lock()
	list := n.children.Swap(nil)
	n.mu.Unlock()

	if list != nil {
		for _, child := range *list {
			child.Dispose()
		}
	}
	if n.cleanup != nil {
		n.cleanup()
	}
	n.state.Store(int32(Terminated))
}

// IsDisposed reports whether disposal has started.
func (n *Node) IsDisposed() bool {
	return State(n.state.Load()) != Active
}

// State returns the current lifecycle state.
func (n *Node) State() State {
	return State(n.state.Load())
}

// Backing returns n, so a *Node satisfies Backed.
func (n *Node) Backing() *Node {
	return n
}

// Add registers child for cascading disposal. Nil children and the node itself are
// ignored. If the node is already disposed, child is disposed immediately.
func (n *Node) Add(child Disposable) {
	if isNil(child) || n.isSelf(child) {
		return
	}

	n.mu.Lock()
	if State(n.state.Load()) != Active {
		n.mu.Unlock()
		child.Dispose()
		return
	}
	var next []Disposable
	if cur := n.children.Load(); cur != nil {
		next = make([]Disposable, len(*cur), len(*cur)+1)
		copy(next, *cur)
	}
	next = append(next, child)
	n.children.Store(&next)
	n.mu.Unlock()
}

// Remove detaches child without disposing it. It reports whether child was attached.
func (n *Node) Remove(child Disposable) bool {
	if isNil(child) {
		return false
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	cur := n.children.Load()
	if cur == nil {
		return false
	}
	for i, c := range *cur {
		if !same(c, child) {
			continue
		}
		if len(*cur) == 1 {
			n.children.Store(nil)
			return true
		}
		next := make([]Disposable, 0, len(*cur)-1)
		next = append(next, (*cur)[:i]...)
		next = append(next, (*cur)[i+1:]...)
		n.children.Store(&next)
		return true
	}
	return false
}

// Sub creates a child node whose own disposal detaches it from n. Parents that live
// long and accumulate many short-lived children use Sub to keep the list bounded.
func (n *Node) Sub() *Node {
	child := &Node{}
	child.cleanup = func() {
		n.Remove(child)
	}
	n.Add(child)
	return child
}

// Len returns the number of attached children.
func (n *Node) Len() int {
	if cur := n.children.Load(); cur != nil {
		return len(*cur)
	}
	return 0
}

// Children returns a snapshot of the attached children in attachment order.
func (n *Node) Children() []Disposable {
	cur := n.children.Load()
	if cur == nil {
		return nil
	}
	out := make([]Disposable, len(*cur))
	copy(out, *cur)
	return out
}

func (n *Node) isSelf(child Disposable) bool {
	if child == Disposable(n) {
		return true
	}
	if b, ok := child.(Backed); ok {
		return b.Backing() == n
	}
	return false
}

func isNil(d Disposable) bool {
	if d == nil {
		return true
	}
	v := reflect.ValueOf(d)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Interface, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// same compares two disposables by identity without panicking on uncomparable
// dynamic types.
func same(a, b Disposable) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
