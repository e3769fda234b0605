package awaittree

import (
	"sync"
	"sync/atomic"
)

// contextID uniquely and monotonically identifies a Context for its
// lifetime, used to detect an instrumented future being polled from a
// different context than the one it was first polled in.
type contextID uint64

var nextContextID atomic.Uint64

func allocContextID() contextID {
	return contextID(nextContextID.Add(1))
}

// Context is the per-task container for a Tree, the
// "Tree context" (C3). It is shared between exactly one RootHandle (strong)
// and the Registry (weak): see registry.go.
type Context struct {
	id      contextID
	verbose bool

	mu   sync.Mutex
	tree *Tree
}

func newContext(rootSpan Span, verbose bool, clock Clock) *Context {
	if clock == nil {
		clock = DefaultClock
	}
	return &Context{
		id:      allocContextID(),
		verbose: verbose,
		tree:    newTree(rootSpan, clock),
	}
}

// ID returns the context's process-wide, monotonically increasing id.
func (c *Context) ID() uint64 { return uint64(c.id) }

// Verbose reports whether verbose-attributed spans are recorded in this
// context's tree.
func (c *Context) Verbose() bool { return c.verbose }

// withTree runs fn with the context's tree locked, matching the
// rule that the lock is held only across a single push/step-in/step-out/pop
// call and never across an inner poll.
func (c *Context) withTree(fn func(*Tree)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.tree)
}

// Snapshot returns a deep-enough copy of the context's tree for display or
// serialization without holding the lock for the caller's full read.
func (c *Context) Snapshot() *Tree {
	c.mu.Lock()
	defer c.mu.Unlock()
	clone := *c.tree
	clone.nodes = append([]node(nil), c.tree.nodes...)
	return &clone
}
