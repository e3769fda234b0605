package awaittree

import (
	"sort"
	"time"
)

// NodeID is a stable, non-reusable handle into a Tree's arena. Slots are
// never recycled (the arena only grows), so an id captured by an Instrumented
// wrapper stays meaningful for the wrapper's entire lifetime even after the
// node it names has been removed.
type NodeID int32

// noParent marks a node with no parent link: either the tree's root, or a
// detached root (see isDetachedRoot).
const noParent NodeID = -1

// node is the internal arena record backing a span in the tree. Children
// are an intrusive, singly-linked sibling list rooted at the parent's
// firstChild, with new children prepended;
// the arena/freelist shape follows the segmented-node idiom used by
// _examples/other_examples's OPA arena storage backend, simplified to an
// append-only slice since this arena never needs to reclaim or reuse slots.
type node struct {
	span        Span
	startTime   time.Time
	parent      NodeID
	firstChild  NodeID
	nextSibling NodeID
	removed     bool
}

// Tree is the arena-backed forest of span nodes.
// All methods assume the caller already holds the guarding lock described in
// Context; Tree itself does no locking.
type Tree struct {
	nodes   []node
	root    NodeID
	current NodeID
	clock   Clock
}

func newTree(root Span, clock Clock) *Tree {
	root = root.LongRunning()
	t := &Tree{clock: clock}
	id := t.alloc(root)
	t.root = id
	t.current = id
	return t
}

func (t *Tree) alloc(span Span) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{
		span:        span,
		startTime:   t.clock.Now(),
		parent:      noParent,
		firstChild:  noParent,
		nextSibling: noParent,
	})
	return id
}

// Current returns the node-id currently being polled.
func (t *Tree) Current() NodeID { return t.current }

// Root returns the tree's root node-id.
func (t *Tree) Root() NodeID { return t.root }

func (t *Tree) linkChild(parent, child NodeID) {
	t.nodes[child].parent = parent
	t.nodes[child].nextSibling = t.nodes[parent].firstChild
	t.nodes[parent].firstChild = child
}

// detachFromParent unlinks id from its parent's sibling list, if it has one.
// It is a no-op for the root and for already-detached nodes.
func (t *Tree) detachFromParent(id NodeID) {
	p := t.nodes[id].parent
	if p == noParent {
		return
	}
	link := &t.nodes[p].firstChild
	cur := *link
	for cur != id {
		link = &t.nodes[cur].nextSibling
		cur = *link
	}
	*link = t.nodes[id].nextSibling
	t.nodes[id].nextSibling = noParent
	t.nodes[id].parent = noParent
}

// Push allocates a node for span, prepends it as a child of current, and
// makes it current. Used the first time an instrumented future is polled.
func (t *Tree) Push(span Span) NodeID {
	id := t.alloc(span)
	t.linkChild(t.current, id)
	t.current = id
	return id
}

// StepIn makes id current, re-parenting it under the (old) current node if it
// is not already one of its children. This is the re-parenting protocol of
// a future polled under a new parent on a later poll detaches
// from wherever it was and is prepended under the new parent.
func (t *Tree) StepIn(id NodeID) {
	if t.nodes[id].parent != t.current {
		t.detachFromParent(id)
		t.linkChild(t.current, id)
	}
	t.current = id
}

// StepOut moves current to its parent. Panics if current is the root: per
// stepping out of the root is a programming-contract violation.
func (t *Tree) StepOut() {
	if t.current == t.root {
		panicContractViolation("await-tree: cannot step out of the root span")
	}
	t.current = t.nodes[t.current].parent
}

// Pop removes current, promoting its still-live children to detached roots,
// and moves current to its former parent. Panics if current is the root.
func (t *Tree) Pop() NodeID {
	if t.current == t.root {
		panicContractViolation("await-tree: cannot pop the root span")
	}
	cur := t.current
	parent := t.nodes[cur].parent
	t.RemoveAndDetach(cur)
	t.current = parent
	return parent
}

// RemoveAndDetach detaches id from its parent and removes it, promoting its
// still-live children to detached roots with their start times intact. It
// does not touch current, since a future can be dropped while its node is no
// longer current (it already stepped out on the prior Pending poll). A call
// on an already-removed id is a no-op.
func (t *Tree) RemoveAndDetach(id NodeID) {
	if id == t.root {
		panicContractViolation("await-tree: cannot remove the root span")
	}
	if t.nodes[id].removed {
		return
	}
	t.detachFromParent(id)
	for c := t.nodes[id].firstChild; c != noParent; c = t.nodes[c].nextSibling {
		t.nodes[c].parent = noParent
	}
	t.nodes[id].removed = true
}

// isDetachedRoot reports whether id has survived the removal of its original
// parent: it has no parent, is not removed, and is not the tree's root.
func (t *Tree) isDetachedRoot(id NodeID) bool {
	n := &t.nodes[id]
	return !n.removed && n.parent == noParent && id != t.root
}

// ActiveNodeCount returns the number of live (non-removed) nodes.
func (t *Tree) ActiveNodeCount() int {
	n := 0
	for i := range t.nodes {
		if !t.nodes[i].removed {
			n++
		}
	}
	return n
}

// DetachedNodeCount returns the number of detached roots.
func (t *Tree) DetachedNodeCount() int {
	n := 0
	for id := range t.nodes {
		if t.isDetachedRoot(NodeID(id)) {
			n++
		}
	}
	return n
}

// sortedChildren returns id's children ordered by ascending start time,
// breaking ties by node-id for determinism.
func (t *Tree) sortedChildren(id NodeID) []NodeID {
	var children []NodeID
	for c := t.nodes[id].firstChild; c != noParent; c = t.nodes[c].nextSibling {
		children = append(children, c)
	}
	sort.Slice(children, func(i, j int) bool {
		ni, nj := children[i], children[j]
		ti, tj := t.nodes[ni].startTime, t.nodes[nj].startTime
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return ni < nj
	})
	return children
}
