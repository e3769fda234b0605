package awaittree

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StaleThreshold is the elapsed-time threshold past which a non-long-running
// span at depth > 0 is prefixed with "!!! " in String's output.
const StaleThreshold = 10 * time.Second

// String renders the tree depth-first from the root, two spaces per level,
// following detached roots in a trailing "[Detached N]" section, per
// following detached roots in a trailing section.
func (t *Tree) String() string {
	var b strings.Builder
	now := t.clock.Now()
	t.writeNode(&b, t.root, 0, now)

	for id := range t.nodes {
		if t.isDetachedRoot(NodeID(id)) {
			fmt.Fprintf(&b, "[Detached %d]\n", id)
			t.writeNode(&b, NodeID(id), 1, now)
		}
	}
	return b.String()
}

func (t *Tree) writeNode(b *strings.Builder, id NodeID, depth int, now time.Time) {
	n := &t.nodes[id]
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.span.Name())

	elapsed := now.Sub(n.startTime)
	if depth == 0 {
		b.WriteByte('\n')
	} else {
		stale := depth > 0 && !n.span.IsLongRunning() && elapsed >= StaleThreshold
		prefix := ""
		if stale {
			prefix = "!!! "
		}
		fmt.Fprintf(b, " [%s%s]", prefix, formatElapsed(elapsed))
		if id == t.current {
			b.WriteString("  <== current")
		}
		b.WriteByte('\n')
	}

	for _, child := range t.sortedChildren(id) {
		t.writeNode(b, child, depth+1, now)
	}
}

// formatElapsed renders a duration with three fractional digits and an
// SI-scale unit, e.g. "1.000s", "500.000ms", "12.340µs".
func formatElapsed(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.3fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.3fms", float64(d.Nanoseconds())/float64(time.Millisecond))
	case d >= time.Microsecond:
		return fmt.Sprintf("%.3fµs", float64(d.Nanoseconds())/float64(time.Microsecond))
	default:
		return fmt.Sprintf("%.3fns", float64(d.Nanoseconds()))
	}
}

// nodeJSON is the wire shape of a single tree node, per the
// serialization contract.
type nodeJSON struct {
	ID        NodeID     `json:"id"`
	Span      spanJSON   `json:"span"`
	ElapsedNS int64      `json:"elapsed_ns"`
	Children  []nodeJSON `json:"children"`
}

type spanJSON struct {
	Name          string `json:"name"`
	IsVerbose     bool   `json:"is_verbose"`
	IsLongRunning bool   `json:"is_long_running"`
}

type treeJSON struct {
	Current  NodeID     `json:"current"`
	Tree     nodeJSON   `json:"tree"`
	Detached []nodeJSON `json:"detached"`
}

func (t *Tree) toNodeJSON(id NodeID, now time.Time) nodeJSON {
	n := &t.nodes[id]
	children := t.sortedChildren(id)
	out := nodeJSON{
		ID: id,
		Span: spanJSON{
			Name:          n.span.Name(),
			IsVerbose:     n.span.IsVerbose(),
			IsLongRunning: n.span.IsLongRunning(),
		},
		ElapsedNS: int64(now.Sub(n.startTime)),
		Children:  make([]nodeJSON, 0, len(children)),
	}
	for _, c := range children {
		out.Children = append(out.Children, t.toNodeJSON(c, now))
	}
	return out
}

// MarshalJSON implements the JSON-like serialization contract:
// {current, tree, detached}, with children emitted start-time-sorted.
func (t *Tree) MarshalJSON() ([]byte, error) {
	now := t.clock.Now()
	out := treeJSON{
		Current: t.current,
		Tree:    t.toNodeJSON(t.root, now),
	}
	for id := range t.nodes {
		if t.isDetachedRoot(NodeID(id)) {
			out.Detached = append(out.Detached, t.toNodeJSON(NodeID(id), now))
		}
	}
	return json.Marshal(out)
}
