package awaittree

import "context"

// contextKey is the unexported type used to store await-tree values in a
// context.Context, following the same private-key-type idiom as the
// teacher's spanContextKey{} and frebib-zrepl's contextKeyTraceNode.
type contextKey struct{ name string }

var treeContextKey = contextKey{"awaittree.context"}

// WithContext installs tc as the active Context for the dynamic extent of
// whatever runs with the returned context.Context. This is the
// task-local binding (C4): context.Context already gives us "visible to
// every synchronous step of a computation, including nested callees, until
// it yields control, and restored on resume" for free, because a cooperative
// computation in Go carries its context explicitly through every call and
// channel handoff it makes — there is no separate mechanism to build.
//
// Re-entering WithContext inside a computation already scoped to one shadows
// the outer binding for the inner extent, exactly as context.WithValue
// shadowing already works.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, treeContextKey, tc)
}

// FromContext returns the Context installed by the nearest enclosing
// WithContext call, or (nil, false) if ctx descends from no such call.
func FromContext(ctx context.Context) (*Context, bool) {
	tc, ok := ctx.Value(treeContextKey).(*Context)
	return tc, ok
}
