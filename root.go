package awaittree

import (
	"context"
	"weak"
)

// RootHandle holds a strong reference to a task's tree Context and a weak
// reference to the Registry it was registered in. Its
// single consumer operation is Instrument.
type RootHandle struct {
	tc       *Context
	registry weak.Pointer[Registry]
}

// rootHandleKey is the context.Context key the RootHandle itself is stored
// under, distinct from treeContextKey so CurrentRegistry can find the
// registry even from inside a spawned sub-computation that only inherited
// the RootHandle binding.
type rootHandleKeyType struct{}

var rootHandleKey = rootHandleKeyType{}

// Register creates a new root Context named rootSpan under cfg, registers it
// in r under key (or anonymously if key is nil), and returns the RootHandle
// that binds it.
func Register(r *Registry, key any, rootSpan Span, cfg Config) *RootHandle {
	tc := newContext(rootSpan, cfg.Verbose, cfg.Clock)
	if key == nil {
		key = r.RegisterAnonymous(tc)
	} else {
		r.Register(key, tc)
	}
	return &RootHandle{tc: tc, registry: weak.Make(r)}
}

// Context returns the handle's strong tree Context.
func (h *RootHandle) Context() *Context { return h.tc }

// Instrument installs both the RootHandle and its tree Context as task-local
// bindings on ctx and runs fn with the result, per the two-binding
// instrument(computation) contract. The bindings are scoped to fn's call and
// everything it calls synchronously or hands ctx to; they do not outlive the
// call.
func Instrument(ctx context.Context, h *RootHandle, fn func(context.Context)) {
	ctx = context.WithValue(ctx, rootHandleKey, h)
	ctx = WithContext(ctx, h.tc)
	fn(ctx)
}

// rootHandleFromContext returns the RootHandle installed by the nearest
// enclosing Instrument call, if any.
func rootHandleFromContext(ctx context.Context) (*RootHandle, bool) {
	h, ok := ctx.Value(rootHandleKey).(*RootHandle)
	return h, ok
}

// CurrentRegistry implements current-registry discovery: it first looks
// for the RootHandle installed by Instrument and upgrades its weak registry
// pointer, falling back to the process-wide global registry (see global.go)
// if that fails or no RootHandle is bound.
func CurrentRegistry(ctx context.Context) (*Registry, bool) {
	if h, ok := rootHandleFromContext(ctx); ok {
		if r := h.registry.Value(); r != nil {
			return r, true
		}
	}
	return globalRegistry()
}
