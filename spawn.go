package awaittree

import "context"

// Spawn launches fn on its own goroutine with ctx passed through unchanged,
// so any Context bound to ctx (see WithContext) is visible to fn exactly as
// it would be to a synchronous callee. This is the degenerate case: the
// task-local binding is ordinary Go context propagation, so "spawning"
// requires no special-cased helper beyond documenting the convention.
func Spawn(ctx context.Context, fn func(context.Context)) {
	go fn(ctx)
}

// SpawnRoot registers a new root Context named rootSpan in r under key (or
// anonymously if key is nil), then launches fn on its own goroutine with
// both task-local bindings installed, per the instrument
// contract. It returns the RootHandle so the caller can inspect its Context;
// the handle does not record the registry key, and for an anonymous
// registration the key is not returned.
func SpawnRoot(ctx context.Context, r *Registry, key any, rootSpan Span, cfg Config, fn func(context.Context)) *RootHandle {
	h := Register(r, key, rootSpan, cfg)
	go Instrument(ctx, h, fn)
	return h
}

// SpawnAnonymous is SpawnRoot with an anonymous registration.
func SpawnAnonymous(ctx context.Context, r *Registry, rootSpan Span, cfg Config, fn func(context.Context)) *RootHandle {
	return SpawnRoot(ctx, r, nil, rootSpan, cfg, fn)
}
