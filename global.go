package awaittree

import (
	"context"
	"sync/atomic"
)

// globalRegistrySlot is the process-wide one-shot cell described in
// a single write guarded against double-initialization,
// after which reads are lock-free.
var globalRegistrySlot atomic.Pointer[Registry]

// InitGlobalRegistry installs r as the process-wide global registry used as
// the fallback by CurrentRegistry and Current when no task-local RootHandle
// is bound. It panics if called a second time, matching the one-shot
// contract.
func InitGlobalRegistry(r *Registry) {
	if !globalRegistrySlot.CompareAndSwap(nil, r) {
		panicContractViolation("await-tree: global registry already initialized")
	}
}

// globalRegistry returns the installed global registry, if any.
func globalRegistry() (*Registry, bool) {
	r := globalRegistrySlot.Load()
	return r, r != nil
}

// Current is the panicking counterpart of CurrentRegistry, for callers that
// consider an absent registry a programming error rather than something to
// degrade gracefully around.
func Current(ctx context.Context) *Registry {
	r, ok := CurrentRegistry(ctx)
	if !ok {
		panicContractViolation("await-tree: no registry installed for this context, and no global registry")
	}
	return r
}
