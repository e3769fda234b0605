package awaittree

import "context"

// wrapperState is the state machine driving Instrumented.Poll:
// Initial(Span) -> Polled{node_id, context_id} -> Ready, or Initial -> Disabled.
type wrapperState int

const (
	stateInitial wrapperState = iota
	statePolled
	stateReady
	stateDisabled
)

// Instrumented wraps a Future so that each of its polls pushes, steps in and
// out of, and eventually pops a node in the ambient Context's tree. It is
// the Go shape of the core instrumented-future state machine.
//
// An Instrumented value is single-use and not safe for concurrent polling,
// mirroring the fused, pin-once contract of the computation it wraps.
type Instrumented[T any] struct {
	inner       Future[T]
	span        Span
	verboseOnly bool

	state wrapperState
	node  NodeID
	ctxID contextID
}

// InstrumentAwait wraps inner with span, recorded in the tree when polled
// inside a Context. If span carries the verbose attribute, it behaves like
// VerboseInstrumentAwait and is recorded only in a verbose context.
func InstrumentAwait[T any](inner Future[T], span Span) *Instrumented[T] {
	return &Instrumented[T]{inner: inner, span: span, verboseOnly: span.IsVerbose()}
}

// VerboseInstrumentAwait wraps inner with span, but only actually
// instruments it when the ambient context was registered with Config.Verbose
// true; otherwise the wrapper disables itself and polls inner directly,
// per the verbose-and-context-not-verbose branch of the Initial state.
func VerboseInstrumentAwait[T any](inner Future[T], span Span) *Instrumented[T] {
	return &Instrumented[T]{inner: inner, span: span.Verbose(), verboseOnly: true}
}

// Poll implements Future, driving the wrapper's state machine.
func (w *Instrumented[T]) Poll(ctx context.Context) (T, bool) {
	switch w.state {
	case stateInitial:
		return w.pollInitial(ctx)
	case statePolled:
		return w.pollPolled(ctx)
	case stateReady:
		panicContractViolation("await-tree: instrumented future polled again after completion")
	case stateDisabled:
		return w.inner.Poll(ctx)
	}
	panic("unreachable wrapperState")
}

func (w *Instrumented[T]) pollInitial(ctx context.Context) (T, bool) {
	tc, ok := FromContext(ctx)
	if !ok {
		// Transparent outside a tree: no context to push onto.
		return w.inner.Poll(ctx)
	}
	if w.verboseOnly && !tc.Verbose() {
		w.state = stateDisabled
		return w.inner.Poll(ctx)
	}

	var node NodeID
	tc.withTree(func(t *Tree) {
		node = t.Push(w.span)
	})
	w.node, w.ctxID, w.state = node, tc.id, statePolled

	return w.pollInner(ctx, tc)
}

func (w *Instrumented[T]) pollPolled(ctx context.Context) (T, bool) {
	tc, ok := FromContext(ctx)
	switch {
	case !ok:
		Logger.Printf("future polled not in a context (span %q) at %s", w.span.Name(), callerStacktrace(1))
		return w.inner.Poll(ctx)
	case tc.id != w.ctxID:
		Logger.Printf("future polled in a different context (span %q) at %s", w.span.Name(), callerStacktrace(1))
		return w.inner.Poll(ctx)
	}

	tc.withTree(func(t *Tree) {
		t.StepIn(w.node)
	})
	return w.pollInner(ctx, tc)
}

// pollInner runs the inner poll with the tree lock released, then finalizes
// by stepping out (Pending) or popping (Ready) under the lock, per
// the ordering constraint that the lock must not be held across
// the inner poll.
func (w *Instrumented[T]) pollInner(ctx context.Context, tc *Context) (T, bool) {
	value, ready := w.inner.Poll(ctx)
	if ready {
		tc.withTree(func(t *Tree) {
			t.Pop()
		})
		w.state = stateReady
		return value, true
	}
	tc.withTree(func(t *Tree) {
		t.StepOut()
	})
	return value, false
}

// Close implements the drop semantics for a wrapper
// abandoned while State = Polled{node, ctx_id} (e.g. the goroutine driving it
// was cancelled before the inner future completed). Go has no destructors,
// so callers that may abandon a wrapper mid-flight must call Close
// explicitly; callers who always poll to completion need not call it.
//
// Close is a no-op in every other state.
func (w *Instrumented[T]) Close(ctx context.Context) {
	if w.state != statePolled {
		return
	}
	tc, ok := FromContext(ctx)
	if !ok || tc.id != w.ctxID {
		Logger.Printf("future dropped outside its context; leaking node (span %q) at %s", w.span.Name(), callerStacktrace(1))
		w.state = stateReady
		return
	}
	tc.withTree(func(t *Tree) {
		t.RemoveAndDetach(w.node)
	})
	w.state = stateReady
}
