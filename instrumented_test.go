package awaittree

import (
	"context"
	"testing"
	"time"
)

// stepFuture is Ready only after pendingPolls additional polls.
type stepFuture struct {
	pendingPolls int
	value        int
}

func (f *stepFuture) Poll(context.Context) (int, bool) {
	if f.pendingPolls > 0 {
		f.pendingPolls--
		return 0, false
	}
	return f.value, true
}

func newTestContext(verbose bool) (context.Context, *Context) {
	clock := newFakeClock(time.Unix(0, 0))
	tc := newContext(NewSpan("root"), verbose, clock)
	return WithContext(context.Background(), tc), tc
}

func TestInstrumentedPushesAndPopsOnReady(t *testing.T) {
	ctx, tc := newTestContext(false)
	w := InstrumentAwait[int](&stepFuture{value: 7}, NewSpan("work"))

	v, ready := w.Poll(ctx)
	if !ready || v != 7 {
		t.Fatalf("Poll = (%v, %v), want (7, true)", v, ready)
	}
	if tc.tree.ActiveNodeCount() != 1 {
		t.Fatalf("ActiveNodeCount after Ready = %d, want 1 (only root left)", tc.tree.ActiveNodeCount())
	}
}

func TestInstrumentedStepsOutOnPending(t *testing.T) {
	ctx, tc := newTestContext(false)
	w := InstrumentAwait[int](&stepFuture{pendingPolls: 1, value: 5}, NewSpan("work"))

	_, ready := w.Poll(ctx)
	if ready {
		t.Fatalf("expected Pending on first poll")
	}
	if tc.tree.Current() != tc.tree.Root() {
		t.Fatalf("tree.Current should be back at root after stepping out")
	}

	v, ready := w.Poll(ctx)
	if !ready || v != 5 {
		t.Fatalf("second Poll = (%v, %v), want (5, true)", v, ready)
	}
}

func TestInstrumentedTransparentOutsideContext(t *testing.T) {
	w := InstrumentAwait[int](&stepFuture{value: 1}, NewSpan("work"))
	v, ready := w.Poll(context.Background())
	if !ready || v != 1 {
		t.Fatalf("Poll outside a context = (%v, %v), want (1, true)", v, ready)
	}
}

func TestVerboseInstrumentAwaitDisabledWhenContextNotVerbose(t *testing.T) {
	ctx, tc := newTestContext(false)
	w := VerboseInstrumentAwait[int](&stepFuture{value: 9}, NewSpan("debug-only"))

	v, ready := w.Poll(ctx)
	if !ready || v != 9 {
		t.Fatalf("Poll = (%v, %v), want (9, true)", v, ready)
	}
	if tc.tree.ActiveNodeCount() != 1 {
		t.Fatalf("verbose span should not have been pushed; ActiveNodeCount = %d", tc.tree.ActiveNodeCount())
	}
}

func TestVerboseInstrumentAwaitEnabledWhenContextVerbose(t *testing.T) {
	ctx, tc := newTestContext(true)
	w := VerboseInstrumentAwait[int](&stepFuture{pendingPolls: 1, value: 9}, NewSpan("debug-only"))

	w.Poll(ctx)
	if tc.tree.ActiveNodeCount() != 2 {
		t.Fatalf("verbose span should have been pushed; ActiveNodeCount = %d", tc.tree.ActiveNodeCount())
	}
}

func TestInstrumentedPollAfterReadyPanics(t *testing.T) {
	ctx, _ := newTestContext(false)
	w := InstrumentAwait[int](&stepFuture{value: 1}, NewSpan("work"))
	w.Poll(ctx)

	defer func() {
		if recover() == nil {
			t.Fatalf("polling a Ready wrapper again did not panic")
		}
	}()
	w.Poll(ctx)
}

func TestInstrumentedCloseRemovesNodeWhenPending(t *testing.T) {
	ctx, tc := newTestContext(false)
	w := InstrumentAwait[int](&stepFuture{pendingPolls: 1}, NewSpan("work"))
	w.Poll(ctx)

	w.Close(ctx)
	if tc.tree.ActiveNodeCount() != 1 {
		t.Fatalf("Close should have removed the node; ActiveNodeCount = %d", tc.tree.ActiveNodeCount())
	}
}

func TestInstrumentedCrossContextPollWarnsAndContinues(t *testing.T) {
	ctx1, _ := newTestContext(false)
	ctx2, _ := newTestContext(false)

	w := InstrumentAwait[int](&stepFuture{pendingPolls: 1, value: 3}, NewSpan("work"))
	w.Poll(ctx1)

	v, ready := w.Poll(ctx2)
	if !ready || v != 3 {
		t.Fatalf("cross-context poll = (%v, %v), want (3, true)", v, ready)
	}
}
