package vm

import "testing"

// ---------------------------------------------------------------------------
// Eval breaker tests
// ---------------------------------------------------------------------------

// TestBreaker_SetByEachContributor verifies the aggregate flag is raised by
// a successful pending submit, a yield request, and an async-interrupt
// request, independently.
func TestBreaker_SetByEachContributor(t *testing.T) {
	interp := testInterp(t)
	c := interp.Ceval()

	if c.BreakerSet() {
		t.Fatal("breaker should start clear")
	}

	if err := interp.AddPendingCall(func(any) error { return nil }, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !c.BreakerSet() {
		t.Fatal("breaker should be set after a successful submit")
	}
	interp.RunPendingCalls(0)
	if c.BreakerSet() {
		t.Fatal("breaker should clear once the queue is drained")
	}

	c.RequestYield()
	if !c.BreakerSet() {
		t.Fatal("breaker should be set after RequestYield")
	}
	c.ClearYieldRequest()
	if c.BreakerSet() {
		t.Fatal("breaker should clear after the yield is handled")
	}

	c.RequestAsyncInterrupt()
	if !c.BreakerSet() {
		t.Fatal("breaker should be set after RequestAsyncInterrupt")
	}
	c.ClearAsyncInterrupt()
	if c.BreakerSet() {
		t.Fatal("breaker should clear after the interrupt is handled")
	}
}

// TestBreaker_RecomputeNeverGoesStale verifies that clearing one condition
// recomputes from the others instead of blindly clearing the flag.
func TestBreaker_RecomputeNeverGoesStale(t *testing.T) {
	interp := testInterp(t)
	c := interp.Ceval()

	c.RequestYield()
	c.RequestAsyncInterrupt()
	interp.AddPendingCall(func(any) error { return nil }, nil)

	c.ClearYieldRequest()
	if !c.BreakerSet() {
		t.Fatal("breaker cleared while pending calls and async interrupt remain")
	}
	c.ClearAsyncInterrupt()
	if !c.BreakerSet() {
		t.Fatal("breaker cleared while pending calls remain")
	}
	interp.RunPendingCalls(0)
	if c.BreakerSet() {
		t.Fatal("breaker should clear once every contributor is handled")
	}
}

// TestCeval_TracingCounter verifies the fast pretest the evaluation loop
// uses before per-call trace dispatch.
func TestCeval_TracingCounter(t *testing.T) {
	interp := testInterp(t)
	c := interp.Ceval()
	ts1 := interp.NewThreadState()
	ts2 := interp.NewThreadState()
	defer ts1.Destroy()
	defer ts2.Destroy()

	if c.TracingPossible() {
		t.Fatal("tracing should start off")
	}
	hook := func(*Frame, string, Value) {}
	ts1.SetTrace(hook)
	ts2.SetTrace(hook)
	if !c.TracingPossible() {
		t.Fatal("tracing should be on with hooks installed")
	}

	// Replacing an installed hook must not double-count.
	ts1.SetTrace(func(*Frame, string, Value) {})
	ts1.ClearTrace()
	if !c.TracingPossible() {
		t.Fatal("one hook remains, tracing should still be on")
	}
	ts2.ClearTrace()
	if c.TracingPossible() {
		t.Fatal("tracing should be off with no hooks installed")
	}
}

// TestCeval_RecursionLimit verifies the limit is plain stored state,
// consulted but never enforced here.
func TestCeval_RecursionLimit(t *testing.T) {
	interp := testInterp(t)
	c := interp.Ceval()

	if got := c.RecursionLimit(); got != DefaultRecursionLimit {
		t.Fatalf("default recursion limit = %d, want %d", got, DefaultRecursionLimit)
	}
	c.SetRecursionLimit(50)
	if got := c.RecursionLimit(); got != 50 {
		t.Fatalf("recursion limit = %d, want 50", got)
	}
}

// TestCeval_AsyncExcDelivery verifies the thread-level schedule/take cycle
// around the interpreter-level interrupt flag.
func TestCeval_AsyncExcDelivery(t *testing.T) {
	interp := testInterp(t)
	ts := interp.NewThreadState()
	defer ts.Destroy()

	exc := interp.NewString("interrupted")
	ts.ScheduleAsyncExc(exc)
	if !interp.Ceval().BreakerSet() {
		t.Fatal("breaker should be set while an async exc is scheduled")
	}
	if got := ts.TakeAsyncExc(); got != Value(exc) {
		t.Fatalf("TakeAsyncExc = %v, want the scheduled value", got)
	}
	if interp.Ceval().BreakerSet() {
		t.Fatal("breaker should clear once the exc is taken")
	}
	if got := ts.TakeAsyncExc(); got != nil {
		t.Fatalf("second TakeAsyncExc = %v, want nil", got)
	}
}
