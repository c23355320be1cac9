package vm

import (
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Exclusive-execution token tests
// ---------------------------------------------------------------------------

// TestToken_MutualExclusion verifies only one thread holds the token at a
// time, across goroutines.
func TestToken_MutualExclusion(t *testing.T) {
	interp := testInterp(t)
	tok := interp.Token()

	const workers = 4
	const rounds = 50
	counter := 0

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		ts := interp.NewThreadState()
		wg.Add(1)
		go func(ts *ThreadState) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				tok.Acquire(ts)
				// Unsynchronized on purpose: the token is the only guard.
				counter++
				tok.Release(ts)
			}
		}(ts)
	}
	wg.Wait()

	if counter != workers*rounds {
		t.Fatalf("counter = %d, want %d (token failed to exclude)", counter, workers*rounds)
	}

	// Detach the worker threads so teardown stays legal.
	for interp.threads != nil {
		interp.threads.Destroy()
	}
}

// TestToken_YieldHandoff verifies a requested yield releases the token at
// the next safe point, lets the waiter in, and clears the request.
func TestToken_YieldHandoff(t *testing.T) {
	interp := testInterp(t)
	tok := interp.Token()
	c := interp.Ceval()

	runner := interp.NewThreadState()
	waiter := interp.NewThreadState()
	defer runner.Destroy()
	defer waiter.Destroy()

	tok.Acquire(runner)

	acquired := make(chan struct{})
	go func() {
		tok.Acquire(waiter)
		close(acquired)
		time.Sleep(time.Millisecond)
		tok.Release(waiter)
	}()

	c.RequestYield()
	if !c.BreakerSet() {
		t.Fatal("yield request should raise the breaker")
	}

	// The safe-point check the evaluation loop would perform.
	runner.YieldIfRequested()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never got the token after yield")
	}
	if c.YieldRequested() {
		t.Fatal("yield request should be cleared after handoff")
	}
	if c.BreakerSet() {
		t.Fatal("breaker should be clear with no remaining contributors")
	}
	tok.Release(runner)
}

// TestToken_ReleaseByNonHolderIsFatal verifies the host misuse check.
func TestToken_ReleaseByNonHolderIsFatal(t *testing.T) {
	interp := testInterp(t)
	tok := interp.Token()

	holder := interp.NewThreadState()
	other := interp.NewThreadState()
	defer holder.Destroy()
	defer other.Destroy()

	tok.Acquire(holder)
	expectFatal(t, func() { tok.Release(other) })
	tok.Release(holder)
}

// TestToken_OwnTokenIsolation verifies an interpreter in isolated mode gets
// a private token, distinct from the process-wide one.
func TestToken_OwnTokenIsolation(t *testing.T) {
	rt, err := NewRuntime(DefaultConfig())
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	defer rt.Shutdown()

	cfg := DefaultConfig()
	cfg.OwnToken = true
	isolated := rt.NewInterpreter(cfg)
	shared := rt.NewInterpreter(DefaultConfig())

	if isolated.Token() == rt.MainInterpreter().Token() {
		t.Fatal("isolated interpreter should have a private token")
	}
	if shared.Token() != rt.MainInterpreter().Token() {
		t.Fatal("default interpreters should share the process token")
	}

	// Both tokens usable independently.
	ts1 := isolated.NewThreadState()
	ts2 := shared.NewThreadState()
	defer ts1.Destroy()
	defer ts2.Destroy()
	isolated.Token().Acquire(ts1)
	shared.Token().Acquire(ts2)
	isolated.Token().Release(ts1)
	shared.Token().Release(ts2)
}

// TestThread_AttachDetach verifies the thread list bookkeeping the destroy
// invariant depends on.
func TestThread_AttachDetach(t *testing.T) {
	interp := testInterp(t)

	ts1 := interp.NewThreadState()
	ts2 := interp.NewThreadState()
	ts3 := interp.NewThreadState()
	if got := interp.ThreadCount(); got != 3 {
		t.Fatalf("thread count = %d, want 3", got)
	}
	if ts1.ID == ts2.ID || ts2.ID == ts3.ID {
		t.Fatal("thread ids must be unique per interpreter")
	}

	// Remove the middle of the list.
	ts2.Destroy()
	if got := interp.ThreadCount(); got != 2 {
		t.Fatalf("thread count = %d, want 2", got)
	}
	expectFatal(t, func() { ts2.Destroy() })

	ts1.Destroy()
	ts3.Destroy()
	if got := interp.ThreadCount(); got != 0 {
		t.Fatalf("thread count = %d, want 0", got)
	}
}

// TestThread_DestroyRemovesTraceHook verifies a thread taking its hook to
// the grave keeps the tracing counter balanced.
func TestThread_DestroyRemovesTraceHook(t *testing.T) {
	interp := testInterp(t)

	ts := interp.NewThreadState()
	ts.SetTrace(func(*Frame, string, Value) {})
	if !interp.Ceval().TracingPossible() {
		t.Fatal("tracing should be on")
	}
	ts.Destroy()
	if interp.Ceval().TracingPossible() {
		t.Fatal("destroy must remove the thread's trace hook")
	}
}
