package vm

import "runtime"

// ---------------------------------------------------------------------------
// ExecToken: the exclusive-execution token
// ---------------------------------------------------------------------------

// ExecToken is the permission to run managed code. By default one token
// exists per process, so one thread runs managed code at a time; an
// interpreter configured with OwnToken carries a private token instead,
// trading direct object sharing for parallelism.
//
// The token is released and reacquired only at explicit safe points (the
// eval breaker checks), never implicitly inside pool or queue operations.
type ExecToken struct {
	// A plain channel-of-one semaphore rather than sync.Mutex: a token can
	// be acquired on one goroutine and released on another when the host
	// migrates an attached thread.
	sem    chan struct{}
	holder *ThreadState
}

func newExecToken() *ExecToken {
	return &ExecToken{sem: make(chan struct{}, 1)}
}

// Acquire blocks until ts holds the token.
func (t *ExecToken) Acquire(ts *ThreadState) {
	t.sem <- struct{}{}
	t.holder = ts
}

// Release gives the token up. Releasing a token held by another thread is
// a host programming error.
func (t *ExecToken) Release(ts *ThreadState) {
	if t.holder != ts {
		ts.interp.runtime.fatalf("thread %d released a token it does not hold", ts.ID)
	}
	t.holder = nil
	<-t.sem
}

// Holder returns the thread currently holding the token, or nil. Only
// meaningful to the holder itself; other threads may see a stale value.
func (t *ExecToken) Holder() *ThreadState {
	return t.holder
}

// YieldIfRequested hands the token off when another thread has requested
// it, then clears the yield request and recomputes the breaker. Called by
// the evaluation loop at safe points; a no-op when no yield is pending.
func (ts *ThreadState) YieldIfRequested() {
	c := &ts.interp.ceval
	if !c.YieldRequested() {
		return
	}
	tok := ts.interp.token
	tok.Release(ts)
	runtime.Gosched()
	tok.Acquire(ts)
	c.ClearYieldRequest()
}
