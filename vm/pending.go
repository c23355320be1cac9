package vm

import (
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Pending calls: deferred work for the thread holding the execution token
// ---------------------------------------------------------------------------

// npendingcalls is the fixed capacity of each interpreter's pending-call
// ring buffer.
const npendingcalls = 32

// PendingFunc is a deferred unit of work. The argument is opaque to the
// queue; a non-nil error propagates to the caller of RunPendingCall.
type PendingFunc func(arg any) error

type pendingCall struct {
	fn  PendingFunc
	arg any
}

// pendingCalls is a bounded FIFO ring. The mutex guards only the slots and
// indices; callsToDo is atomic so the eval breaker can be checked without
// taking the lock, and invocation happens outside the lock entirely.
type pendingCalls struct {
	mu sync.Mutex

	// callsToDo is always exactly the number of entries between first and
	// last. It doubles as the "work is pending" signal for the breaker.
	callsToDo atomic.Int32

	calls [npendingcalls]pendingCall
	first int
	last  int

	// asyncExc records a request to deliver an asynchronous exception to
	// the current thread. Atomic so the breaker recompute never reads a
	// torn value even in own-token mode; writers still hold the
	// exclusive-execution token.
	asyncExc atomic.Bool
}

// push appends an entry at last. Returns ErrPendingFull when the ring
// already holds npendingcalls entries; the entry is rejected and the indices
// are untouched.
func (p *pendingCalls) push(fn PendingFunc, arg any) error {
	p.mu.Lock()
	if int(p.callsToDo.Load()) >= npendingcalls {
		p.mu.Unlock()
		return ErrPendingFull
	}
	p.calls[p.last] = pendingCall{fn: fn, arg: arg}
	p.last = (p.last + 1) % npendingcalls
	p.callsToDo.Add(1)
	p.mu.Unlock()
	return nil
}

// pop removes the entry at first. ok is false when the ring is empty.
func (p *pendingCalls) pop() (pendingCall, bool) {
	p.mu.Lock()
	if p.callsToDo.Load() == 0 {
		p.mu.Unlock()
		return pendingCall{}, false
	}
	call := p.calls[p.first]
	p.calls[p.first] = pendingCall{}
	p.first = (p.first + 1) % npendingcalls
	p.callsToDo.Add(-1)
	p.mu.Unlock()
	return call, true
}

// ---------------------------------------------------------------------------
// Interpreter-level API
// ---------------------------------------------------------------------------

// AddPendingCall schedules fn to run on whichever thread next holds the
// interpreter's exclusive-execution token. A successful submit raises the
// eval breaker; entries run exactly once, in submission order, unless the
// interpreter is destroyed first (which is fatal if entries remain).
func (interp *InterpreterState) AddPendingCall(fn PendingFunc, arg any) error {
	if err := interp.ceval.pending.push(fn, arg); err != nil {
		return err
	}
	interp.ceval.signalPending()
	return nil
}

// RunPendingCall drains one pending entry and invokes it. Must be called
// only by a thread holding the interpreter's exclusive-execution token.
// ran is false when the queue was empty. An invocation error propagates to
// the caller; the queue itself stays consistent either way.
func (interp *InterpreterState) RunPendingCall() (ran bool, err error) {
	call, ok := interp.ceval.pending.pop()
	if !ok {
		return false, nil
	}
	interp.ceval.ComputeEvalBreaker()
	return true, call.fn(call.arg)
}

// RunPendingCalls drains and invokes up to max entries (all queued entries
// when max <= 0), stopping at the first invocation error.
func (interp *InterpreterState) RunPendingCalls(max int) (ran int, err error) {
	if max <= 0 {
		max = npendingcalls
	}
	for ran < max {
		ok, err := interp.RunPendingCall()
		if !ok {
			return ran, nil
		}
		ran++
		if err != nil {
			return ran, err
		}
	}
	return ran, nil
}

// PendingCallCount returns the number of queued-but-undrained entries.
func (interp *InterpreterState) PendingCallCount() int {
	return int(interp.ceval.pending.callsToDo.Load())
}
