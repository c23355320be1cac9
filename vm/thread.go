package vm

// ---------------------------------------------------------------------------
// ThreadState: one OS thread attached to an interpreter
// ---------------------------------------------------------------------------

// TraceFunc is the per-call trace hook installed by a debugger or profiler.
// The evaluation loop dispatches to it only when the interpreter's tracing
// counter is non-zero.
type TraceFunc func(frame *Frame, event string, arg Value)

// ThreadState is the per-thread attachment record. The thread list is
// mutated only under the interpreter's exclusive-execution token.
type ThreadState struct {
	interp *InterpreterState
	next   *ThreadState
	prev   *ThreadState

	// ID is unique within the owning interpreter, monotonically assigned.
	ID uint64

	// AsyncExc is the exception value a RequestAsyncInterrupt asks the
	// evaluation loop to deliver on this thread. Token-guarded.
	AsyncExc Value

	trace TraceFunc

	detached bool
}

// NewThreadState attaches a new thread to the interpreter, linking it at
// the head of the thread list. Caller must hold the exclusive-execution
// token. Attaching to a finalizing interpreter is a host programming error.
func (interp *InterpreterState) NewThreadState() *ThreadState {
	if interp.Finalizing() {
		interp.runtime.fatalf("thread attach on finalizing interpreter %d", interp.slot)
	}
	interp.tstateNextID++
	ts := &ThreadState{
		interp: interp,
		ID:     interp.tstateNextID,
	}
	ts.next = interp.threads
	if interp.threads != nil {
		interp.threads.prev = ts
	}
	interp.threads = ts
	interp.numThreads++
	return ts
}

// Interp returns the interpreter this thread is attached to.
func (ts *ThreadState) Interp() *InterpreterState {
	return ts.interp
}

// Destroy detaches the thread from its interpreter. Caller must hold the
// exclusive-execution token. A still-installed trace hook is removed first
// so the interpreter's tracing counter stays balanced.
func (ts *ThreadState) Destroy() {
	if ts.detached {
		ts.interp.runtime.fatalf("thread state %d destroyed twice", ts.ID)
	}
	if ts.trace != nil {
		ts.ClearTrace()
	}
	interp := ts.interp
	if ts.prev != nil {
		ts.prev.next = ts.next
	} else {
		interp.threads = ts.next
	}
	if ts.next != nil {
		ts.next.prev = ts.prev
	}
	ts.prev, ts.next = nil, nil
	ts.detached = true
	interp.numThreads--
}

// SetTrace installs a trace hook on this thread and bumps the
// interpreter's tracing counter so the evaluation loop starts pretesting.
func (ts *ThreadState) SetTrace(fn TraceFunc) {
	if ts.trace == nil && fn != nil {
		ts.interp.ceval.IncTracing()
	}
	if ts.trace != nil && fn == nil {
		ts.interp.ceval.DecTracing()
	}
	ts.trace = fn
}

// ClearTrace removes this thread's trace hook.
func (ts *ThreadState) ClearTrace() {
	ts.SetTrace(nil)
}

// Trace returns the installed trace hook, or nil.
func (ts *ThreadState) Trace() TraceFunc {
	return ts.trace
}

// ScheduleAsyncExc stores exc for delivery on this thread and raises the
// interpreter's eval breaker. The evaluation loop consumes it via
// TakeAsyncExc at the next safe point.
func (ts *ThreadState) ScheduleAsyncExc(exc Value) {
	ts.AsyncExc = exc
	ts.interp.ceval.RequestAsyncInterrupt()
}

// TakeAsyncExc returns and clears the scheduled exception, recomputing the
// breaker. Returns nil when nothing was scheduled.
func (ts *ThreadState) TakeAsyncExc() Value {
	exc := ts.AsyncExc
	ts.AsyncExc = nil
	ts.interp.ceval.ClearAsyncInterrupt()
	return exc
}

// ThreadCount returns the number of threads attached to the interpreter.
func (interp *InterpreterState) ThreadCount() int {
	return interp.numThreads
}
