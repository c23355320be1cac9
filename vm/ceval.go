package vm

import "sync/atomic"

// ---------------------------------------------------------------------------
// Evaluation concurrency state: the eval breaker and its contributors
// ---------------------------------------------------------------------------

// CevalState aggregates every reason the evaluation loop should leave its
// fast path into one atomic flag, the eval breaker. The loop checks the
// breaker at safe points; when set, it drains pending calls, delivers an
// asynchronous exception, or yields the exclusive-execution token.
//
// The breaker is always recomputed from its contributing conditions, never
// incrementally cleared, so it cannot go stale: it is true whenever any
// contributor is true.
type CevalState struct {
	evalBreaker  atomic.Bool
	yieldRequest atomic.Bool

	pending pendingCalls

	// recursionLimit is consulted by the evaluation loop; exceeding it is
	// reported there, not enforced here. Mutated only under the
	// exclusive-execution token.
	recursionLimit int

	// tracingPossible counts threads with an installed trace hook. The
	// loop tests "counter > 0" before the per-call trace dispatch.
	tracingPossible atomic.Int32
}

func (c *CevalState) init(recursionLimit int) {
	c.recursionLimit = recursionLimit
}

// ComputeEvalBreaker recomputes the breaker from all contributing
// conditions. Called after any contributor changes.
func (c *CevalState) ComputeEvalBreaker() {
	c.evalBreaker.Store(c.pending.callsToDo.Load() > 0 ||
		c.pending.asyncExc.Load() ||
		c.yieldRequest.Load())
}

// signalPending raises the breaker after a successful pending-call submit.
// The atomic count is already visible; this makes the loop look.
func (c *CevalState) signalPending() {
	c.evalBreaker.Store(true)
}

// BreakerSet reports whether the evaluation loop should leave its fast
// path. This is the only check the loop performs per safe point.
func (c *CevalState) BreakerSet() bool {
	return c.evalBreaker.Load()
}

// RequestYield asks the thread holding the exclusive-execution token to
// release it at the next safe point.
func (c *CevalState) RequestYield() {
	c.yieldRequest.Store(true)
	c.evalBreaker.Store(true)
}

// ClearYieldRequest resets the yield request after the token has been
// handed off, then recomputes the breaker from what remains.
func (c *CevalState) ClearYieldRequest() {
	c.yieldRequest.Store(false)
	c.ComputeEvalBreaker()
}

// YieldRequested reports whether a token handoff is pending.
func (c *CevalState) YieldRequested() bool {
	return c.yieldRequest.Load()
}

// RequestAsyncInterrupt asks the evaluation loop to look at the current
// thread's asynchronous-exception slot.
func (c *CevalState) RequestAsyncInterrupt() {
	c.pending.asyncExc.Store(true)
	c.evalBreaker.Store(true)
}

// ClearAsyncInterrupt resets the request after the loop has looked, then
// recomputes the breaker from what remains.
func (c *CevalState) ClearAsyncInterrupt() {
	c.pending.asyncExc.Store(false)
	c.ComputeEvalBreaker()
}

// AsyncInterruptRequested reports whether the loop has been asked to check
// for an asynchronous exception.
func (c *CevalState) AsyncInterruptRequested() bool {
	return c.pending.asyncExc.Load()
}

// IncTracing records that a thread installed a trace hook.
func (c *CevalState) IncTracing() {
	c.tracingPossible.Add(1)
}

// DecTracing records that a thread removed its trace hook.
func (c *CevalState) DecTracing() {
	c.tracingPossible.Add(-1)
}

// TracingPossible reports whether any thread of this interpreter has a
// trace hook installed.
func (c *CevalState) TracingPossible() bool {
	return c.tracingPossible.Load() > 0
}

// SetRecursionLimit sets the recursion-depth limit consulted by the
// evaluation loop.
func (c *CevalState) SetRecursionLimit(limit int) {
	c.recursionLimit = limit
}

// RecursionLimit returns the current recursion-depth limit.
func (c *CevalState) RecursionLimit() int {
	return c.recursionLimit
}
