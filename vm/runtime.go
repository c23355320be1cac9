package vm

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Runtime: process-wide state shared by all interpreters
// ---------------------------------------------------------------------------

// Runtime owns the interpreter registry, the identity table, the
// cross-interpreter share registry, and the process-wide exclusive-execution
// token. Exactly the identity table and share registry are shared between
// interpreters; everything else on an InterpreterState is private to it.
type Runtime struct {
	// InstanceID distinguishes this runtime in logs when a host embeds
	// several processes' output in one stream.
	InstanceID string

	log commonlog.Logger

	// Interpreter arena. Records are addressed by stable slot index; the
	// insertion-order chain is expressed through per-record next indices
	// rather than owning pointers, so enumeration never chases a pointer
	// into a destroyed record. regMu serializes arena mutation; mutators
	// must additionally hold an exclusive-execution token.
	regMu sync.Mutex
	slots []*InterpreterState
	frees []int
	head  int
	tail  int
	count int

	// Identity table: the only way an external handle reaches an
	// interpreter. One mutex for the whole table.
	idMu         sync.Mutex
	byID         map[int64]*InterpreterState
	nextInterpID atomic.Int64

	// Cross-interpreter share registry. One mutex, append-or-replace only.
	shareMu  sync.Mutex
	shareFns map[Kind]ShareFunc

	token *ExecToken
	main  *InterpreterState
}

// NewRuntime creates the process runtime and its main interpreter.
func NewRuntime(cfg Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runtime{
		InstanceID: uuid.New().String(),
		log:        commonlog.GetLogger("quill.runtime"),
		byID:       make(map[int64]*InterpreterState),
		shareFns:   make(map[Kind]ShareFunc),
		token:      newExecToken(),
		head:       -1,
		tail:       -1,
	}
	registerDefaultShareables(r)
	r.main = r.NewInterpreter(cfg)
	r.log.Infof("runtime %s up, main interpreter ready", r.InstanceID)
	return r, nil
}

// MainInterpreter returns the interpreter created with the runtime.
func (r *Runtime) MainInterpreter() *InterpreterState {
	return r.main
}

// ---------------------------------------------------------------------------
// Interpreter registry
// ---------------------------------------------------------------------------

// NewInterpreter creates an interpreter and links it at the tail of the
// registry. Order is insertion order; it carries no semantic weight.
// Caller must hold an exclusive-execution token. An invalid config is a
// host programming error here (use Config.Validate to check beforehand).
func (r *Runtime) NewInterpreter(cfg Config) *InterpreterState {
	if err := cfg.Validate(); err != nil {
		r.fatalf("interpreter created with invalid config: %v", err)
	}
	interp := newInterpreterState(r, cfg)

	r.regMu.Lock()
	var slot int
	if n := len(r.frees); n > 0 {
		slot = r.frees[n-1]
		r.frees = r.frees[:n-1]
		r.slots[slot] = interp
	} else {
		slot = len(r.slots)
		r.slots = append(r.slots, interp)
	}
	interp.slot = slot
	interp.next = -1
	if r.tail >= 0 {
		r.slots[r.tail].next = slot
	} else {
		r.head = slot
	}
	r.tail = slot
	r.count++
	r.regMu.Unlock()

	return interp
}

// DestroyInterpreter tears an interpreter down and unlinks it from the
// registry as the final step. Finalize must have been called first; threads
// still attached or undrained pending calls are invariant violations and
// fatal, since proceeding would corrupt shared state.
func (r *Runtime) DestroyInterpreter(interp *InterpreterState) {
	if interp.destroyed.Load() {
		r.fatalf("interpreter %d destroyed twice", interp.slot)
	}
	if !interp.Finalizing() {
		r.fatalf("interpreter %d destroyed without finalizing", interp.slot)
	}
	if interp.numThreads > 0 {
		r.fatalf("interpreter %d destroyed with %d attached threads", interp.slot, interp.numThreads)
	}
	if n := interp.PendingCallCount(); n > 0 {
		r.fatalf("interpreter %d destroyed with %d undrained pending calls", interp.slot, n)
	}

	interp.ClearModules()
	r.releaseID(interp)

	r.regMu.Lock()
	prev := -1
	for i := r.head; i >= 0; i = r.slots[i].next {
		if i == interp.slot {
			break
		}
		prev = i
	}
	if prev >= 0 {
		r.slots[prev].next = interp.next
	} else {
		r.head = interp.next
	}
	if r.tail == interp.slot {
		r.tail = prev
	}
	r.slots[interp.slot] = nil
	r.frees = append(r.frees, interp.slot)
	r.count--
	interp.destroyed.Store(true)
	r.regMu.Unlock()

	if interp == r.main {
		r.main = nil
	}
	r.log.Infof("interpreter destroyed (slot %d)", interp.slot)
}

// ForEachInterpreter visits every currently registered interpreter in
// insertion order, stopping early when visit returns false. The traversal
// is restartable, not a snapshot: the id list is captured under the
// registry lock, then visited without it, so interpreters created or
// destroyed by the visitor (or concurrently) may or may not be seen.
func (r *Runtime) ForEachInterpreter(visit func(*InterpreterState) bool) {
	r.regMu.Lock()
	live := make([]*InterpreterState, 0, r.count)
	for i := r.head; i >= 0; i = r.slots[i].next {
		live = append(live, r.slots[i])
	}
	r.regMu.Unlock()

	for _, interp := range live {
		if interp.destroyed.Load() {
			continue
		}
		if !visit(interp) {
			return
		}
	}
}

// InterpreterCount returns the number of registered interpreters.
func (r *Runtime) InterpreterCount() int {
	r.regMu.Lock()
	defer r.regMu.Unlock()
	return r.count
}

// Shutdown finalizes and destroys every interpreter, main last. Pending
// calls still queued anywhere are drained first so teardown stays legal.
func (r *Runtime) Shutdown() error {
	var firstErr error
	var all []*InterpreterState
	r.ForEachInterpreter(func(interp *InterpreterState) bool {
		all = append(all, interp)
		return true
	})
	// Main goes down last: subinterpreter teardown may still schedule
	// work onto it.
	for pass := 0; pass < 2; pass++ {
		for _, interp := range all {
			if (interp == r.main) == (pass == 0) {
				continue
			}
			interp.Finalize()
			if _, err := interp.RunPendingCalls(0); err != nil && firstErr == nil {
				firstErr = err
			}
			r.DestroyInterpreter(interp)
		}
	}
	r.log.Infof("runtime %s down", r.InstanceID)
	return firstErr
}
