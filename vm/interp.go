package vm

import (
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// InterpreterState: one isolated interpreter instance
// ---------------------------------------------------------------------------

// InterpreterState holds everything owned by a single interpreter: its
// module table, concurrency state, recycling pools, and small-value caches.
// Pools and caches are never touched by another interpreter; the identity
// table and share registry on the Runtime are the only cross-interpreter
// structures.
type InterpreterState struct {
	runtime *Runtime

	// Arena bookkeeping, maintained by the registry under its lock.
	slot int
	next int

	// Lazy external identity. id stays 0 (unassigned) until an external
	// handle first asks for it; idMu guards idRefcount only. Identity
	// lifetime is independent of interpreter lifetime, which is why this
	// mutex is separate from the registry's.
	id            int64
	idRefcount    int64
	requiresIDRef bool
	idMu          sync.Mutex

	// finalizing is set exactly once, before teardown begins, and is
	// observed by cooperating threads. destroyed is set while the record is
	// unlinked and is read by enumerators without the registry lock.
	finalizing atomic.Bool
	destroyed  atomic.Bool

	modules      map[string]Value
	builtins     Value
	importModule Value

	// Thread list, linked at head. Mutated only under the interpreter's
	// exclusive-execution token.
	threads      *ThreadState
	numThreads   int
	tstateNextID uint64

	token *ExecToken

	ceval CevalState
	free  *FreeLists
	small *smallValues

	config Config

	// Scratch state for the external parse-tree printer: an indentation
	// level and a start-of-line flag, reset before each print pass and
	// meaningless between passes. The core never interprets them.
	PrintLevel       int
	PrintAtLineStart bool
}

func newInterpreterState(r *Runtime, cfg Config) *InterpreterState {
	interp := &InterpreterState{
		runtime: r,
		next:    -1,
		modules: make(map[string]Value),
		free:    newFreeLists(cfg.Pools),
		small:   newSmallValues(),
		config:  cfg,
	}
	interp.ceval.init(cfg.RecursionLimit)
	if cfg.OwnToken {
		interp.token = newExecToken()
	} else {
		interp.token = r.token
	}
	return interp
}

// Runtime returns the process-wide runtime owning this interpreter.
func (interp *InterpreterState) Runtime() *Runtime {
	return interp.runtime
}

// Ceval returns the interpreter's evaluation concurrency state.
func (interp *InterpreterState) Ceval() *CevalState {
	return &interp.ceval
}

// FreeLists returns the interpreter's recycling pools.
func (interp *InterpreterState) FreeLists() *FreeLists {
	return interp.free
}

// Token returns the exclusive-execution token this interpreter's threads
// contend for: the process-wide one, or the interpreter's own in isolated
// mode.
func (interp *InterpreterState) Token() *ExecToken {
	return interp.token
}

// Finalize marks the interpreter as tearing down. Monotonic: once set it is
// never cleared, so cooperating threads can cache a false result but must
// re-check before suspension points.
func (interp *InterpreterState) Finalize() {
	interp.finalizing.Store(true)
}

// Finalizing reports whether teardown has begun.
func (interp *InterpreterState) Finalizing() bool {
	return interp.finalizing.Load()
}

// ---------------------------------------------------------------------------
// Module table
// ---------------------------------------------------------------------------

// SetModule registers a named module in the interpreter's module table.
func (interp *InterpreterState) SetModule(name string, module Value) {
	interp.modules[name] = module
}

// LookupModule returns the named module, or nil when absent.
func (interp *InterpreterState) LookupModule(name string) Value {
	return interp.modules[name]
}

// ClearModules empties the module table and drops the designated
// namespaces. Called during teardown, before the interpreter is unlinked.
func (interp *InterpreterState) ClearModules() {
	clear(interp.modules)
	interp.builtins = nil
	interp.importModule = nil
}

// SetBuiltins designates the builtins namespace.
func (interp *InterpreterState) SetBuiltins(ns Value) {
	interp.builtins = ns
}

// Builtins returns the designated builtins namespace, or nil.
func (interp *InterpreterState) Builtins() Value {
	return interp.builtins
}

// SetImportModule designates the import-machinery namespace.
func (interp *InterpreterState) SetImportModule(ns Value) {
	interp.importModule = ns
}

// ImportModule returns the designated import-machinery namespace, or nil.
func (interp *InterpreterState) ImportModule() Value {
	return interp.importModule
}

// ModuleCount returns the number of registered modules.
func (interp *InterpreterState) ModuleCount() int {
	return len(interp.modules)
}

// ---------------------------------------------------------------------------
// Printer scratch
// ---------------------------------------------------------------------------

// ResetPrintState resets the tree-printer scratch fields to their
// start-of-pass values: depth zero, at start of line.
func (interp *InterpreterState) ResetPrintState() {
	interp.PrintLevel = 0
	interp.PrintAtLineStart = true
}
