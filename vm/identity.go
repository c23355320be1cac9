package vm

// ---------------------------------------------------------------------------
// Interpreter identity and identity refcounting
// ---------------------------------------------------------------------------
//
// An interpreter gets a numeric identity only when something external first
// asks for one; interpreters never exposed outside the process pay nothing.
// Identities are monotonic and never reused within the process lifetime, so
// they give a total order (of assignment, not creation). The identity
// refcount governs only the identity-table entry, never the interpreter
// itself: releasing the last external reference makes the id unresolvable
// but leaves the interpreter running.

// EnsureID assigns the interpreter's identity on first call and returns it;
// later calls return the same identity. Safe to call from any thread.
func (interp *InterpreterState) EnsureID() int64 {
	interp.idMu.Lock()
	defer interp.idMu.Unlock()
	if interp.id == 0 {
		interp.id = interp.runtime.nextInterpID.Add(1)
		interp.requiresIDRef = true
		interp.runtime.storeID(interp.id, interp)
	}
	return interp.id
}

// ID returns the assigned identity, or 0 when none has been requested yet.
func (interp *InterpreterState) ID() int64 {
	interp.idMu.Lock()
	defer interp.idMu.Unlock()
	return interp.id
}

// IDIncref records one more external handle to the interpreter, assigning
// the identity first if needed. Increfing from zero after the last handle
// released the table entry re-inserts it, so a positive refcount always
// means a resolvable id.
func (interp *InterpreterState) IDIncref() {
	interp.idMu.Lock()
	defer interp.idMu.Unlock()
	if interp.id == 0 {
		interp.id = interp.runtime.nextInterpID.Add(1)
		interp.requiresIDRef = true
		interp.runtime.storeID(interp.id, interp)
	} else if interp.idRefcount == 0 {
		interp.runtime.storeID(interp.id, interp)
	}
	interp.idRefcount++
}

// IDDecref drops one external handle. When the count reaches zero the
// identity-table entry is released, making the id unresolvable; the
// interpreter itself is untouched. A decref without a matching incref is a
// host programming error, not a wrap to a negative count.
func (interp *InterpreterState) IDDecref() {
	interp.idMu.Lock()
	if interp.id == 0 || interp.idRefcount <= 0 {
		interp.idMu.Unlock()
		interp.runtime.fatalf("identity decref without matching incref (id=%d refs=%d)",
			interp.id, interp.idRefcount)
	}
	interp.idRefcount--
	release := interp.idRefcount == 0
	id := interp.id
	interp.idMu.Unlock()

	if release {
		interp.runtime.dropID(id)
	}
}

// IDRefcount returns the current external handle count.
func (interp *InterpreterState) IDRefcount() int64 {
	interp.idMu.Lock()
	defer interp.idMu.Unlock()
	return interp.idRefcount
}

// RequiresIDRef reports whether any external handle has ever existed.
func (interp *InterpreterState) RequiresIDRef() bool {
	interp.idMu.Lock()
	defer interp.idMu.Unlock()
	return interp.requiresIDRef
}

// LookupInterpreterByID resolves an identity to its interpreter. The result
// carries no reference: a caller keeping it across a suspension point must
// IDIncref it first, since the registry may change underneath.
func (r *Runtime) LookupInterpreterByID(id int64) (*InterpreterState, error) {
	r.idMu.Lock()
	defer r.idMu.Unlock()
	interp, ok := r.byID[id]
	if !ok {
		return nil, ErrInterpNotFound
	}
	return interp, nil
}

func (r *Runtime) storeID(id int64, interp *InterpreterState) {
	r.idMu.Lock()
	r.byID[id] = interp
	r.idMu.Unlock()
}

func (r *Runtime) dropID(id int64) {
	r.idMu.Lock()
	delete(r.byID, id)
	r.idMu.Unlock()
}

// releaseID removes the interpreter's identity entry at destroy time,
// regardless of the refcount: a destroyed interpreter must never be
// resolvable.
func (r *Runtime) releaseID(interp *InterpreterState) {
	interp.idMu.Lock()
	id := interp.id
	interp.idRefcount = 0
	interp.idMu.Unlock()
	if id != 0 {
		r.dropID(id)
	}
}
