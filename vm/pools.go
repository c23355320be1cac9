package vm

// ---------------------------------------------------------------------------
// Recycling pools: fixed-capacity free lists of de-initialized instances
// ---------------------------------------------------------------------------
//
// Pools transfer ownership of already-allocated storage; they never allocate
// or free anything themselves. Every operation has a miss outcome (pool
// empty, pool full) that is not an error: the caller falls back to the
// general allocator or lets the garbage collector take the instance. The
// system must behave identically with every pool capacity set to zero.
//
// Pools belong to exactly one interpreter and are only touched by the thread
// holding that interpreter's exclusive-execution token, so there is no
// internal locking. That is what makes acquire/release fast paths.

// freeList is a fixed-capacity stack of recycled instances. The backing
// array is allocated once; len is the live count and never exceeds cap.
type freeList[T any] struct {
	items []T
}

func newFreeList[T any](capacity int) freeList[T] {
	return freeList[T]{items: make([]T, 0, capacity)}
}

// acquire pops the most recently released instance. ok is false when the
// list is empty and the caller must allocate.
func (f *freeList[T]) acquire() (v T, ok bool) {
	n := len(f.items)
	if n == 0 {
		return v, false
	}
	v = f.items[n-1]
	var zero T
	f.items[n-1] = zero
	f.items = f.items[:n-1]
	return v, true
}

// release pushes an instance for reuse. ok is false when the list is full
// and the caller must let the instance die.
func (f *freeList[T]) release(v T) bool {
	if len(f.items) == cap(f.items) {
		return false
	}
	f.items = append(f.items, v)
	return true
}

func (f *freeList[T]) count() int    { return len(f.items) }
func (f *freeList[T]) capacity() int { return cap(f.items) }

// ---------------------------------------------------------------------------
// FreeLists: one interpreter's pools, one per recyclable kind
// ---------------------------------------------------------------------------

// FreeLists aggregates the recycling pools of a single interpreter.
// Capacities come from the interpreter's PoolConfig and are fixed for the
// interpreter's lifetime.
type FreeLists struct {
	maxTupleArity int

	// tuples[i] pools tuples of arity i+1. Arity 0 is the empty-tuple
	// singleton; arities above maxTupleArity bypass pooling.
	tuples []freeList[*Tuple]

	floats    freeList[*FloatBox]
	lists     freeList[*List]
	dicts     freeList[*Dict]
	dictKeys  freeList[*DictKeys]
	frames    freeList[*Frame]
	genValues freeList[*GenValue]
	genSends  freeList[*GenSend]
	contexts  freeList[*ExecContext]
	memErrors freeList[*OutOfMemory]
}

func newFreeLists(cfg PoolConfig) *FreeLists {
	fl := &FreeLists{
		maxTupleArity: cfg.MaxTupleArity,
		tuples:        make([]freeList[*Tuple], cfg.MaxTupleArity),
		floats:        newFreeList[*FloatBox](cfg.Floats),
		lists:         newFreeList[*List](cfg.Lists),
		dicts:         newFreeList[*Dict](cfg.Dicts),
		dictKeys:      newFreeList[*DictKeys](cfg.DictKeys),
		frames:        newFreeList[*Frame](cfg.Frames),
		genValues:     newFreeList[*GenValue](cfg.GenValues),
		genSends:      newFreeList[*GenSend](cfg.GenSends),
		contexts:      newFreeList[*ExecContext](cfg.Contexts),
		memErrors:     newFreeList[*OutOfMemory](cfg.MemErrors),
	}
	for i := range fl.tuples {
		fl.tuples[i] = newFreeList[*Tuple](cfg.Tuples)
	}
	return fl
}

// AcquireTuple returns a recycled tuple of the given arity, or nil when the
// arity is unpooled (0 or above the configured maximum) or the pool is
// empty. Returned tuples have their slots zeroed and len(Items) == arity.
func (fl *FreeLists) AcquireTuple(arity int) (*Tuple, bool) {
	if arity < 1 || arity > fl.maxTupleArity {
		return nil, false
	}
	return fl.tuples[arity-1].acquire()
}

// ReleaseTuple recycles a tuple. The tuple's slots are cleared so pooled
// storage never pins a dead object graph. Reports false when the tuple's
// arity is unpooled or that arity's pool is full.
func (fl *FreeLists) ReleaseTuple(t *Tuple) bool {
	arity := len(t.Items)
	if arity < 1 || arity > fl.maxTupleArity {
		return false
	}
	for i := range t.Items {
		t.Items[i] = nil
	}
	return fl.tuples[arity-1].release(t)
}

// AcquireFloat returns a recycled float box, if any.
func (fl *FreeLists) AcquireFloat() (*FloatBox, bool) {
	return fl.floats.acquire()
}

// ReleaseFloat recycles a float box.
func (fl *FreeLists) ReleaseFloat(f *FloatBox) bool {
	f.V = 0
	return fl.floats.release(f)
}

// AcquireList returns a recycled list header, if any.
func (fl *FreeLists) AcquireList() (*List, bool) {
	return fl.lists.acquire()
}

// ReleaseList recycles a list header, keeping the backing array but
// clearing its slots.
func (fl *FreeLists) ReleaseList(l *List) bool {
	for i := range l.Items {
		l.Items[i] = nil
	}
	l.Items = l.Items[:0]
	return fl.lists.release(l)
}

// AcquireDict returns a recycled dict header, if any.
func (fl *FreeLists) AcquireDict() (*Dict, bool) {
	return fl.dicts.acquire()
}

// ReleaseDict recycles a dict header. The key table is released separately
// because key tables have their own pool.
func (fl *FreeLists) ReleaseDict(d *Dict) bool {
	d.Keys = nil
	for i := range d.Values {
		d.Values[i] = nil
	}
	d.Values = d.Values[:0]
	return fl.dicts.release(d)
}

// AcquireDictKeys returns a recycled key table, if any.
func (fl *FreeLists) AcquireDictKeys() (*DictKeys, bool) {
	return fl.dictKeys.acquire()
}

// ReleaseDictKeys recycles a key table.
func (fl *FreeLists) ReleaseDictKeys(k *DictKeys) bool {
	k.Names = k.Names[:0]
	return fl.dictKeys.release(k)
}

// AcquireFrame returns a recycled call-frame record, if any.
func (fl *FreeLists) AcquireFrame() (*Frame, bool) {
	return fl.frames.acquire()
}

// ReleaseFrame recycles a call-frame record.
func (fl *FreeLists) ReleaseFrame(fr *Frame) bool {
	for i := range fr.Locals {
		fr.Locals[i] = nil
	}
	fr.Locals = fr.Locals[:0]
	fr.Back = nil
	fr.Depth = 0
	return fl.frames.release(fr)
}

// AcquireGenValue returns a recycled generator value wrapper, if any.
func (fl *FreeLists) AcquireGenValue() (*GenValue, bool) {
	return fl.genValues.acquire()
}

// ReleaseGenValue recycles a generator value wrapper.
func (fl *FreeLists) ReleaseGenValue(g *GenValue) bool {
	g.Wrapped = nil
	return fl.genValues.release(g)
}

// AcquireGenSend returns a recycled generator send record, if any.
func (fl *FreeLists) AcquireGenSend() (*GenSend, bool) {
	return fl.genSends.acquire()
}

// ReleaseGenSend recycles a generator send record.
func (fl *FreeLists) ReleaseGenSend(g *GenSend) bool {
	g.Target = nil
	g.Armed = false
	return fl.genSends.release(g)
}

// AcquireContext returns a recycled execution-context record, if any.
func (fl *FreeLists) AcquireContext() (*ExecContext, bool) {
	return fl.contexts.acquire()
}

// ReleaseContext recycles an execution-context record. The vars map is kept
// (that is the storage being recycled) but emptied.
func (fl *FreeLists) ReleaseContext(c *ExecContext) bool {
	clear(c.Vars)
	c.Prev = nil
	return fl.contexts.release(c)
}

// AcquireMemError returns a recycled out-of-memory record, if any.
func (fl *FreeLists) AcquireMemError() (*OutOfMemory, bool) {
	return fl.memErrors.acquire()
}

// ReleaseMemError recycles an out-of-memory record.
func (fl *FreeLists) ReleaseMemError(e *OutOfMemory) bool {
	e.Msg = ""
	return fl.memErrors.release(e)
}

// Stats returns the live count of every pool, keyed by kind name (tuples
// aggregate across arities). Used by inspection surfaces.
func (fl *FreeLists) Stats() map[string]int {
	tuples := 0
	for i := range fl.tuples {
		tuples += fl.tuples[i].count()
	}
	return map[string]int{
		"tuples":        tuples,
		"floats":        fl.floats.count(),
		"lists":         fl.lists.count(),
		"dicts":         fl.dicts.count(),
		"dict-keys":     fl.dictKeys.count(),
		"frames":        fl.frames.count(),
		"gen-values":    fl.genValues.count(),
		"gen-sends":     fl.genSends.count(),
		"exec-contexts": fl.contexts.count(),
		"mem-errors":    fl.memErrors.count(),
	}
}
