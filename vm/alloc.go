package vm

import "unicode/utf8"

// ---------------------------------------------------------------------------
// Allocation fast paths: caches first, pools second, allocator last
// ---------------------------------------------------------------------------
//
// Constructors check the small-value caches, then the recycling pools, and
// only then allocate. Free* hands storage back to the pools; an overflow is
// not an error, the instance simply dies to the collector. All of these
// assume the caller holds the interpreter's exclusive-execution token.

// NewInt returns the box for n, shared from the small-int cache when n is
// in the cached range.
func (interp *InterpreterState) NewInt(n int64) *IntBox {
	if b, ok := interp.small.SmallInt(n); ok {
		return b
	}
	return &IntBox{V: n}
}

// NewFloat returns a float box, recycled when possible.
func (interp *InterpreterState) NewFloat(f float64) *FloatBox {
	if b, ok := interp.free.AcquireFloat(); ok {
		b.V = f
		return b
	}
	return &FloatBox{V: f}
}

// FreeFloat recycles a float box.
func (interp *InterpreterState) FreeFloat(b *FloatBox) {
	interp.free.ReleaseFloat(b)
}

// NewString returns a string box, shared from the cache for the empty
// string and single-rune Latin-1 strings. The rune is decoded, not taken
// byte-wise: a lone high byte is not valid UTF-8 and must come back
// unchanged, never re-encoded as U+0080..U+00FF.
func (interp *InterpreterState) NewString(s string) *StrBox {
	if s == "" {
		return interp.small.EmptyString()
	}
	if r, size := utf8.DecodeRuneInString(s); size == len(s) && r != utf8.RuneError {
		if b, ok := interp.small.CharString(r); ok {
			return b
		}
	}
	return &StrBox{V: s}
}

// NewBytes returns a bytes box, shared from the cache for empty and
// single-byte strings. The input is copied: boxes are immutable.
func (interp *InterpreterState) NewBytes(b []byte) *BytesBox {
	switch len(b) {
	case 0:
		return interp.small.EmptyBytes()
	case 1:
		return interp.small.ByteChar(b[0])
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return &BytesBox{V: cp}
}

// NewTuple returns a tuple of the given arity with zeroed slots: the
// empty-tuple singleton for arity 0, recycled storage when pooled.
func (interp *InterpreterState) NewTuple(arity int) *Tuple {
	if arity == 0 {
		return interp.small.EmptyTuple()
	}
	if t, ok := interp.free.AcquireTuple(arity); ok {
		return t
	}
	return &Tuple{Items: make([]Value, arity)}
}

// FreeTuple recycles a tuple. The empty-tuple singleton is never recycled.
func (interp *InterpreterState) FreeTuple(t *Tuple) {
	if len(t.Items) == 0 {
		return
	}
	interp.free.ReleaseTuple(t)
}

// NewList returns a list header, recycled when possible.
func (interp *InterpreterState) NewList() *List {
	if l, ok := interp.free.AcquireList(); ok {
		return l
	}
	return &List{}
}

// FreeList recycles a list header.
func (interp *InterpreterState) FreeList(l *List) {
	interp.free.ReleaseList(l)
}

// NewDict returns a dict header, recycled when possible.
func (interp *InterpreterState) NewDict() *Dict {
	if d, ok := interp.free.AcquireDict(); ok {
		return d
	}
	return &Dict{}
}

// FreeDict recycles a dict header and its key table separately.
func (interp *InterpreterState) FreeDict(d *Dict) {
	if d.Keys != nil {
		interp.free.ReleaseDictKeys(d.Keys)
	}
	interp.free.ReleaseDict(d)
}

// NewFrame returns a call-frame record, recycled when possible.
func (interp *InterpreterState) NewFrame() *Frame {
	if fr, ok := interp.free.AcquireFrame(); ok {
		return fr
	}
	return &Frame{}
}

// FreeFrame recycles a call-frame record.
func (interp *InterpreterState) FreeFrame(fr *Frame) {
	interp.free.ReleaseFrame(fr)
}

// NewGenValue returns a generator value wrapper, recycled when possible.
func (interp *InterpreterState) NewGenValue(wrapped Value) *GenValue {
	if g, ok := interp.free.AcquireGenValue(); ok {
		g.Wrapped = wrapped
		return g
	}
	return &GenValue{Wrapped: wrapped}
}

// FreeGenValue recycles a generator value wrapper.
func (interp *InterpreterState) FreeGenValue(g *GenValue) {
	interp.free.ReleaseGenValue(g)
}

// NewGenSend returns a generator send record, recycled when possible.
func (interp *InterpreterState) NewGenSend(target Value) *GenSend {
	if g, ok := interp.free.AcquireGenSend(); ok {
		g.Target = target
		return g
	}
	return &GenSend{Target: target}
}

// FreeGenSend recycles a generator send record.
func (interp *InterpreterState) FreeGenSend(g *GenSend) {
	interp.free.ReleaseGenSend(g)
}

// NewContext returns an execution-context record, recycled when possible.
func (interp *InterpreterState) NewContext() *ExecContext {
	if c, ok := interp.free.AcquireContext(); ok {
		if c.Vars == nil {
			c.Vars = make(map[string]Value)
		}
		return c
	}
	return &ExecContext{Vars: make(map[string]Value)}
}

// FreeContext recycles an execution-context record.
func (interp *InterpreterState) FreeContext(c *ExecContext) {
	interp.free.ReleaseContext(c)
}

// NewMemError returns an out-of-memory record. Recycling keeps error
// reporting allocation-free once the pool is warm.
func (interp *InterpreterState) NewMemError(msg string) *OutOfMemory {
	if e, ok := interp.free.AcquireMemError(); ok {
		e.Msg = msg
		return e
	}
	return &OutOfMemory{Msg: msg}
}

// FreeMemError recycles an out-of-memory record.
func (interp *InterpreterState) FreeMemError(e *OutOfMemory) {
	interp.free.ReleaseMemError(e)
}

// NewSlice returns a slice record from the one-slot cache when present.
func (interp *InterpreterState) NewSlice(start, stop, step Value) *Slice {
	if s, ok := interp.small.AcquireSlice(); ok {
		s.Start, s.Stop, s.Step = start, stop, step
		return s
	}
	return &Slice{Start: start, Stop: stop, Step: step}
}

// FreeSlice returns a slice record to the one-slot cache.
func (interp *InterpreterState) FreeSlice(s *Slice) {
	interp.small.ReleaseSlice(s)
}
