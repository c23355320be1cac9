package vm

// ---------------------------------------------------------------------------
// Small-value caches: shared immutable instances keyed by value
// ---------------------------------------------------------------------------
//
// Like the recycling pools, these are owned by one interpreter and consulted
// only by the thread holding its exclusive-execution token, so there is no
// locking. Unlike the pools, cached instances are live shared objects: the
// same box is handed out for the same logical value every time, and the
// caches never shrink.

const (
	// Small integers in [-smallIntNegCount, smallIntPosCount) are
	// preallocated and shared.
	smallIntNegCount = 5
	smallIntPosCount = 257

	// Single-character strings and single-byte byte strings are cached for
	// code points 0..255 (Latin-1 range).
	charCacheSize = 256
)

type smallValues struct {
	smallInts [smallIntNegCount + smallIntPosCount]*IntBox

	// Lazily filled on first lookup.
	chars     [charCacheSize]*StrBox
	byteChars [charCacheSize]*BytesBox

	emptyStr   *StrBox
	emptyBytes *BytesBox
	emptyTuple *Tuple

	// One-slot slice-record cache.
	sliceCache *Slice
}

func newSmallValues() *smallValues {
	sv := &smallValues{}
	for i := range sv.smallInts {
		sv.smallInts[i] = &IntBox{V: int64(i - smallIntNegCount)}
	}
	return sv
}

// SmallInt returns the shared box for v, creating nothing: small ints are
// preallocated at interpreter creation. ok is false when v is outside the
// cached range.
func (sv *smallValues) SmallInt(v int64) (*IntBox, bool) {
	if v < -smallIntNegCount || v >= smallIntPosCount {
		return nil, false
	}
	return sv.smallInts[v+smallIntNegCount], true
}

// CharString returns the shared single-character string for r, lazily
// creating it on first request. ok is false outside the Latin-1 range.
func (sv *smallValues) CharString(r rune) (*StrBox, bool) {
	if r < 0 || r >= charCacheSize {
		return nil, false
	}
	if sv.chars[r] == nil {
		sv.chars[r] = &StrBox{V: string(r)}
	}
	return sv.chars[r], true
}

// ByteChar returns the shared single-byte byte string for b, lazily
// creating it on first request.
func (sv *smallValues) ByteChar(b byte) *BytesBox {
	if sv.byteChars[b] == nil {
		sv.byteChars[b] = &BytesBox{V: []byte{b}}
	}
	return sv.byteChars[b]
}

// EmptyString returns the empty-string singleton.
func (sv *smallValues) EmptyString() *StrBox {
	if sv.emptyStr == nil {
		sv.emptyStr = &StrBox{}
	}
	return sv.emptyStr
}

// EmptyBytes returns the empty-bytes singleton.
func (sv *smallValues) EmptyBytes() *BytesBox {
	if sv.emptyBytes == nil {
		sv.emptyBytes = &BytesBox{V: []byte{}}
	}
	return sv.emptyBytes
}

// EmptyTuple returns the empty-tuple singleton. At most one instance is
// ever allocated per interpreter.
func (sv *smallValues) EmptyTuple() *Tuple {
	if sv.emptyTuple == nil {
		sv.emptyTuple = &Tuple{Items: []Value{}}
	}
	return sv.emptyTuple
}

// AcquireSlice returns the cached slice record, if present.
func (sv *smallValues) AcquireSlice() (*Slice, bool) {
	s := sv.sliceCache
	if s == nil {
		return nil, false
	}
	sv.sliceCache = nil
	return s, true
}

// ReleaseSlice caches a slice record. Reports false when the slot is
// already occupied.
func (sv *smallValues) ReleaseSlice(s *Slice) bool {
	if sv.sliceCache != nil {
		return false
	}
	s.Start, s.Stop, s.Step = nil, nil, nil
	sv.sliceCache = s
	return true
}
