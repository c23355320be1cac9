package vm

// ---------------------------------------------------------------------------
// Value: Minimal object surface for the runtime-state core
// ---------------------------------------------------------------------------

// Kind identifies the runtime kind of a value. The recycling pools and the
// cross-interpreter share registry are both keyed by Kind; the full object
// model (method dispatch, class hierarchy) lives above this core.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindTuple
	KindList
	KindDict
	KindDictKeys
	KindFrame
	KindGenValue
	KindGenSend
	KindExecContext
	KindOutOfMemory
	KindSlice
)

var kindNames = [...]string{
	KindNil:         "nil",
	KindBool:        "bool",
	KindInt:         "int",
	KindFloat:       "float",
	KindString:      "string",
	KindBytes:       "bytes",
	KindTuple:       "tuple",
	KindList:        "list",
	KindDict:        "dict",
	KindDictKeys:    "dict-keys",
	KindFrame:       "frame",
	KindGenValue:    "gen-value",
	KindGenSend:     "gen-send",
	KindExecContext: "exec-context",
	KindOutOfMemory: "out-of-memory",
	KindSlice:       "slice",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is the minimal interface the runtime core needs from an object:
// enough identity to route it through pools and the share registry.
type Value interface {
	Kind() Kind
}

// ---------------------------------------------------------------------------
// Box types
//
// These are headers, not a full object representation. The evaluation loop
// and type implementations build on them; the core only creates, caches,
// recycles, and snapshots them.
// ---------------------------------------------------------------------------

// NilBox is the nil singleton's type.
type NilBox struct{}

// BoolBox is the type of the true/false singletons.
type BoolBox struct {
	V bool
}

// Shared immutable singletons. Unlike the per-interpreter caches these are
// process-global: they carry no mutable state and no back-references, so
// sharing them across interpreters cannot leak isolation.
var (
	Nil   = &NilBox{}
	True  = &BoolBox{V: true}
	False = &BoolBox{V: false}
)

// IntBox holds a boxed integer.
type IntBox struct {
	V int64
}

// FloatBox holds a boxed float. Recyclable.
type FloatBox struct {
	V float64
}

// StrBox holds an immutable string.
type StrBox struct {
	V string
}

// BytesBox holds an immutable byte string.
type BytesBox struct {
	V []byte
}

// Tuple is a fixed-arity sequence header. Recyclable per arity.
type Tuple struct {
	Items []Value
}

// List is a variable-length sequence header. Recyclable.
type List struct {
	Items []Value
}

// DictKeys is a dictionary key table. Recyclable separately from Dict
// because key tables can be shared between dict instances split from the
// same layout.
type DictKeys struct {
	Names []string
}

// Dict is a dictionary header. Recyclable.
type Dict struct {
	Keys   *DictKeys
	Values []Value
}

// Frame is a call-frame record. Recyclable.
type Frame struct {
	Locals []Value
	Back   *Frame
	Depth  int
}

// GenValue wraps a value yielded through a generator continuation.
// Short-lived (one per resume), hence recyclable.
type GenValue struct {
	Wrapped Value
}

// GenSend is a generator-continuation send record. Short-lived, recyclable.
type GenSend struct {
	Target Value
	Armed  bool
}

// ExecContext is an execution-context record. Recyclable.
type ExecContext struct {
	Vars map[string]Value
	Prev *ExecContext
}

// OutOfMemory is a preallocated out-of-memory error record. Recycled so
// that reporting allocation failure never itself allocates.
type OutOfMemory struct {
	Msg string
}

// Slice is a slice-bounds record. Cached one-deep per interpreter since
// typically a single slice is created and then destroyed again immediately.
type Slice struct {
	Start, Stop, Step Value
}

func (*NilBox) Kind() Kind      { return KindNil }
func (*BoolBox) Kind() Kind     { return KindBool }
func (*IntBox) Kind() Kind      { return KindInt }
func (*FloatBox) Kind() Kind    { return KindFloat }
func (*StrBox) Kind() Kind      { return KindString }
func (*BytesBox) Kind() Kind    { return KindBytes }
func (*Tuple) Kind() Kind       { return KindTuple }
func (*List) Kind() Kind        { return KindList }
func (*DictKeys) Kind() Kind    { return KindDictKeys }
func (*Dict) Kind() Kind        { return KindDict }
func (*Frame) Kind() Kind       { return KindFrame }
func (*GenValue) Kind() Kind    { return KindGenValue }
func (*GenSend) Kind() Kind     { return KindGenSend }
func (*ExecContext) Kind() Kind { return KindExecContext }
func (*OutOfMemory) Kind() Kind { return KindOutOfMemory }
func (*Slice) Kind() Kind       { return KindSlice }
