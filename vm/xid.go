package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Cross-interpreter data registry
// ---------------------------------------------------------------------------
//
// Interpreters share no mutable objects. Moving a value across an isolation
// boundary means snapshotting it into a CrossData: the declared kind plus a
// CBOR payload containing no references into the source interpreter's
// object graph. The registry maps kinds to snapshot functions; once a kind
// is declared shareable the capability is process-global and permanent;
// there is no removal path.

// cborEnc is the canonical CBOR encoding mode used for share payloads, so
// equal values always snapshot to equal bytes.
var cborEnc cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEnc = em
}

// ShareFunc produces an isolation-safe payload for a value of one kind.
type ShareFunc func(v Value) ([]byte, error)

// CrossData is a sharable snapshot of a value. It is plain bytes plus
// bookkeeping and can be handed to any interpreter, or held while both
// source and destination keep running.
type CrossData struct {
	Kind     Kind   `cbor:"kind"`
	SourceID int64  `cbor:"source-id"`
	Payload  []byte `cbor:"payload"`
}

// RegisterShareable declares a kind shareable, adding or replacing its
// snapshot function. A later registration shadows the earlier one.
func (r *Runtime) RegisterShareable(k Kind, fn ShareFunc) {
	r.shareMu.Lock()
	r.shareFns[k] = fn
	r.shareMu.Unlock()
}

// LookupShareable returns the snapshot function registered for a kind.
func (r *Runtime) LookupShareable(k Kind) (ShareFunc, bool) {
	r.shareMu.Lock()
	defer r.shareMu.Unlock()
	fn, ok := r.shareFns[k]
	return fn, ok
}

// ShareValue snapshots v for transfer out of interp. Fails with
// ErrNotShareable when v's kind has no registered snapshot function.
func (r *Runtime) ShareValue(interp *InterpreterState, v Value) (*CrossData, error) {
	fn, ok := r.LookupShareable(v.Kind())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotShareable, v.Kind())
	}
	payload, err := fn(v)
	if err != nil {
		return nil, fmt.Errorf("share %s: %w", v.Kind(), err)
	}
	return &CrossData{
		Kind:     v.Kind(),
		SourceID: interp.ID(),
		Payload:  payload,
	}, nil
}

// NewValue rebuilds the snapshot inside the destination interpreter,
// consulting its small-value caches and pools so shared small values keep
// their identity guarantees. Caller must hold dst's exclusive-execution
// token, as for any allocation.
func (cd *CrossData) NewValue(dst *InterpreterState) (Value, error) {
	switch cd.Kind {
	case KindNil:
		return Nil, nil
	case KindBool:
		var b bool
		if err := cbor.Unmarshal(cd.Payload, &b); err != nil {
			return nil, fmt.Errorf("unshare bool: %w", err)
		}
		if b {
			return True, nil
		}
		return False, nil
	case KindInt:
		var n int64
		if err := cbor.Unmarshal(cd.Payload, &n); err != nil {
			return nil, fmt.Errorf("unshare int: %w", err)
		}
		return dst.NewInt(n), nil
	case KindFloat:
		var f float64
		if err := cbor.Unmarshal(cd.Payload, &f); err != nil {
			return nil, fmt.Errorf("unshare float: %w", err)
		}
		return dst.NewFloat(f), nil
	case KindString:
		var s string
		if err := cbor.Unmarshal(cd.Payload, &s); err != nil {
			return nil, fmt.Errorf("unshare string: %w", err)
		}
		return dst.NewString(s), nil
	case KindBytes:
		var b []byte
		if err := cbor.Unmarshal(cd.Payload, &b); err != nil {
			return nil, fmt.Errorf("unshare bytes: %w", err)
		}
		return dst.NewBytes(b), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotShareable, cd.Kind)
	}
}

// registerDefaultShareables installs the snapshot functions for the kinds
// that are shareable out of the box: immutable scalars and byte/text
// strings.
func registerDefaultShareables(r *Runtime) {
	r.RegisterShareable(KindNil, func(Value) ([]byte, error) {
		return cborEnc.Marshal(nil)
	})
	r.RegisterShareable(KindBool, func(v Value) ([]byte, error) {
		return cborEnc.Marshal(v.(*BoolBox).V)
	})
	r.RegisterShareable(KindInt, func(v Value) ([]byte, error) {
		return cborEnc.Marshal(v.(*IntBox).V)
	})
	r.RegisterShareable(KindFloat, func(v Value) ([]byte, error) {
		return cborEnc.Marshal(v.(*FloatBox).V)
	})
	r.RegisterShareable(KindString, func(v Value) ([]byte, error) {
		return cborEnc.Marshal(v.(*StrBox).V)
	})
	r.RegisterShareable(KindBytes, func(v Value) ([]byte, error) {
		return cborEnc.Marshal(v.(*BytesBox).V)
	})
}
