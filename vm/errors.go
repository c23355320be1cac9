package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

var (
	// ErrPendingFull is returned when a pending call is submitted to a full
	// queue. The caller may retry or drop the call.
	ErrPendingFull = errors.New("pending-call queue is full")

	// ErrInterpNotFound is returned for an identity that was never assigned
	// or has already been released.
	ErrInterpNotFound = errors.New("interpreter not found")

	// ErrNotShareable is returned when a value's kind has no registered
	// share function.
	ErrNotShareable = errors.New("kind is not shareable")

	// ErrConfigImmutable is returned by ApplyConfig for fields that are
	// fixed at interpreter creation.
	ErrConfigImmutable = errors.New("config field is immutable")
)

// fatalf reports an invariant violation in the embedding host. These are
// programming errors: proceeding would corrupt shared state, so the failure
// is made loud and immediate rather than returned.
func (r *Runtime) fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.log.Critical(msg)
	panic("quill fatal: " + msg)
}
