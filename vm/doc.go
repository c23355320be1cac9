// Package vm implements the per-process runtime-state core of the Quill
// execution engine.
//
// This package contains:
//   - The interpreter registry, identity assignment, and identity refcounting
//   - Per-interpreter evaluation concurrency state (the eval breaker),
//     pending-call queue, and exclusive-execution token
//   - Fixed-capacity object recycling pools and small-value caches
//   - The cross-interpreter data registry for moving immutable values
//     between isolated interpreters
//
// The bytecode evaluation loop, parser, and full object model live above
// this package and consume it through InterpreterState and Runtime.
package vm
