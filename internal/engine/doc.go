// Package engine hosts the normalized state and applies commands to it.
//
// The engine is the state container around reducer.Reduce. It owns the
// current *ir.State and is the only writer: every command, whether passed
// to Dispatch or drained from the queue by Run, is applied under one lock in
// arrival order. Readers call State (or use the engine as a selector.Source)
// from any goroutine; published states are immutable, so no reader ever
// observes a partial transition.
//
// Each applied command is stamped with a seq from the logical Clock and an
// id from the IDGenerator, recorded in the journal (when enabled), counted
// in the metrics, and handed to subscribers.
//
// # Determinism
//
// The reducer is pure, so replaying the journal from the same initial state
// yields a state with the same content hash. Verify checks exactly that.
package engine
