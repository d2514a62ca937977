// Package ports declares the small set of interfaces the engine depends on
// but does not own the implementation of: id generation and, in tests, a
// seam for deterministic ids. The engine's notion of time is never an
// interface — spec.md §4.1 makes the monotonic cursor a concrete engine
// field, not a pluggable clock, precisely so replay stays deterministic.
package ports

// IDGenerator produces surrogate ids for entities spec.md does not mandate
// a deterministic id form for (tasks, orders, audit entries, basket items,
// pending picks). Production uses google/uuid; tests use a sequence.
type IDGenerator interface {
	NewID() string
}
