// Package bpc provides the box-pin-circuit graph model.
//
// A BPC graph describes a circuit-like diagram: boxes (components) carry pins
// (terminals), and pins that share a network id are electrically connected
// regardless of where they sit geometrically.
//
// # Core Types
//
//   - [Box]: a component with an id, a kind ([Fixed] or [Floating]) and a center
//   - [Pin]: a terminal on a box with an offset, a color and an optional network
//   - [Graph]: boxes and pins; networks are derived, never stored
//   - [Network]: the pins sharing one network id, produced by [Graph.Networks]
//
// # Immutability
//
// Graph is a value. Nothing in this module mutates a Graph it receives: edit
// operations and layout steps return new graphs. Slices are copied on write,
// so untouched boxes and pins may be shared between a graph and its successors.
// Callers who build graphs by hand should treat them the same way once they
// hand them to the transformer or the layout solver.
//
// # Validation
//
// [Graph.Validate] checks the structural invariants: non-empty ids, unique box
// ids, pin ids unique per box, every pin attached to an existing box and a
// known box kind. Violations are reported as INVALID_GRAPH errors wrapping one
// of the sentinel errors below, so both
//
//	errors.Is(err, bpc.ErrUnknownBox)
//
// and
//
//	apperr.Is(err, apperr.ErrCodeInvalidGraph)
//
// work.
//
// # Geometry
//
// [PinPosition], [PinDirection] and [Bounds] are the pure geometric helpers
// used by the layout solver and the debug renderer.
package bpc
