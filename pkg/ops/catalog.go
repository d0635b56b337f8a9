package ops

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/cost"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
)

var (
	// ErrUnknownKind is returned when an operation's kind has no handler in
	// the catalog.
	ErrUnknownKind = errors.New("unknown operation kind")

	// ErrNotApplicable is returned by [Catalog.TryApply] when an operation
	// cannot be applied to the graph. [Catalog.Apply] panics with it.
	ErrNotApplicable = errors.New("operation not applicable")
)

// Handler implements one operation kind. All three functions must be pure.
// Apply must return a new graph for every input Applicable accepts and must
// never write to the graph it receives.
type Handler struct {
	Applicable func(g bpc.Graph, op Operation) bool
	Apply      func(g bpc.Graph, op Operation) bpc.Graph
	Cost       func(g bpc.Graph, op Operation, cfg cost.Config) float64
}

// Catalog is a registry of operation handlers keyed by kind.
//
// A Catalog is not safe for concurrent Register calls. Once built it may be
// shared read-only between goroutines.
type Catalog struct {
	handlers map[Kind]Handler
	order    []Kind
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{handlers: make(map[Kind]Handler)}
}

// DefaultCatalog returns a catalog with every built-in kind registered.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	c.Register(KindAddBox, addBoxHandler)
	c.Register(KindRemoveBox, removeBoxHandler)
	c.Register(KindAddPin, addPinHandler)
	c.Register(KindRemovePin, removePinHandler)
	c.Register(KindMovePin, movePinHandler)
	c.Register(KindChangePinColor, changePinColorHandler)
	c.Register(KindChangePinNetwork, changePinNetworkHandler)
	return c
}

// Register adds or replaces the handler for kind. It panics if any of the
// handler's functions is nil.
func (c *Catalog) Register(kind Kind, h Handler) {
	if h.Applicable == nil || h.Apply == nil || h.Cost == nil {
		panic(fmt.Sprintf("ops: incomplete handler for %q", kind))
	}
	if _, ok := c.handlers[kind]; !ok {
		c.order = append(c.order, kind)
	}
	c.handlers[kind] = h
}

// Has reports whether kind is registered.
func (c *Catalog) Has(kind Kind) bool {
	_, ok := c.handlers[kind]
	return ok
}

// Kinds returns the registered kinds in registration order.
func (c *Catalog) Kinds() []Kind { return slices.Clone(c.order) }

// Handler returns the handler for kind.
func (c *Catalog) Handler(kind Kind) (Handler, bool) {
	h, ok := c.handlers[kind]
	return h, ok
}

// Without returns a copy of the catalog with the given kinds removed.
func (c *Catalog) Without(kinds ...Kind) *Catalog {
	out := &Catalog{handlers: maps.Clone(c.handlers)}
	for _, k := range kinds {
		delete(out.handlers, k)
	}
	for _, k := range c.order {
		if _, ok := out.handlers[k]; ok {
			out.order = append(out.order, k)
		}
	}
	return out
}

// Only returns a copy of the catalog restricted to the given kinds. Kinds
// that are not registered are ignored.
func (c *Catalog) Only(kinds ...Kind) *Catalog {
	out := NewCatalog()
	for _, k := range c.order {
		if slices.Contains(kinds, k) {
			out.Register(k, c.handlers[k])
		}
	}
	return out
}

// Applicable reports whether op can be applied to g. Unknown kinds are never
// applicable.
func (c *Catalog) Applicable(g bpc.Graph, op Operation) bool {
	h, ok := c.handlers[op.Kind]
	return ok && h.Applicable(g, op)
}

// Apply applies op to g and returns the successor graph.
//
// Calling Apply with an operation that is not applicable is a programming
// error and panics. Use [Catalog.TryApply] for untrusted operations.
func (c *Catalog) Apply(g bpc.Graph, op Operation) bpc.Graph {
	next, err := c.TryApply(g, op)
	if err != nil {
		panic(err)
	}
	return next
}

// TryApply is like Apply but returns an INVALID_OPERATION error instead of
// panicking.
func (c *Catalog) TryApply(g bpc.Graph, op Operation) (bpc.Graph, error) {
	h, ok := c.handlers[op.Kind]
	if !ok {
		return bpc.Graph{}, apperr.Wrap(apperr.ErrCodeInvalidOperation, ErrUnknownKind, "%q", op.Kind)
	}
	if !h.Applicable(g, op) {
		return bpc.Graph{}, apperr.Wrap(apperr.ErrCodeInvalidOperation, ErrNotApplicable, "%s", op)
	}
	return h.Apply(g, op), nil
}

// Cost prices op against the graph it would be applied to. It panics for
// unknown kinds.
func (c *Catalog) Cost(g bpc.Graph, op Operation, cfg cost.Config) float64 {
	h, ok := c.handlers[op.Kind]
	if !ok {
		panic(apperr.Wrap(apperr.ErrCodeInvalidOperation, ErrUnknownKind, "%q", op.Kind))
	}
	return h.Cost(g, op, cfg)
}

// Replay applies chain to g in order and returns the final graph together
// with the summed cost, each operation priced against the graph it was
// applied to. It stops at the first operation that cannot be applied.
func (c *Catalog) Replay(g bpc.Graph, chain []Operation, cfg cost.Config) (bpc.Graph, float64, error) {
	total := 0.0
	for i, op := range chain {
		next, err := c.TryApply(g, op)
		if err != nil {
			return g, total, fmt.Errorf("operation %d: %w", i, err)
		}
		total += c.Cost(g, op, cfg)
		g = next
	}
	return g, total, nil
}
