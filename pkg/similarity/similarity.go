// Package similarity estimates how far one BPC graph is from another.
//
// [Distance] is both the transformer's heuristic and its goal test. It pairs
// the boxes and pins of the two graphs by attributes, never by id, and prices
// every remaining difference with the same [cost.Config] the operations use:
//
//   - a missing target box costs base × (1 + its pin count)
//   - an extra source box costs base (its pins go with it)
//   - a missing or extra pin on a paired box costs base
//   - a paired pin pays for its color, offset and network differences
//
// Box centers and box ids do not contribute; box kinds must agree for two
// boxes to be paired.
//
// Boxes and pins are paired by a minimum-cost assignment, so in NetworkLabels
// mode adding a difference never lowers the distance. The estimate is still
// not a lower bound on the true remaining cost, so searches guided by it are
// best-first rather than provably optimal.
package similarity

import (
	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/cost"
)

// NetworkMode selects how network ids are compared.
type NetworkMode int

const (
	// NetworkLabels compares network ids literally: a pin on N1 differs from
	// a pin on N2 even if both networks contain the same pins.
	NetworkLabels NetworkMode = iota

	// NetworkPartition compares network membership up to relabeling. Graphs
	// that differ only by network names are recognised by a bounded search
	// for a consistent pairing; otherwise source networks are mapped
	// one-to-one onto target networks by how many paired pins they share.
	NetworkPartition
)

// String returns "labels" or "partition".
func (m NetworkMode) String() string {
	if m == NetworkPartition {
		return "partition"
	}
	return "labels"
}

// ParseNetworkMode parses the output of [NetworkMode.String]. The empty
// string yields NetworkLabels.
func ParseNetworkMode(s string) (NetworkMode, bool) {
	switch s {
	case "", "labels":
		return NetworkLabels, true
	case "partition":
		return NetworkPartition, true
	}
	return NetworkLabels, false
}

// Option configures [Distance].
type Option func(*options)

type options struct {
	mode NetworkMode
}

// WithNetworkMode sets the network comparison mode.
func WithNetworkMode(m NetworkMode) Option {
	return func(o *options) { o.mode = m }
}

// OffsetTolerance is the distance below which two pin offsets are considered
// equal.
const OffsetTolerance = 1e-9

// Pair links an element of the source graph (A) to one of the target graph
// (B). The meaning of the indices depends on the slice holding the pair.
type Pair struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Matching describes how the source graph lines up with the target graph.
type Matching struct {
	// Boxes pairs indices into a.Boxes with indices into b.Boxes.
	Boxes []Pair `json:"boxes"`
	// Pins pairs indices into a.Pins with indices into b.Pins.
	Pins []Pair `json:"pins"`
	// MissingBoxes are indices into b.Boxes with no partner.
	MissingBoxes []int `json:"missingBoxes,omitempty"`
	// ExtraBoxes are indices into a.Boxes with no partner.
	ExtraBoxes []int `json:"extraBoxes,omitempty"`
	// MissingPins pairs the index of a host box in a.Boxes with the index of
	// a target pin in b.Pins that has no partner on that box. Pins of
	// missing boxes are not listed.
	MissingPins []Pair `json:"missingPins,omitempty"`
	// ExtraPins are indices into a.Pins on paired boxes with no partner.
	ExtraPins []int `json:"extraPins,omitempty"`
	// Networks maps every target network id to the id a source pin should
	// carry to agree with it. In NetworkLabels mode this is the identity.
	Networks map[string]string `json:"networks,omitempty"`
}

// Breakdown splits a distance by the kind of difference.
type Breakdown struct {
	Color      float64 `json:"color"`
	Move       float64 `json:"move"`
	Network    float64 `json:"network"`
	Structural float64 `json:"structural"`
}

// Result is the outcome of [Distance].
type Result struct {
	// Distance is the estimated cost to turn a into b. It is never negative.
	Distance float64 `json:"distance"`
	// Mismatches counts individual differences. Zero means the graphs are
	// equivalent, independent of how the differences would be priced.
	Mismatches int `json:"mismatches"`
	// Matching is the pairing the estimate is based on.
	Matching Matching `json:"matching"`
	// Breakdown splits Distance by category.
	Breakdown Breakdown `json:"breakdown"`
}

// Equivalent reports whether the result found no differences.
func (r Result) Equivalent() bool { return r.Mismatches == 0 }

// Distance estimates the cost of transforming a into b under cfg.
func Distance(a, b bpc.Graph, cfg cost.Config, opts ...Option) Result {
	o := options{mode: NetworkLabels}
	for _, opt := range opts {
		opt(&o)
	}
	return newEstimator(a, b, cfg, o.mode).run()
}

// Equivalent reports whether a and b are equivalent under the given options.
func Equivalent(a, b bpc.Graph, opts ...Option) bool {
	return Distance(a, b, cost.Default(), opts...).Equivalent()
}
