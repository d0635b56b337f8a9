package bpc

import (
	"errors"
	"maps"
	"math"
	"slices"
)

var (
	// ErrInvalidID is returned by [Graph.Validate] when a box or pin id is
	// empty or malformed.
	ErrInvalidID = errors.New("invalid id")

	// ErrDuplicateBoxID is returned by [Graph.Validate] when two boxes share
	// the same id.
	ErrDuplicateBoxID = errors.New("duplicate box ID")

	// ErrDuplicatePinID is returned by [Graph.Validate] when two pins on the
	// same box share a pin id. Pin ids are scoped per box.
	ErrDuplicatePinID = errors.New("duplicate pin ID")

	// ErrUnknownBox is returned by [Graph.Validate] when a pin references a
	// box that is not part of the graph.
	ErrUnknownBox = errors.New("unknown box")

	// ErrInvalidBoxKind is returned by [Graph.Validate] when a box kind is
	// neither fixed nor floating.
	ErrInvalidBoxKind = errors.New("invalid box kind")
)

// BoxKind tells the layout solver whether a box may move.
type BoxKind string

const (
	// Fixed boxes have an externally pinned position and never move.
	Fixed BoxKind = "fixed"
	// Floating boxes are free to move under layout.
	Floating BoxKind = "floating"
)

// Valid reports whether k is a known kind.
func (k BoxKind) Valid() bool { return k == Fixed || k == Floating }

// Point is a 2D coordinate. It doubles as a vector for offsets and forces.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point { return Point{X: p.X * s, Y: p.Y * s} }

// Len returns the Euclidean norm of p.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return p.Sub(q).Len() }

// Box is a component in the diagram.
type Box struct {
	BoxID  string  `json:"boxId"`
	Kind   BoxKind `json:"kind"`
	Center Point   `json:"center"`
}

// IsFixed reports whether the box has an externally pinned position.
func (b Box) IsFixed() bool { return b.Kind == Fixed }

// Pin is a terminal on a box. The absolute position is box center + Offset.
// An empty NetworkID means the pin is unconnected.
type Pin struct {
	BoxID     string `json:"boxId"`
	PinID     string `json:"pinId"`
	Offset    Point  `json:"offset"`
	Color     string `json:"color"`
	NetworkID string `json:"networkId,omitempty"`
}

// Connected reports whether the pin belongs to a network.
func (p Pin) Connected() bool { return p.NetworkID != "" }

// PinRef identifies a pin within a graph.
type PinRef struct {
	BoxID string `json:"boxId"`
	PinID string `json:"pinId"`
}

// Ref returns the pin's identity.
func (p Pin) Ref() PinRef { return PinRef{BoxID: p.BoxID, PinID: p.PinID} }

// Network is the set of pins sharing a network id, in graph order.
type Network struct {
	NetworkID string
	Pins      []Pin
}

// Graph is a box-pin-circuit graph.
//
// The zero value is an empty, valid graph.
type Graph struct {
	Boxes []Box `json:"boxes"`
	Pins  []Pin `json:"pins"`
}

// Clone returns a graph with freshly allocated slices.
func (g Graph) Clone() Graph {
	return Graph{Boxes: slices.Clone(g.Boxes), Pins: slices.Clone(g.Pins)}
}

// Box returns the box with the given id and true, or the zero Box and false.
func (g Graph) Box(id string) (Box, bool) {
	i := g.BoxIndex(id)
	if i < 0 {
		return Box{}, false
	}
	return g.Boxes[i], true
}

// BoxIndex returns the index of the box in g.Boxes, or -1.
func (g Graph) BoxIndex(id string) int {
	return slices.IndexFunc(g.Boxes, func(b Box) bool { return b.BoxID == id })
}

// Pin returns the pin with the given identity and true, or the zero Pin and false.
func (g Graph) Pin(boxID, pinID string) (Pin, bool) {
	i := g.PinIndex(boxID, pinID)
	if i < 0 {
		return Pin{}, false
	}
	return g.Pins[i], true
}

// PinIndex returns the index of the pin in g.Pins, or -1.
func (g Graph) PinIndex(boxID, pinID string) int {
	return slices.IndexFunc(g.Pins, func(p Pin) bool { return p.BoxID == boxID && p.PinID == pinID })
}

// PinsOf returns the pins attached to the box, in graph order.
// The returned slice is a copy.
func (g Graph) PinsOf(boxID string) []Pin {
	var pins []Pin
	for _, p := range g.Pins {
		if p.BoxID == boxID {
			pins = append(pins, p)
		}
	}
	return pins
}

// HasPin reports whether a pin with the given identity exists.
func (g Graph) HasPin(boxID, pinID string) bool { return g.PinIndex(boxID, pinID) >= 0 }

// NetworkIDs returns the distinct network ids in ascending order.
func (g Graph) NetworkIDs() []string {
	seen := make(map[string]struct{})
	for _, p := range g.Pins {
		if p.Connected() {
			seen[p.NetworkID] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Networks groups connected pins by network id. Networks are sorted by id and
// pins keep graph order. Unconnected pins are not part of any network.
func (g Graph) Networks() []Network {
	byID := make(map[string][]Pin)
	for _, p := range g.Pins {
		if p.Connected() {
			byID[p.NetworkID] = append(byID[p.NetworkID], p)
		}
	}
	nets := make([]Network, 0, len(byID))
	for _, id := range slices.Sorted(maps.Keys(byID)) {
		nets = append(nets, Network{NetworkID: id, Pins: byID[id]})
	}
	return nets
}

// BoxIDs returns the box ids in graph order.
func (g Graph) BoxIDs() []string {
	ids := make([]string, len(g.Boxes))
	for i, b := range g.Boxes {
		ids[i] = b.BoxID
	}
	return ids
}

// Empty reports whether the graph has no boxes and no pins.
func (g Graph) Empty() bool { return len(g.Boxes) == 0 && len(g.Pins) == 0 }
