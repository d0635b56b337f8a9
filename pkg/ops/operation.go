// Package ops defines the edit operations that turn one BPC graph into
// another, and the catalog that prices and applies them.
//
// An [Operation] is an immutable value tagged by [Kind]. Behavior lives in a
// [Catalog], a registry mapping each kind to a [Handler] with three pure
// functions: Applicable, Apply and Cost. The transformer's search loop only
// talks to the catalog, so new kinds are added by registering a handler:
//
//	cat := ops.DefaultCatalog()
//	cat.Register("swap_pins", ops.Handler{...})
//
// Apply never mutates its input graph. Successor graphs share untouched
// slices with their predecessor, which is safe because no code in this module
// writes to a graph after it has been built.
package ops

import (
	"fmt"
	"strings"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
)

// Kind tags an operation.
type Kind string

// Built-in operation kinds.
const (
	KindAddBox           Kind = "add_box"
	KindRemoveBox        Kind = "remove_box"
	KindAddPin           Kind = "add_pin"
	KindRemovePin        Kind = "remove_pin"
	KindMovePin          Kind = "move_pin"
	KindChangePinColor   Kind = "change_pin_color"
	KindChangePinNetwork Kind = "change_pin_network"
)

// Kinds lists the built-in kinds in registration order.
var Kinds = []Kind{
	KindAddBox,
	KindRemoveBox,
	KindAddPin,
	KindRemovePin,
	KindMovePin,
	KindChangePinColor,
	KindChangePinNetwork,
}

// Operation is a single graph edit. Only the fields relevant to Kind are set.
//
// The From* fields record the value being replaced at the time the operation
// was proposed. They make chains readable and are ignored by Apply, which
// always acts on the graph it is given.
type Operation struct {
	Kind Kind `json:"operationType"`

	BoxID string `json:"boxId,omitempty"`
	PinID string `json:"pinId,omitempty"`

	Box       bpc.Box   `json:"box,omitzero"`
	Pin       bpc.Pin   `json:"pin,omitzero"`
	Offset    bpc.Point `json:"offset,omitzero"`
	Color     string    `json:"color,omitempty"`
	NetworkID string    `json:"networkId,omitempty"`

	FromOffset    bpc.Point `json:"fromOffset,omitzero"`
	FromColor     string    `json:"fromColor,omitempty"`
	FromNetworkID string    `json:"fromNetworkId,omitempty"`
}

// AddBox returns an operation that adds b to the graph without pins.
func AddBox(b bpc.Box) Operation {
	return Operation{Kind: KindAddBox, BoxID: b.BoxID, Box: b}
}

// RemoveBox returns an operation that removes a box and all of its pins.
func RemoveBox(boxID string) Operation {
	return Operation{Kind: KindRemoveBox, BoxID: boxID}
}

// AddPin returns an operation that attaches p to its box.
func AddPin(p bpc.Pin) Operation {
	return Operation{Kind: KindAddPin, BoxID: p.BoxID, PinID: p.PinID, Pin: p}
}

// RemovePin returns an operation that detaches a pin from its box.
func RemovePin(boxID, pinID string) Operation {
	return Operation{Kind: KindRemovePin, BoxID: boxID, PinID: pinID}
}

// MovePin returns an operation that sets a pin's offset.
func MovePin(boxID, pinID string, from, to bpc.Point) Operation {
	return Operation{Kind: KindMovePin, BoxID: boxID, PinID: pinID, Offset: to, FromOffset: from}
}

// ChangePinColor returns an operation that recolors a pin.
func ChangePinColor(boxID, pinID, from, to string) Operation {
	return Operation{Kind: KindChangePinColor, BoxID: boxID, PinID: pinID, Color: to, FromColor: from}
}

// ChangePinNetwork returns an operation that moves a pin to another network.
// An empty network id disconnects the pin.
func ChangePinNetwork(boxID, pinID, from, to string) Operation {
	return Operation{Kind: KindChangePinNetwork, BoxID: boxID, PinID: pinID, NetworkID: to, FromNetworkID: from}
}

// String renders the operation on one line, e.g.
// "change_pin_color U1/1 red -> blue".
func (op Operation) String() string {
	var sb strings.Builder
	sb.WriteString(string(op.Kind))
	sb.WriteByte(' ')
	sb.WriteString(op.BoxID)
	if op.PinID != "" {
		sb.WriteByte('/')
		sb.WriteString(op.PinID)
	}
	switch op.Kind {
	case KindAddBox:
		fmt.Fprintf(&sb, " %s at (%g, %g)", op.Box.Kind, op.Box.Center.X, op.Box.Center.Y)
	case KindAddPin:
		fmt.Fprintf(&sb, " at (%g, %g) %s", op.Pin.Offset.X, op.Pin.Offset.Y, op.Pin.Color)
		if op.Pin.NetworkID != "" {
			fmt.Fprintf(&sb, " on %s", op.Pin.NetworkID)
		}
	case KindMovePin:
		fmt.Fprintf(&sb, " (%g, %g) -> (%g, %g)", op.FromOffset.X, op.FromOffset.Y, op.Offset.X, op.Offset.Y)
	case KindChangePinColor:
		fmt.Fprintf(&sb, " %s -> %s", orNone(op.FromColor), orNone(op.Color))
	case KindChangePinNetwork:
		fmt.Fprintf(&sb, " %s -> %s", orNone(op.FromNetworkID), orNone(op.NetworkID))
	}
	return sb.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
