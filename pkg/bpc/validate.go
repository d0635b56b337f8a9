package bpc

import (
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
)

// Validate checks graph integrity and returns nil if valid.
// It verifies:
//
//  1. Every box, pin and network id is a valid identifier and every
//     color is usable as a color change cost key
//  2. Box ids are unique and box kinds are known
//  3. Every pin references an existing box
//  4. Pin ids are unique within their box
//
// Errors carry the INVALID_GRAPH code and wrap one of ErrInvalidID,
// ErrDuplicateBoxID, ErrInvalidBoxKind, ErrUnknownBox or ErrDuplicatePinID.
// Validation runs in O(B+P).
func (g Graph) Validate() error {
	boxes := make(map[string]struct{}, len(g.Boxes))
	for _, b := range g.Boxes {
		if err := apperr.ValidateID("box", b.BoxID); err != nil {
			return apperr.Wrap(apperr.ErrCodeInvalidGraph, ErrInvalidID, "%s", apperr.UserMessage(err))
		}
		if _, dup := boxes[b.BoxID]; dup {
			return apperr.Wrap(apperr.ErrCodeInvalidGraph, ErrDuplicateBoxID, "box %q", b.BoxID)
		}
		if !b.Kind.Valid() {
			return apperr.Wrap(apperr.ErrCodeInvalidGraph, ErrInvalidBoxKind, "box %q has kind %q", b.BoxID, b.Kind)
		}
		boxes[b.BoxID] = struct{}{}
	}

	pins := make(map[PinRef]struct{}, len(g.Pins))
	for _, p := range g.Pins {
		if err := apperr.ValidateID("pin", p.PinID); err != nil {
			return apperr.Wrap(apperr.ErrCodeInvalidGraph, ErrInvalidID, "%s", apperr.UserMessage(err))
		}
		if _, ok := boxes[p.BoxID]; !ok {
			return apperr.Wrap(apperr.ErrCodeInvalidGraph, ErrUnknownBox, "pin %q references box %q", p.PinID, p.BoxID)
		}
		if err := apperr.ValidateColor(p.Color); err != nil {
			return apperr.Wrap(apperr.ErrCodeInvalidGraph, ErrInvalidID, "pin %q on box %q: %s", p.PinID, p.BoxID, apperr.UserMessage(err))
		}
		if _, dup := pins[p.Ref()]; dup {
			return apperr.Wrap(apperr.ErrCodeInvalidGraph, ErrDuplicatePinID, "pin %q on box %q", p.PinID, p.BoxID)
		}
		if p.Connected() {
			if err := apperr.ValidateID("network", p.NetworkID); err != nil {
				return apperr.Wrap(apperr.ErrCodeInvalidGraph, ErrInvalidID, "%s", apperr.UserMessage(err))
			}
		}
		pins[p.Ref()] = struct{}{}
	}
	return nil
}
