package transformer

import (
	"fmt"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/ops"
	"github.com/matzehuels/bpcgraph/pkg/similarity"
)

// propose returns the operations that close a gap reported by the
// estimator's matching of g against the target. Kinds missing from the
// catalog are filtered out here so restricted catalogs never see them.
func (t *Transformer) propose(g bpc.Graph, est similarity.Result) []ops.Operation {
	m := est.Matching
	var out []ops.Operation
	add := func(op ops.Operation) {
		if t.catalog.Has(op.Kind) {
			out = append(out, op)
		}
	}

	for _, pp := range m.Pins {
		pa, pb := g.Pins[pp.A], t.target.Pins[pp.B]
		if pa.Color != pb.Color {
			add(ops.ChangePinColor(pa.BoxID, pa.PinID, pa.Color, pb.Color))
		}
		if pa.Offset.Dist(pb.Offset) > similarity.OffsetTolerance {
			add(ops.MovePin(pa.BoxID, pa.PinID, pa.Offset, pb.Offset))
		}
		if want := networkFor(m, pb.NetworkID); pa.NetworkID != want {
			add(ops.ChangePinNetwork(pa.BoxID, pa.PinID, pa.NetworkID, want))
		}
	}

	for _, mp := range m.MissingPins {
		host, tp := g.Boxes[mp.A], t.target.Pins[mp.B]
		add(ops.AddPin(bpc.Pin{
			BoxID:     host.BoxID,
			PinID:     freshID(tp.PinID, func(id string) bool { return g.HasPin(host.BoxID, id) }),
			Offset:    tp.Offset,
			Color:     tp.Color,
			NetworkID: networkFor(m, tp.NetworkID),
		}))
	}
	for _, i := range m.ExtraPins {
		add(ops.RemovePin(g.Pins[i].BoxID, g.Pins[i].PinID))
	}

	for _, j := range m.MissingBoxes {
		tb := t.target.Boxes[j]
		add(ops.AddBox(bpc.Box{
			BoxID:  freshID(tb.BoxID, func(id string) bool { return g.BoxIndex(id) >= 0 }),
			Kind:   tb.Kind,
			Center: tb.Center,
		}))
	}
	for _, i := range m.ExtraBoxes {
		add(ops.RemoveBox(g.Boxes[i].BoxID))
	}
	return out
}

// networkFor translates a target network id into the id a source pin must
// carry. Unconnected stays unconnected.
func networkFor(m similarity.Matching, target string) string {
	if target == "" {
		return ""
	}
	return m.Networks[target]
}

// freshID returns id if it is free, otherwise the first free id_2, id_3, ...
func freshID(id string, taken func(string) bool) string {
	candidate := id
	for n := 2; taken(candidate); n++ {
		candidate = fmt.Sprintf("%s_%d", id, n)
	}
	return candidate
}
