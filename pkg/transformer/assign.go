package transformer

import (
	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/cost"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/similarity"
)

// Assignment maps identifiers of a solved graph onto the identifiers of the
// target it is equivalent to.
//
// The search is free to invent ids (add_box picks "U1_2" when "U1" is
// taken) and partition mode ignores network labels altogether, so a solved
// graph may spell the same circuit differently than the target.
type Assignment struct {
	Boxes    map[string]string         `json:"boxes"`
	Pins     map[bpc.PinRef]bpc.PinRef `json:"-"`
	Networks map[string]string         `json:"networks"`
}

// Assign pairs every box, pin and network of final with its counterpart in
// target. It fails with INVALID_INPUT unless the graphs are equivalent under
// the given options.
func Assign(final, target bpc.Graph, opts ...similarity.Option) (Assignment, error) {
	est := similarity.Distance(final, target, cost.Default(), opts...)
	if !est.Equivalent() {
		return Assignment{}, apperr.New(apperr.ErrCodeInvalidInput,
			"graphs are not equivalent (%d differences)", est.Mismatches)
	}

	m := est.Matching
	a := Assignment{
		Boxes:    make(map[string]string, len(m.Boxes)),
		Pins:     make(map[bpc.PinRef]bpc.PinRef, len(m.Pins)),
		Networks: make(map[string]string, len(m.Networks)),
	}
	for _, p := range m.Boxes {
		a.Boxes[final.Boxes[p.A].BoxID] = target.Boxes[p.B].BoxID
	}
	for _, p := range m.Pins {
		a.Pins[final.Pins[p.A].Ref()] = target.Pins[p.B].Ref()
	}
	for tgt, src := range m.Networks {
		a.Networks[src] = tgt
	}
	return a, nil
}

// Apply returns a copy of g with every assigned id replaced. Ids without an
// assignment are kept.
func (a Assignment) Apply(g bpc.Graph) bpc.Graph {
	out := g.Clone()
	for i, b := range out.Boxes {
		if id, ok := a.Boxes[b.BoxID]; ok {
			out.Boxes[i].BoxID = id
		}
	}
	for i, p := range out.Pins {
		if ref, ok := a.Pins[p.Ref()]; ok {
			out.Pins[i].BoxID, out.Pins[i].PinID = ref.BoxID, ref.PinID
		} else if id, ok := a.Boxes[p.BoxID]; ok {
			out.Pins[i].BoxID = id
		}
		if id, ok := a.Networks[p.NetworkID]; ok && p.Connected() {
			out.Pins[i].NetworkID = id
		}
	}
	return out
}

// AdoptTargetIDs relabels final with the ids of the equivalent target.
func AdoptTargetIDs(final, target bpc.Graph, opts ...similarity.Option) (bpc.Graph, error) {
	a, err := Assign(final, target, opts...)
	if err != nil {
		return bpc.Graph{}, err
	}
	return a.Apply(final), nil
}

// Assignment pairs the final graph of a solved run with the target.
func (t *Transformer) Assignment() (Assignment, error) {
	if t.status != solved {
		return Assignment{}, apperr.New(apperr.ErrCodeInvalidInput, "transformer has not solved")
	}
	return Assign(t.stats.FinalGraph, t.target, similarity.WithNetworkMode(t.mode))
}
