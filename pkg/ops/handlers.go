package ops

import (
	"slices"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/cost"
)

// =============================================================================
// Structural operations
// =============================================================================

var addBoxHandler = Handler{
	Applicable: func(g bpc.Graph, op Operation) bool {
		b := op.Box
		return b.BoxID != "" && b.BoxID == op.BoxID && b.Kind.Valid() && g.BoxIndex(b.BoxID) < 0
	},
	Apply: func(g bpc.Graph, op Operation) bpc.Graph {
		return bpc.Graph{
			Boxes: append(slices.Clip(g.Boxes), op.Box),
			Pins:  g.Pins,
		}
	},
	Cost: structuralCost,
}

var removeBoxHandler = Handler{
	Applicable: func(g bpc.Graph, op Operation) bool {
		return g.BoxIndex(op.BoxID) >= 0
	},
	Apply: func(g bpc.Graph, op Operation) bpc.Graph {
		i := g.BoxIndex(op.BoxID)
		return bpc.Graph{
			Boxes: slices.Delete(slices.Clone(g.Boxes), i, i+1),
			Pins: slices.DeleteFunc(slices.Clone(g.Pins), func(p bpc.Pin) bool {
				return p.BoxID == op.BoxID
			}),
		}
	},
	Cost: structuralCost,
}

var addPinHandler = Handler{
	Applicable: func(g bpc.Graph, op Operation) bool {
		p := op.Pin
		return p.PinID != "" && p.BoxID == op.BoxID && p.PinID == op.PinID &&
			g.BoxIndex(p.BoxID) >= 0 && !g.HasPin(p.BoxID, p.PinID)
	},
	Apply: func(g bpc.Graph, op Operation) bpc.Graph {
		return bpc.Graph{
			Boxes: g.Boxes,
			Pins:  append(slices.Clip(g.Pins), op.Pin),
		}
	},
	Cost: structuralCost,
}

var removePinHandler = Handler{
	Applicable: pinExists,
	Apply: func(g bpc.Graph, op Operation) bpc.Graph {
		i := g.PinIndex(op.BoxID, op.PinID)
		return bpc.Graph{
			Boxes: g.Boxes,
			Pins:  slices.Delete(slices.Clone(g.Pins), i, i+1),
		}
	},
	Cost: structuralCost,
}

func structuralCost(_ bpc.Graph, _ Operation, cfg cost.Config) float64 {
	return cfg.StructuralCost()
}

func pinExists(g bpc.Graph, op Operation) bool {
	return g.PinIndex(op.BoxID, op.PinID) >= 0
}

// =============================================================================
// Pin attribute operations
// =============================================================================

var movePinHandler = Handler{
	Applicable: func(g bpc.Graph, op Operation) bool {
		p, ok := g.Pin(op.BoxID, op.PinID)
		return ok && p.Offset != op.Offset
	},
	Apply: func(g bpc.Graph, op Operation) bpc.Graph {
		return updatePin(g, op, func(p *bpc.Pin) { p.Offset = op.Offset })
	},
	Cost: func(g bpc.Graph, op Operation, cfg cost.Config) float64 {
		p, _ := g.Pin(op.BoxID, op.PinID)
		return cfg.MovePinCost(p.Offset, op.Offset)
	},
}

var changePinColorHandler = Handler{
	Applicable: func(g bpc.Graph, op Operation) bool {
		p, ok := g.Pin(op.BoxID, op.PinID)
		return ok && p.Color != op.Color
	},
	Apply: func(g bpc.Graph, op Operation) bpc.Graph {
		return updatePin(g, op, func(p *bpc.Pin) { p.Color = op.Color })
	},
	Cost: func(g bpc.Graph, op Operation, cfg cost.Config) float64 {
		p, _ := g.Pin(op.BoxID, op.PinID)
		return cfg.ColorChangeCost(p.Color, op.Color)
	},
}

var changePinNetworkHandler = Handler{
	Applicable: func(g bpc.Graph, op Operation) bool {
		p, ok := g.Pin(op.BoxID, op.PinID)
		return ok && p.NetworkID != op.NetworkID
	},
	Apply: func(g bpc.Graph, op Operation) bpc.Graph {
		return updatePin(g, op, func(p *bpc.Pin) { p.NetworkID = op.NetworkID })
	},
	Cost: func(_ bpc.Graph, _ Operation, cfg cost.Config) float64 {
		return cfg.NetworkChangeCost()
	},
}

// updatePin copies the pin slice, edits the addressed pin in the copy and
// shares the box slice with g.
func updatePin(g bpc.Graph, op Operation, edit func(*bpc.Pin)) bpc.Graph {
	pins := slices.Clone(g.Pins)
	edit(&pins[g.PinIndex(op.BoxID, op.PinID)])
	return bpc.Graph{Boxes: g.Boxes, Pins: pins}
}
