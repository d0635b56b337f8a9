package ops

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/cost"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
)

func testGraph() bpc.Graph {
	return bpc.Graph{
		Boxes: []bpc.Box{
			{BoxID: "B1", Kind: bpc.Floating},
			{BoxID: "B2", Kind: bpc.Fixed, Center: bpc.Point{X: 3}},
		},
		Pins: []bpc.Pin{
			{BoxID: "B1", PinID: "P1", Offset: bpc.Point{Y: 0.5}, Color: "red", NetworkID: "N1"},
			{BoxID: "B1", PinID: "P2", Offset: bpc.Point{X: 0.5}, Color: "black"},
			{BoxID: "B2", PinID: "P1", Offset: bpc.Point{X: -0.5}, Color: "red", NetworkID: "N1"},
		},
	}
}

var testCosts = cost.MustResolve(cost.Partial{
	BaseOperationCost:            cost.Float(1),
	ColorChangeCostMap:           map[string]float64{"red->blue": 0.5},
	CostPerUnitDistanceMovingPin: cost.Float(0.1),
})

func TestOperations(t *testing.T) {
	cat := DefaultCatalog()

	tests := []struct {
		name       string
		op         Operation
		applicable bool
		cost       float64
		check      func(t *testing.T, g bpc.Graph)
	}{
		{
			name:       "AddBox",
			op:         AddBox(bpc.Box{BoxID: "B3", Kind: bpc.Floating, Center: bpc.Point{X: 1, Y: 1}}),
			applicable: true,
			cost:       1,
			check: func(t *testing.T, g bpc.Graph) {
				if b, ok := g.Box("B3"); !ok || b.Center.X != 1 {
					t.Errorf("B3 = %+v, %v", b, ok)
				}
				if len(g.PinsOf("B3")) != 0 {
					t.Error("add_box should not add pins")
				}
			},
		},
		{
			name: "AddBoxExisting",
			op:   AddBox(bpc.Box{BoxID: "B1", Kind: bpc.Floating}),
		},
		{
			name: "AddBoxBadKind",
			op:   AddBox(bpc.Box{BoxID: "B9", Kind: "other"}),
		},
		{
			name:       "RemoveBox",
			op:         RemoveBox("B1"),
			applicable: true,
			cost:       1,
			check: func(t *testing.T, g bpc.Graph) {
				if len(g.Boxes) != 1 || len(g.Pins) != 1 {
					t.Errorf("got %d boxes, %d pins; want 1, 1", len(g.Boxes), len(g.Pins))
				}
				if err := g.Validate(); err != nil {
					t.Errorf("result invalid: %v", err)
				}
			},
		},
		{
			name: "RemoveBoxMissing",
			op:   RemoveBox("B9"),
		},
		{
			name:       "AddPin",
			op:         AddPin(bpc.Pin{BoxID: "B2", PinID: "P2", Color: "blue", NetworkID: "N2"}),
			applicable: true,
			cost:       1,
			check: func(t *testing.T, g bpc.Graph) {
				if p, ok := g.Pin("B2", "P2"); !ok || p.Color != "blue" {
					t.Errorf("B2/P2 = %+v, %v", p, ok)
				}
			},
		},
		{
			name: "AddPinDuplicate",
			op:   AddPin(bpc.Pin{BoxID: "B1", PinID: "P1"}),
		},
		{
			name: "AddPinNoBox",
			op:   AddPin(bpc.Pin{BoxID: "B9", PinID: "P1"}),
		},
		{
			name:       "RemovePin",
			op:         RemovePin("B1", "P2"),
			applicable: true,
			cost:       1,
			check: func(t *testing.T, g bpc.Graph) {
				if g.HasPin("B1", "P2") || !g.HasPin("B1", "P1") {
					t.Error("wrong pin removed")
				}
			},
		},
		{
			name:       "MovePin",
			op:         MovePin("B1", "P1", bpc.Point{Y: 0.5}, bpc.Point{Y: -0.5}),
			applicable: true,
			cost:       0.1,
			check: func(t *testing.T, g bpc.Graph) {
				if p, _ := g.Pin("B1", "P1"); p.Offset != (bpc.Point{Y: -0.5}) {
					t.Errorf("offset = %+v", p.Offset)
				}
			},
		},
		{
			name: "MovePinNoop",
			op:   MovePin("B1", "P1", bpc.Point{Y: 0.5}, bpc.Point{Y: 0.5}),
		},
		{
			name:       "ChangePinColorMapped",
			op:         ChangePinColor("B1", "P1", "red", "blue"),
			applicable: true,
			cost:       0.5,
			check: func(t *testing.T, g bpc.Graph) {
				if p, _ := g.Pin("B1", "P1"); p.Color != "blue" {
					t.Errorf("color = %q", p.Color)
				}
			},
		},
		{
			name:       "ChangePinColorBase",
			op:         ChangePinColor("B1", "P2", "black", "blue"),
			applicable: true,
			cost:       1,
		},
		{
			name: "ChangePinColorSame",
			op:   ChangePinColor("B1", "P1", "red", "red"),
		},
		{
			name:       "ChangePinNetwork",
			op:         ChangePinNetwork("B1", "P1", "N1", "N2"),
			applicable: true,
			cost:       1,
			check: func(t *testing.T, g bpc.Graph) {
				if p, _ := g.Pin("B1", "P1"); p.NetworkID != "N2" {
					t.Errorf("network = %q", p.NetworkID)
				}
				// Same pin id on another box is untouched.
				if p, _ := g.Pin("B2", "P1"); p.NetworkID != "N1" {
					t.Errorf("B2/P1 network = %q", p.NetworkID)
				}
			},
		},
		{
			name:       "DisconnectPin",
			op:         ChangePinNetwork("B1", "P1", "N1", ""),
			applicable: true,
			cost:       1,
		},
		{
			name: "ChangePinNetworkMissingPin",
			op:   ChangePinNetwork("B1", "P9", "", "N2"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testGraph()
			before := g.Signature()

			if got := cat.Applicable(g, tt.op); got != tt.applicable {
				t.Fatalf("Applicable() = %v, want %v", got, tt.applicable)
			}
			if !tt.applicable {
				if _, err := cat.TryApply(g, tt.op); !errors.Is(err, ErrNotApplicable) {
					t.Errorf("TryApply() error = %v, want ErrNotApplicable", err)
				}
				return
			}

			if c := cat.Cost(g, tt.op, testCosts); math.Abs(c-tt.cost) > 1e-12 {
				t.Errorf("Cost() = %v, want %v", c, tt.cost)
			}
			next := cat.Apply(g, tt.op)
			if g.Signature() != before {
				t.Error("Apply mutated its input")
			}
			if tt.check != nil {
				tt.check(t, next)
			}
		})
	}
}

func TestApplyPanicsWhenNotApplicable(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrNotApplicable) {
			t.Errorf("recover() = %v, want ErrNotApplicable", r)
		}
	}()
	DefaultCatalog().Apply(testGraph(), RemoveBox("nope"))
}

func TestSuccessorsDoNotAlias(t *testing.T) {
	cat := DefaultCatalog()
	g := testGraph()
	// Give the pin slice spare capacity so a careless append would share it.
	g.Pins = append(make([]bpc.Pin, 0, 16), g.Pins...)

	a := cat.Apply(g, AddPin(bpc.Pin{BoxID: "B2", PinID: "X", Color: "a"}))
	b := cat.Apply(g, AddPin(bpc.Pin{BoxID: "B2", PinID: "Y", Color: "b"}))
	if !a.HasPin("B2", "X") || a.HasPin("B2", "Y") {
		t.Error("successor a was overwritten by successor b")
	}
	if !b.HasPin("B2", "Y") {
		t.Error("successor b missing its pin")
	}
}

func TestCatalogRestriction(t *testing.T) {
	cat := DefaultCatalog()
	if got := len(cat.Kinds()); got != len(Kinds) {
		t.Fatalf("Kinds() = %d, want %d", got, len(Kinds))
	}

	without := cat.Without(KindAddBox)
	if without.Has(KindAddBox) || !without.Has(KindRemoveBox) {
		t.Errorf("Without(add_box) kinds = %v", without.Kinds())
	}
	if !cat.Has(KindAddBox) {
		t.Error("Without modified the original catalog")
	}
	if without.Applicable(bpc.Graph{}, AddBox(bpc.Box{BoxID: "B", Kind: bpc.Fixed})) {
		t.Error("removed kind still applicable")
	}

	only := cat.Only(KindMovePin, KindChangePinColor, "nonexistent")
	if got := only.Kinds(); len(got) != 2 || got[0] != KindMovePin {
		t.Errorf("Only() kinds = %v", got)
	}

	_, err := only.TryApply(testGraph(), RemoveBox("B1"))
	if !errors.Is(err, ErrUnknownKind) || !apperr.Is(err, apperr.ErrCodeInvalidOperation) {
		t.Errorf("TryApply unknown kind error = %v", err)
	}
}

func TestRegisterCustomKind(t *testing.T) {
	const kindRecenter Kind = "recenter_box"
	cat := DefaultCatalog()
	cat.Register(kindRecenter, Handler{
		Applicable: func(g bpc.Graph, op Operation) bool {
			b, ok := g.Box(op.BoxID)
			return ok && b.Center != (bpc.Point{})
		},
		Apply: func(g bpc.Graph, op Operation) bpc.Graph {
			out := g.Clone()
			out.Boxes[g.BoxIndex(op.BoxID)].Center = bpc.Point{}
			return out
		},
		Cost: func(bpc.Graph, Operation, cost.Config) float64 { return 2 },
	})

	op := Operation{Kind: kindRecenter, BoxID: "B2"}
	next := cat.Apply(testGraph(), op)
	if b, _ := next.Box("B2"); b.Center != (bpc.Point{}) {
		t.Errorf("center = %+v", b.Center)
	}
	if kinds := cat.Kinds(); kinds[len(kinds)-1] != kindRecenter {
		t.Errorf("Kinds() = %v", kinds)
	}
}

func TestRegisterIncompleteHandlerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewCatalog().Register("broken", Handler{})
}

func TestReplay(t *testing.T) {
	cat := DefaultCatalog()
	chain := []Operation{
		ChangePinNetwork("B1", "P1", "N1", "N2"),
		ChangePinColor("B1", "P1", "red", "blue"),
		MovePin("B1", "P1", bpc.Point{Y: 0.5}, bpc.Point{Y: -0.5}),
	}
	final, total, err := cat.Replay(testGraph(), chain, testCosts)
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if math.Abs(total-1.6) > 1e-9 {
		t.Errorf("total = %v, want 1.6", total)
	}
	p, _ := final.Pin("B1", "P1")
	if p.Color != "blue" || p.NetworkID != "N2" || p.Offset.Y != -0.5 {
		t.Errorf("final pin = %+v", p)
	}

	bad := append(chain, RemovePin("B1", "P9"))
	if _, _, err := cat.Replay(testGraph(), bad, testCosts); !strings.Contains(err.Error(), "operation 3") {
		t.Errorf("Replay() error = %v, want failure at operation 3", err)
	}
}

func TestOperationString(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{ChangePinColor("U1", "1", "red", "blue"), "change_pin_color U1/1 red -> blue"},
		{ChangePinNetwork("U1", "1", "", "VCC"), "change_pin_network U1/1 (none) -> VCC"},
		{MovePin("U1", "1", bpc.Point{Y: 0.5}, bpc.Point{Y: -0.5}), "move_pin U1/1 (0, 0.5) -> (0, -0.5)"},
		{RemoveBox("U1"), "remove_box U1"},
		{AddBox(bpc.Box{BoxID: "U2", Kind: bpc.Fixed, Center: bpc.Point{X: 1, Y: 2}}), "add_box U2 fixed at (1, 2)"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
