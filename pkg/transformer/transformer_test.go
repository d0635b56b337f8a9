package transformer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/cost"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/ops"
	"github.com/matzehuels/bpcgraph/pkg/similarity"
)

var initialSimple = bpc.Graph{
	Boxes: []bpc.Box{{BoxID: "B1", Kind: bpc.Floating}},
	Pins: []bpc.Pin{
		{BoxID: "B1", PinID: "P1", Offset: bpc.Point{Y: 0.5}, Color: "red", NetworkID: "N1"},
	},
}

var targetSimple = bpc.Graph{
	Boxes: []bpc.Box{{BoxID: "B1_target", Kind: bpc.Floating, Center: bpc.Point{X: 1, Y: 1}}},
	Pins: []bpc.Pin{
		{BoxID: "B1_target", PinID: "P1_target", Offset: bpc.Point{Y: -0.5}, Color: "blue", NetworkID: "N2"},
	},
}

var simpleCosts = cost.Partial{
	BaseOperationCost:            cost.Float(1),
	ColorChangeCostMap:           map[string]float64{"red->blue": 0.5, "blue->red": 0.5},
	CostPerUnitDistanceMovingPin: cost.Float(0.1),
}

func kinds(chain []ops.Operation) []ops.Kind {
	out := make([]ops.Kind, len(chain))
	for i, op := range chain {
		out[i] = op.Kind
	}
	return out
}

func mustNew(t *testing.T, opts Options) *Transformer {
	t.Helper()
	tr, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tr
}

func TestSimpleReconciliation(t *testing.T) {
	tr := mustNew(t, Options{
		InitialGraph:      initialSimple,
		TargetGraph:       targetSimple,
		CostConfiguration: simpleCosts,
	})
	if err := tr.Solve(); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if !tr.Solved() || tr.Failed() || tr.Err() != nil {
		t.Fatalf("state: solved=%v failed=%v err=%v", tr.Solved(), tr.Failed(), tr.Err())
	}

	stats := tr.Stats()
	if math.Abs(stats.GCost-1.6) > 1e-9 {
		t.Errorf("GCost = %v, want 1.6", stats.GCost)
	}
	want := []ops.Kind{ops.KindChangePinNetwork, ops.KindChangePinColor, ops.KindMovePin}
	got := kinds(stats.FinalOperationChain)
	if len(got) != len(want) {
		t.Fatalf("chain = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chain[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if d := similarity.Distance(stats.FinalGraph, targetSimple, tr.CostConfiguration()); d.Distance != 0 || !d.Equivalent() {
		t.Errorf("final distance = %+v, want 0", d)
	}
	if stats.HCost != 0 {
		t.Errorf("HCost = %v, want 0", stats.HCost)
	}
	if stats.Expansions == 0 || stats.Generated == 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAlreadyEqual(t *testing.T) {
	tr := mustNew(t, Options{InitialGraph: initialSimple, TargetGraph: initialSimple})
	if err := tr.Solve(); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	stats := tr.Stats()
	if !tr.Solved() || stats.GCost != 0 || len(stats.FinalOperationChain) != 0 {
		t.Errorf("solved=%v gcost=%v chain=%v", tr.Solved(), stats.GCost, stats.FinalOperationChain)
	}
	if stats.Expansions != 0 {
		t.Errorf("Expansions = %d, want 0", stats.Expansions)
	}
}

func TestUnreachableUnderRestrictedCatalog(t *testing.T) {
	target := initialSimple.Clone()
	target.Boxes = append(target.Boxes, bpc.Box{BoxID: "B2", Kind: bpc.Fixed, Center: bpc.Point{X: 4}})

	tr := mustNew(t, Options{
		InitialGraph: initialSimple,
		TargetGraph:  target,
		Catalog:      ops.DefaultCatalog().Without(ops.KindAddBox),
	})
	err := tr.Solve()
	if err == nil || !tr.Failed() || tr.Solved() {
		t.Fatalf("state: solved=%v failed=%v err=%v", tr.Solved(), tr.Failed(), err)
	}
	if !errors.Is(err, ErrUnreachable) || !apperr.Is(err, apperr.ErrCodeUnreachable) {
		t.Errorf("err = %v, want ErrUnreachable", err)
	}
	if tr.Err() != err {
		t.Error("Err() differs from Solve() result")
	}
	// Best-found node is the initial graph itself.
	stats := tr.Stats()
	if stats.FinalGraph.Signature() != initialSimple.Signature() || stats.HCost != 1 {
		t.Errorf("best found = %+v", stats)
	}
}

func TestAddsMissingStructure(t *testing.T) {
	target := bpc.Graph{
		Boxes: []bpc.Box{
			{BoxID: "B1", Kind: bpc.Floating},
			{BoxID: "J1", Kind: bpc.Fixed, Center: bpc.Point{X: 4}},
		},
		Pins: []bpc.Pin{
			{BoxID: "B1", PinID: "P1", Offset: bpc.Point{Y: 0.5}, Color: "red", NetworkID: "N1"},
			{BoxID: "B1", PinID: "P2", Offset: bpc.Point{X: 0.5}, Color: "red", NetworkID: "N1"},
			{BoxID: "J1", PinID: "1", Offset: bpc.Point{X: -0.5}, Color: "black", NetworkID: "N1"},
		},
	}

	tr := mustNew(t, Options{InitialGraph: initialSimple, TargetGraph: target})
	if err := tr.Solve(); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	stats := tr.Stats()
	if math.Abs(stats.GCost-3) > 1e-9 {
		t.Errorf("GCost = %v, want 3 (add_pin, add_box, add_pin)", stats.GCost)
	}
	counts := map[ops.Kind]int{}
	for _, op := range stats.FinalOperationChain {
		counts[op.Kind]++
	}
	if counts[ops.KindAddBox] != 1 || counts[ops.KindAddPin] != 2 {
		t.Errorf("chain kinds = %v", kinds(stats.FinalOperationChain))
	}
	if err := stats.FinalGraph.Validate(); err != nil {
		t.Errorf("final graph invalid: %v", err)
	}
}

func TestRemovesExtraStructure(t *testing.T) {
	initial := initialSimple.Clone()
	initial.Boxes = append(initial.Boxes, bpc.Box{BoxID: "X", Kind: bpc.Floating})
	initial.Pins = append(initial.Pins,
		bpc.Pin{BoxID: "X", PinID: "1", Color: "red"},
		bpc.Pin{BoxID: "B1", PinID: "P9", Color: "green"},
	)

	tr := mustNew(t, Options{InitialGraph: initial, TargetGraph: initialSimple})
	if err := tr.Solve(); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	stats := tr.Stats()
	if math.Abs(stats.GCost-2) > 1e-9 {
		t.Errorf("GCost = %v, want 2 (remove_box, remove_pin)", stats.GCost)
	}
	if stats.FinalGraph.Signature() != initialSimple.Signature() {
		t.Errorf("final graph = %+v", stats.FinalGraph)
	}
}

func TestFreshIDsAvoidCollisions(t *testing.T) {
	// The target's second box reuses the id of a source box of another kind.
	initial := bpc.Graph{Boxes: []bpc.Box{{BoxID: "U1", Kind: bpc.Fixed}}}
	target := bpc.Graph{Boxes: []bpc.Box{
		{BoxID: "A", Kind: bpc.Fixed},
		{BoxID: "U1", Kind: bpc.Floating},
	}}
	tr := mustNew(t, Options{InitialGraph: initial, TargetGraph: target})
	if err := tr.Solve(); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	chain := tr.Stats().FinalOperationChain
	if len(chain) != 1 || chain[0].Kind != ops.KindAddBox || chain[0].BoxID != "U1_2" {
		t.Errorf("chain = %v", chain)
	}
}

func TestPartitionMode(t *testing.T) {
	renamed := initialSimple.Clone()
	renamed.Pins[0].NetworkID = "VCC"

	for _, tt := range []struct {
		mode similarity.NetworkMode
		ops  int
	}{
		{similarity.NetworkLabels, 1},
		{similarity.NetworkPartition, 0},
	} {
		t.Run(tt.mode.String(), func(t *testing.T) {
			tr := mustNew(t, Options{InitialGraph: initialSimple, TargetGraph: renamed, NetworkMode: tt.mode})
			if err := tr.Solve(); err != nil {
				t.Fatalf("Solve() error = %v", err)
			}
			if got := len(tr.Stats().FinalOperationChain); got != tt.ops {
				t.Errorf("chain length = %d, want %d", got, tt.ops)
			}
		})
	}
}

func TestPartitionModeTwinBoxesAlreadyEqual(t *testing.T) {
	twins := func(first, second, network string, linked map[string]bool) bpc.Graph {
		g := bpc.Graph{Boxes: []bpc.Box{{BoxID: first, Kind: bpc.Floating}, {BoxID: second, Kind: bpc.Floating}}}
		for _, box := range []string{first, second} {
			for _, pin := range []string{"p1", "p2"} {
				y := 0.5
				if pin == "p2" {
					y = -0.5
				}
				p := bpc.Pin{BoxID: box, PinID: pin, Offset: bpc.Point{Y: y}, Color: "red"}
				if linked[box+"/"+pin] {
					p.NetworkID = network
				}
				g.Pins = append(g.Pins, p)
			}
		}
		return g
	}
	initial := twins("A", "B", "N", map[string]bool{"A/p1": true, "B/p2": true})
	target := twins("C", "D", "X", map[string]bool{"C/p2": true, "D/p1": true})

	tr := mustNew(t, Options{InitialGraph: initial, TargetGraph: target, NetworkMode: similarity.NetworkPartition})
	if err := tr.Solve(); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	stats := tr.Stats()
	if !tr.Solved() || stats.GCost != 0 || len(stats.FinalOperationChain) != 0 {
		t.Errorf("solved=%v gcost=%v chain=%v", tr.Solved(), stats.GCost, kinds(stats.FinalOperationChain))
	}

	a, err := tr.Assignment()
	if err != nil {
		t.Fatalf("Assignment() error = %v", err)
	}
	if a.Boxes["A"] != "D" || a.Boxes["B"] != "C" || a.Networks["N"] != "X" {
		t.Errorf("Assignment = %+v", a)
	}
}

func TestBudgetExceeded(t *testing.T) {
	tr := mustNew(t, Options{
		InitialGraph:      initialSimple,
		TargetGraph:       targetSimple,
		CostConfiguration: simpleCosts,
		MaxExpansions:     1,
	})
	err := tr.Solve()
	if !errors.Is(err, ErrBudgetExceeded) || !apperr.Is(err, apperr.ErrCodeBudgetExceeded) {
		t.Fatalf("err = %v, want ErrBudgetExceeded", err)
	}
	stats := tr.Stats()
	if stats.Expansions != 1 {
		t.Errorf("Expansions = %d, want 1", stats.Expansions)
	}
	// Best found after one expansion is the network change (h = 0.6).
	if len(stats.FinalOperationChain) != 1 || stats.FinalOperationChain[0].Kind != ops.KindChangePinNetwork {
		t.Errorf("best chain = %v", kinds(stats.FinalOperationChain))
	}
}

func TestSolveContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := mustNew(t, Options{InitialGraph: initialSimple, TargetGraph: targetSimple})
	err := tr.SolveContext(ctx)
	if !apperr.Is(err, apperr.ErrCodeCancelled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want CANCELLED", err)
	}
	if !tr.Failed() {
		t.Error("Failed() = false")
	}
	if tr.Stats().FinalGraph.Signature() != initialSimple.Signature() {
		t.Error("FinalGraph should fall back to the initial graph")
	}
}

func TestSolveTwiceIsNoop(t *testing.T) {
	tr := mustNew(t, Options{InitialGraph: initialSimple, TargetGraph: targetSimple, CostConfiguration: simpleCosts})
	_ = tr.Solve()
	first := tr.Stats()
	if err := tr.Solve(); err != nil {
		t.Fatalf("second Solve() error = %v", err)
	}
	second := tr.Stats()
	if first.GCost != second.GCost || first.Expansions != second.Expansions || first.Duration != second.Duration {
		t.Errorf("second Solve changed stats: %+v vs %+v", first, second)
	}
}

func TestDeterminism(t *testing.T) {
	run := func() Stats {
		tr := mustNew(t, Options{InitialGraph: initialSimple, TargetGraph: targetSimple, CostConfiguration: simpleCosts})
		_ = tr.Solve()
		return tr.Stats()
	}
	a, b := run(), run()
	if a.GCost != b.GCost || a.FinalGraph.Signature() != b.FinalGraph.Signature() {
		t.Fatalf("runs differ: %+v vs %+v", a, b)
	}
	for i := range a.FinalOperationChain {
		if a.FinalOperationChain[i] != b.FinalOperationChain[i] {
			t.Errorf("chain[%d]: %v vs %v", i, a.FinalOperationChain[i], b.FinalOperationChain[i])
		}
	}
}

func TestCostAdditivity(t *testing.T) {
	target := targetSimple.Clone()
	target.Boxes = append(target.Boxes, bpc.Box{BoxID: "J1", Kind: bpc.Fixed})
	target.Pins = append(target.Pins, bpc.Pin{BoxID: "J1", PinID: "1", Offset: bpc.Point{X: 1}, Color: "blue", NetworkID: "N2"})

	tr := mustNew(t, Options{InitialGraph: initialSimple, TargetGraph: target, CostConfiguration: simpleCosts})
	if err := tr.Solve(); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	stats := tr.Stats()
	final, total, err := ops.DefaultCatalog().Replay(initialSimple, stats.FinalOperationChain, tr.CostConfiguration())
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if math.Abs(total-stats.GCost) > 1e-9 {
		t.Errorf("replayed cost %v != GCost %v", total, stats.GCost)
	}
	if final.Signature() != stats.FinalGraph.Signature() {
		t.Error("replayed graph differs from FinalGraph")
	}
}

func TestInputsAreNotMutated(t *testing.T) {
	initial := initialSimple.Clone()
	before := initial.Signature()
	tr := mustNew(t, Options{InitialGraph: initial, TargetGraph: targetSimple, CostConfiguration: simpleCosts})
	_ = tr.Solve()
	if initial.Signature() != before {
		t.Error("Solve mutated the initial graph")
	}
}

func TestNewRejectsMalformedInput(t *testing.T) {
	dangling := bpc.Graph{Pins: []bpc.Pin{{BoxID: "nope", PinID: "1"}}}

	tests := []struct {
		name string
		opts Options
		code apperr.Code
	}{
		{"InitialDanglingPin", Options{InitialGraph: dangling}, apperr.ErrCodeInvalidGraph},
		{"TargetDanglingPin", Options{TargetGraph: dangling}, apperr.ErrCodeInvalidGraph},
		{"NegativeCost", Options{CostConfiguration: cost.Partial{BaseOperationCost: cost.Float(-1)}}, apperr.ErrCodeInvalidConfig},
		{"NegativeBudget", Options{MaxExpansions: -1}, apperr.ErrCodeInvalidConfig},
		{"BadMode", Options{NetworkMode: 7}, apperr.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if !apperr.Is(err, tt.code) {
				t.Errorf("New() error = %v, want %s", err, tt.code)
			}
		})
	}

	_, err := New(Options{InitialGraph: dangling})
	if !errors.Is(err, bpc.ErrUnknownBox) {
		t.Errorf("New() error = %v, want wrapping ErrUnknownBox", err)
	}
}
