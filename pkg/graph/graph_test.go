package graph

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/cost"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/layout"
	"github.com/matzehuels/bpcgraph/pkg/ops"
	"github.com/matzehuels/bpcgraph/pkg/transformer"
)

var initial = bpc.Graph{
	Boxes: []bpc.Box{{BoxID: "B1", Kind: bpc.Floating}},
	Pins: []bpc.Pin{
		{BoxID: "B1", PinID: "P1", Offset: bpc.Point{Y: 0.5}, Color: "red", NetworkID: "N1"},
	},
}

var target = bpc.Graph{
	Boxes: []bpc.Box{{BoxID: "B1_target", Kind: bpc.Floating}},
	Pins: []bpc.Pin{
		{BoxID: "B1_target", PinID: "P1_target", Offset: bpc.Point{Y: -0.5}, Color: "blue", NetworkID: "N2"},
	},
}

func TestGraphRoundTrip(t *testing.T) {
	data, err := MarshalGraph(initial)
	if err != nil {
		t.Fatalf("MarshalGraph() error = %v", err)
	}
	for _, key := range []string{`"boxId"`, `"pinId"`, `"networkId"`, `"kind": "floating"`} {
		if !bytes.Contains(data, []byte(key)) {
			t.Errorf("JSON missing %s:\n%s", key, data)
		}
	}
	got, err := UnmarshalGraph(data)
	if err != nil {
		t.Fatalf("UnmarshalGraph() error = %v", err)
	}
	if !reflect.DeepEqual(got, initial) {
		t.Errorf("round trip = %+v, want %+v", got, initial)
	}
}

func TestReadGraphErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code apperr.Code
	}{
		{"Syntax", `{"boxes": [`, apperr.ErrCodeInvalidFormat},
		{"UnknownField", `{"nodes": []}`, apperr.ErrCodeInvalidFormat},
		{"Invalid", `{"boxes": [], "pins": [{"boxId": "X", "pinId": "1", "color": "red"}]}`, apperr.ErrCodeInvalidGraph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGraph(strings.NewReader(tt.in))
			if !apperr.Is(err, tt.code) {
				t.Fatalf("ReadGraph() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestGraphFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.json")
	if err := WriteGraphFile(initial, path); err != nil {
		t.Fatalf("WriteGraphFile() error = %v", err)
	}
	got, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile() error = %v", err)
	}
	if got.Signature() != initial.Signature() {
		t.Error("file round trip changed graph")
	}

	_, err = ReadGraphFile(filepath.Join(t.TempDir(), "missing.json"))
	if !apperr.Is(err, apperr.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
	if _, err := ReadGraphFile(""); !apperr.Is(err, apperr.ErrCodeInvalidPath) {
		t.Errorf("empty path error = %v", err)
	}
}

func TestProblem(t *testing.T) {
	p := Problem{
		InitialGraph: initial,
		TargetGraph:  target,
		CostConfiguration: cost.Partial{
			ColorChangeCostMap:           map[string]float64{"red->blue": 0.5},
			CostPerUnitDistanceMovingPin: cost.Float(0.1),
		},
	}
	data, err := MarshalProblem(p)
	if err != nil {
		t.Fatalf("MarshalProblem() error = %v", err)
	}
	got, err := UnmarshalProblem(data)
	if err != nil {
		t.Fatalf("UnmarshalProblem() error = %v", err)
	}
	if !reflect.DeepEqual(got, p) {
		t.Errorf("round trip = %+v", got)
	}
	if opts := got.Options(); opts.Catalog != nil || opts.InitialGraph.Signature() != initial.Signature() {
		t.Errorf("Options() = %+v", opts)
	}
}

func TestProblemValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Problem)
		code   apperr.Code
	}{
		{"BadInitial", func(p *Problem) { p.InitialGraph.Boxes[0].Kind = "x" }, apperr.ErrCodeInvalidGraph},
		{"NegativeCost", func(p *Problem) { p.CostConfiguration.BaseOperationCost = cost.Float(-1) }, apperr.ErrCodeInvalidConfig},
		{"UnknownOperation", func(p *Problem) { p.Operations = []ops.Kind{"teleport"} }, apperr.ErrCodeInvalidInput},
		{"UnknownMode", func(p *Problem) { p.NetworkMode = "fuzzy" }, apperr.ErrCodeInvalidInput},
		{"NegativeBudget", func(p *Problem) { p.MaxExpansions = -1 }, apperr.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Problem{InitialGraph: initial.Clone(), TargetGraph: target.Clone()}
			tt.mutate(&p)
			if err := p.Validate(); !apperr.Is(err, tt.code) {
				t.Fatalf("Validate() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestProblemRestrictedOperations(t *testing.T) {
	p := Problem{
		InitialGraph: initial,
		TargetGraph:  target,
		Operations:   []ops.Kind{ops.KindChangePinColor},
		NetworkMode:  "partition",
	}
	opts := p.Options()
	if got := opts.Catalog.Kinds(); len(got) != 1 || got[0] != ops.KindChangePinColor {
		t.Errorf("catalog kinds = %v", got)
	}
	if opts.NetworkMode.String() != "partition" {
		t.Errorf("mode = %v", opts.NetworkMode)
	}
}

func TestSolution(t *testing.T) {
	tr, err := transformer.New(transformer.Options{
		InitialGraph: initial,
		TargetGraph:  target,
		CostConfiguration: cost.Partial{
			ColorChangeCostMap:           map[string]float64{"red->blue": 0.5},
			CostPerUnitDistanceMovingPin: cost.Float(0.1),
		},
	})
	if err != nil {
		t.Fatalf("transformer.New() error = %v", err)
	}
	if err := tr.Solve(); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	sol := FromTransformer(tr)
	if !sol.Solved || sol.Failed || sol.Error != nil || len(sol.Operations) != 3 {
		t.Fatalf("solution = %+v", sol)
	}
	if math.Abs(sol.GCost-1.6) > 1e-9 {
		t.Errorf("GCost = %v, want 1.6", sol.GCost)
	}

	data, err := MarshalSolution(sol)
	if err != nil {
		t.Fatalf("MarshalSolution() error = %v", err)
	}
	if !bytes.Contains(data, []byte(`"operationType": "change_pin_network"`)) {
		t.Errorf("operations not serialized by type:\n%s", data)
	}
	got, err := UnmarshalSolution(data)
	if err != nil {
		t.Fatalf("UnmarshalSolution() error = %v", err)
	}
	if !reflect.DeepEqual(got, sol) {
		t.Errorf("round trip = %+v, want %+v", got, sol)
	}
}

func TestFailedSolution(t *testing.T) {
	tr, err := transformer.New(transformer.Options{
		InitialGraph: initial,
		TargetGraph:  target,
		Catalog:      ops.DefaultCatalog().Only(ops.KindChangePinColor),
	})
	if err != nil {
		t.Fatalf("transformer.New() error = %v", err)
	}
	_ = tr.Solve()

	sol := FromTransformer(tr)
	if sol.Solved || !sol.Failed || sol.Error == nil {
		t.Fatalf("solution = %+v", sol)
	}
	if sol.Error.Code != apperr.ErrCodeUnreachable {
		t.Errorf("error code = %s", sol.Error.Code)
	}
	if sol.Operations == nil {
		t.Error("operations must serialize as an array")
	}
}

func TestUnmarshalSolutionRejectsPending(t *testing.T) {
	_, err := UnmarshalSolution([]byte(`{"solved": false, "failed": false}`))
	if !apperr.Is(err, apperr.ErrCodeInvalidFormat) {
		t.Errorf("UnmarshalSolution() = %v", err)
	}
}

func TestNewErrorInfo(t *testing.T) {
	if NewErrorInfo(nil) != nil {
		t.Error("nil error produced info")
	}
	if info := NewErrorInfo(errors.New("boom")); info.Code != apperr.ErrCodeInternal || info.Message != "boom" {
		t.Errorf("plain error info = %+v", info)
	}
}

func TestLayoutFiles(t *testing.T) {
	cfg := layout.DefaultConfig()
	s, err := layout.New(initial, cfg)
	if err != nil {
		t.Fatalf("layout.New() error = %v", err)
	}
	l := FromLayout(s.Solve(), s.Config())

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteLayoutFile(l, path); err != nil {
		t.Fatalf("WriteLayoutFile() error = %v", err)
	}
	got, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile() error = %v", err)
	}
	if !reflect.DeepEqual(got, l) {
		t.Errorf("round trip = %+v, want %+v", got, l)
	}
	if !reflect.DeepEqual(got.Result(), s.Solve()) {
		t.Error("Result() differs from solver output")
	}

	if err := os.WriteFile(path, []byte(`{"graph": {"boxes": [{"boxId": ""}]}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadLayoutFile(path); !apperr.Is(err, apperr.ErrCodeInvalidGraph) {
		t.Errorf("ReadLayoutFile() = %v, want INVALID_GRAPH", err)
	}
}
