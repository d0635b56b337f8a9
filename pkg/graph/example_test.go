package graph_test

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/graph"
)

func ExampleWriteGraph() {
	g := bpc.Graph{
		Boxes: []bpc.Box{{BoxID: "R1", Kind: bpc.Fixed, Center: bpc.Point{X: 1, Y: 2}}},
		Pins: []bpc.Pin{
			{BoxID: "R1", PinID: "1", Offset: bpc.Point{X: -0.5}, Color: "red", NetworkID: "VCC"},
		},
	}

	var buf bytes.Buffer
	if err := graph.WriteGraph(g, &buf); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Print(buf.String())
	// Output:
	// {
	//   "boxes": [
	//     {
	//       "boxId": "R1",
	//       "kind": "fixed",
	//       "center": {
	//         "x": 1,
	//         "y": 2
	//       }
	//     }
	//   ],
	//   "pins": [
	//     {
	//       "boxId": "R1",
	//       "pinId": "1",
	//       "offset": {
	//         "x": -0.5,
	//         "y": 0
	//       },
	//       "color": "red",
	//       "networkId": "VCC"
	//     }
	//   ]
	// }
}

func ExampleUnmarshalProblem() {
	data := []byte(`{
	  "initialGraph": {"boxes": [{"boxId": "B1", "kind": "floating", "center": {"x": 0, "y": 0}}], "pins": []},
	  "targetGraph": {"boxes": [], "pins": []},
	  "costConfiguration": {"baseOperationCost": 2}
	}`)

	p, err := graph.UnmarshalProblem(data)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("boxes:", len(p.InitialGraph.Boxes), "->", len(p.TargetGraph.Boxes))
	fmt.Println("base cost:", *p.CostConfiguration.BaseOperationCost)
	// Output:
	// boxes: 1 -> 0
	// base cost: 2
}
