package render_test

import (
	"fmt"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/render"
)

func ExampleToDOT() {
	g := bpc.Graph{
		Boxes: []bpc.Box{{BoxID: "R1", Kind: bpc.Fixed}},
		Pins: []bpc.Pin{
			{BoxID: "R1", PinID: "1", Offset: bpc.Point{X: -0.5}, Color: "red", NetworkID: "N1"},
		},
	}
	fmt.Print(render.ToDOT(g, render.Options{}))
	// Output:
	// graph G {
	//   bgcolor="transparent";
	//   splines=true;
	//   node [shape=box, style="filled", fillcolor=white, fontsize=10, fixedsize=true];
	//
	//   "R1" [label="R1", pos="0,0!", width=1, height=1, fillcolor=lightgrey];
	//
	//   "R1/1" [shape=point, width=0.1, color="red", pos="-0.5,0!"];
	//
	// }
}

func ExampleGraphics() {
	g := bpc.Graph{
		Boxes: []bpc.Box{{BoxID: "A", Kind: bpc.Floating}, {BoxID: "B", Kind: bpc.Floating, Center: bpc.Point{X: 3}}},
		Pins: []bpc.Pin{
			{BoxID: "A", PinID: "1", Offset: bpc.Point{X: 0.5}, Color: "red", NetworkID: "N1"},
			{BoxID: "B", PinID: "1", Offset: bpc.Point{X: -0.5}, Color: "red", NetworkID: "N1"},
		},
	}
	gfx := render.Graphics(g, nil)
	for _, l := range gfx.Lines {
		fmt.Println(l.Label, l.Points)
	}
	// Output:
	// N1 [{0.5 0} {2.5 0}]
}
