package render

import (
	"fmt"
	"math"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/ops"
)

// minBoxSize is the width and height of a box without pins on that axis.
const minBoxSize = 1.0

// chainLineHeight is the vertical spacing of operation labels.
const chainLineHeight = 0.5

// networkPalette colors network lines by position in the sorted network list.
var networkPalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// GraphicsObject is a drawable description of a graph.
type GraphicsObject struct {
	Title  string     `json:"title,omitempty"`
	Rects  []Rect     `json:"rects"`
	Points []Dot      `json:"points"`
	Lines  []Polyline `json:"lines"`
	Texts  []Text     `json:"texts"`
}

// Rect is an axis-aligned rectangle centered on Center.
type Rect struct {
	Center bpc.Point `json:"center"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Fill   string    `json:"fill,omitempty"`
	Label  string    `json:"label,omitempty"`
}

// Dot is a single marked point.
type Dot struct {
	bpc.Point
	Color string `json:"color,omitempty"`
	Label string `json:"label,omitempty"`
}

// Polyline connects Points in order.
type Polyline struct {
	Points      []bpc.Point `json:"points"`
	StrokeColor string      `json:"strokeColor,omitempty"`
	Label       string      `json:"label,omitempty"`
}

// Text is a label anchored at its top-left corner.
type Text struct {
	bpc.Point
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}

// Graphics describes g for drawing. When chain is non-empty one text line per
// operation is stacked above the graph.
func Graphics(g bpc.Graph, chain []ops.Operation) GraphicsObject {
	out := GraphicsObject{
		Rects:  make([]Rect, 0, len(g.Boxes)),
		Points: make([]Dot, 0, len(g.Pins)),
		Lines:  []Polyline{},
		Texts:  make([]Text, 0, len(g.Boxes)+len(chain)),
	}

	boxes := make(map[string]bpc.Box, len(g.Boxes))
	for _, b := range g.Boxes {
		boxes[b.BoxID] = b
		w, h := boxSize(g.PinsOf(b.BoxID))
		fill := "white"
		if b.IsFixed() {
			fill = "lightgrey"
		}
		out.Rects = append(out.Rects, Rect{Center: b.Center, Width: w, Height: h, Fill: fill, Label: b.BoxID})
		out.Texts = append(out.Texts, Text{Point: b.Center, Text: b.BoxID})
	}

	for _, p := range g.Pins {
		out.Points = append(out.Points, Dot{
			Point: bpc.PinPosition(boxes[p.BoxID], p),
			Color: p.Color,
			Label: p.BoxID + "/" + p.PinID,
		})
	}

	for i, net := range g.Networks() {
		if len(net.Pins) < 2 {
			continue
		}
		line := Polyline{
			StrokeColor: networkPalette[i%len(networkPalette)],
			Label:       net.NetworkID,
		}
		for _, p := range net.Pins {
			line.Points = append(line.Points, bpc.PinPosition(boxes[p.BoxID], p))
		}
		out.Lines = append(out.Lines, line)
	}

	if len(chain) > 0 {
		bb := bpc.Bounds(g)
		for i, op := range chain {
			out.Texts = append(out.Texts, Text{
				Point: bpc.Point{X: bb.MinX, Y: bb.MaxY + 1 + float64(i)*chainLineHeight},
				Text:  fmt.Sprintf("%d. %s", i+1, op),
				Color: "grey",
			})
		}
	}
	return out
}

// boxSize returns the smallest size that keeps every pin on or inside the
// box outline.
func boxSize(pins []bpc.Pin) (w, h float64) {
	var hw, hh float64
	for _, p := range pins {
		hw = math.Max(hw, math.Abs(p.Offset.X))
		hh = math.Max(hh, math.Abs(p.Offset.Y))
	}
	return math.Max(2*hw, minBoxSize), math.Max(2*hh, minBoxSize)
}
