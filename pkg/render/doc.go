// Package render draws BPC graphs for debugging.
//
// # Overview
//
// Two representations are produced:
//
//   - [Graphics]: a JSON-friendly list of rects, points, lines and texts that
//     front ends can draw directly. Boxes become rects, pins become points in
//     their pin color and every network becomes a polyline through its pins.
//   - DOT: Graphviz source with pinned node positions, rendered to SVG with
//     [RenderSVG] through the embedded Graphviz (neato engine).
//
// # Usage
//
//	gfx := render.Graphics(g, chain)
//	data, _ := json.Marshal(gfx)
//
//	dot := render.ToDOT(g, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert an SVG drawing with the external rsvg-convert
// tool from librsvg. Without it they return an UNSUPPORTED error.
//
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2)
package render
