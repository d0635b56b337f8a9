package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
)

// DefaultScale is the number of inches one graph unit spans in DOT output.
const DefaultScale = 1.0

// Options configures DOT generation.
type Options struct {
	// Scale converts graph units to inches. Zero means DefaultScale.
	Scale float64
	// PinLabels draws "box/pin" next to every pin.
	PinLabels bool
}

// ToDOT converts a graph to Graphviz DOT source. Boxes and pins are placed
// at their graph positions with pinned (pos="x,y!") coordinates so the
// neato engine draws them where they are. Networks become edges between
// consecutive pins of the network.
func ToDOT(g bpc.Graph, opts Options) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=box, style=\"filled\", fillcolor=white, fontsize=10, fixedsize=true];\n")
	buf.WriteString("\n")

	boxes := make(map[string]bpc.Box, len(g.Boxes))
	for _, b := range g.Boxes {
		boxes[b.BoxID] = b
		w, h := boxSize(g.PinsOf(b.BoxID))
		attrs := []string{
			fmt.Sprintf("label=%q", b.BoxID),
			fmtPos(b.Center, scale),
			fmt.Sprintf("width=%s", fmtFloat(w*scale)),
			fmt.Sprintf("height=%s", fmtFloat(h*scale)),
		}
		if b.IsFixed() {
			attrs = append(attrs, "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", b.BoxID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, p := range g.Pins {
		attrs := []string{
			"shape=point",
			"width=0.1",
			fmt.Sprintf("color=%q", p.Color),
			fmtPos(bpc.PinPosition(boxes[p.BoxID], p), scale),
		}
		if opts.PinLabels {
			attrs = append(attrs, fmt.Sprintf("xlabel=%q", pinNode(p)))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", pinNode(p), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, net := range g.Networks() {
		for i := 1; i < len(net.Pins); i++ {
			fmt.Fprintf(&buf, "  %q -- %q [label=%q];\n", pinNode(net.Pins[i-1]), pinNode(net.Pins[i]), net.NetworkID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func pinNode(p bpc.Pin) string { return p.BoxID + "/" + p.PinID }

func fmtPos(p bpc.Point, scale float64) string {
	return fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(p.X*scale), fmtFloat(p.Y*scale))
}

func fmtFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// RenderSVG renders DOT source to SVG with the neato engine, which honors
// pinned positions.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's fixed pt dimensions with a viewBox
// so the SVG scales with its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
